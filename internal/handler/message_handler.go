package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"lostfound/internal/models"
	"lostfound/internal/service"
)

type SendMessageResponse struct {
	Success bool            `json:"success"`
	Message *models.Message `json:"message"`
}

type ThreadResponse struct {
	Success  bool             `json:"success"`
	Messages []models.Message `json:"messages"`
}

type ConversationsResponse struct {
	Success       bool                  `json:"success"`
	Conversations []models.Conversation `json:"conversations"`
}

type UnreadCountResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req service.SendMessageRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	req.SenderID = userID

	msg, err := h.MessageService.Send(r.Context(), req)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, SendMessageResponse{Success: true, Message: msg})
}

func (h *Handlers) GetThread(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	messages, err := h.MessageService.ListThread(r.Context(), userID, mux.Vars(r)["partnerId"])
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, ThreadResponse{Success: true, Messages: messages})
}

func (h *Handlers) GetConversations(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	conversations, err := h.MessageService.Conversations(r.Context(), userID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, ConversationsResponse{Success: true, Conversations: conversations})
}

func (h *Handlers) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	count, err := h.NotificationService.UnreadCount(r.Context(), userID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, UnreadCountResponse{Success: true, Count: count})
}
