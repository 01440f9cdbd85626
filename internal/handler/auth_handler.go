package handlers

import (
	"net/http"
	"strings"

	"lostfound/internal/apperr"
	"lostfound/internal/auth"
	"lostfound/internal/models"
	"lostfound/internal/service"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyRequest struct {
	Token string `json:"token"`
}

type LoginResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	Data    *models.User `json:"data"`
}

// callerID returns the user resolved by the auth middleware.
func callerID(r *http.Request) (string, error) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		return "", apperr.Unauthorized("authentication required")
	}
	return userID, nil
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	user, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, user)
}

// VerifyEmail accepts the token as JSON body or as ?token= for mailed links.
func (h *Handlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" && r.Method == http.MethodPost {
		var req VerifyRequest
		if err := h.decodeJSON(r, &req); err != nil {
			h.writeAppError(w, r, err)
			return
		}
		token = req.Token
	}

	if _, err := h.AuthService.VerifyEmail(r.Context(), strings.TrimSpace(token)); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeOK(w, "Email verified")
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	user, token, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, LoginResponse{Success: true, Token: token, Data: user})
}

func (h *Handlers) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	user, err := h.AuthService.Me(r.Context(), userID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, user)
}
