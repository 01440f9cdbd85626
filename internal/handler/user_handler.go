package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

type FollowStatusResponse struct {
	Success     bool `json:"success"`
	IsFollowing bool `json:"isFollowing"`
}

// itemIDVar reads the item id from either route variable name.
func itemIDVar(r *http.Request) string {
	vars := mux.Vars(r)
	if id := vars["itemId"]; id != "" {
		return id
	}
	return vars["id"]
}

// FollowItem serves both POST /users/follow/{itemId} and the legacy
// PATCH /items/follow/{id}; both run the same checked follow.
func (h *Handlers) FollowItem(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if err := h.FollowService.Follow(r.Context(), userID, itemIDVar(r)); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeOK(w, "Item followed")
}

func (h *Handlers) UnfollowItem(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if err := h.FollowService.Unfollow(r.Context(), userID, itemIDVar(r)); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeOK(w, "Item unfollowed")
}

func (h *Handlers) IsFollowing(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	following, err := h.FollowService.IsFollowing(r.Context(), userID, itemIDVar(r))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, FollowStatusResponse{Success: true, IsFollowing: following})
}

func (h *Handlers) ListFollowedItems(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	items, err := h.FollowService.ListFollowedItems(r.Context(), userID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, items)
}
