package handlers

import (
	"net/http"
)

type HealthResponse struct {
	Success  bool   `json:"success"`
	Database string `json:"database"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		if err := h.DB.HealthCheck(r.Context()); err != nil {
			h.Logger.WarnContext(r.Context(), "health check failed", "error", err)
			WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Success: false, Database: "unavailable"})
			return
		}
	}

	WriteJSON(w, http.StatusOK, HealthResponse{Success: true, Database: "ok"})
}
