package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/holden/retroboard/internal/api/dto"
	"github.com/holden/retroboard/internal/session"
)

type AdminHandler struct {
	cleanupService   *session.CleanupService
	defaultThreshold time.Duration
}

func NewAdminHandler(cleanupService *session.CleanupService, defaultThreshold time.Duration) *AdminHandler {
	return &AdminHandler{
		cleanupService:   cleanupService,
		defaultThreshold: defaultThreshold,
	}
}

// Cleanup runs an on-demand expiry sweep, independent of the schedule.
func (h *AdminHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req dto.CleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	threshold := h.defaultThreshold
	if req.ThresholdMinutes > 0 {
		threshold = time.Duration(req.ThresholdMinutes) * time.Minute
	}

	deleted, err := h.cleanupService.CleanupExpired(r.Context(), threshold)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Cleanup failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": deleted})
}

// Stats reports point-in-time session counts.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cleanupService.GetStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get session stats"})
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
