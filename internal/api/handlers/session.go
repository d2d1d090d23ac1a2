package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/holden/retroboard/internal/api/dto"
	"github.com/holden/retroboard/internal/api/middleware"
	"github.com/holden/retroboard/internal/session"
)

type SessionHandler struct {
	sessionService *session.Service
}

func NewSessionHandler(sessionService *session.Service) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Initialize resumes the session behind the presented token or creates a
// fresh anonymous one. The token may arrive in the body or as a bearer
// header.
func (h *SessionHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req dto.InitializeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	token := req.Token
	if token == "" {
		if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	result, err := h.sessionService.Initialize(r.Context(), token, req.DisplayName)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to initialize session"})
		return
	}

	// Cookie for browser clients; API clients keep using the token field
	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    result.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   7 * 24 * 3600,
	})

	writeJSON(w, http.StatusOK, result)
}

// Me returns the session resolved from the request token.
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": sess})
}

func (h *SessionHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req dto.UpdateDisplayNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	updated, err := h.sessionService.UpdateDisplayName(r.Context(), sess.ID, req.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidDisplayName):
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Valid display name is required"})
		case errors.Is(err, session.ErrSessionNotFound):
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Session not found"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update display name"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": updated})
}

// JoinTeam records a team linkage on the session itself. The membership
// manager's join endpoint is the authoritative path.
func (h *SessionHandler) JoinTeam(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req dto.SessionJoinTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	teamID, err := uuid.Parse(req.TeamID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid team ID"})
		return
	}

	updated, err := h.sessionService.JoinTeam(r.Context(), sess.ID, teamID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Session not found"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to join team"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": updated})
}

// Clear deletes the session. Clearing an already-cleared session still
// succeeds.
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.GetSession(r.Context()); sess != nil {
		if err := h.sessionService.Clear(r.Context(), sess.ID); err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to clear session"})
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
