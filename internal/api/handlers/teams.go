package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/holden/retroboard/internal/api/dto"
	"github.com/holden/retroboard/internal/api/middleware"
	"github.com/holden/retroboard/internal/team"
)

type TeamHandler struct {
	teamService *team.Service
}

func NewTeamHandler(teamService *team.Service) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

// Create makes a new team with the caller as facilitator. Admin accounts
// only.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req dto.CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	created, err := h.teamService.CreateTeam(r.Context(), *sess.UserID, req.Name)
	if err != nil {
		writeTeamError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"team": created})
}

// Join admits the caller into the team behind the invite code and returns
// the team with its roster.
func (h *TeamHandler) Join(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req dto.JoinTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	details, err := h.teamService.JoinTeam(r.Context(), *sess.UserID, req.InviteCode)
	if err != nil {
		writeTeamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// List returns the caller's teams, most recently joined first.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	teams, err := h.teamService.GetUserTeams(r.Context(), *sess.UserID)
	if err != nil {
		writeTeamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"teams": teams})
}

// Details returns one team with its roster, oldest members first.
func (h *TeamHandler) Details(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid team ID"})
		return
	}

	details, err := h.teamService.GetTeamDetails(r.Context(), teamID, *sess.UserID)
	if err != nil {
		writeTeamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

func writeTeamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, team.ErrInvalidTeamName), errors.Is(err, team.ErrInvalidInviteCode):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, team.ErrForbidden), errors.Is(err, team.ErrNotTeamMember):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, team.ErrUserNotFound), errors.Is(err, team.ErrInviteNotFound), errors.Is(err, team.ErrTeamNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, team.ErrAlreadyMember), errors.Is(err, team.ErrCodeExhausted):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Team operation failed"})
	}
}
