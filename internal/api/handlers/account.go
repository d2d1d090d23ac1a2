package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/holden/retroboard/internal/api/dto"
	"github.com/holden/retroboard/internal/api/middleware"
	"github.com/holden/retroboard/internal/database/models"
	"github.com/holden/retroboard/internal/session"
)

type AccountHandler struct {
	sessionService *session.Service
}

func NewAccountHandler(sessionService *session.Service) *AccountHandler {
	return &AccountHandler{sessionService: sessionService}
}

// Upgrade registers a permanent account for the current session.
func (h *AccountHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req dto.UpgradeAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	account, err := h.sessionService.UpgradeToAccount(r.Context(), sess.ID, req.Email, req.DisplayName, req.Role)
	if err != nil {
		writeAccountError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"account": accountDTO(account)})
}

// Link reconnects the current session to an already-registered account by
// email.
func (h *AccountHandler) Link(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req dto.LinkAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	account, err := h.sessionService.LinkToExistingAccount(r.Context(), sess.ID, req.Email)
	if err != nil {
		writeAccountError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"account": accountDTO(account)})
}

func writeAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Session not found"})
	case errors.Is(err, session.ErrAlreadyLinked):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Session is already linked to an account"})
	case errors.Is(err, session.ErrInvalidEmail), errors.Is(err, session.ErrInvalidRole):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Email already registered"})
	case errors.Is(err, session.ErrAccountNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "No account found with that email"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Account operation failed"})
	}
}

func accountDTO(u *models.User) dto.AccountDTO {
	return dto.AccountDTO{
		ID:          u.ID.String(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
	}
}
