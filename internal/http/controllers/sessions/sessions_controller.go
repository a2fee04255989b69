// Package sessions contiene los controllers de sesiones y logs de onboarding.
package sessions

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/manasv777/investiq-hacknc/internal/http/dto"
	httperrors "github.com/manasv777/investiq-hacknc/internal/http/errors"
	"github.com/manasv777/investiq-hacknc/internal/http/helpers"
	svc "github.com/manasv777/investiq-hacknc/internal/http/services/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
	"github.com/manasv777/investiq-hacknc/internal/store"
)

type SessionsController struct {
	service svc.Service
}

func NewSessionsController(s svc.Service) *SessionsController {
	return &SessionsController{service: s}
}

// List maneja GET /api/sessions.
func (c *SessionsController) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := c.service.ListSessions(r.Context())
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("Failed to fetch sessions").WithCause(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.SessionListResponse{Sessions: sessions, Count: len(sessions)})
}

// Get maneja GET /api/sessions/{id}.
func (c *SessionsController) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := c.service.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.SessionResponse{Session: rec})
}

// Logs maneja GET /api/sessions/{id}/logs.
func (c *SessionsController) Logs(w http.ResponseWriter, r *http.Request) {
	out, err := c.service.SessionLogs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// Upsert maneja POST /api/sessions.
func (c *SessionsController) Upsert(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("SessionsController.Upsert"))

	var req dto.UpsertSessionRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	rec, err := c.service.UpsertSession(r.Context(), req)
	if errors.Is(err, svc.ErrInvalidUpdate) {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail(err.Error()))
		return
	}
	if err != nil {
		log.Error("upsert failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("Failed to manage session").WithCause(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.SessionResponse{Session: rec})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("session not found"))
		return
	}
	httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
}
