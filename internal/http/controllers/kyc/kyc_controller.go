// Package kyc contiene el controller de verificación de identidad.
package kyc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/manasv777/investiq-hacknc/internal/http/dto"
	httperrors "github.com/manasv777/investiq-hacknc/internal/http/errors"
	"github.com/manasv777/investiq-hacknc/internal/http/helpers"
	"github.com/manasv777/investiq-hacknc/internal/kyc"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
)

type SessionCreator interface {
	CreateSession(ctx context.Context, req kyc.Request) (kyc.Session, error)
}

type KYCController struct {
	creator SessionCreator
}

func NewKYCController(c SessionCreator) *KYCController {
	return &KYCController{creator: c}
}

// CreateSession maneja POST /api/kyc/veriff/session.
func (c *KYCController) CreateSession(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("KYCController.CreateSession"), logger.Provider(kyc.Provider))

	var req dto.KYCSessionRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("sessionId"))
		return
	}

	sess, err := c.creator.CreateSession(r.Context(), kyc.Request{SessionID: req.SessionID, Person: req.Person})
	var upstream *kyc.UpstreamError
	switch {
	case err == nil:
		log.Info("kyc session created", logger.SessionID(req.SessionID))
		helpers.WriteJSON(w, http.StatusOK, sess)
	case errors.Is(err, kyc.ErrNotConfigured):
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithDetail("identity verification is unavailable"))
	case errors.As(err, &upstream):
		log.Warn("kyc upstream error", logger.Status(upstream.Status))
		httperrors.WriteError(w, httperrors.ErrBadGateway.WithDetail("Failed to create session").WithCause(err))
	default:
		log.Error("kyc session error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("KYC session error").WithCause(err))
	}
}
