// Package ai contiene los controllers de /api/ai/*.
package ai

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	domain "github.com/manasv777/investiq-hacknc/internal/ai"
	"github.com/manasv777/investiq-hacknc/internal/http/dto"
	httperrors "github.com/manasv777/investiq-hacknc/internal/http/errors"
	"github.com/manasv777/investiq-hacknc/internal/http/helpers"
	svc "github.com/manasv777/investiq-hacknc/internal/http/services/ai"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
)

// RateLimitRetryAfter son los segundos que se sugieren al cliente cuando el
// proveedor sigue limitando después de los reintentos.
const RateLimitRetryAfter = 30

type AIController struct {
	service svc.Service
}

func NewAIController(service svc.Service) *AIController {
	return &AIController{service: service}
}

// Complete maneja POST /api/ai/complete.
func (c *AIController) Complete(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("AIController.Complete"))

	var req dto.CompleteRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, err := c.service.Complete(r.Context(), req)
	switch {
	case err == nil:
		helpers.WriteJSON(w, http.StatusOK, resp)
	case errors.Is(err, domain.ErrEmptyPrompt):
		helpers.WriteJSON(w, http.StatusBadRequest, dto.AIError{Error: "Invalid prompt"})
	case domain.IsRateLimited(err):
		log.Warn("provider quota exceeded after retries", logger.SessionID(req.SessionID))
		w.Header().Set("Retry-After", strconv.Itoa(RateLimitRetryAfter))
		helpers.WriteJSON(w, http.StatusTooManyRequests, dto.AIError{
			Error:      "Gemini API quota exceeded",
			Details:    "The AI service is temporarily rate-limited. Please try again in a few moments.",
			RetryAfter: RateLimitRetryAfter,
		})
	default:
		log.Error("completion failed", logger.Err(err))
		helpers.WriteJSON(w, http.StatusInternalServerError, dto.AIError{Error: "AI error occurred", Details: err.Error()})
	}
}

// Classify maneja POST /api/ai/classify.
func (c *AIController) Classify(w http.ResponseWriter, r *http.Request) {
	var req dto.ClassifyRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	resp, err := c.service.Classify(r.Context(), req)
	if errors.Is(err, domain.ErrEmptyPrompt) {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Invalid text"))
		return
	}
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("classification error").WithCause(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Explain maneja POST /api/ai/explain. Responde desde la tabla fija, sin
// llamar al modelo.
func (c *AIController) Explain(w http.ResponseWriter, r *http.Request) {
	var req dto.ExplainRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("topic"))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, c.service.Explain(req.Topic))
}
