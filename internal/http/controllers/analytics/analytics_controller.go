// Package analytics contiene el controller del dashboard.
package analytics

import (
	"context"
	"net/http"

	domain "github.com/manasv777/investiq-hacknc/internal/analytics"
	httperrors "github.com/manasv777/investiq-hacknc/internal/http/errors"
	"github.com/manasv777/investiq-hacknc/internal/http/helpers"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
)

type Summarizer interface {
	Summary(ctx context.Context) (domain.Summary, error)
}

type AnalyticsController struct {
	svc Summarizer
}

func NewAnalyticsController(s Summarizer) *AnalyticsController {
	return &AnalyticsController{svc: s}
}

// Summary maneja GET /api/analytics.
func (c *AnalyticsController) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := c.svc.Summary(r.Context())
	if err != nil {
		logger.From(r.Context()).Error("analytics failed", logger.Layer("controller"), logger.Op("AnalyticsController.Summary"), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("Failed to fetch analytics").WithCause(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, sum)
}
