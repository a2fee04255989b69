// Package health contiene el controller para health checks.
package health

import (
	"net/http"

	"github.com/manasv777/investiq-hacknc/internal/http/helpers"
	svc "github.com/manasv777/investiq-hacknc/internal/http/services/health"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
)

type HealthController struct {
	service svc.Service
}

func NewHealthController(service svc.Service) *HealthController {
	return &HealthController{service: service}
}

// Readyz maneja GET /readyz. 503 solo cuando un componente crítico cae.
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	resp := c.service.Check(r.Context())
	if resp.Version != "" {
		w.Header().Set("X-Service-Version", resp.Version)
	}

	status := http.StatusOK
	if resp.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}
	log.Debug("health check completed",
		logger.String("status", resp.Status),
		logger.Int("components_count", len(resp.Components)),
	)
	helpers.WriteJSON(w, status, resp)
}
