// Package health contiene el service para health checks.
package health

import (
	"context"
	"os"
	"time"

	"github.com/manasv777/investiq-hacknc/internal/http/dto"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
)

type Service interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps: StoreCheck es crítico; CacheCheck solo degrada. Los proveedores
// externos se reportan como configurados o no, sin llamarlos.
type Deps struct {
	StoreCheck func(ctx context.Context) error
	CacheCheck func(ctx context.Context) error
	Providers  map[string]bool
	Timeout    time.Duration
}

type healthService struct {
	deps Deps
	now  func() time.Time
}

func NewService(deps Deps) Service {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps, now: time.Now}
}

const componentHealth = "health"

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component(componentHealth), logger.Op("Check"))

	resp := dto.HealthResponse{
		Status:     "ready",
		Version:    os.Getenv("SERVICE_VERSION"),
		Components: make(map[string]dto.HealthStatus),
		Timestamp:  s.now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()

	if s.deps.StoreCheck == nil {
		resp.Components["store"] = dto.HealthStatus{Status: "error", Message: "store not initialized"}
		resp.Status = "unavailable"
	} else if err := s.deps.StoreCheck(ctx); err != nil {
		resp.Components["store"] = dto.HealthStatus{Status: "error", Message: err.Error()}
		resp.Status = "unavailable"
		log.Error("store unavailable", logger.Err(err))
	} else {
		resp.Components["store"] = dto.HealthStatus{Status: "ok"}
	}

	if s.deps.CacheCheck != nil {
		if err := s.deps.CacheCheck(ctx); err != nil {
			resp.Components["cache"] = dto.HealthStatus{Status: "error", Message: err.Error()}
			if resp.Status == "ready" {
				resp.Status = "degraded"
			}
			log.Warn("cache unavailable", logger.Err(err))
		} else {
			resp.Components["cache"] = dto.HealthStatus{Status: "ok"}
		}
	}

	for name, configured := range s.deps.Providers {
		if configured {
			resp.Components[name] = dto.HealthStatus{Status: "ok"}
		} else {
			resp.Components[name] = dto.HealthStatus{Status: "disabled", Message: "not configured"}
		}
	}
	return resp
}
