// Package router arma el árbol de rutas chi y la cadena de middlewares.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/manasv777/investiq-hacknc/internal/http/controllers"
	httperrors "github.com/manasv777/investiq-hacknc/internal/http/errors"
	mw "github.com/manasv777/investiq-hacknc/internal/http/middlewares"
	"github.com/manasv777/investiq-hacknc/internal/rate"
)

type Deps struct {
	Controllers *controllers.Controllers

	// Metrics sirve /metrics. nil = no se expone.
	Metrics http.Handler

	CORSOrigins    []string
	RateLimiter    rate.Limiter // opcional
	Bearer         mw.BearerConfig
	RequestTimeout time.Duration
}

// infraPaths no pasan por rate limit.
var infraPaths = []string{"/readyz", "/metrics"}

// New construye el handler del servicio.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithRecover(),
		mw.WithMetrics(),
		mw.WithSecurityHeaders(),
		mw.WithCORS(d.CORSOrigins),
		mw.WithRateLimit(mw.RateLimitConfig{Limiter: d.RateLimiter, Whitelist: infraPaths}),
		mw.WithBearerIdentity(d.Bearer),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, d)
	r.Route("/api", func(r chi.Router) {
		r.Use(mw.WithNoStore())
		if d.RequestTimeout > 0 {
			r.Use(chimw.Timeout(d.RequestTimeout))
		}
		registerAIRoutes(r, d.Controllers)
		registerProxyRoutes(r, d.Controllers)
		registerOnboardingRoutes(r, d.Controllers)
	})
	return r
}

func registerHealthRoutes(r chi.Router, d Deps) {
	r.Get("/readyz", d.Controllers.Health.Readyz)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
}

func registerAIRoutes(r chi.Router, c *controllers.Controllers) {
	r.Route("/ai", func(r chi.Router) {
		r.Post("/complete", c.AI.Complete)
		r.Post("/classify", c.AI.Classify)
		r.Post("/explain", c.AI.Explain)
	})
}

// registerProxyRoutes monta los proxies a proveedores externos y el OCR.
func registerProxyRoutes(r chi.Router, c *controllers.Controllers) {
	r.Post("/voice/speak", c.Voice.Speak)
	r.Post("/kyc/veriff/session", c.KYC.CreateSession)
	r.Post("/ocr/scan", c.OCR.Scan)
}

func registerOnboardingRoutes(r chi.Router, c *controllers.Controllers) {
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", c.Sessions.List)
		r.Post("/", c.Sessions.Upsert)
		r.Get("/{id}", c.Sessions.Get)
		r.Get("/{id}/logs", c.Sessions.Logs)
	})
	r.Post("/logs/append", c.Logs.Append)
	r.Post("/logs/faq", c.Logs.FAQ)
	r.Get("/analytics", c.Analytics.Summary)
}
