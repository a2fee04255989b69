package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/manasv777/investiq-hacknc/internal/metrics"
)

// WithMetrics instrumenta requests con contador, latencia e inflight.
// Se monta con chi.Router.Use: la etiqueta es el patrón de ruta, no el path.
func WithMetrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			metrics.HTTPInflight.Inc()
			start := time.Now()
			rec := newStatusRecorder(w)

			defer func() {
				metrics.HTTPInflight.Dec()
				route := "unmatched"
				if rctx := chi.RouteContext(r.Context()); rctx != nil {
					if p := rctx.RoutePattern(); p != "" {
						route = p
					}
				}
				metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
				metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
