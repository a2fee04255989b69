// Package metrics agrupa las métricas Prometheus del dominio y del edge HTTP.
// Vive aparte para que wizard, assistant y http las compartan sin ciclos.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	StepsAdvanced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "onboarding_steps_advanced_total",
		Help: "Pasos completados por el wizard, por paso de origen",
	}, []string{"step"})

	Submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "onboarding_submissions_total",
		Help: "Envíos finales por resultado (ok|failed|duplicate)",
	}, []string{"result"})

	EventLogFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "onboarding_event_log_failures_total",
		Help: "Logs de paso best-effort que fallaron",
	})

	AICompletions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ai_completions_total",
		Help: "Completions del asistente por resultado (ok|rate_limited|error)",
	}, []string{"result"})

	AIRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ai_completion_retries_total",
		Help: "Reintentos por rate limit hacia el proveedor de IA",
	})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	HTTPInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo",
	})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		StepsAdvanced, Submissions, EventLogFailures,
		AICompletions, AIRetries,
		HTTPRequests, HTTPDuration, HTTPInflight,
	}
}

// Register registra todas las métricas en reg (default si es nil). Duplicados se ignoran.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}

// Onboarding implementa los hooks de métricas de wizard y assistant sobre los vectores globales.
type Onboarding struct{}

func (Onboarding) StepAdvanced(step string) { StepsAdvanced.WithLabelValues(step).Inc() }
func (Onboarding) Submission(result string) { Submissions.WithLabelValues(result).Inc() }
func (Onboarding) EventLogFailed()          { EventLogFailures.Inc() }
func (Onboarding) Completion(result string) { AICompletions.WithLabelValues(result).Inc() }

// Retry tiene la firma de ai.RetryPolicy.OnRetry.
func (Onboarding) Retry(int, time.Duration, error) { AIRetries.Inc() }
