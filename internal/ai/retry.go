package ai

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy controla los reintentos ante rate limits. Otros errores no se reintentan.
type RetryPolicy struct {
	// MaxAttempts cuenta la llamada inicial. 3 = una llamada + dos reintentos.
	MaxAttempts int
	// Espera antes del reintento n (n>=1): BaseDelay*2^n + rand[0, MaxJitter).
	BaseDelay time.Duration
	MaxJitter time.Duration
	// OnRetry se llama antes de cada espera (métricas/logs). Opcional.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryPolicy: 3 intentos, esperas de ~2s y ~4s.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   time.Second,
	MaxJitter:   500 * time.Millisecond,
}

// Delay calcula la espera antes del reintento número attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if p.MaxJitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.MaxJitter)))
	}
	return d
}

// Retry ejecuta fn hasta MaxAttempts veces mientras falle por rate limit.
// Retorna el último error. Respeta la cancelación de ctx durante la espera.
func Retry(ctx context.Context, p RetryPolicy, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil || !IsRateLimited(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return err
}

// WithRetry envuelve c con la política p.
func WithRetry(c Completer, p RetryPolicy) Completer {
	return CompleterFunc(func(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
		var out CompletionResponse
		err := Retry(ctx, p, func(ctx context.Context) error {
			var err error
			out, err = c.Complete(ctx, req)
			return err
		})
		return out, err
	})
}
