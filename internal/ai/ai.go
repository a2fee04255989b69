// Package ai define los contratos del asistente (completar y clasificar)
// junto con la política de reintentos para rate limits, la heurística de
// avance de paso y los textos fijos del asistente.
//
// Los clientes concretos viven en subpaquetes (gemini) o en
// internal/client cuando el CLI habla con el servicio.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/manasv777/investiq-hacknc/internal/onboarding"
)

// CompletionRequest es un turno de chat con su contexto de sesión.
type CompletionRequest struct {
	Prompt      string          `json:"prompt"`
	Context     map[string]any  `json:"context,omitempty"`
	SessionID   string          `json:"sessionId,omitempty"`
	CurrentStep onboarding.Step `json:"currentStep,omitempty"`
}

// CompletionResponse es la respuesta del modelo. NextStep vacío = no mover.
type CompletionResponse struct {
	Text     string          `json:"text"`
	NextStep onboarding.Step `json:"nextStep,omitempty"`
	Model    string          `json:"model,omitempty"`
	At       time.Time       `json:"timestamp"`
}

// Completer produce la respuesta del asistente a un turno.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// Classifier elige exactamente una etiqueta para text.
type Classifier interface {
	Classify(ctx context.Context, text string, labels []string) (string, error)
}

// DefaultLabels se usan cuando Classify recibe labels vacío.
var DefaultLabels = []string{"Beginner", "Intermediate", "Advanced"}

// ErrEmptyPrompt se retorna ante un prompt vacío.
var ErrEmptyPrompt = errors.New("ai: empty prompt")

// RateLimitError indica que el proveedor rechazó por cuota (HTTP 429).
type RateLimitError struct {
	RetryAfter time.Duration
	Msg        string
}

func (e *RateLimitError) Error() string {
	if e.Msg != "" {
		return "ai: rate limited: " + e.Msg
	}
	return "ai: rate limited"
}

// IsRateLimited reporta si err (o algo que envuelve) es un RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// CompleterFunc adapta una función a Completer.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	return f(ctx, req)
}

// UpstreamError es una respuesta no-2xx del proveedor que no es rate limit.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ai: %s returned %d: %s", e.Provider, e.Status, e.Body)
}
