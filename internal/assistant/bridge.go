// Package assistant conecta el chat con el wizard: agrega los turnos al
// transcript, consulta al Completer y, si la respuesta sugiere otro paso,
// avanza con la misma transición que usa el controller.
package assistant

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/manasv777/investiq-hacknc/internal/ai"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
	"github.com/manasv777/investiq-hacknc/internal/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/session"
	"github.com/manasv777/investiq-hacknc/internal/wizard"
)

// Resultados para Metrics.Completion.
const (
	ResultOK          = "ok"
	ResultRateLimited = "rate_limited"
	ResultError       = "error"
)

// Metrics son los hooks de métricas del bridge. metrics.Onboarding los implementa.
type Metrics interface {
	Completion(result string)
	Retry(attempt int, delay time.Duration, err error)
}

// Deps del bridge. Store y Completer son obligatorios.
type Deps struct {
	Store     *session.Store
	Completer ai.Completer
	// Retry se aplica alrededor de Completer. MaxAttempts 0 = ai.DefaultRetryPolicy.
	Retry ai.RetryPolicy
	// Events recibe cada intercambio exitoso (log de FAQ). Opcional.
	Events  wizard.EventLogger
	Metrics Metrics
	// Timeout por turno, reintentos incluidos. 0 = sin límite propio.
	Timeout time.Duration
	Now     func() time.Time
}

// Reply es lo que ve el usuario después de un turno.
type Reply struct {
	Text   string          `json:"text"`
	Failed bool            `json:"failed"`
	Moved  bool            `json:"moved"`
	Step   onboarding.Step `json:"step"`

	// RetryAfter: espera sugerida por el proveedor tras un rate limit.
	RetryAfter time.Duration `json:"retryAfter,omitempty"`
}

// Bridge serializa sus llamadas: el transcript queda en el orden en que se
// emitieron los turnos y dos respuestas nunca mueven el paso en paralelo.
type Bridge struct {
	mu        sync.Mutex
	store     *session.Store
	completer ai.Completer
	events    wizard.EventLogger
	metrics   Metrics
	timeout   time.Duration
	now       func() time.Time
}

func New(d Deps) *Bridge {
	policy := d.Retry
	if policy.MaxAttempts == 0 {
		policy = ai.DefaultRetryPolicy
	}
	if d.Metrics != nil && policy.OnRetry == nil {
		policy.OnRetry = d.Metrics.Retry
	}
	b := &Bridge{
		store:     d.Store,
		completer: ai.WithRetry(d.Completer, policy),
		events:    d.Events,
		metrics:   d.Metrics,
		timeout:   d.Timeout,
		now:       d.Now,
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

func (b *Bridge) log(ctx context.Context, op string) *zap.Logger {
	return logger.From(ctx).With(logger.Layer("service"), logger.Component("assistant"), logger.Op(op))
}

// Send procesa un mensaje libre del usuario. Las fallas del completer se
// convierten en un único mensaje genérico y no mueven el paso; solo se
// retorna error si el store no pudo persistir.
func (b *Bridge) Send(ctx context.Context, text string) (Reply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exchange(ctx, text, text, true)
}

// Explain pide una explicación de topic. Nunca mueve el paso.
func (b *Bridge) Explain(ctx context.Context, topic string) (Reply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exchange(ctx, ai.ExplainUserTurn(topic), ai.ExplainPrompt(topic), false)
}

// Welcome agrega el saludo inicial si el transcript está vacío.
func (b *Bridge) Welcome(ctx context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.store.Snapshot().Transcript) > 0 {
		return false, nil
	}
	_, err := b.store.AppendChatMessage(ctx, onboarding.RoleAssistant, ai.WelcomeMessage)
	return err == nil, err
}

func (b *Bridge) exchange(ctx context.Context, shown, prompt string, mayMove bool) (Reply, error) {
	log := b.log(ctx, "exchange")

	if _, err := b.store.AppendChatMessage(ctx, onboarding.RoleUser, shown); err != nil {
		return Reply{}, err
	}
	rec := b.store.Record()
	reply := Reply{Step: rec.CurrentStep}

	cctx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	resp, err := b.completer.Complete(cctx, ai.CompletionRequest{
		Prompt:      prompt,
		SessionID:   rec.SessionID,
		CurrentStep: rec.CurrentStep,
		Context:     completionContext(rec),
	})
	if err != nil {
		result := ResultError
		if ai.IsRateLimited(err) {
			result = ResultRateLimited
		}
		b.count(result)
		log.Warn("completion failed", logger.SessionID(rec.SessionID), logger.Err(err))

		reply.Text = ai.GenericFailureMessage
		reply.Failed = true
		var rl *ai.RateLimitError
		if errors.As(err, &rl) {
			reply.RetryAfter = rl.RetryAfter
		}
		if _, err := b.store.AppendChatMessage(ctx, onboarding.RoleAssistant, reply.Text); err != nil {
			return reply, err
		}
		return reply, nil
	}
	b.count(ResultOK)

	reply.Text = resp.Text
	if _, err := b.store.AppendChatMessage(ctx, onboarding.RoleAssistant, resp.Text); err != nil {
		return reply, err
	}

	if mayMove && resp.NextStep.Valid() && resp.NextStep != rec.CurrentStep {
		if err := b.store.CompleteAndMove(ctx, rec.CurrentStep, resp.NextStep); err != nil {
			// sugerencia inválida para el estado actual: el chat sigue, el paso no cambia
			log.Info("next step hint ignored", logger.Step(string(resp.NextStep)), logger.Err(err))
		} else {
			reply.Moved = true
			reply.Step = resp.NextStep
		}
	}

	b.logFAQ(ctx, rec, shown, resp.Text)
	return reply, nil
}

func (b *Bridge) count(result string) {
	if b.metrics != nil {
		b.metrics.Completion(result)
	}
}

func (b *Bridge) logFAQ(ctx context.Context, rec onboarding.Record, q, a string) {
	if b.events == nil {
		return
	}
	ev := wizard.StepEvent{
		SessionID: rec.SessionID,
		UserID:    rec.UserID,
		Step:      rec.CurrentStep,
		UserInput: onboarding.MaskSensitive(q),
		AIOutput:  a,
		At:        b.now().UTC(),
	}
	if err := b.events.AppendStepEvent(ctx, ev); err != nil {
		b.log(ctx, "log_faq").Debug("faq not logged", logger.Err(err))
	}
}

// completionContext es el contexto no sensible que acompaña cada turno.
func completionContext(rec onboarding.Record) map[string]any {
	ctx := map[string]any{
		"stepTitle":      rec.CurrentStep.Title(),
		"completedSteps": rec.Completed(),
	}
	if rec.AccountType != "" {
		ctx["accountType"] = rec.AccountType
	}
	if rec.PreferredName != "" {
		ctx["preferredName"] = rec.PreferredName
	} else if rec.FirstName != "" {
		ctx["firstName"] = rec.FirstName
	}
	if rec.ExperienceLevel != "" {
		ctx["experienceLevel"] = rec.ExperienceLevel
	}
	return ctx
}
