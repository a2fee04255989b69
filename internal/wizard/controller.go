// Package wizard secuencia los pasos del onboarding: valida con
// onboarding.CanAdvance, mueve el puntero a través de session.Store y
// coordina los colaboradores externos (log de eventos, persistencia del
// registro, KYC).
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
	"github.com/manasv777/investiq-hacknc/internal/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/session"
)

var (
	// ErrSubmitFailed: la persistencia del registro final falló. Se puede reintentar.
	ErrSubmitFailed = errors.New("wizard: submission failed")
	ErrNotAtReview  = errors.New("wizard: submit is only allowed at the review step")
	ErrBlocked      = errors.New("wizard: step requirements not met")
	ErrNoSaver      = errors.New("wizard: no session saver configured")
)

// Resultados de envío para métricas.
const (
	SubmitOK        = "ok"
	SubmitFailed    = "failed"
	SubmitDuplicate = "duplicate"
)

// Deps del controller. Store es obligatorio.
type Deps struct {
	Store    *session.Store
	Events   EventLogger
	Sessions SessionSaver
	Metrics  Metrics
	Now      func() time.Time
}

type Controller struct {
	store    *session.Store
	events   EventLogger
	sessions SessionSaver
	metrics  Metrics
	now      func() time.Time
	sf       singleflight.Group
}

func New(d Deps) *Controller {
	c := &Controller{
		store:    d.Store,
		events:   d.Events,
		sessions: d.Sessions,
		metrics:  d.Metrics,
		now:      d.Now,
	}
	if c.events == nil {
		c.events = nopEvents{}
	}
	if c.metrics == nil {
		c.metrics = nopMetrics{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Result describe qué hizo Advance o Retreat.
type Result struct {
	From      onboarding.Step `json:"from"`
	To        onboarding.Step `json:"to"`
	Moved     bool            `json:"moved"`
	Blocked   bool            `json:"blocked"`
	Submitted bool            `json:"submitted"`
	Reason    string          `json:"reason,omitempty"`
	Missing   []string        `json:"missing,omitempty"`
}

func (c *Controller) log(ctx context.Context, op string) *zap.Logger {
	return logger.From(ctx).With(logger.Layer("service"), logger.Component("wizard"), logger.Op(op))
}

// Advance completa el paso actual y pasa al siguiente si el validador lo permite.
// Si no lo permite es un no-op con Blocked=true. En G delega en Submit.
func (c *Controller) Advance(ctx context.Context) (Result, error) {
	rec := c.store.Record()
	step := rec.CurrentStep
	res := Result{From: step, To: step}

	if !onboarding.CanAdvance(step, rec.Fields) {
		res.Blocked = true
		res.Missing = onboarding.MissingFields(step, rec.Fields)
		res.Reason = onboarding.RejectionReason(step, rec.Fields)
		if res.Reason == "" {
			res.Reason = "missing required fields: " + strings.Join(res.Missing, ", ")
		}
		return res, nil
	}

	next, ok := step.Next()
	if !ok {
		if err := c.Submit(ctx); err != nil {
			return res, err
		}
		res.Submitted = true
		return res, nil
	}

	if err := c.store.CompleteAndMove(ctx, step, next); err != nil {
		return res, err
	}
	c.metrics.StepAdvanced(string(step))
	c.logEvent(ctx, StepEvent{SessionID: rec.SessionID, UserID: rec.UserID, Step: step, Completed: true})

	c.log(ctx, "advance").Debug("step advanced",
		logger.SessionID(rec.SessionID), logger.Step(string(step)), zap.String("to", string(next)))
	res.To = next
	res.Moved = true
	return res, nil
}

// Retreat vuelve al paso anterior sin desmarcar completados. No-op en A.
func (c *Controller) Retreat(ctx context.Context) (Result, error) {
	step := c.store.Record().CurrentStep
	res := Result{From: step, To: step}
	prev, ok := step.Prev()
	if !ok {
		return res, nil
	}
	if err := c.store.SetCurrentStep(ctx, prev); err != nil {
		return res, err
	}
	res.To = prev
	res.Moved = true
	return res, nil
}

// Submit cierra la solicitud: marca G, sella CompletedAt, loguea y persiste
// el registro completo. Es idempotente por sesión: llamadas concurrentes se
// colapsan y un registro ya enviado no vuelve a tocar colaboradores. Si la
// persistencia falla retorna ErrSubmitFailed y el registro queda en draft;
// el reintento conserva el CompletedAt original.
func (c *Controller) Submit(ctx context.Context) error {
	key := c.store.Record().SessionID
	_, err, _ := c.sf.Do(key, func() (any, error) {
		return nil, c.submit(ctx)
	})
	return err
}

func (c *Controller) submit(ctx context.Context) error {
	log := c.log(ctx, "submit")
	rec := c.store.Record()

	if rec.ApplicationStatus != "" && rec.ApplicationStatus != onboarding.ApplicationDraft {
		c.metrics.Submission(SubmitDuplicate)
		log.Info("already submitted", logger.SessionID(rec.SessionID))
		return nil
	}
	if rec.CurrentStep != onboarding.LastStep {
		return ErrNotAtReview
	}
	if !onboarding.CanAdvance(onboarding.LastStep, rec.Fields) {
		return fmt.Errorf("%w: %s", ErrBlocked, strings.Join(onboarding.MissingFields(onboarding.LastStep, rec.Fields), ", "))
	}
	if c.sessions == nil {
		return fmt.Errorf("%w: %w", ErrSubmitFailed, ErrNoSaver)
	}

	if rec.CompletedAt == nil {
		now := c.now().UTC()
		err := c.store.Amend(ctx, func(r *onboarding.Record) {
			r.MarkCompleted(onboarding.LastStep)
			r.CompletedAt = &now
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSubmitFailed, err)
		}
		c.logEvent(ctx, StepEvent{SessionID: rec.SessionID, UserID: rec.UserID, Step: onboarding.LastStep, Completed: true})
	} else {
		log.Info("retrying submission", logger.SessionID(rec.SessionID))
	}

	final := c.store.Record()
	final.ApplicationStatus = onboarding.ApplicationSubmitted
	if err := c.sessions.SaveSession(ctx, final); err != nil {
		c.metrics.Submission(SubmitFailed)
		log.Warn("session persistence failed", logger.SessionID(rec.SessionID), logger.Err(err))
		return fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	if err := c.store.Amend(ctx, func(r *onboarding.Record) {
		r.ApplicationStatus = onboarding.ApplicationSubmitted
	}); err != nil {
		// el upsert remoto ya quedó; reintentar solo reenvía el mismo registro
		return fmt.Errorf("wizard: record submitted but local state not saved: %w", err)
	}
	c.metrics.Submission(SubmitOK)
	log.Info("application submitted", logger.SessionID(rec.SessionID))
	return nil
}

// RequestKYC abre una verificación de identidad con los datos del registro
// y guarda proveedor, id externo, URL y estado pending.
func (c *Controller) RequestKYC(ctx context.Context, starter KYCStarter) (KYCSession, error) {
	rec := c.store.Record()
	ks, err := starter.StartKYC(ctx, rec.SessionID, rec.Fields)
	if err != nil {
		return KYCSession{}, err
	}
	if ks.Status == "" {
		ks.Status = onboarding.KYCPending
	}
	now := c.now().UTC()
	err = c.store.Amend(ctx, func(r *onboarding.Record) {
		r.KYCProvider = ks.Provider
		r.KYCSessionID = ks.ExternalID
		r.KYCURL = ks.URL
		r.KYCStatus = ks.Status
		r.KYCUpdatedAt = &now
	})
	return ks, err
}

// ScoreRisk puntúa el cuestionario y guarda la tolerancia resultante.
func (c *Controller) ScoreRisk(ctx context.Context, answers map[string]string) (int, string, error) {
	score := onboarding.ScoreRisk(answers)
	tolerance := onboarding.RiskToleranceFor(score)
	err := c.store.UpdateFields(ctx, onboarding.Patch{RiskTolerance: onboarding.String(tolerance)})
	return score, tolerance, err
}

func (c *Controller) logEvent(ctx context.Context, ev StepEvent) {
	if ev.At.IsZero() {
		ev.At = c.now().UTC()
	}
	if err := c.events.AppendStepEvent(ctx, ev); err != nil {
		c.metrics.EventLogFailed()
		c.log(ctx, "log_event").Warn("step event not logged",
			logger.SessionID(ev.SessionID), logger.Step(string(ev.Step)), logger.Err(err))
	}
}
