// Package memory es el backend en memoria del store. Sirve para la demo y
// para tests; todo se pierde al reiniciar.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/manasv777/investiq-hacknc/internal/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/store"
)

func init() { store.RegisterAdapter(adapter{}) }

type adapter struct{}

func (adapter) Name() string { return "memory" }

func (adapter) Connect(_ context.Context, cfg store.Config) (store.Repository, error) {
	r := New()
	if cfg.Seed {
		r.Seed(time.Now())
	}
	return r, nil
}

type Repo struct {
	mu       sync.RWMutex
	sessions map[string]onboarding.Record
	steps    map[string][]store.StepLog
	audit    []store.AuditLog
	faqs     []store.FAQLog
}

func New() *Repo {
	return &Repo{
		sessions: make(map[string]onboarding.Record),
		steps:    make(map[string][]store.StepLog),
	}
}

// Seed carga las sesiones y FAQs de demo.
func (r *Repo) Seed(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range store.DemoSessions(now) {
		r.sessions[rec.SessionID] = rec
	}
	r.faqs = append(r.faqs, store.DemoFAQs(now)...)
}

func (r *Repo) AppendStepLog(_ context.Context, l store.StepLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[l.SessionID] = append(r.steps[l.SessionID], l)
	return nil
}

func (r *Repo) AppendAuditLog(_ context.Context, l store.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audit = append(r.audit, l)
	return nil
}

func (r *Repo) AppendFAQLog(_ context.Context, l store.FAQLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faqs = append(r.faqs, l)
	return nil
}

func (r *Repo) UpsertSession(_ context.Context, rec onboarding.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[rec.SessionID] = rec.Clone()
	return nil
}

func (r *Repo) GetSession(_ context.Context, sessionID string) (onboarding.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.sessions[sessionID]
	if !ok {
		return onboarding.Record{}, store.ErrNotFound
	}
	return rec.Clone(), nil
}

func (r *Repo) ListSessions(context.Context) ([]onboarding.Record, error) {
	r.mu.RLock()
	out := make([]onboarding.Record, 0, len(r.sessions))
	for _, rec := range r.sessions {
		out = append(out, rec.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

func (r *Repo) StepLogs(_ context.Context, sessionID string) ([]store.StepLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]store.StepLog{}, r.steps[sessionID]...), nil
}

func (r *Repo) AuditLogs(_ context.Context, sessionID string) ([]store.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []store.AuditLog{}
	for _, l := range r.audit {
		if sessionID == "" || l.SessionID == sessionID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *Repo) FAQLogs(context.Context) ([]store.FAQLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]store.FAQLog{}, r.faqs...), nil
}

func (r *Repo) Ping(context.Context) error { return nil }
func (r *Repo) Close() error               { return nil }
