// Package onboarding contiene el service de logs y sesiones del wizard.
package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/manasv777/investiq-hacknc/internal/http/dto"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
	domain "github.com/manasv777/investiq-hacknc/internal/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/store"
)

var (
	// ErrMissingFields: faltan sessionId o step.
	ErrMissingFields = errors.New("onboarding: sessionId and step are required")
	// ErrInvalidStep: step no es A..G.
	ErrInvalidStep = errors.New("onboarding: invalid step")
	// ErrInvalidUpdate: updates no se pudo superponer al registro.
	ErrInvalidUpdate = errors.New("onboarding: invalid session update")
)

type Service interface {
	AppendStepLog(ctx context.Context, req dto.AppendLogRequest) (time.Time, error)
	AppendFAQLog(ctx context.Context, req dto.FAQLogRequest) (time.Time, error)
	UpsertSession(ctx context.Context, req dto.UpsertSessionRequest) (domain.Record, error)
	GetSession(ctx context.Context, sessionID string) (domain.Record, error)
	ListSessions(ctx context.Context) ([]domain.Record, error)
	SessionLogs(ctx context.Context, sessionID string) (dto.SessionLogsResponse, error)
}

type Deps struct {
	Repo  store.Repository
	Now   func() time.Time
	NewID func() string
}

type service struct {
	repo  store.Repository
	now   func() time.Time
	newID func() string
}

const componentOnboarding = "onboarding"

func NewService(d Deps) Service {
	s := &service{repo: d.Repo, now: d.Now, newID: d.NewID}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// AppendStepLog guarda la línea del log. Un paso cerrado deja además una
// entrada STEP_COMPLETED en auditoría.
func (s *service) AppendStepLog(ctx context.Context, req dto.AppendLogRequest) (time.Time, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component(componentOnboarding), logger.Op("AppendStepLog"))

	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.Step) == "" {
		return time.Time{}, ErrMissingFields
	}
	step, err := domain.ParseStep(req.Step)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidStep, req.Step)
	}

	now := s.now().UTC()
	if err := s.repo.AppendStepLog(ctx, store.StepLog{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Step:      step,
		UserInput: req.UserInput,
		AIOutput:  req.AIOutput,
		Completed: req.Completed,
		Timestamp: now,
	}); err != nil {
		log.Error("append step log failed", logger.SessionID(req.SessionID), logger.Err(err))
		return time.Time{}, err
	}

	if req.Completed {
		details, _ := json.Marshal(map[string]string{
			"step":      string(step),
			"userInput": req.UserInput,
			"aiOutput":  req.AIOutput,
		})
		if err := s.repo.AppendAuditLog(ctx, store.AuditLog{
			EventID:   fmt.Sprintf("%s-%s-%d", req.SessionID, step, now.UnixMilli()),
			SessionID: req.SessionID,
			EventType: store.EventStepCompleted,
			Details:   string(details),
			Timestamp: now,
		}); err != nil {
			log.Error("append audit log failed", logger.SessionID(req.SessionID), logger.Err(err))
			return time.Time{}, err
		}
		log.Debug("step completed", logger.SessionID(req.SessionID), logger.Step(string(step)))
	}
	return now, nil
}

func (s *service) AppendFAQLog(ctx context.Context, req dto.FAQLogRequest) (time.Time, error) {
	if strings.TrimSpace(req.UserQuery) == "" {
		return time.Time{}, fmt.Errorf("%w: userQuery", ErrMissingFields)
	}
	now := s.now().UTC()
	err := s.repo.AppendFAQLog(ctx, store.FAQLog{
		SessionID: req.SessionID,
		UserQuery: req.UserQuery,
		AIReply:   req.AIReply,
		Category:  req.Category,
		Timestamp: now,
	})
	return now, err
}

// UpsertSession superpone updates sobre el registro existente o sobre uno
// nuevo. Sin sessionId se genera uno.
func (s *service) UpsertSession(ctx context.Context, req dto.UpsertSessionRequest) (domain.Record, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component(componentOnboarding), logger.Op("UpsertSession"))

	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		id = s.newID()
	}

	base, err := s.repo.GetSession(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		base = domain.NewRecord(id, "", s.now().UTC())
	case err != nil:
		return domain.Record{}, err
	}

	rec, err := base.Merge(req.Updates)
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = base.StartedAt
	}
	if err := s.repo.UpsertSession(ctx, rec); err != nil {
		log.Error("upsert session failed", logger.SessionID(id), logger.Err(err))
		return domain.Record{}, err
	}
	return rec, nil
}

func (s *service) GetSession(ctx context.Context, sessionID string) (domain.Record, error) {
	return s.repo.GetSession(ctx, sessionID)
}

func (s *service) ListSessions(ctx context.Context) ([]domain.Record, error) {
	out, err := s.repo.ListSessions(ctx)
	if out == nil {
		out = []domain.Record{}
	}
	return out, err
}

// SessionLogs devuelve el historial de pasos y auditoría. 404 si la sesión
// no existe y tampoco tiene logs.
func (s *service) SessionLogs(ctx context.Context, sessionID string) (dto.SessionLogsResponse, error) {
	steps, err := s.repo.StepLogs(ctx, sessionID)
	if err != nil {
		return dto.SessionLogsResponse{}, err
	}
	audit, err := s.repo.AuditLogs(ctx, sessionID)
	if err != nil {
		return dto.SessionLogsResponse{}, err
	}
	if len(steps) == 0 && len(audit) == 0 {
		if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
			return dto.SessionLogsResponse{}, err
		}
	}
	if steps == nil {
		steps = []store.StepLog{}
	}
	if audit == nil {
		audit = []store.AuditLog{}
	}
	return dto.SessionLogsResponse{SessionID: sessionID, Steps: steps, Audit: audit}, nil
}
