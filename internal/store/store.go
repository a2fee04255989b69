// Package store define la persistencia del lado servidor: logs de pasos,
// auditoría, FAQ y el registro completo de cada sesión.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/manasv777/investiq-hacknc/internal/onboarding"
)

// EventStepCompleted es el tipo de auditoría que genera un paso cerrado.
const EventStepCompleted = "STEP_COMPLETED"

var ErrNotFound = errors.New("store: not found")

// StepLog es una línea del log de onboarding.
type StepLog struct {
	SessionID string          `json:"sessionId"`
	UserID    string          `json:"userId,omitempty"`
	Step      onboarding.Step `json:"step"`
	UserInput string          `json:"userInput"`
	AIOutput  string          `json:"aiOutput"`
	Completed bool            `json:"completed"`
	Timestamp time.Time       `json:"timestamp"`
}

type AuditLog struct {
	EventID   string    `json:"eventId"`
	SessionID string    `json:"sessionId"`
	EventType string    `json:"eventType"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

type FAQLog struct {
	SessionID string    `json:"sessionId"`
	UserQuery string    `json:"userQuery"`
	AIReply   string    `json:"aiReply"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Repository es lo que la capa de servicios necesita de un backend.
type Repository interface {
	AppendStepLog(ctx context.Context, l StepLog) error
	AppendAuditLog(ctx context.Context, l AuditLog) error
	AppendFAQLog(ctx context.Context, l FAQLog) error

	// UpsertSession crea o reemplaza el registro con el mismo SessionID.
	UpsertSession(ctx context.Context, rec onboarding.Record) error
	// GetSession retorna ErrNotFound si no existe.
	GetSession(ctx context.Context, sessionID string) (onboarding.Record, error)
	// ListSessions ordena por StartedAt ascendente.
	ListSessions(ctx context.Context) ([]onboarding.Record, error)

	StepLogs(ctx context.Context, sessionID string) ([]StepLog, error)
	// AuditLogs con sessionID vacío retorna todo.
	AuditLogs(ctx context.Context, sessionID string) ([]AuditLog, error)
	FAQLogs(ctx context.Context) ([]FAQLog, error)

	Ping(ctx context.Context) error
	Close() error
}
