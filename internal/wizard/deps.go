package wizard

import (
	"context"
	"time"

	"github.com/manasv777/investiq-hacknc/internal/onboarding"
)

// StepEvent es una línea del log de onboarding. Completed=true marca el
// cierre de un paso; los turnos de chat viajan con UserInput/AIOutput.
type StepEvent struct {
	SessionID string          `json:"sessionId"`
	UserID    string          `json:"userId,omitempty"`
	Step      onboarding.Step `json:"step"`
	Completed bool            `json:"completed"`
	UserInput string          `json:"userInput,omitempty"`
	AIOutput  string          `json:"aiOutput,omitempty"`
	At        time.Time       `json:"timestamp"`
}

// EventLogger recibe eventos best-effort. Sus errores se loguean y se cuentan, nunca se propagan.
type EventLogger interface {
	AppendStepEvent(ctx context.Context, ev StepEvent) error
}

// SessionSaver persiste el registro completo. Es un upsert por SessionID:
// reenviar el mismo registro no crea duplicados.
type SessionSaver interface {
	SaveSession(ctx context.Context, rec onboarding.Record) error
}

// KYCSession es la sesión de verificación abierta en el proveedor.
type KYCSession struct {
	Provider   string               `json:"kycProvider"`
	ExternalID string               `json:"kycSessionId"`
	URL        string               `json:"kycUrl"`
	Status     onboarding.KYCStatus `json:"kycStatus"`
}

// KYCStarter abre una sesión de verificación de identidad.
type KYCStarter interface {
	StartKYC(ctx context.Context, sessionID string, f onboarding.Fields) (KYCSession, error)
}

// Metrics son los hooks de métricas del controller. metrics.Onboarding los implementa.
type Metrics interface {
	StepAdvanced(step string)
	Submission(result string)
	EventLogFailed()
}

type nopMetrics struct{}

func (nopMetrics) StepAdvanced(string) {}
func (nopMetrics) Submission(string)   {}
func (nopMetrics) EventLogFailed()     {}

type nopEvents struct{}

func (nopEvents) AppendStepEvent(context.Context, StepEvent) error { return nil }
