package dto

import (
	"time"

	"github.com/manasv777/investiq-hacknc/internal/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/store"
)

type AppendLogRequest struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId,omitempty"`
	Step      string `json:"step"`
	UserInput string `json:"userInput,omitempty"`
	AIOutput  string `json:"aiOutput,omitempty"`
	Completed bool   `json:"completed"`
}

type FAQLogRequest struct {
	SessionID string `json:"sessionId"`
	UserQuery string `json:"userQuery"`
	AIReply   string `json:"aiReply"`
	Category  string `json:"category,omitempty"`
}

type AppendResponse struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

// UpsertSessionRequest: sin sessionId se crea una sesión nueva.
type UpsertSessionRequest struct {
	SessionID string         `json:"sessionId,omitempty"`
	Updates   map[string]any `json:"updates"`
}

type SessionResponse struct {
	Session onboarding.Record `json:"session"`
}

type SessionListResponse struct {
	Sessions []onboarding.Record `json:"sessions"`
	Count    int                 `json:"count"`
}

type SessionLogsResponse struct {
	SessionID string           `json:"sessionId"`
	Steps     []store.StepLog  `json:"steps"`
	Audit     []store.AuditLog `json:"audit"`
}
