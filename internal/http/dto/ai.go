// Package dto define los cuerpos de request y response del API.
package dto

import "time"

type CompleteRequest struct {
	Prompt      string         `json:"prompt"`
	Context     map[string]any `json:"context,omitempty"`
	SessionID   string         `json:"sessionId,omitempty"`
	CurrentStep string         `json:"currentStep,omitempty"`
}

type CompleteMeta struct {
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
}

// CompleteResponse: NextStep null cuando el asistente no sugiere moverse.
type CompleteResponse struct {
	Text     string       `json:"text"`
	NextStep *string      `json:"nextStep"`
	Meta     CompleteMeta `json:"meta"`
}

// AIError es el cuerpo de error de /api/ai/complete que el cliente interpreta.
type AIError struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

type ClassifyRequest struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels,omitempty"`
}

type ClassifyResponse struct {
	Label string `json:"label"`
}

type ExplainRequest struct {
	Topic string `json:"topic"`
}

type ExplainResponse struct {
	Topic string `json:"topic"`
	Text  string `json:"text"`
}
