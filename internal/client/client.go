// Package client es el cliente HTTP del CLI contra el servicio InvestIQ.
// Implementa los colaboradores del wizard y del asistente (ai.Completer,
// wizard.EventLogger, wizard.SessionSaver, wizard.KYCStarter) sobre el API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/manasv777/investiq-hacknc/internal/ai"
	"github.com/manasv777/investiq-hacknc/internal/analytics"
	"github.com/manasv777/investiq-hacknc/internal/http/dto"
	"github.com/manasv777/investiq-hacknc/internal/kyc"
	"github.com/manasv777/investiq-hacknc/internal/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/voice"
	"github.com/manasv777/investiq-hacknc/internal/wizard"
)

const provider = "investiq-api"

// APIError es una respuesta no-2xx del servicio.
type APIError struct {
	Status int
	Code   string
	Body   string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("investiq api: %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("investiq api: %d: %s", e.Status, e.Body)
}

// ErrUnavailable: el servicio respondió 503 (proveedor sin configurar).
var ErrUnavailable = errors.New("investiq api: service unavailable")

type Config struct {
	BaseURL string
	Timeout time.Duration
	// Token es un bearer opcional que asocia los logs a un usuario.
	Token string
}

type Client struct {
	base  string
	token string
	http  *http.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		base:  strings.TrimRight(cfg.BaseURL, "/"),
		token: cfg.Token,
		http:  &http.Client{Timeout: cfg.Timeout},
	}
}

var (
	_ ai.Completer        = (*Client)(nil)
	_ wizard.EventLogger  = (*Client)(nil)
	_ wizard.SessionSaver = (*Client)(nil)
	_ wizard.KYCStarter   = (*Client)(nil)
)

// do envía body como JSON y devuelve la respuesta cruda. El caller cierra el body.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: encode %s: %w", path, err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.http.Do(req)
}

// call hace el request y decodifica out cuando la respuesta es 2xx.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode %s: %w", path, err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusServiceUnavailable {
		return fmt.Errorf("%w: %s", ErrUnavailable, strings.TrimSpace(string(raw)))
	}
	var env struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(raw, &env)
	return &APIError{Status: resp.StatusCode, Code: env.Code, Body: strings.TrimSpace(string(raw))}
}

// Complete implementa ai.Completer. Un 429 del servicio vuelve como
// *ai.RateLimitError para que el bridge aplique su política de reintentos.
func (c *Client) Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/ai/complete", dto.CompleteRequest{
		Prompt:      req.Prompt,
		Context:     req.Context,
		SessionID:   req.SessionID,
		CurrentStep: string(req.CurrentStep),
	})
	if err != nil {
		return ai.CompletionResponse{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		var body dto.AIError
		_ = json.NewDecoder(resp.Body).Decode(&body)
		secs := body.RetryAfter
		if h, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs == 0 {
			secs = h
		}
		return ai.CompletionResponse{}, &ai.RateLimitError{RetryAfter: time.Duration(secs) * time.Second, Msg: body.Details}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return ai.CompletionResponse{}, &ai.UpstreamError{Provider: provider, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var body dto.CompleteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ai.CompletionResponse{}, fmt.Errorf("client: decode completion: %w", err)
	}
	out := ai.CompletionResponse{Text: body.Text, Model: body.Meta.Model, At: body.Meta.Timestamp}
	if body.NextStep != nil {
		out.NextStep = onboarding.Step(*body.NextStep)
	}
	return out, nil
}

// AppendStepEvent implementa wizard.EventLogger.
func (c *Client) AppendStepEvent(ctx context.Context, ev wizard.StepEvent) error {
	return c.call(ctx, http.MethodPost, "/api/logs/append", dto.AppendLogRequest{
		SessionID: ev.SessionID,
		UserID:    ev.UserID,
		Step:      string(ev.Step),
		UserInput: ev.UserInput,
		AIOutput:  ev.AIOutput,
		Completed: ev.Completed,
	}, nil)
}

// SaveSession implementa wizard.SessionSaver: manda el registro completo
// como updates del upsert.
func (c *Client) SaveSession(ctx context.Context, rec onboarding.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("client: encode record: %w", err)
	}
	var updates map[string]any
	if err := json.Unmarshal(raw, &updates); err != nil {
		return fmt.Errorf("client: encode record: %w", err)
	}
	// el upsert mergea: un campo borrado en el cliente tiene que viajar
	// vacío para pisar el valor anterior del servidor
	for _, name := range onboarding.FieldNames() {
		if _, ok := updates[name]; ok {
			continue
		}
		if onboarding.IsBooleanField(name) {
			updates[name] = nil
		} else {
			updates[name] = ""
		}
	}
	return c.call(ctx, http.MethodPost, "/api/sessions", dto.UpsertSessionRequest{
		SessionID: rec.SessionID,
		Updates:   updates,
	}, nil)
}

// StartKYC implementa wizard.KYCStarter. El SSN no sale del cliente.
func (c *Client) StartKYC(ctx context.Context, sessionID string, f onboarding.Fields) (wizard.KYCSession, error) {
	var s kyc.Session
	err := c.call(ctx, http.MethodPost, "/api/kyc/veriff/session", dto.KYCSessionRequest{
		SessionID: sessionID,
		Person:    kyc.PersonFromFields(f),
	}, &s)
	if err != nil {
		return wizard.KYCSession{}, err
	}
	return wizard.KYCSession{Provider: s.Provider, ExternalID: s.ExternalID, URL: s.URL, Status: s.Status}, nil
}

// LogFAQ registra una pregunta libre y su respuesta.
func (c *Client) LogFAQ(ctx context.Context, sessionID, query, reply, category string) error {
	return c.call(ctx, http.MethodPost, "/api/logs/faq", dto.FAQLogRequest{
		SessionID: sessionID, UserQuery: query, AIReply: reply, Category: category,
	}, nil)
}

// Speak pide el audio de text. 204 vuelve como voice.ErrNoAudio.
func (c *Client) Speak(ctx context.Context, text, voiceID string) (voice.Audio, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/voice/speak", dto.SpeakRequest{Text: text, VoiceID: voiceID})
	if err != nil {
		return voice.Audio{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return voice.Audio{}, voice.ErrNoAudio
	case resp.StatusCode == http.StatusGatewayTimeout:
		return voice.Audio{}, voice.ErrTimeout
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return voice.Audio{}, readAPIError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return voice.Audio{}, err
	}
	return voice.Audio{ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}

func (c *Client) Explain(ctx context.Context, topic string) (string, error) {
	var out dto.ExplainResponse
	err := c.call(ctx, http.MethodPost, "/api/ai/explain", dto.ExplainRequest{Topic: topic}, &out)
	return out.Text, err
}

func (c *Client) Classify(ctx context.Context, text string, labels []string) (string, error) {
	var out dto.ClassifyResponse
	err := c.call(ctx, http.MethodPost, "/api/ai/classify", dto.ClassifyRequest{Text: text, Labels: labels}, &out)
	return out.Label, err
}

func (c *Client) ScanDocument(ctx context.Context, req dto.OCRScanRequest) (dto.OCRScanResponse, error) {
	var out dto.OCRScanResponse
	err := c.call(ctx, http.MethodPost, "/api/ocr/scan", req, &out)
	return out, err
}

func (c *Client) Analytics(ctx context.Context) (analytics.Summary, error) {
	var out analytics.Summary
	err := c.call(ctx, http.MethodGet, "/api/analytics", nil, &out)
	return out, err
}
