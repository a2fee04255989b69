// Package gemini implementa ai.Completer y ai.Classifier sobre la API REST
// generateContent de Google Generative Language.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/manasv777/investiq-hacknc/internal/ai"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
)

const (
	DefaultBaseURL         = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel           = "gemini-2.0-flash"
	DefaultMaxOutputTokens = 256
	DefaultTemperature     = 0.3
)

// Config del cliente. APIKey vacío = modo demo (sin red).
type Config struct {
	APIKey          string
	Model           string
	BaseURL         string
	MaxOutputTokens int
	Temperature     float64
	Timeout         time.Duration
}

// Client es seguro para uso concurrente.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		now:  time.Now,
	}
}

// DemoMode es true cuando no hay API key.
func (c *Client) DemoMode() bool { return c.cfg.APIKey == "" }

func (c *Client) Model() string { return c.cfg.Model }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Complete arma [estilo, contexto, usuario] y pide una respuesta.
func (c *Client) Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return ai.CompletionResponse{}, ai.ErrEmptyPrompt
	}
	out := ai.CompletionResponse{
		NextStep: ai.NextStepHint(req.Prompt, req.CurrentStep),
		Model:    c.cfg.Model,
		At:       c.now().UTC(),
	}
	if c.DemoMode() {
		out.Text = ai.DemoModeMessage
		return out, nil
	}

	ctxInfo := make(map[string]any, len(req.Context)+2)
	for k, v := range req.Context {
		ctxInfo[k] = v
	}
	ctxInfo["sessionId"] = req.SessionID
	ctxInfo["currentStep"] = string(req.CurrentStep)
	ctxJSON, err := json.MarshalIndent(ctxInfo, "", "  ")
	if err != nil {
		return ai.CompletionResponse{}, fmt.Errorf("gemini: encode context: %w", err)
	}

	text, err := c.generate(ctx, []part{
		{Text: ai.StylePrompt},
		{Text: "Context:\n" + string(ctxJSON)},
		{Text: "User:\n" + req.Prompt},
	}, "")
	if err != nil {
		return ai.CompletionResponse{}, err
	}
	out.Text = text
	return out, nil
}

// Classify pide JSON estricto {"label":...}. Cualquier respuesta que no sea
// una de las etiquetas cae a la primera.
func (c *Client) Classify(ctx context.Context, text string, labels []string) (string, error) {
	if len(labels) == 0 {
		labels = ai.DefaultLabels
	}
	if strings.TrimSpace(text) == "" {
		return "", ai.ErrEmptyPrompt
	}
	if c.DemoMode() {
		return labels[0], nil
	}

	labelsJSON, _ := json.Marshal(labels)
	prompt := fmt.Sprintf("LABELS: %s\nUSER_TEXT: %s\nReturn ONLY: {\"label\":\"<one>\"}\n", labelsJSON, text)
	raw, err := c.generate(ctx, []part{{Text: ai.ClassifyPrompt}, {Text: prompt}}, "application/json")
	if err != nil {
		return "", err
	}
	return pickLabel(raw, labels), nil
}

func pickLabel(raw string, labels []string) string {
	var parsed struct {
		Label string `json:"label"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return labels[0]
	}
	for _, l := range labels {
		if strings.EqualFold(l, parsed.Label) {
			return l
		}
	}
	return labels[0]
}

func (c *Client) generate(ctx context.Context, parts []part, mime string) (string, error) {
	log := logger.From(ctx).With(logger.Layer("client"), logger.Provider("gemini"))

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			MaxOutputTokens:  c.cfg.MaxOutputTokens,
			Temperature:      c.cfg.Temperature,
			ResponseMimeType: mime,
		},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(c.cfg.Model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		err := classifyError(resp, raw)
		log.Warn("generateContent failed", logger.Status(resp.StatusCode), logger.Err(err))
		return "", err
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	var sb strings.Builder
	if len(gr.Candidates) > 0 {
		for _, p := range gr.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func classifyError(resp *http.Response, raw []byte) error {
	var ae apiError
	_ = json.Unmarshal(raw, &ae)
	msg := ae.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}

	lower := strings.ToLower(msg)
	if resp.StatusCode == http.StatusTooManyRequests ||
		ae.Error.Status == "RESOURCE_EXHAUSTED" ||
		strings.Contains(lower, "quota") ||
		strings.Contains(lower, "too many requests") {
		return &ai.RateLimitError{RetryAfter: retryAfter(resp.Header.Get("Retry-After")), Msg: msg}
	}
	return &ai.UpstreamError{Provider: "gemini", Status: resp.StatusCode, Body: msg}
}

func retryAfter(h string) time.Duration {
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// IsUpstream reporta si err es una respuesta no-2xx del proveedor.
func IsUpstream(err error) bool {
	var ue *ai.UpstreamError
	return errors.As(err, &ue)
}
