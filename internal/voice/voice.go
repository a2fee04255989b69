// Package voice sintetiza audio para las respuestas del asistente usando
// la API text-to-speech de ElevenLabs.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io/v1/text-to-speech"
	DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
	DefaultModelID = "eleven_multilingual_v2"
	DefaultFormat  = "audio/mpeg"
	DefaultTimeout = 20 * time.Second
)

var (
	// ErrNoAudio: no hay API key; el cliente simplemente no reproduce nada.
	ErrNoAudio   = errors.New("voice: text-to-speech not configured")
	ErrTimeout   = errors.New("voice: text-to-speech timed out")
	ErrEmptyText = errors.New("voice: empty text")
)

// UpstreamError es una respuesta no-2xx de ElevenLabs.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("voice: upstream returned %d: %s", e.Status, e.Body)
}

type Config struct {
	APIKey  string
	VoiceID string
	ModelID string
	BaseURL string
	Timeout time.Duration
}

type SpeakRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId,omitempty"`
	Format  string `json:"format,omitempty"`
}

// Audio es el resultado sintetizado.
type Audio struct {
	ContentType string
	Data        []byte
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.VoiceID == "" {
		cfg.VoiceID = DefaultVoiceID
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	// el timeout duro se aplica por contexto para distinguirlo de otros errores
	return &Client{cfg: cfg, http: &http.Client{}}
}

func (c *Client) Configured() bool { return c.cfg.APIKey != "" }

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Speak sintetiza req.Text. Sin API key retorna ErrNoAudio.
func (c *Client) Speak(ctx context.Context, req SpeakRequest) (Audio, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Audio{}, ErrEmptyText
	}
	if !c.Configured() {
		return Audio{}, ErrNoAudio
	}
	log := logger.From(ctx).With(logger.Layer("client"), logger.Provider("elevenlabs"))

	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = c.cfg.VoiceID
	}
	accept := req.Format
	if accept == "" {
		accept = DefaultFormat
	}

	body, err := json.Marshal(ttsRequest{
		Text:          req.Text,
		ModelID:       c.cfg.ModelID,
		VoiceSettings: voiceSettings{Stability: 0.5, SimilarityBoost: 0.75},
	})
	if err != nil {
		return Audio{}, err
	}

	tctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + url.PathEscape(voiceID)
	httpReq, err := http.NewRequestWithContext(tctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Audio{}, err
	}
	httpReq.Header.Set("xi-api-key", c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", accept)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(tctx.Err(), context.DeadlineExceeded) {
			log.Warn("tts timeout", logger.Err(err))
			return Audio{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Audio{}, fmt.Errorf("voice: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		log.Warn("tts upstream error", logger.Status(resp.StatusCode))
		return Audio{}, &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		if errors.Is(tctx.Err(), context.DeadlineExceeded) {
			return Audio{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Audio{}, fmt.Errorf("voice: read audio: %w", err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = accept
	}
	return Audio{ContentType: ct, Data: data}, nil
}
