// Package voice contiene el controller del proxy de texto a voz.
package voice

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/manasv777/investiq-hacknc/internal/http/dto"
	httperrors "github.com/manasv777/investiq-hacknc/internal/http/errors"
	"github.com/manasv777/investiq-hacknc/internal/http/helpers"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
	"github.com/manasv777/investiq-hacknc/internal/voice"
)

// Speaker es lo que el controller usa de voice.Client.
type Speaker interface {
	Speak(ctx context.Context, req voice.SpeakRequest) (voice.Audio, error)
}

type VoiceController struct {
	speaker Speaker
}

func NewVoiceController(s Speaker) *VoiceController {
	return &VoiceController{speaker: s}
}

// Speak maneja POST /api/voice/speak. Sin API key responde 204 y el cliente
// omite la reproducción.
func (c *VoiceController) Speak(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("VoiceController.Speak"), logger.Provider("elevenlabs"))

	var req dto.SpeakRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Invalid text"))
		return
	}

	audio, err := c.speaker.Speak(r.Context(), voice.SpeakRequest{Text: req.Text, VoiceID: req.VoiceID, Format: req.Format})
	var upstream *voice.UpstreamError
	switch {
	case err == nil:
	case errors.Is(err, voice.ErrNoAudio):
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, voice.ErrTimeout):
		log.Warn("tts timeout")
		httperrors.WriteError(w, httperrors.ErrGatewayTimeout.WithDetail("TTS timeout"))
		return
	case errors.As(err, &upstream):
		log.Warn("tts upstream error", logger.Status(upstream.Status))
		httperrors.WriteError(w, httperrors.ErrBadGateway.WithDetail(upstream.Body).WithCause(err))
		return
	default:
		log.Error("tts failure", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("TTS failure").WithCause(err))
		return
	}

	w.Header().Set("Content-Type", audio.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio.Data)))
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio.Data)
}
