// Package ai contiene el service que respalda /api/ai/*.
package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
	"time"

	"github.com/manasv777/investiq-hacknc/internal/ai"
	"github.com/manasv777/investiq-hacknc/internal/cache"
	"github.com/manasv777/investiq-hacknc/internal/http/dto"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
	"github.com/manasv777/investiq-hacknc/internal/onboarding"
)

// Service define las operaciones del asistente expuestas por HTTP.
type Service interface {
	Complete(ctx context.Context, req dto.CompleteRequest) (dto.CompleteResponse, error)
	Classify(ctx context.Context, req dto.ClassifyRequest) (dto.ClassifyResponse, error)
	Explain(topic string) dto.ExplainResponse
}

// Metrics recibe el resultado de cada completion (ok|rate_limited|error).
type Metrics interface {
	Completion(result string)
	Retry(attempt int, delay time.Duration, err error)
}

type Deps struct {
	Completer  ai.Completer
	Classifier ai.Classifier
	Retry      ai.RetryPolicy
	Model      string
	Metrics    Metrics // opcional

	// Cache guarda las clasificaciones por texto+labels. Opcional.
	Cache       cache.Client
	ClassifyTTL time.Duration
}

// DefaultClassifyTTL aplica cuando Deps.ClassifyTTL es 0.
const DefaultClassifyTTL = 10 * time.Minute

type aiService struct {
	completer  ai.Completer
	classifier ai.Classifier
	model      string
	metrics    Metrics
	cache      cache.Client
	ttl        time.Duration
	now        func() time.Time
}

const componentAI = "ai"

func NewService(d Deps) Service {
	p := d.Retry
	if p.MaxAttempts == 0 {
		p = ai.DefaultRetryPolicy
	}
	if d.Metrics != nil && p.OnRetry == nil {
		p.OnRetry = d.Metrics.Retry
	}
	ttl := d.ClassifyTTL
	if ttl == 0 {
		ttl = DefaultClassifyTTL
	}
	return &aiService{
		completer:  ai.WithRetry(d.Completer, p),
		classifier: d.Classifier,
		model:      d.Model,
		metrics:    d.Metrics,
		cache:      d.Cache,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (s *aiService) Complete(ctx context.Context, req dto.CompleteRequest) (dto.CompleteResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component(componentAI), logger.Op("Complete"))

	if strings.TrimSpace(req.Prompt) == "" {
		return dto.CompleteResponse{}, ai.ErrEmptyPrompt
	}

	resp, err := s.completer.Complete(ctx, ai.CompletionRequest{
		Prompt:      req.Prompt,
		Context:     req.Context,
		SessionID:   req.SessionID,
		CurrentStep: onboarding.Step(req.CurrentStep),
	})
	if err != nil {
		result := "error"
		if ai.IsRateLimited(err) {
			result = "rate_limited"
		}
		s.record(result)
		log.Warn("completion failed", logger.SessionID(req.SessionID), logger.String("result", result), logger.Err(err))
		return dto.CompleteResponse{}, err
	}
	s.record("ok")

	out := dto.CompleteResponse{
		Text: strings.TrimSpace(resp.Text),
		Meta: dto.CompleteMeta{Model: resp.Model, Timestamp: resp.At},
	}
	if out.Meta.Model == "" {
		out.Meta.Model = s.model
	}
	if out.Meta.Timestamp.IsZero() {
		out.Meta.Timestamp = s.now().UTC()
	}
	if resp.NextStep.Valid() {
		ns := string(resp.NextStep)
		out.NextStep = &ns
	}
	return out, nil
}

func (s *aiService) record(result string) {
	if s.metrics != nil {
		s.metrics.Completion(result)
	}
}

func (s *aiService) Classify(ctx context.Context, req dto.ClassifyRequest) (dto.ClassifyResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return dto.ClassifyResponse{}, ai.ErrEmptyPrompt
	}
	labels := req.Labels
	if len(labels) == 0 {
		labels = ai.DefaultLabels
	}
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component(componentAI), logger.Op("Classify"))

	key := classifyKey(req.Text, labels)
	if s.cache != nil {
		if label, err := s.cache.Get(ctx, key); err == nil && slices.Contains(labels, label) {
			return dto.ClassifyResponse{Label: label}, nil
		} else if err != nil && !cache.IsNotFound(err) {
			log.Debug("classify cache read failed", logger.Err(err))
		}
	}

	label, err := s.classifier.Classify(ctx, req.Text, labels)
	if err != nil {
		log.Warn("classification failed", logger.Err(err))
		return dto.ClassifyResponse{}, err
	}
	if s.cache != nil && slices.Contains(labels, label) {
		if err := s.cache.Set(ctx, key, label, s.ttl); err != nil {
			log.Debug("classify cache write failed", logger.Err(err))
		}
	}
	return dto.ClassifyResponse{Label: label}, nil
}

func classifyKey(text string, labels []string) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(text)))
	for _, l := range labels {
		h.Write([]byte{0})
		h.Write([]byte(l))
	}
	return "classify:" + hex.EncodeToString(h.Sum(nil))
}

func (s *aiService) Explain(topic string) dto.ExplainResponse {
	return dto.ExplainResponse{Topic: topic, Text: ai.Explain(topic)}
}
