package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manasv777/investiq-hacknc/internal/ai"
	"github.com/manasv777/investiq-hacknc/internal/cache"
	"github.com/manasv777/investiq-hacknc/internal/http/dto"
)

type countingMetrics struct {
	results []string
	retries int
}

func (m *countingMetrics) Completion(r string)             { m.results = append(m.results, r) }
func (m *countingMetrics) Retry(int, time.Duration, error) { m.retries++ }

var fastRetry = ai.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

func TestComplete_OK(t *testing.T) {
	var got ai.CompletionRequest
	m := &countingMetrics{}
	svc := NewService(Deps{
		Completer: ai.CompleterFunc(func(_ context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
			got = req
			return ai.CompletionResponse{Text: "  Hello  ", NextStep: "B"}, nil
		}),
		Retry:   fastRetry,
		Model:   "gemini-test",
		Metrics: m,
	})

	out, err := svc.Complete(context.Background(), dto.CompleteRequest{
		Prompt: "I want an individual account", SessionID: "s1", CurrentStep: "A",
	})
	require.NoError(t, err)
	require.Equal(t, "Hello", out.Text)
	require.NotNil(t, out.NextStep)
	require.Equal(t, "B", *out.NextStep)
	require.Equal(t, "gemini-test", out.Meta.Model)
	require.False(t, out.Meta.Timestamp.IsZero())
	require.Equal(t, "s1", got.SessionID)
	require.Equal(t, []string{"ok"}, m.results)
}

func TestComplete_NoNextStepIsNull(t *testing.T) {
	svc := NewService(Deps{
		Completer: ai.CompleterFunc(func(context.Context, ai.CompletionRequest) (ai.CompletionResponse, error) {
			return ai.CompletionResponse{Text: "hi"}, nil
		}),
		Retry: fastRetry,
	})
	out, err := svc.Complete(context.Background(), dto.CompleteRequest{Prompt: "hello"})
	require.NoError(t, err)
	require.Nil(t, out.NextStep)
}

func TestComplete_EmptyPrompt(t *testing.T) {
	svc := NewService(Deps{Completer: ai.CompleterFunc(func(context.Context, ai.CompletionRequest) (ai.CompletionResponse, error) {
		t.Fatal("completer must not be called")
		return ai.CompletionResponse{}, nil
	})})
	_, err := svc.Complete(context.Background(), dto.CompleteRequest{Prompt: "   "})
	require.ErrorIs(t, err, ai.ErrEmptyPrompt)
}

func TestComplete_RetriesRateLimitThenGivesUp(t *testing.T) {
	calls := 0
	m := &countingMetrics{}
	svc := NewService(Deps{
		Completer: ai.CompleterFunc(func(context.Context, ai.CompletionRequest) (ai.CompletionResponse, error) {
			calls++
			return ai.CompletionResponse{}, &ai.RateLimitError{}
		}),
		Retry:   fastRetry,
		Metrics: m,
	})
	_, err := svc.Complete(context.Background(), dto.CompleteRequest{Prompt: "hi"})
	require.True(t, ai.IsRateLimited(err))
	require.Equal(t, 3, calls)
	require.Equal(t, 2, m.retries)
	require.Equal(t, []string{"rate_limited"}, m.results)
}

type stubClassifier struct {
	labels []string
	err    error
	calls  int
}

func (s *stubClassifier) Classify(_ context.Context, _ string, labels []string) (string, error) {
	s.calls++
	s.labels = labels
	if s.err != nil {
		return "", s.err
	}
	return labels[len(labels)-1], nil
}

func TestClassify_DefaultLabels(t *testing.T) {
	c := &stubClassifier{}
	svc := NewService(Deps{Classifier: c})
	out, err := svc.Classify(context.Background(), dto.ClassifyRequest{Text: "I trade options weekly"})
	require.NoError(t, err)
	require.Equal(t, "Advanced", out.Label)
	require.Equal(t, ai.DefaultLabels, c.labels)

	c.err = errors.New("upstream")
	_, err = svc.Classify(context.Background(), dto.ClassifyRequest{Text: "x"})
	require.Error(t, err)
}

func TestExplain(t *testing.T) {
	out := NewService(Deps{}).Explain("etf")
	require.Equal(t, "etf", out.Topic)
	require.NotEmpty(t, out.Text)
}

func TestClassify_CachesByTextAndLabels(t *testing.T) {
	ctx := context.Background()
	c := &stubClassifier{}
	svc := NewService(Deps{Classifier: c, Cache: cache.NewMemory("test:")})

	for i := 0; i < 3; i++ {
		out, err := svc.Classify(ctx, dto.ClassifyRequest{Text: "I trade options weekly"})
		require.NoError(t, err)
		require.Equal(t, "Advanced", out.Label)
	}
	require.Equal(t, 1, c.calls)

	// otras labels son otra clave
	out, err := svc.Classify(ctx, dto.ClassifyRequest{Text: "I trade options weekly", Labels: []string{"Yes", "No"}})
	require.NoError(t, err)
	require.Equal(t, "No", out.Label)
	require.Equal(t, 2, c.calls)

	// los errores no se cachean
	c.err = errors.New("upstream")
	_, err = svc.Classify(ctx, dto.ClassifyRequest{Text: "new text"})
	require.Error(t, err)
	c.err = nil
	_, err = svc.Classify(ctx, dto.ClassifyRequest{Text: "new text"})
	require.NoError(t, err)
	require.Equal(t, 4, c.calls)
}
