package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manasv777/investiq-hacknc/internal/onboarding"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func TestRetry_ExhaustsOnRateLimit(t *testing.T) {
	calls := 0
	var retried []int
	p := fastPolicy()
	p.OnRetry = func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) }

	err := Retry(context.Background(), p, func(context.Context) error {
		calls++
		return &RateLimitError{}
	})
	require.True(t, IsRateLimited(err))
	require.Equal(t, 3, calls)
	require.Equal(t, []int{1, 2}, retried)
}

func TestRetry_RecoversAfterRateLimit(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		if calls < 2 {
			return &RateLimitError{}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestRetry_DoesNotRetryOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Retry(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}

func TestRetry_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour}
	calls := 0
	err := Retry(ctx, p, func(context.Context) error {
		calls++
		cancel()
		return &RateLimitError{}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, MaxJitter: 500 * time.Millisecond}
	d := p.Delay(1)
	require.GreaterOrEqual(t, d, 2*time.Second)
	require.Less(t, d, 2500*time.Millisecond)

	p.MaxJitter = 0
	require.Equal(t, 4*time.Second, p.Delay(2))
}

func TestWithRetry_WrapsCompleter(t *testing.T) {
	calls := 0
	inner := CompleterFunc(func(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
		calls++
		if calls == 1 {
			return CompletionResponse{}, &RateLimitError{}
		}
		return CompletionResponse{Text: "ok:" + req.Prompt}, nil
	})
	out, err := WithRetry(inner, fastPolicy()).Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	require.NoError(t, err)
	require.Equal(t, "ok:hi", out.Text)
}

func TestNextStepHint(t *testing.T) {
	cases := []struct {
		prompt string
		step   onboarding.Step
		want   onboarding.Step
	}{
		{"I want an Individual Account please", onboarding.StepAccountType, onboarding.StepBasics},
		{"just a regular account", onboarding.StepIdentity, onboarding.StepBasics},
		{"I'm ready for the basics", onboarding.StepAccountType, onboarding.StepBasics},
		{"I'm ready for the basics", onboarding.StepAddress, ""},
		{"what is an ETF?", onboarding.StepAccountType, ""},
	}
	for _, c := range cases {
		require.Equal(t, c.want, NextStepHint(c.prompt, c.step), c.prompt)
	}
}

func TestExplain(t *testing.T) {
	require.Contains(t, Explain("ssn"), "Social Security Number")
	require.Contains(t, Explain("Roth IRA"), "retirement savings")
	require.Contains(t, Explain("widgets"), "widgets is an important financial concept")
	require.Equal(t, defaultStepExplanation, ExplainStep("unknown"))
	require.Equal(t, "Can you explain ETF?", ExplainUserTurn("ETF"))
	require.Contains(t, RiskSummary(7), "aggressive")
}
