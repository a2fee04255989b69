package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manasv777/investiq-hacknc/internal/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/store"
	"github.com/manasv777/investiq-hacknc/internal/store/memory"
)

func TestSummary_Seeded(t *testing.T) {
	repo := memory.New()
	repo.Seed(time.Now())
	svc := New(repo)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)

	require.Equal(t, map[onboarding.Step]int{"A": 3, "B": 3, "C": 3, "D": 2, "E": 2, "F": 2, "G": 1}, sum.Funnel)
	require.Equal(t, map[string]int{"beginner": 2, "intermediate": 1, "advanced": 0}, sum.ExperienceDistribution)
	require.Len(t, sum.TopFAQs, 3)
	require.False(t, sum.Timestamp.IsZero())
}

func TestTopFAQs_CaseInsensitiveAndLimited(t *testing.T) {
	logs := []store.FAQLog{
		{UserQuery: "What is an ETF?"},
		{UserQuery: "what is an etf?"},
		{UserQuery: "Why SSN?"},
		{UserQuery: "a"}, {UserQuery: "b"}, {UserQuery: "c"}, {UserQuery: "d"},
	}
	top := TopFAQs(logs, 5)
	require.Len(t, top, 5)
	require.Equal(t, FAQCount{Query: "what is an etf?", Count: 2}, top[0])
}

type failing struct{ store.Repository }

func (failing) ListSessions(context.Context) ([]onboarding.Record, error) { return nil, nil }
func (failing) FAQLogs(context.Context) ([]store.FAQLog, error) {
	return nil, errors.New("boom")
}

func TestSummary_PropagatesErrors(t *testing.T) {
	_, err := New(failing{}).Summary(context.Background())
	require.EqualError(t, err, "boom")
}

func TestApplicationStatus(t *testing.T) {
	now := time.Now()
	rec := onboarding.NewRecord("s", "", now)
	require.Equal(t, onboarding.ApplicationDraft, ApplicationStatus(rec))

	rec.CompletedAt = &now
	require.Equal(t, onboarding.ApplicationSubmitted, ApplicationStatus(rec))

	rec.ApprovedAt = &now
	require.Equal(t, onboarding.ApplicationApproved, ApplicationStatus(rec))
}
