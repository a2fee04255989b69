package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manasv777/investiq-hacknc/internal/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/store"
)

func TestOpenSeeded(t *testing.T) {
	ctx := context.Background()
	repo, err := store.Open(ctx, store.Config{Driver: "memory", Seed: true})
	require.NoError(t, err)

	sessions, err := repo.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	// ordenadas por inicio: la más vieja primero
	require.Equal(t, "session-003", sessions[0].SessionID)
	require.NotNil(t, sessions[0].CompletedAt)
	require.Len(t, sessions[0].CompletedSteps, 7)

	faqs, err := repo.FAQLogs(ctx)
	require.NoError(t, err)
	require.Len(t, faqs, 3)
}

func TestUpsertIsKeyedBySession(t *testing.T) {
	ctx := context.Background()
	r := New()

	rec := onboarding.NewRecord("s1", "", time.Now())
	require.NoError(t, r.UpsertSession(ctx, rec))
	rec.FirstName = "Alex"
	require.NoError(t, r.UpsertSession(ctx, rec))

	all, err := r.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	got, err := r.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "Alex", got.FirstName)

	_, err = r.GetSession(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetSessionReturnsCopy(t *testing.T) {
	ctx := context.Background()
	r := New()
	rec := onboarding.NewRecord("s1", "", time.Now())
	rec.MarkCompleted(onboarding.StepAccountType)
	require.NoError(t, r.UpsertSession(ctx, rec))

	got, _ := r.GetSession(ctx, "s1")
	got.CompletedSteps[0] = onboarding.StepReview

	again, _ := r.GetSession(ctx, "s1")
	require.Equal(t, onboarding.StepAccountType, again.CompletedSteps[0])
}

func TestAuditFilter(t *testing.T) {
	ctx := context.Background()
	r := New()
	require.NoError(t, r.AppendAuditLog(ctx, store.AuditLog{EventID: "1", SessionID: "a"}))
	require.NoError(t, r.AppendAuditLog(ctx, store.AuditLog{EventID: "2", SessionID: "b"}))

	a, _ := r.AuditLogs(ctx, "a")
	require.Len(t, a, 1)
	all, _ := r.AuditLogs(ctx, "")
	require.Len(t, all, 2)
}
