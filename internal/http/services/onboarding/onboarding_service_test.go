package onboarding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manasv777/investiq-hacknc/internal/http/dto"
	domain "github.com/manasv777/investiq-hacknc/internal/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/store"
	"github.com/manasv777/investiq-hacknc/internal/store/memory"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService() (Service, *memory.Repo) {
	repo := memory.New()
	return NewService(Deps{
		Repo:  repo,
		Now:   func() time.Time { return fixedNow },
		NewID: func() string { return "generated-id" },
	}), repo
}

func TestAppendStepLog_CompletedWritesAudit(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	ts, err := svc.AppendStepLog(ctx, dto.AppendLogRequest{SessionID: "s1", Step: "B", UserInput: "Alex", Completed: true})
	require.NoError(t, err)
	require.Equal(t, fixedNow, ts)

	steps, err := repo.StepLogs(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	require.Equal(t, domain.Step("B"), steps[0].Step)

	audit, err := repo.AuditLogs(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, audit, 1)
	require.Equal(t, store.EventStepCompleted, audit[0].EventType)
	require.Equal(t, "s1-B-1740830400000", audit[0].EventID)
	require.JSONEq(t, `{"step":"B","userInput":"Alex","aiOutput":""}`, audit[0].Details)
}

func TestAppendStepLog_NotCompletedNoAudit(t *testing.T) {
	svc, repo := newTestService()
	_, err := svc.AppendStepLog(context.Background(), dto.AppendLogRequest{SessionID: "s1", Step: "C"})
	require.NoError(t, err)
	audit, _ := repo.AuditLogs(context.Background(), "s1")
	require.Empty(t, audit)
}

func TestAppendStepLog_Validation(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.AppendStepLog(context.Background(), dto.AppendLogRequest{Step: "A"})
	require.ErrorIs(t, err, ErrMissingFields)
	_, err = svc.AppendStepLog(context.Background(), dto.AppendLogRequest{SessionID: "s1"})
	require.ErrorIs(t, err, ErrMissingFields)
	_, err = svc.AppendStepLog(context.Background(), dto.AppendLogRequest{SessionID: "s1", Step: "Z"})
	require.ErrorIs(t, err, ErrInvalidStep)
}

func TestUpsertSession_CreateThenMerge(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.UpsertSession(ctx, dto.UpsertSessionRequest{
		SessionID: "s9",
		Updates:   map[string]any{"firstName": "Jordan", "isUsCitizen": "true"},
	})
	require.NoError(t, err)
	require.Equal(t, "s9", rec.SessionID)
	require.Equal(t, fixedNow, rec.StartedAt)
	require.True(t, domain.IsTrue(rec.IsUSCitizen))

	rec, err = svc.UpsertSession(ctx, dto.UpsertSessionRequest{
		SessionID: "s9",
		Updates:   map[string]any{"lastName": "Lee", "sessionId": "hijack"},
	})
	require.NoError(t, err)
	require.Equal(t, "s9", rec.SessionID)
	require.Equal(t, "Jordan", rec.FirstName)
	require.Equal(t, "Lee", rec.LastName)

	got, err := svc.GetSession(ctx, "s9")
	require.NoError(t, err)
	require.Equal(t, "Lee", got.LastName)
}

func TestUpsertSession_GeneratesID(t *testing.T) {
	svc, _ := newTestService()
	rec, err := svc.UpsertSession(context.Background(), dto.UpsertSessionRequest{Updates: map[string]any{}})
	require.NoError(t, err)
	require.Equal(t, "generated-id", rec.SessionID)
}

func TestUpsertSession_InvalidBoolean(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.UpsertSession(context.Background(), dto.UpsertSessionRequest{
		SessionID: "s1",
		Updates:   map[string]any{"acknowledgedTerms": "maybe"},
	})
	require.ErrorIs(t, err, ErrInvalidUpdate)
}

func TestSessionLogs(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.SessionLogs(ctx, "nope")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.AppendStepLog(ctx, dto.AppendLogRequest{SessionID: "s1", Step: "A", Completed: true})
	require.NoError(t, err)
	logs, err := svc.SessionLogs(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, logs.Steps, 1)
	require.Len(t, logs.Audit, 1)
}

func TestListSessions_EmptyIsNotNil(t *testing.T) {
	svc, _ := newTestService()
	out, err := svc.ListSessions(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out)
}
