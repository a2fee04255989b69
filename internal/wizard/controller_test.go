package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/manasv777/investiq-hacknc/internal/cache"
	"github.com/manasv777/investiq-hacknc/internal/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/session"
)

type recordingEvents struct {
	mu     sync.Mutex
	events []StepEvent
	err    error
}

func (r *recordingEvents) AppendStepEvent(_ context.Context, ev StepEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

type recordingSaver struct {
	mu    sync.Mutex
	saved []onboarding.Record
	err   error
	delay time.Duration
}

func (r *recordingSaver) SaveSession(_ context.Context, rec onboarding.Record) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, rec.Clone())
	return nil
}

func (r *recordingSaver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

type countingMetrics struct {
	mu          sync.Mutex
	advanced    map[string]int
	submissions map[string]int
	logFailures int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{advanced: map[string]int{}, submissions: map[string]int{}}
}

func (m *countingMetrics) StepAdvanced(s string) { m.mu.Lock(); m.advanced[s]++; m.mu.Unlock() }
func (m *countingMetrics) Submission(r string)   { m.mu.Lock(); m.submissions[r]++; m.mu.Unlock() }
func (m *countingMetrics) EventLogFailed()       { m.mu.Lock(); m.logFailures++; m.mu.Unlock() }

type fixture struct {
	store   *session.Store
	events  *recordingEvents
	saver   *recordingSaver
	metrics *countingMetrics
	ctrl    *Controller
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		events:  &recordingEvents{},
		saver:   &recordingSaver{},
		metrics: newCountingMetrics(),
		clock:   time.Date(2025, 10, 4, 12, 0, 0, 0, time.UTC),
	}
	n := 0
	f.store = session.New(session.NewCachePersister(cache.NewMemory("")),
		session.WithLogger(zap.NewNop()),
		session.WithIDGenerator(func() string { n++; return fmt.Sprintf("sess-%d", n) }),
		session.WithClock(func() time.Time { return f.clock }),
	)
	require.NoError(t, f.store.Initialize(context.Background(), "user-1"))
	f.ctrl = New(Deps{
		Store:    f.store,
		Events:   f.events,
		Sessions: f.saver,
		Metrics:  f.metrics,
		Now:      func() time.Time { return f.clock },
	})
	return f
}

func (f *fixture) set(t *testing.T, kv map[string]string) {
	t.Helper()
	p, err := onboarding.PatchFromStrings(kv)
	require.NoError(t, err)
	require.NoError(t, f.store.UpdateFields(context.Background(), p))
}

func (f *fixture) advance(t *testing.T, want onboarding.Step) {
	t.Helper()
	res, err := f.ctrl.Advance(context.Background())
	require.NoError(t, err)
	require.True(t, res.Moved, "blocked: %s", res.Reason)
	require.Equal(t, want, res.To)
	require.Equal(t, want, f.store.Record().CurrentStep)
}

func (f *fixture) walkToReview(t *testing.T) {
	t.Helper()
	f.set(t, map[string]string{"accountType": "stocks-funds"})
	f.advance(t, onboarding.StepBasics)
	f.set(t, map[string]string{"firstName": "Ana", "lastName": "Ruiz", "email": "ana@example.com", "mobile": "9195550100"})
	f.advance(t, onboarding.StepIdentity)
	f.set(t, map[string]string{"dob": "1990-05-15", "isUsCitizen": "false", "ssn": "123-45-6789"})
	f.advance(t, onboarding.StepAddress)
	f.set(t, map[string]string{"street": "1 Main St", "city": "Raleigh", "state": "NC", "zip": "27601"})
	f.advance(t, onboarding.StepEmployment)
	f.set(t, map[string]string{"employmentStatus": "employed"})
	f.advance(t, onboarding.StepTrustedContact)
	f.advance(t, onboarding.StepReview)
	f.set(t, map[string]string{
		"acknowledgedTerms": "true", "acknowledgedRisks": "true",
		"acknowledgedAccuracy": "true", "acknowledgedPrivacy": "true",
	})
}

func TestEndToEnd_AThroughGSubmit(t *testing.T) {
	f := newFixture(t)
	f.walkToReview(t)

	require.NoError(t, f.ctrl.Submit(context.Background()))

	rec := f.store.Record()
	require.Equal(t, onboarding.Steps(), rec.Completed())
	require.NotNil(t, rec.CompletedAt)
	require.Equal(t, f.clock, *rec.CompletedAt)
	require.Equal(t, onboarding.ApplicationSubmitted, rec.ApplicationStatus)

	require.Equal(t, 1, f.saver.count())
	require.Equal(t, onboarding.ApplicationSubmitted, f.saver.saved[0].ApplicationStatus)
	require.Equal(t, 1, f.metrics.submissions[SubmitOK])

	// un evento completed por paso, G incluido
	require.Len(t, f.events.events, 7)
	for _, ev := range f.events.events {
		require.True(t, ev.Completed)
		require.Equal(t, rec.SessionID, ev.SessionID)
	}
	require.Equal(t, onboarding.StepReview, f.events.events[6].Step)
}

func TestAdvance_AtReviewDelegatesToSubmitOnce(t *testing.T) {
	f := newFixture(t)
	f.walkToReview(t)

	res, err := f.ctrl.Advance(context.Background())
	require.NoError(t, err)
	require.True(t, res.Submitted)
	require.False(t, res.Moved)
	require.Equal(t, 1, f.saver.count())
}

func TestSubmit_TwiceKeepsCompletedAt(t *testing.T) {
	f := newFixture(t)
	f.walkToReview(t)
	require.NoError(t, f.ctrl.Submit(context.Background()))
	first := *f.store.Record().CompletedAt

	f.clock = f.clock.Add(time.Hour)
	require.NoError(t, f.ctrl.Submit(context.Background()))

	require.Equal(t, first, *f.store.Record().CompletedAt)
	require.Equal(t, 1, f.saver.count())
	require.Equal(t, 1, f.metrics.submissions[SubmitDuplicate])
}

func TestSubmit_PersistenceFailureSurfacesAndRetryKeepsTimestamp(t *testing.T) {
	f := newFixture(t)
	f.walkToReview(t)
	f.saver.err = errors.New("503 from session store")

	err := f.ctrl.Submit(context.Background())
	require.ErrorIs(t, err, ErrSubmitFailed)
	rec := f.store.Record()
	require.Equal(t, onboarding.ApplicationDraft, rec.ApplicationStatus)
	require.NotNil(t, rec.CompletedAt)
	stamped := *rec.CompletedAt
	require.Equal(t, 1, f.metrics.submissions[SubmitFailed])

	f.saver.err = nil
	f.clock = f.clock.Add(10 * time.Minute)
	require.NoError(t, f.ctrl.Submit(context.Background()))
	require.Equal(t, stamped, *f.store.Record().CompletedAt)
	require.Equal(t, stamped, *f.saver.saved[0].CompletedAt)
	require.Equal(t, onboarding.ApplicationSubmitted, f.store.Record().ApplicationStatus)

	// el evento de cierre de G se emitió una sola vez
	gEvents := 0
	for _, ev := range f.events.events {
		if ev.Step == onboarding.StepReview {
			gEvents++
		}
	}
	require.Equal(t, 1, gEvents)
}

func TestSubmit_ConcurrentCallsCollapse(t *testing.T) {
	f := newFixture(t)
	f.walkToReview(t)
	f.saver.delay = 20 * time.Millisecond

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.ctrl.Submit(context.Background())
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.saver.count())
}

func TestSubmit_Guards(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.ctrl.Submit(context.Background()), ErrNotAtReview)

	require.NoError(t, f.store.SetCurrentStep(context.Background(), onboarding.StepReview))
	require.ErrorIs(t, f.ctrl.Submit(context.Background()), ErrBlocked)
	require.Nil(t, f.store.Record().CompletedAt)
	require.Zero(t, f.saver.count())
}

func TestAdvance_BlockedIsNoop(t *testing.T) {
	f := newFixture(t)
	res, err := f.ctrl.Advance(context.Background())
	require.NoError(t, err)
	require.True(t, res.Blocked)
	require.False(t, res.Moved)
	require.Equal(t, []string{"accountType"}, res.Missing)
	require.Equal(t, onboarding.StepAccountType, f.store.Record().CurrentStep)
	require.Empty(t, f.store.Record().CompletedSteps)
	require.Empty(t, f.events.events)
}

func TestAdvance_RestrictedPersonHardStop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SetCurrentStep(context.Background(), onboarding.StepEmployment))
	f.set(t, map[string]string{"employmentStatus": "employed", "isRestrictedPerson": "true"})

	res, err := f.ctrl.Advance(context.Background())
	require.NoError(t, err)
	require.True(t, res.Blocked)
	require.Equal(t, onboarding.RestrictedPersonMessage, res.Reason)
}

func TestAdvance_EventLogFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("log endpoint down")
	f.set(t, map[string]string{"accountType": "stocks-funds-crypto"})

	f.advance(t, onboarding.StepBasics)
	require.Equal(t, 1, f.metrics.logFailures)
	require.Equal(t, 1, f.metrics.advanced["A"])
}

func TestRetreat(t *testing.T) {
	f := newFixture(t)
	res, err := f.ctrl.Retreat(context.Background())
	require.NoError(t, err)
	require.False(t, res.Moved)

	f.set(t, map[string]string{"accountType": "stocks-funds"})
	f.advance(t, onboarding.StepBasics)
	res, err = f.ctrl.Retreat(context.Background())
	require.NoError(t, err)
	require.True(t, res.Moved)
	require.Equal(t, onboarding.StepAccountType, f.store.Record().CurrentStep)
	require.True(t, f.store.Record().IsCompleted(onboarding.StepAccountType))
}

type fakeKYC struct{ gotSession string }

func (k *fakeKYC) StartKYC(_ context.Context, sessionID string, _ onboarding.Fields) (KYCSession, error) {
	k.gotSession = sessionID
	return KYCSession{Provider: "veriff", ExternalID: "vf-1", URL: "https://magic.veriff.me/v/abc"}, nil
}

func TestRequestKYC_StoresPendingSession(t *testing.T) {
	f := newFixture(t)
	k := &fakeKYC{}
	ks, err := f.ctrl.RequestKYC(context.Background(), k)
	require.NoError(t, err)
	require.Equal(t, onboarding.KYCPending, ks.Status)

	rec := f.store.Record()
	require.Equal(t, rec.SessionID, k.gotSession)
	require.Equal(t, "veriff", rec.KYCProvider)
	require.Equal(t, "vf-1", rec.KYCSessionID)
	require.Equal(t, onboarding.KYCPending, rec.KYCStatus)
	require.NotNil(t, rec.KYCUpdatedAt)
}

func TestScoreRisk(t *testing.T) {
	f := newFixture(t)
	score, tol, err := f.ctrl.ScoreRisk(context.Background(), map[string]string{"q1": "hold", "q2": "grow-steady", "q3": "medium"})
	require.NoError(t, err)
	require.Equal(t, 6, score)
	require.Equal(t, onboarding.RiskModerate, tol)
	require.Equal(t, onboarding.RiskModerate, f.store.Record().RiskTolerance)
}
