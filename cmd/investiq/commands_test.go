package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manasv777/investiq-hacknc/internal/http/dto"
)

// fakeAPI responde las rutas del servicio que usa el CLI.
type fakeAPI struct {
	mu       sync.Mutex
	events   []dto.AppendLogRequest
	sessions []dto.UpsertSessionRequest
	nextStep string
	// limited hace que /api/ai/complete responda 429
	limited   bool
	completes int
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/logs/append", func(w http.ResponseWriter, r *http.Request) {
		var in dto.AppendLogRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		f.mu.Lock()
		f.events = append(f.events, in)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(dto.AppendResponse{Success: true, Timestamp: time.Now()})
	})
	mux.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		var in dto.UpsertSessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		f.mu.Lock()
		f.sessions = append(f.sessions, in)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"session":{}}`))
	})
	mux.HandleFunc("/api/ai/complete", func(w http.ResponseWriter, r *http.Request) {
		resp := dto.CompleteResponse{Text: "Sounds good.", Meta: dto.CompleteMeta{Model: "fake"}}
		f.mu.Lock()
		f.completes++
		if f.limited {
			f.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(dto.AIError{Error: "Gemini API quota exceeded", Details: "slow down", RetryAfter: 30})
			return
		}
		if f.nextStep != "" {
			next := f.nextStep
			resp.NextStep = &next
		}
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/kyc/veriff/session", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"kycProvider":"veriff","kycSessionId":"v-42","kycUrl":"https://verify.example/v-42","kycStatus":"pending"}`))
	})
	return mux
}

func (f *fakeAPI) setNextStep(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextStep = s
}

func (f *fakeAPI) recorded() ([]dto.AppendLogRequest, []dto.UpsertSessionRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dto.AppendLogRequest(nil), f.events...), append([]dto.UpsertSessionRequest(nil), f.sessions...)
}

func setup(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	t.Setenv("CONFIG_PATH", "")
	t.Setenv("INVESTIQ_API_URL", srv.URL)
	t.Setenv("INVESTIQ_STATE_BACKEND", "file")
	t.Setenv("INVESTIQ_STATE_PATH", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("AI_MAX_ATTEMPTS", "1")
	return f
}

// run simula una invocación nueva del binario: el estado solo sobrevive en disco.
func run(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runErr(args...)
	require.NoError(t, err, out)
	return out
}

func runErr(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestWizardFlow_ToSubmission(t *testing.T) {
	f := setup(t)

	require.Contains(t, run(t, "init"), "started at step A")
	run(t, "set", "accountType=stocks-funds")
	require.Contains(t, run(t, "next"), "A -> B (Basics)")

	require.Contains(t, run(t, "next"), "step B is not complete")
	run(t, "set", "firstName=Alex", "lastName=Rivera", "email=alex@example.com", "mobile=5551234567")
	require.Contains(t, run(t, "next"), "B -> C")

	run(t, "set", "dob=1990-03-15", "isUsCitizen=true", "ssn=123-45-6789")
	require.NotContains(t, run(t, "show"), "123-45-6789")
	require.Contains(t, run(t, "next"), "C -> D")

	run(t, "set", "street=1 Main St", "city=Raleigh", "state=NC", "zip=27601")
	run(t, "next")
	run(t, "set", "employmentStatus=employed")
	run(t, "next")
	require.Contains(t, run(t, "next"), "F -> G (Review)")

	require.Contains(t, run(t, "next"), "step G is not complete")
	run(t, "set", "acknowledgedTerms=true", "acknowledgedRisks=true", "acknowledgedAccuracy=true", "acknowledgedPrivacy=true")
	require.Contains(t, run(t, "next"), "application submitted")

	_, sessions := f.recorded()
	require.Len(t, sessions, 1)
	require.Equal(t, "submitted", sessions[0].Updates["applicationStatus"])
	require.Equal(t, "Alex", sessions[0].Updates["firstName"])

	// repetir el envío no vuelve a persistir
	require.Contains(t, run(t, "submit"), "submitted")
	events, sessions := f.recorded()
	require.Len(t, sessions, 1)

	completed := 0
	for _, ev := range events {
		if ev.Completed {
			completed++
		}
	}
	require.Equal(t, 7, completed)
}

func TestSubmit_OutsideReview(t *testing.T) {
	setup(t)
	run(t, "init")
	_, err := runErr("submit")
	require.ErrorContains(t, err, "only available at step G")
}

func TestChat_HintMovesStep(t *testing.T) {
	f := setup(t)
	run(t, "init")
	run(t, "set", "accountType=stocks-funds-crypto")

	f.setNextStep("B")
	out := run(t, "chat", "I", "want", "crypto", "too")
	require.Contains(t, out, "assistant: Sounds good.")
	require.Contains(t, out, "moved to step B")
	require.Contains(t, run(t, "show"), "[>] B Basics")

	tr := run(t, "transcript")
	require.Contains(t, tr, "user: I want crypto too")
	require.Contains(t, tr, "assistant: Sounds good.")

	// el intercambio queda registrado como FAQ sin completar paso
	events, _ := f.recorded()
	require.NotEmpty(t, events)
	require.False(t, events[len(events)-1].Completed)
}

func TestReveal_TogglesMasking(t *testing.T) {
	setup(t)
	run(t, "init")
	run(t, "set", "ssn=123-45-6789")
	require.NotContains(t, run(t, "show"), "123-45-6789")

	run(t, "reveal", "on")
	require.Contains(t, run(t, "show"), "123-45-6789")

	run(t, "reset")
	require.NotContains(t, run(t, "show"), "123-45-6789")
}

func TestRisk_ScoresAndStores(t *testing.T) {
	setup(t)
	run(t, "init")
	require.Contains(t, run(t, "risk"), "--q1")
	require.Contains(t, run(t, "risk", "--q1", "buy-more", "--q2", "maximize", "--q3", "long"), "risk score 9: high")
	require.Contains(t, run(t, "show"), "high")
}

func TestKYC_StoresSession(t *testing.T) {
	setup(t)
	run(t, "init")
	run(t, "set", "firstName=Alex", "lastName=Rivera")
	require.Contains(t, run(t, "kyc"), "https://verify.example/v-42")

	var v view
	require.NoError(t, json.Unmarshal([]byte(run(t, "show", "--json")), &v))
	require.Equal(t, "pending", string(v.KYCStatus))
}

func TestSet_RejectsBadInput(t *testing.T) {
	setup(t)
	run(t, "init")

	_, err := runErr("set", "firstName")
	require.ErrorContains(t, err, "expected key=value")

	_, err = runErr("set", "isUsCitizen=maybe")
	require.Error(t, err)

	_, err = runErr("set", "favoriteColor=blue")
	require.Error(t, err)
}

func TestCorruptState_DoesNotBlockReset(t *testing.T) {
	setup(t)
	path := os.Getenv("INVESTIQ_STATE_PATH")
	for _, blob := range []string{
		`{"version":9,"state":{"sessionId":"old"}}`,
		`{"sessionId":"old","onboardingData":{"isUsCitizen":""}}`,
	} {
		require.NoError(t, os.WriteFile(path, []byte(blob), 0o600))
		require.Contains(t, run(t, "reset"), "session reset")
		require.Contains(t, run(t, "show"), "[>] A")
	}
}

func TestConfiguredIdentity_RemovedStartsAnonymousSession(t *testing.T) {
	setup(t)
	t.Setenv("INVESTIQ_USER_ID", "alice")
	run(t, "init")
	run(t, "set", "firstName=Alice", "ssn=123-45-6789")
	require.Contains(t, run(t, "show"), "alice")

	t.Setenv("INVESTIQ_USER_ID", "")
	out := run(t, "--json", "show")
	require.NotContains(t, out, "alice")
	require.NotContains(t, out, "Alice")
	require.NotContains(t, out, "6789")

	// una identidad fijada a mano no depende de la configuración
	run(t, "init", "--user", "bob")
	require.Contains(t, run(t, "show"), "bob")
}

func TestChat_RateLimitedMakesSingleCall(t *testing.T) {
	f := setup(t)
	t.Setenv("AI_MAX_ATTEMPTS", "3")
	run(t, "init")

	f.mu.Lock()
	f.limited = true
	f.mu.Unlock()
	out := run(t, "chat", "hello")
	require.Contains(t, out, "encountered an error")
	require.Contains(t, out, "try again in 30s")

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, 1, f.completes)
}
