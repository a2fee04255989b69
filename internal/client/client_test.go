package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manasv777/investiq-hacknc/internal/ai"
	"github.com/manasv777/investiq-hacknc/internal/http/dto"
	"github.com/manasv777/investiq-hacknc/internal/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/voice"
	"github.com/manasv777/investiq-hacknc/internal/wizard"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second, Token: "tok"})
}

func TestComplete_OK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/ai/complete", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var in dto.CompleteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Equal(t, "hola", in.Prompt)
		require.Equal(t, "B", in.CurrentStep)
		next := "C"
		_ = json.NewEncoder(w).Encode(dto.CompleteResponse{Text: "ok", NextStep: &next, Meta: dto.CompleteMeta{Model: "m"}})
	})

	out, err := c.Complete(context.Background(), ai.CompletionRequest{Prompt: "hola", CurrentStep: "B"})
	require.NoError(t, err)
	require.Equal(t, "ok", out.Text)
	require.Equal(t, onboarding.Step("C"), out.NextStep)
	require.Equal(t, "m", out.Model)
}

func TestComplete_RateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(dto.AIError{Error: "Gemini API quota exceeded", Details: "quota", RetryAfter: 30})
	})

	_, err := c.Complete(context.Background(), ai.CompletionRequest{Prompt: "x"})
	var rl *ai.RateLimitError
	require.ErrorAs(t, err, &rl)
	require.Equal(t, 30*time.Second, rl.RetryAfter)
	require.True(t, ai.IsRateLimited(err))
}

func TestComplete_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"AI error occurred"}`))
	})

	_, err := c.Complete(context.Background(), ai.CompletionRequest{Prompt: "x"})
	var up *ai.UpstreamError
	require.ErrorAs(t, err, &up)
	require.Equal(t, http.StatusInternalServerError, up.Status)
}

func TestAppendStepEvent(t *testing.T) {
	var got dto.AppendLogRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/logs/append", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	err := c.AppendStepEvent(context.Background(), wizard.StepEvent{SessionID: "s1", Step: "A", Completed: true, UserInput: "in"})
	require.NoError(t, err)
	require.Equal(t, dto.AppendLogRequest{SessionID: "s1", Step: "A", Completed: true, UserInput: "in"}, got)
}

func TestSaveSession_SendsRecordAsUpdates(t *testing.T) {
	var got dto.UpsertSessionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{}`))
	})

	rec := onboarding.NewRecord("s1", "", time.Now())
	rec.FirstName = "Alex"
	require.NoError(t, c.SaveSession(context.Background(), rec))
	require.Equal(t, "s1", got.SessionID)
	require.Equal(t, "Alex", got.Updates["firstName"])
}

func TestSaveSession_SendsClearedFieldsExplicitly(t *testing.T) {
	var got dto.UpsertSessionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{}`))
	})

	rec := onboarding.NewRecord("s1", "", time.Now())
	rec.FirstName = "Alex"
	require.NoError(t, c.SaveSession(context.Background(), rec))

	v, ok := got.Updates["trustedContactName"]
	require.True(t, ok)
	require.Equal(t, "", v)
	v, ok = got.Updates["isUsCitizen"]
	require.True(t, ok)
	require.Nil(t, v)
	for _, name := range onboarding.FieldNames() {
		require.Contains(t, got.Updates, name)
	}

	// el merge del servidor con estos updates borra lo que había
	prev := onboarding.NewRecord("s1", "", time.Now())
	prev.TrustedContactName = "Sam"
	prev.IsUSCitizen = onboarding.Bool(true)
	merged, err := prev.Merge(got.Updates)
	require.NoError(t, err)
	require.Empty(t, merged.TrustedContactName)
	require.Nil(t, merged.IsUSCitizen)
	require.Equal(t, "Alex", merged.FirstName)
}

func TestStartKYC(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var in dto.KYCSessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Equal(t, "Alex", in.Person.FirstName)
		_, _ = w.Write([]byte(`{"kycProvider":"veriff","kycSessionId":"v-1","kycUrl":"https://v/1","kycStatus":"pending"}`))
	})

	var f onboarding.Fields
	f.FirstName, f.SSN = "Alex", "123-45-6789"
	s, err := c.StartKYC(context.Background(), "s1", f)
	require.NoError(t, err)
	require.Equal(t, "v-1", s.ExternalID)
	require.Equal(t, "https://v/1", s.URL)
}

func TestStartKYC_Unavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"code":"SERVICE_UNAVAILABLE"}`))
	})

	_, err := c.StartKYC(context.Background(), "s1", onboarding.Fields{})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestSpeak(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("ID3"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	a, err := c.Speak(context.Background(), "hola", "")
	require.NoError(t, err)
	require.Equal(t, "audio/mpeg", a.ContentType)
	require.Equal(t, []byte("ID3"), a.Data)

	_, err = c.Speak(context.Background(), "hola", "")
	require.ErrorIs(t, err, voice.ErrNoAudio)
}

func TestAPIError_Code(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"MISSING_FIELDS","message":"x"}`))
	})

	err := c.LogFAQ(context.Background(), "s1", "", "", "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "MISSING_FIELDS", apiErr.Code)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
}
