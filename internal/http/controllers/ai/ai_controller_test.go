package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/manasv777/investiq-hacknc/internal/ai"
	"github.com/manasv777/investiq-hacknc/internal/http/dto"
)

type fakeService struct{ err error }

func (f fakeService) Complete(context.Context, dto.CompleteRequest) (dto.CompleteResponse, error) {
	return dto.CompleteResponse{Text: "ok"}, f.err
}

func (f fakeService) Classify(context.Context, dto.ClassifyRequest) (dto.ClassifyResponse, error) {
	return dto.ClassifyResponse{}, f.err
}

func (fakeService) Explain(topic string) dto.ExplainResponse {
	return dto.ExplainResponse{Topic: topic, Text: "x"}
}

func complete(t *testing.T, err error) (*httptest.ResponseRecorder, dto.AIError) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/ai/complete", strings.NewReader(`{"prompt":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	NewAIController(fakeService{err: err}).Complete(rr, req)
	var body dto.AIError
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	return rr, body
}

func TestComplete_RateLimited(t *testing.T) {
	rr, body := complete(t, &domain.RateLimitError{})
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Equal(t, "30", rr.Header().Get("Retry-After"))
	require.Equal(t, "Gemini API quota exceeded", body.Error)
	require.Equal(t, 30, body.RetryAfter)
}

func TestComplete_GenericError(t *testing.T) {
	rr, body := complete(t, errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "AI error occurred", body.Error)
	require.Equal(t, "boom", body.Details)
}

func TestComplete_EmptyPrompt(t *testing.T) {
	rr, body := complete(t, domain.ErrEmptyPrompt)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Invalid prompt", body.Error)
}

func TestExplain_MissingTopic(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/ai/explain", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	NewAIController(fakeService{}).Explain(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
