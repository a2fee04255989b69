package kyc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/manasv777/investiq-hacknc/internal/kyc"
	"github.com/manasv777/investiq-hacknc/internal/onboarding"
)

type fakeCreator struct {
	got kyc.Request
	err error
}

func (f *fakeCreator) CreateSession(_ context.Context, req kyc.Request) (kyc.Session, error) {
	f.got = req
	if f.err != nil {
		return kyc.Session{}, f.err
	}
	return kyc.Session{Provider: kyc.Provider, ExternalID: "v-1", URL: "https://magic.veriff.me/v/1", Status: onboarding.KYCPending}, nil
}

func call(c SessionCreator, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/kyc/veriff/session", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	NewKYCController(c).CreateSession(rr, req)
	return rr
}

func TestCreateSession(t *testing.T) {
	f := &fakeCreator{}
	rr := call(f, `{"sessionId":"s1","person":{"firstName":"Alex","lastName":"Johnson"}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"kycSessionId":"v-1"`)
	require.Equal(t, "Alex", f.got.Person.FirstName)

	require.Equal(t, http.StatusBadRequest, call(f, `{}`).Code)
	require.Equal(t, http.StatusServiceUnavailable, call(&fakeCreator{err: kyc.ErrNotConfigured}, `{"sessionId":"s1"}`).Code)
	require.Equal(t, http.StatusBadGateway, call(&fakeCreator{err: &kyc.UpstreamError{Status: 500}}, `{"sessionId":"s1"}`).Code)
}
