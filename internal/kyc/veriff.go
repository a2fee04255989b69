// Package kyc abre sesiones de verificación de identidad en Veriff.
package kyc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
	"github.com/manasv777/investiq-hacknc/internal/onboarding"
)

const (
	Provider       = "veriff"
	DefaultBaseURL = "https://api.veriff.me/v1"
)

// ErrNotConfigured: falta la API key. El edge responde "unavailable".
var ErrNotConfigured = errors.New("kyc: provider not configured")

// UpstreamError es una respuesta no-2xx de Veriff.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("kyc: veriff returned %d: %s", e.Status, e.Body)
}

type Config struct {
	APIKey string
	// BaseURL sin "/sessions".
	BaseURL string
	// CallbackURL recibe el webhook de decisión.
	CallbackURL string
	Timeout     time.Duration
}

// Person son los datos que se pre-cargan en la verificación.
type Person struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	IDNumber    string `json:"idNumber,omitempty"`
}

// PersonFromFields arma Person desde el registro. El SSN no se envía.
func PersonFromFields(f onboarding.Fields) Person {
	return Person{FirstName: f.FirstName, LastName: f.LastName, DateOfBirth: f.DOB}
}

type Request struct {
	SessionID string `json:"sessionId"`
	Person    Person `json:"person"`
}

// Session es la sesión creada. Status siempre arranca en pending.
type Session struct {
	Provider   string               `json:"kycProvider"`
	ExternalID string               `json:"kycSessionId"`
	URL        string               `json:"kycUrl"`
	Status     onboarding.KYCStatus `json:"kycStatus"`
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

func (c *Client) Configured() bool { return c.cfg.APIKey != "" }

type verificationPayload struct {
	Verification struct {
		Callback   string `json:"callback,omitempty"`
		Person     Person `json:"person"`
		VendorData string `json:"vendorData"`
		Document   struct {
			Type string `json:"type"`
		} `json:"document"`
	} `json:"verification"`
}

type verificationResponse struct {
	Status       string `json:"status"`
	Verification struct {
		ID    string `json:"id"`
		URL   string `json:"url"`
		Links struct {
			Veriff struct {
				Href string `json:"href"`
			} `json:"veriff"`
		} `json:"_links"`
	} `json:"verification"`
}

// CreateSession abre una verificación con vendorData = SessionID.
func (c *Client) CreateSession(ctx context.Context, req Request) (Session, error) {
	if !c.Configured() {
		return Session{}, ErrNotConfigured
	}
	var p verificationPayload
	p.Verification.Callback = c.cfg.CallbackURL
	p.Verification.Person = req.Person
	p.Verification.VendorData = req.SessionID
	p.Verification.Document.Type = "ID_CARD"

	body, err := json.Marshal(p)
	if err != nil {
		return Session{}, err
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/sessions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	httpReq.Header.Set("X-AUTH-CLIENT", c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Session{}, fmt.Errorf("kyc: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		logger.From(ctx).Warn("veriff session failed",
			logger.Layer("client"), logger.Provider(Provider), logger.Status(resp.StatusCode))
		return Session{}, &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var vr verificationResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return Session{}, fmt.Errorf("kyc: decode response: %w", err)
	}
	link := vr.Verification.Links.Veriff.Href
	if link == "" {
		link = vr.Verification.URL
	}
	return Session{
		Provider:   Provider,
		ExternalID: vr.Verification.ID,
		URL:        link,
		Status:     onboarding.KYCPending,
	}, nil
}
