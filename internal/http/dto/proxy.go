package dto

import (
	"github.com/manasv777/investiq-hacknc/internal/kyc"
	"github.com/manasv777/investiq-hacknc/internal/ocr"
)

type SpeakRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId,omitempty"`
	Format  string `json:"format,omitempty"`
}

type KYCSessionRequest struct {
	SessionID string     `json:"sessionId"`
	Person    kyc.Person `json:"person"`
}

// OCRScanRequest lleva el texto ya reconocido y lo que el usuario declaró.
type OCRScanRequest struct {
	Text    string `json:"text"`
	Name    string `json:"name,omitempty"`
	DOB     string `json:"dob,omitempty"`
	Address string `json:"address,omitempty"`
}

type OCRScanResponse struct {
	Extracted ocr.Fields `json:"extracted"`
	Match     ocr.Match  `json:"match"`
	Passed    bool       `json:"passed"`
}
