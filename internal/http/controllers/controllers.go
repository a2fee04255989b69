// Package controllers es el composition root de los controllers HTTP:
// recibe services y clientes ya construidos y arma cada controller.
package controllers

import (
	aictrl "github.com/manasv777/investiq-hacknc/internal/http/controllers/ai"
	analyticsctrl "github.com/manasv777/investiq-hacknc/internal/http/controllers/analytics"
	healthctrl "github.com/manasv777/investiq-hacknc/internal/http/controllers/health"
	kycctrl "github.com/manasv777/investiq-hacknc/internal/http/controllers/kyc"
	ocrctrl "github.com/manasv777/investiq-hacknc/internal/http/controllers/ocr"
	sessionsctrl "github.com/manasv777/investiq-hacknc/internal/http/controllers/sessions"
	voicectrl "github.com/manasv777/investiq-hacknc/internal/http/controllers/voice"
	aisvc "github.com/manasv777/investiq-hacknc/internal/http/services/ai"
	healthsvc "github.com/manasv777/investiq-hacknc/internal/http/services/health"
	onbsvc "github.com/manasv777/investiq-hacknc/internal/http/services/onboarding"
)

type Deps struct {
	AI         aisvc.Service
	Onboarding onbsvc.Service
	Health     healthsvc.Service
	Analytics  analyticsctrl.Summarizer
	Speaker    voicectrl.Speaker
	KYC        kycctrl.SessionCreator
}

type Controllers struct {
	AI        *aictrl.AIController
	Voice     *voicectrl.VoiceController
	KYC       *kycctrl.KYCController
	Sessions  *sessionsctrl.SessionsController
	Logs      *sessionsctrl.LogsController
	Analytics *analyticsctrl.AnalyticsController
	OCR       *ocrctrl.OCRController
	Health    *healthctrl.HealthController
}

func New(d Deps) *Controllers {
	return &Controllers{
		AI:        aictrl.NewAIController(d.AI),
		Voice:     voicectrl.NewVoiceController(d.Speaker),
		KYC:       kycctrl.NewKYCController(d.KYC),
		Sessions:  sessionsctrl.NewSessionsController(d.Onboarding),
		Logs:      sessionsctrl.NewLogsController(d.Onboarding),
		Analytics: analyticsctrl.NewAnalyticsController(d.Analytics),
		OCR:       ocrctrl.NewOCRController(),
		Health:    healthctrl.NewHealthController(d.Health),
	}
}
