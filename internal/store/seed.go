package store

import (
	"time"

	"github.com/manasv777/investiq-hacknc/internal/onboarding"
)

// DemoSessions son las tres sesiones de ejemplo del dashboard.
func DemoSessions(now time.Time) []onboarding.Record {
	day := 24 * time.Hour
	steps := onboarding.Steps()

	mk := func(id, user, first, last, email string, current onboarding.Step, done int, started time.Time, risk, exp string) onboarding.Record {
		r := onboarding.NewRecord(id, user, started)
		r.FirstName, r.LastName, r.Email = first, last, email
		r.CurrentStep = current
		for _, s := range steps[:done] {
			r.MarkCompleted(s)
		}
		r.RiskTolerance, r.ExperienceLevel = risk, exp
		return r
	}

	alex := mk("session-001", "user-001", "Alex", "Johnson", "alex@example.com",
		onboarding.StepReview, 6, now.Add(-day), "moderate", "beginner")
	jordan := mk("session-002", "user-002", "Jordan", "Smith", "jordan@example.com",
		onboarding.StepAddress, 3, now.Add(-2*day), "low", "beginner")
	taylor := mk("session-003", "user-003", "Taylor", "Williams", "taylor@example.com",
		onboarding.StepReview, 7, now.Add(-3*day), "high", "intermediate")
	done := now.Add(-259000 * time.Second).UTC()
	taylor.CompletedAt = &done
	taylor.ApplicationStatus = onboarding.ApplicationSubmitted

	return []onboarding.Record{alex, jordan, taylor}
}

// DemoFAQs son las preguntas frecuentes de ejemplo.
func DemoFAQs(now time.Time) []FAQLog {
	now = now.UTC()
	return []FAQLog{
		{
			SessionID: "session-001",
			UserQuery: "Why do you need my SSN?",
			AIReply:   "Your Social Security Number is required by federal law...",
			Category:  "Security",
			Timestamp: now,
		},
		{
			SessionID: "session-002",
			UserQuery: "What is a Roth IRA?",
			AIReply:   "A Roth IRA is a retirement savings account...",
			Category:  "Education",
			Timestamp: now,
		},
		{
			SessionID: "session-003",
			UserQuery: "What is risk tolerance?",
			AIReply:   "Risk tolerance is how comfortable you are with market ups and downs...",
			Category:  "Risk",
			Timestamp: now,
		},
	}
}
