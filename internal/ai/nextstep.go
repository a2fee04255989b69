package ai

import (
	"strings"

	"github.com/manasv777/investiq-hacknc/internal/onboarding"
)

var accountPhrases = []string{"individual account", "personal account", "regular account"}

// NextStepHint sugiere a qué paso mover según el texto del usuario.
// Retorna "" cuando no hay sugerencia.
func NextStepHint(prompt string, current onboarding.Step) onboarding.Step {
	p := strings.ToLower(prompt)
	for _, phrase := range accountPhrases {
		if strings.Contains(p, phrase) {
			return onboarding.StepBasics
		}
	}
	if current == onboarding.StepAccountType && strings.Contains(p, "ready") && strings.Contains(p, "basics") {
		return onboarding.StepBasics
	}
	return ""
}
