// Package onboarding define el modelo del wizard de apertura de cuenta:
// la tabla ordenada de pasos, el registro de onboarding, el validador de
// pasos y el transcript del chat.
//
// Todo lo de este paquete es puro (sin I/O). La persistencia vive en
// internal/session y la orquestación en internal/wizard.
package onboarding

import (
	"fmt"
	"strings"
)

// Step identifica un paso del wizard. El orden de declaración es el orden total.
type Step string

const (
	StepAccountType    Step = "A"
	StepBasics         Step = "B"
	StepIdentity       Step = "C"
	StepAddress        Step = "D"
	StepEmployment     Step = "E"
	StepTrustedContact Step = "F"
	StepReview         Step = "G"
)

// FirstStep y LastStep delimitan la secuencia.
const (
	FirstStep = StepAccountType
	LastStep  = StepReview
)

var stepOrder = [...]Step{
	StepAccountType,
	StepBasics,
	StepIdentity,
	StepAddress,
	StepEmployment,
	StepTrustedContact,
	StepReview,
}

var stepTitles = map[Step]string{
	StepAccountType:    "Account type",
	StepBasics:         "Basics",
	StepIdentity:       "Identity",
	StepAddress:        "Address",
	StepEmployment:     "Employment",
	StepTrustedContact: "Trusted contact",
	StepReview:         "Review",
}

// Steps retorna una copia de la tabla ordenada de pasos.
func Steps() []Step {
	out := make([]Step, len(stepOrder))
	copy(out, stepOrder[:])
	return out
}

// ParseStep acepta "A".."G" (case-insensitive).
func ParseStep(s string) (Step, error) {
	st := Step(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("onboarding: unknown step %q", s)
	}
	return st, nil
}

// Valid indica si el paso pertenece a la enumeración.
func (s Step) Valid() bool {
	return s.Index() >= 0
}

// Index retorna la posición del paso en la secuencia, o -1 si no existe.
func (s Step) Index() int {
	for i, st := range stepOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Next retorna el paso siguiente. ok=false en el último paso.
func (s Step) Next() (Step, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(stepOrder) {
		return s, false
	}
	return stepOrder[i+1], true
}

// Prev retorna el paso anterior. ok=false en el primer paso.
func (s Step) Prev() (Step, bool) {
	i := s.Index()
	if i <= 0 {
		return s, false
	}
	return stepOrder[i-1], true
}

// Before indica si s está estrictamente antes que other.
func (s Step) Before(other Step) bool {
	return s.Index() < other.Index()
}

func (s Step) Title() string {
	if t, ok := stepTitles[s]; ok {
		return t
	}
	return string(s)
}

func (s Step) String() string { return string(s) }
