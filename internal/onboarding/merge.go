package onboarding

import (
	"encoding/json"
	"fmt"
)

// Merge superpone updates (nombres JSON) sobre el registro, igual que un
// spread de objetos: cada clave presente reemplaza la anterior. Los nueve
// booleanos aceptan los strings legacy. SessionID nunca cambia.
func (r Record) Merge(updates map[string]any) (Record, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return r, fmt.Errorf("onboarding: encode record: %w", err)
	}
	var base map[string]any
	if err := json.Unmarshal(raw, &base); err != nil {
		return r, fmt.Errorf("onboarding: decode record: %w", err)
	}

	for k, v := range updates {
		if k == "sessionId" {
			continue
		}
		if IsBooleanField(k) {
			b, ok := CoerceBool(v)
			if !ok {
				return r, fmt.Errorf("onboarding: field %q expects true/false, got %v", k, v)
			}
			if b == nil {
				delete(base, k)
				continue
			}
			base[k] = *b
			continue
		}
		base[k] = v
	}

	merged, err := json.Marshal(base)
	if err != nil {
		return r, fmt.Errorf("onboarding: encode merge: %w", err)
	}
	var out Record
	if err := json.Unmarshal(merged, &out); err != nil {
		return r, fmt.Errorf("onboarding: invalid update: %w", err)
	}
	out.SessionID = r.SessionID
	steps := out.CompletedSteps
	out.CompletedSteps = []Step{}
	for _, st := range steps {
		out.MarkCompleted(st)
	}
	if !out.CurrentStep.Valid() {
		out.CurrentStep = FirstStep
	}
	return out, nil
}
