package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/manasv777/investiq-hacknc/internal/analytics"
	"github.com/manasv777/investiq-hacknc/internal/assistant"
	"github.com/manasv777/investiq-hacknc/internal/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/session"
	"github.com/manasv777/investiq-hacknc/internal/wizard"
)

type view struct {
	SessionID         string                       `json:"sessionId"`
	UserID            string                       `json:"userId,omitempty"`
	CurrentStep       onboarding.Step              `json:"currentStep"`
	StepTitle         string                       `json:"stepTitle"`
	CompletedSteps    []onboarding.Step            `json:"completedSteps"`
	Missing           []string                     `json:"missing,omitempty"`
	Fields            onboarding.Fields            `json:"fields"`
	RevealPrivate     bool                         `json:"revealPrivate"`
	KYCStatus         onboarding.KYCStatus         `json:"kycStatus,omitempty"`
	ApplicationStatus onboarding.ApplicationStatus `json:"applicationStatus,omitempty"`
}

func stateView(st session.State) view {
	rec := st.Record
	return view{
		SessionID:         st.SessionID,
		UserID:            st.UserID,
		CurrentStep:       rec.CurrentStep,
		StepTitle:         rec.CurrentStep.Title(),
		CompletedSteps:    rec.Completed(),
		Missing:           onboarding.MissingFields(rec.CurrentStep, rec.Fields),
		Fields:            rec.Fields.Display(st.RevealPrivate),
		RevealPrivate:     st.RevealPrivate,
		KYCStatus:         rec.KYCStatus,
		ApplicationStatus: rec.ApplicationStatus,
	}
}

func renderState(w io.Writer, st session.State) {
	v := stateView(st)
	fmt.Fprintf(w, "session %s", v.SessionID)
	if v.UserID != "" {
		fmt.Fprintf(w, " (%s)", v.UserID)
	}
	fmt.Fprintln(w)

	var progress []string
	for _, s := range onboarding.Steps() {
		mark := " "
		switch {
		case s == v.CurrentStep:
			mark = ">"
		case contains(v.CompletedSteps, s):
			mark = "x"
		}
		progress = append(progress, fmt.Sprintf("[%s] %s %s", mark, s, s.Title()))
	}
	fmt.Fprintln(w, strings.Join(progress, "  "))

	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	for _, kv := range fieldPairs(v.Fields) {
		fmt.Fprintf(tw, "  %s\t%s\n", kv[0], kv[1])
	}
	_ = tw.Flush()

	if len(v.Missing) > 0 {
		fmt.Fprintf(w, "step %s needs: %s\n", v.CurrentStep, strings.Join(v.Missing, ", "))
	}
	if reason := onboarding.RejectionReason(v.CurrentStep, st.Record.Fields); reason != "" {
		fmt.Fprintln(w, reason)
	}
	if v.KYCStatus != "" {
		fmt.Fprintf(w, "identity verification: %s\n", v.KYCStatus)
	}
	if v.ApplicationStatus != "" && v.ApplicationStatus != onboarding.ApplicationDraft {
		fmt.Fprintf(w, "application: %s\n", v.ApplicationStatus)
	}
}

// fieldPairs lista los campos cargados ordenados por nombre JSON.
func fieldPairs(f onboarding.Fields) [][2]string {
	raw, _ := json.Marshal(f)
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, fmt.Sprint(m[k])})
	}
	return out
}

func contains(steps []onboarding.Step, s onboarding.Step) bool {
	for _, x := range steps {
		if x == s {
			return true
		}
	}
	return false
}

func (a *app) printResult(res wizard.Result) error {
	if a.asJSON {
		return a.printJSON(res)
	}
	switch {
	case res.Submitted:
		fmt.Fprintln(a.out, "application submitted")
	case res.Blocked:
		fmt.Fprintf(a.out, "step %s is not complete: %s\n", res.From, res.Reason)
	case res.Moved:
		fmt.Fprintf(a.out, "%s -> %s (%s)\n", res.From, res.To, res.To.Title())
	default:
		fmt.Fprintf(a.out, "still at step %s\n", res.From)
	}
	return nil
}

func (a *app) printReply(r assistant.Reply) error {
	if a.asJSON {
		return a.printJSON(r)
	}
	text := r.Text
	if !a.store.Snapshot().RevealPrivate {
		text = onboarding.MaskSensitive(text)
	}
	fmt.Fprintf(a.out, "assistant: %s\n", text)
	if r.RetryAfter > 0 {
		fmt.Fprintf(a.out, "rate limited; try again in %s\n", r.RetryAfter)
	}
	if r.Moved {
		fmt.Fprintf(a.out, "moved to step %s (%s)\n", r.Step, r.Step.Title())
	}
	return nil
}

func renderSummary(w io.Writer, sum analytics.Summary) {
	fmt.Fprintln(w, "funnel")
	for _, s := range onboarding.Steps() {
		fmt.Fprintf(w, "  %s %-16s %d\n", s, s.Title(), sum.Funnel[s])
	}
	fmt.Fprintln(w, "experience")
	for _, lvl := range onboarding.ExperienceLevels {
		fmt.Fprintf(w, "  %-16s %d\n", lvl, sum.ExperienceDistribution[lvl])
	}
	if len(sum.TopFAQs) > 0 {
		fmt.Fprintln(w, "top questions")
		for _, f := range sum.TopFAQs {
			fmt.Fprintf(w, "  %3d  %s\n", f.Count, f.Query)
		}
	}
}
