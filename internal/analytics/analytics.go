// Package analytics calcula las métricas del dashboard sobre lo guardado en
// el store.
package analytics

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/manasv777/investiq-hacknc/internal/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/store"
)

// TopFAQLimit es la cantidad de preguntas del ranking.
const TopFAQLimit = 5

type FAQCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

type Summary struct {
	Funnel                 map[onboarding.Step]int `json:"funnel"`
	TopFAQs                []FAQCount              `json:"topFAQs"`
	ExperienceDistribution map[string]int          `json:"experienceDistribution"`
	Timestamp              time.Time               `json:"timestamp"`
}

// Source es el subconjunto del store que se consulta.
type Source interface {
	ListSessions(ctx context.Context) ([]onboarding.Record, error)
	FAQLogs(ctx context.Context) ([]store.FAQLog, error)
}

type Service struct {
	src Source
	now func() time.Time
}

func New(src Source) *Service { return &Service{src: src, now: time.Now} }

// Summary arma las tres vistas en paralelo.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	g, gctx := errgroup.WithContext(ctx)

	var sessions []onboarding.Record
	g.Go(func() error {
		var err error
		sessions, err = s.src.ListSessions(gctx)
		return err
	})
	g.Go(func() error {
		faqs, err := s.src.FAQLogs(gctx)
		if err != nil {
			return err
		}
		out.TopFAQs = TopFAQs(faqs, TopFAQLimit)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	out.Funnel = Funnel(sessions)
	out.ExperienceDistribution = ExperienceDistribution(sessions)
	out.Timestamp = s.now().UTC()
	return out, nil
}

// Funnel cuenta cuántas sesiones completaron cada paso. Todos los pasos
// aparecen, aunque sea con cero.
func Funnel(sessions []onboarding.Record) map[onboarding.Step]int {
	f := make(map[onboarding.Step]int, len(onboarding.Steps()))
	for _, s := range onboarding.Steps() {
		f[s] = 0
	}
	for i := range sessions {
		for _, s := range sessions[i].CompletedSteps {
			if s.Valid() {
				f[s]++
			}
		}
	}
	return f
}

// TopFAQs agrupa por consulta en minúsculas y devuelve las limit más
// frecuentes. Empates por orden alfabético.
func TopFAQs(logs []store.FAQLog, limit int) []FAQCount {
	counts := map[string]int{}
	for _, l := range logs {
		counts[strings.ToLower(l.UserQuery)]++
	}
	out := make([]FAQCount, 0, len(counts))
	for q, n := range counts {
		out = append(out, FAQCount{Query: q, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Query < out[j].Query
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ExperienceDistribution cuenta sesiones por nivel declarado. Niveles
// desconocidos se ignoran.
func ExperienceDistribution(sessions []onboarding.Record) map[string]int {
	d := make(map[string]int, len(onboarding.ExperienceLevels))
	for _, lvl := range onboarding.ExperienceLevels {
		d[lvl] = 0
	}
	for i := range sessions {
		if _, ok := d[sessions[i].ExperienceLevel]; ok {
			d[sessions[i].ExperienceLevel]++
		}
	}
	return d
}

// ApplicationStatus deriva el estado que muestra el dashboard cuando el
// registro no trae uno explícito.
func ApplicationStatus(rec onboarding.Record) onboarding.ApplicationStatus {
	switch {
	case rec.ApprovedAt != nil:
		return onboarding.ApplicationApproved
	case rec.ApplicationStatus != "" && rec.ApplicationStatus != onboarding.ApplicationDraft:
		return rec.ApplicationStatus
	case rec.CompletedAt != nil:
		return onboarding.ApplicationSubmitted
	default:
		return onboarding.ApplicationDraft
	}
}
