package onboarding

// RiskOption es una respuesta posible a una pregunta de riesgo.
type RiskOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Score int    `json:"score"`
}

// RiskQuestion es una pregunta del cuestionario de tolerancia al riesgo.
type RiskQuestion struct {
	ID       string       `json:"id"`
	Question string       `json:"question"`
	Options  []RiskOption `json:"options"`
}

// Tolerancias posibles.
const (
	RiskLow      = "low"
	RiskModerate = "moderate"
	RiskHigh     = "high"
)

// RiskQuestions es el cuestionario fijo de tres preguntas.
var RiskQuestions = []RiskQuestion{
	{
		ID:       "q1",
		Question: "If you invested $1,000 today and it dropped to $800 next month, what would you do?",
		Options: []RiskOption{
			{Value: "sell", Label: "Sell immediately to prevent more loss", Score: 1},
			{Value: "hold", Label: "Hold and wait for recovery", Score: 2},
			{Value: "buy-more", Label: "Buy more while prices are lower", Score: 3},
		},
	},
	{
		ID:       "q2",
		Question: "What's your primary investment goal?",
		Options: []RiskOption{
			{Value: "preserve", Label: "Preserve my money safely", Score: 1},
			{Value: "grow-steady", Label: "Grow my money steadily over time", Score: 2},
			{Value: "maximize", Label: "Maximize growth even with higher risk", Score: 3},
		},
	},
	{
		ID:       "q3",
		Question: "How long do you plan to keep your money invested before you need it?",
		Options: []RiskOption{
			{Value: "short", Label: "Less than 2 years", Score: 1},
			{Value: "medium", Label: "2-5 years", Score: 2},
			{Value: "long", Label: "More than 5 years", Score: 3},
		},
	},
}

// ScoreRisk suma los puntajes de las respuestas. Preguntas u opciones
// desconocidas no suman.
func ScoreRisk(answers map[string]string) int {
	total := 0
	for qid, value := range answers {
		for _, q := range RiskQuestions {
			if q.ID != qid {
				continue
			}
			for _, opt := range q.Options {
				if opt.Value == value {
					total += opt.Score
				}
			}
		}
	}
	return total
}

// RiskToleranceFor mapea un puntaje a low (<=3), moderate (<=6) o high.
func RiskToleranceFor(score int) string {
	switch {
	case score <= 3:
		return RiskLow
	case score <= 6:
		return RiskModerate
	default:
		return RiskHigh
	}
}
