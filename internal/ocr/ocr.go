// Package ocr aplica heurísticas sobre el texto reconocido de un documento de
// identidad y lo compara con los datos declarados. El reconocimiento en sí
// ocurre del lado del cliente.
package ocr

import (
	"math"
	"regexp"
	"strings"
)

// PassScore es el puntaje mínimo para considerar el documento consistente.
const PassScore = 70

// Fields son los campos que se lograron extraer. Vacío = no encontrado.
type Fields struct {
	Name           string `json:"name,omitempty"`
	Address        string `json:"address,omitempty"`
	DOB            string `json:"dob,omitempty"`
	DocumentNumber string `json:"documentNumber,omitempty"`
}

// Claimed son los datos que el usuario cargó en el wizard.
type Claimed struct {
	Name    string `json:"name,omitempty"`
	DOB     string `json:"dob,omitempty"`
	Address string `json:"address,omitempty"`
}

// Match es el resultado de la comparación. Score va de 0 a 100.
type Match struct {
	Score      int      `json:"score"`
	Matches    []string `json:"matches"`
	Mismatches []string `json:"mismatches"`
}

var (
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:name|nombre)[\s:]*([A-Z][a-z]+ [A-Z][a-z]+)`),
		regexp.MustCompile(`^([A-Z][a-z]+ [A-Z][a-z]+)$`),
	}
	dobPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:DOB|date of birth|birth date)[\s:]*(\d{2}/\d{2}/\d{4})`),
		regexp.MustCompile(`(\d{2}/\d{2}/\d{4})`),
	}
	addressPattern = regexp.MustCompile(`(?i)(\d+\s+[A-Za-z\s]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd))`)
	docNumPattern  = regexp.MustCompile(`(?i)(?:DL|ID|No|Number)[\s:]*([A-Z0-9-]+)`)

	notLetters      = regexp.MustCompile(`[^a-z\s]`)
	notDigits       = regexp.MustCompile(`[^0-9]`)
	notAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]`)
)

// ExtractFields busca nombre, fecha de nacimiento (MM/DD/YYYY), dirección y
// número de documento línea por línea. Los patrones se prueban en orden de
// especificidad: el primero que encuentra algo gana.
func ExtractFields(text string) Fields {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	var f Fields
	f.Name = firstMatch(namePatterns, lines)
	f.DOB = firstMatch(dobPatterns, lines)
	f.Address = firstMatch([]*regexp.Regexp{addressPattern}, lines)

	for _, line := range lines {
		if m := docNumPattern.FindStringSubmatch(line); m != nil && len(m[1]) >= 6 {
			f.DocumentNumber = m[1]
			break
		}
	}
	return f
}

func firstMatch(patterns []*regexp.Regexp, lines []string) string {
	for _, re := range patterns {
		for _, line := range lines {
			if m := re.FindStringSubmatch(line); m != nil {
				return m[1]
			}
		}
	}
	return ""
}

// MatchScore compara solo los campos presentes en ambos lados. Nombre y
// dirección aceptan coincidencia parcial; la fecha compara solo dígitos.
func MatchScore(extracted Fields, claimed Claimed) Match {
	m := Match{Matches: []string{}, Mismatches: []string{}}
	hits, total := 0, 0

	check := func(label string, ok bool) {
		total++
		if ok {
			hits++
			m.Matches = append(m.Matches, label)
		} else {
			m.Mismatches = append(m.Mismatches, label)
		}
	}

	if extracted.Name != "" && claimed.Name != "" {
		a := notLetters.ReplaceAllString(strings.ToLower(extracted.Name), "")
		b := notLetters.ReplaceAllString(strings.ToLower(claimed.Name), "")
		check("Name", contains(a, b))
	}
	if extracted.DOB != "" && claimed.DOB != "" {
		a := notDigits.ReplaceAllString(extracted.DOB, "")
		b := notDigits.ReplaceAllString(claimed.DOB, "")
		check("Date of Birth", a == b)
	}
	if extracted.Address != "" && claimed.Address != "" {
		a := notAlphanumeric.ReplaceAllString(strings.ToLower(extracted.Address), "")
		b := notAlphanumeric.ReplaceAllString(strings.ToLower(claimed.Address), "")
		check("Address", contains(a, b))
	}

	if total > 0 {
		m.Score = int(math.Round(float64(hits) / float64(total) * 100))
	}
	return m
}

func contains(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Verdict indica si el puntaje alcanza PassScore.
func Verdict(score int) bool { return score >= PassScore }
