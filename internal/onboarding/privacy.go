package onboarding

import (
	"regexp"
	"strings"
)

var (
	reSSN   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	reCard  = regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`)
	reEmail = regexp.MustCompile(`\b[\w.-]+@[\w.-]+\.\w+\b`)
	rePhone = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
)

// Mask oculta todo salvo los últimos 4 caracteres de value.
// Valores de 4 o menos caracteres se ocultan completos.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	r := []rune(value)
	keep := 4
	if len(r) <= keep {
		keep = 0
	}
	var b strings.Builder
	for i, c := range r {
		switch {
		case i >= len(r)-keep:
			b.WriteRune(c)
		case c == '-' || c == '/' || c == ' ':
			b.WriteRune(c)
		default:
			b.WriteRune('*')
		}
	}
	return b.String()
}

// MaskSensitive enmascara SSN, tarjetas, emails y teléfonos dentro de texto libre.
// Se aplica antes de loguear transcripts o mandarlos a terceros.
func MaskSensitive(text string) string {
	text = reSSN.ReplaceAllString(text, "***-**-****")
	text = reCard.ReplaceAllString(text, "****-****-****-****")
	text = reEmail.ReplaceAllStringFunc(text, func(email string) string {
		name, domain, _ := strings.Cut(email, "@")
		if name == "" {
			return email
		}
		return name[:1] + "***@" + domain
	})
	text = rePhone.ReplaceAllString(text, "***-***-****")
	return text
}

// Display retorna una copia de f lista para mostrar. Sin reveal, DOB y SSN
// salen enmascarados; el valor almacenado nunca cambia.
func (f Fields) Display(reveal bool) Fields {
	out := f.clone()
	if reveal {
		return out
	}
	out.DOB = Mask(out.DOB)
	out.SSN = Mask(out.SSN)
	return out
}
