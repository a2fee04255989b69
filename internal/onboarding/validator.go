package onboarding

import "strings"

// RestrictedPersonMessage se muestra cuando el flag de persona restringida bloquea el paso E.
const RestrictedPersonMessage = "We're unable to open an account online for restricted persons. " +
	"Please contact support so a specialist can review your application."

// CanAdvance decide si se puede avanzar desde step con los valores actuales de f.
// Es pura: solo depende de sus argumentos.
func CanAdvance(step Step, f Fields) bool {
	return len(MissingFields(step, f)) == 0 && RejectionReason(step, f) == ""
}

// MissingFields retorna los nombres JSON de los campos requeridos ausentes en step.
// Un paso desconocido reporta su propio id como faltante.
func MissingFields(step Step, f Fields) []string {
	var missing []string
	need := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	needSet := func(name string, b *bool) {
		if b == nil {
			missing = append(missing, name)
		}
	}
	needTrue := func(name string, b *bool) {
		if !IsTrue(b) {
			missing = append(missing, name)
		}
	}

	switch step {
	case StepAccountType:
		need("accountType", f.AccountType)
	case StepBasics:
		need("firstName", f.FirstName)
		need("lastName", f.LastName)
		need("email", f.Email)
		need("mobile", f.Mobile)
	case StepIdentity:
		need("dob", f.DOB)
		// false explícito es una respuesta válida; nil no.
		needSet("isUsCitizen", f.IsUSCitizen)
	case StepAddress:
		need("street", f.Street)
		need("city", f.City)
		need("state", f.State)
		need("zip", f.Zip)
	case StepEmployment:
		need("employmentStatus", f.EmploymentStatus)
	case StepTrustedContact:
		// opcional
	case StepReview:
		needTrue("acknowledgedTerms", f.AcknowledgedTerms)
		needTrue("acknowledgedRisks", f.AcknowledgedRisks)
		needTrue("acknowledgedAccuracy", f.AcknowledgedAccuracy)
		needTrue("acknowledgedPrivacy", f.AcknowledgedPrivacy)
	default:
		missing = append(missing, string(step))
	}
	return missing
}

// RejectionReason retorna el mensaje de bloqueo duro del paso, o "" si no hay.
// Hoy solo el paso E tiene uno: persona restringida.
func RejectionReason(step Step, f Fields) string {
	if step == StepEmployment && IsTrue(f.IsRestrictedPerson) {
		return RestrictedPersonMessage
	}
	return ""
}
