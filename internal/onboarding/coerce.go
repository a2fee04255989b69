package onboarding

import "strings"

// booleanFields son los nueve campos booleanos de compliance/acknowledgment.
// Versiones viejas del estado persistido los guardaban como "true"/"false".
var booleanFields = [...]string{
	"hasMilitaryExperience",
	"isUsCitizen",
	"financialInstitutionEmployment",
	"isRestrictedPerson",
	"backupWithholding",
	"acknowledgedTerms",
	"acknowledgedRisks",
	"acknowledgedAccuracy",
	"acknowledgedPrivacy",
}

// BooleanFieldNames retorna los nombres JSON de los campos booleanos.
func BooleanFieldNames() []string {
	out := make([]string, len(booleanFields))
	copy(out, booleanFields[:])
	return out
}

// IsBooleanField indica si name (nombre JSON) es uno de los campos booleanos.
func IsBooleanField(name string) bool {
	for _, f := range booleanFields {
		if f == name {
			return true
		}
	}
	return false
}

// CoerceBool interpreta v como booleano. Acepta bool y los strings legacy
// "true"/"false" (case-insensitive); "" equivale a sin respuesta.
// ok=false si v no es interpretable.
func CoerceBool(v any) (*bool, bool) {
	switch t := v.(type) {
	case bool:
		return Bool(t), true
	case *bool:
		if t == nil {
			return nil, true
		}
		return Bool(*t), true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true":
			return Bool(true), true
		case "false":
			return Bool(false), true
		case "":
			return nil, true
		}
	case nil:
		return nil, true
	}
	return nil, false
}

// boolRef retorna la dirección del campo booleano name, o nil si no existe.
func (f *Fields) boolRef(name string) **bool {
	switch name {
	case "hasMilitaryExperience":
		return &f.HasMilitaryExperience
	case "isUsCitizen":
		return &f.IsUSCitizen
	case "financialInstitutionEmployment":
		return &f.FinancialInstitutionEmployment
	case "isRestrictedPerson":
		return &f.IsRestrictedPerson
	case "backupWithholding":
		return &f.BackupWithholding
	case "acknowledgedTerms":
		return &f.AcknowledgedTerms
	case "acknowledgedRisks":
		return &f.AcknowledgedRisks
	case "acknowledgedAccuracy":
		return &f.AcknowledgedAccuracy
	case "acknowledgedPrivacy":
		return &f.AcknowledgedPrivacy
	}
	return nil
}
