package onboarding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Patch es una actualización parcial de Fields. Solo los campos no-nil se aplican
// (last-write-wins por campo). Un *string apuntando a "" borra el valor.
type Patch struct {
	AccountType *string `json:"accountType,omitempty"`

	FirstName             *string `json:"firstName,omitempty"`
	MiddleName            *string `json:"middleName,omitempty"`
	LastName              *string `json:"lastName,omitempty"`
	PreferredName         *string `json:"preferredName,omitempty"`
	Email                 *string `json:"email,omitempty"`
	Mobile                *string `json:"mobile,omitempty"`
	HasMilitaryExperience *bool   `json:"hasMilitaryExperience,omitempty"`
	MilitaryStatus        *string `json:"militaryStatus,omitempty"`
	MilitaryService       *string `json:"militaryService,omitempty"`
	MilitaryRank          *string `json:"militaryRank,omitempty"`

	DOB         *string `json:"dob,omitempty"`
	IsUSCitizen *bool   `json:"isUsCitizen,omitempty"`
	SSN         *string `json:"ssn,omitempty"`

	Street *string `json:"street,omitempty"`
	City   *string `json:"city,omitempty"`
	State  *string `json:"state,omitempty"`
	Zip    *string `json:"zip,omitempty"`

	EmploymentStatus               *string `json:"employmentStatus,omitempty"`
	JobTitle                       *string `json:"jobTitle,omitempty"`
	EmployerName                   *string `json:"employerName,omitempty"`
	FinancialInstitutionEmployment *bool   `json:"financialInstitutionEmployment,omitempty"`
	FinancialInstitutionName       *string `json:"financialInstitutionName,omitempty"`
	IsRestrictedPerson             *bool   `json:"isRestrictedPerson,omitempty"`
	BackupWithholding              *bool   `json:"backupWithholding,omitempty"`

	TrustedContactName  *string `json:"trustedContactName,omitempty"`
	TrustedContactEmail *string `json:"trustedContactEmail,omitempty"`
	TrustedContactPhone *string `json:"trustedContactPhone,omitempty"`

	AcknowledgedTerms    *bool `json:"acknowledgedTerms,omitempty"`
	AcknowledgedRisks    *bool `json:"acknowledgedRisks,omitempty"`
	AcknowledgedAccuracy *bool `json:"acknowledgedAccuracy,omitempty"`
	AcknowledgedPrivacy  *bool `json:"acknowledgedPrivacy,omitempty"`

	RiskTolerance   *string `json:"riskTolerance,omitempty"`
	ExperienceLevel *string `json:"experienceLevel,omitempty"`
}

// Apply mergea p sobre f.
func (p Patch) Apply(f *Fields) {
	setStr(&f.AccountType, p.AccountType)

	setStr(&f.FirstName, p.FirstName)
	setStr(&f.MiddleName, p.MiddleName)
	setStr(&f.LastName, p.LastName)
	setStr(&f.PreferredName, p.PreferredName)
	setStr(&f.Email, p.Email)
	setStr(&f.Mobile, p.Mobile)
	setBool(&f.HasMilitaryExperience, p.HasMilitaryExperience)
	setStr(&f.MilitaryStatus, p.MilitaryStatus)
	setStr(&f.MilitaryService, p.MilitaryService)
	setStr(&f.MilitaryRank, p.MilitaryRank)

	setStr(&f.DOB, p.DOB)
	setBool(&f.IsUSCitizen, p.IsUSCitizen)
	setStr(&f.SSN, p.SSN)

	setStr(&f.Street, p.Street)
	setStr(&f.City, p.City)
	setStr(&f.State, p.State)
	setStr(&f.Zip, p.Zip)

	setStr(&f.EmploymentStatus, p.EmploymentStatus)
	setStr(&f.JobTitle, p.JobTitle)
	setStr(&f.EmployerName, p.EmployerName)
	setBool(&f.FinancialInstitutionEmployment, p.FinancialInstitutionEmployment)
	setStr(&f.FinancialInstitutionName, p.FinancialInstitutionName)
	setBool(&f.IsRestrictedPerson, p.IsRestrictedPerson)
	setBool(&f.BackupWithholding, p.BackupWithholding)

	setStr(&f.TrustedContactName, p.TrustedContactName)
	setStr(&f.TrustedContactEmail, p.TrustedContactEmail)
	setStr(&f.TrustedContactPhone, p.TrustedContactPhone)

	setBool(&f.AcknowledgedTerms, p.AcknowledgedTerms)
	setBool(&f.AcknowledgedRisks, p.AcknowledgedRisks)
	setBool(&f.AcknowledgedAccuracy, p.AcknowledgedAccuracy)
	setBool(&f.AcknowledgedPrivacy, p.AcknowledgedPrivacy)

	setStr(&f.RiskTolerance, p.RiskTolerance)
	setStr(&f.ExperienceLevel, p.ExperienceLevel)
}

// IsEmpty es true si el patch no toca ningún campo.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Keys retorna los nombres JSON de los campos presentes, ordenados.
func (p Patch) Keys() []string {
	b, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PatchFromMap construye un Patch desde un mapa de nombres JSON a valores.
// Los campos booleanos aceptan bool o los strings legacy "true"/"false".
// Claves desconocidas o tipos inválidos devuelven error.
func PatchFromMap(values map[string]any) (Patch, error) {
	norm := make(map[string]any, len(values))
	for k, v := range values {
		if IsBooleanField(k) {
			b, ok := CoerceBool(v)
			if !ok {
				return Patch{}, fmt.Errorf("onboarding: field %q expects true/false, got %v", k, v)
			}
			if b == nil {
				continue
			}
			norm[k] = *b
			continue
		}
		norm[k] = v
	}

	raw, err := json.Marshal(norm)
	if err != nil {
		return Patch{}, fmt.Errorf("onboarding: encode patch: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var p Patch
	if err := dec.Decode(&p); err != nil {
		return Patch{}, fmt.Errorf("onboarding: invalid patch: %w", err)
	}
	return p, nil
}

// PatchFromStrings es PatchFromMap para pares key=value ya separados (CLI).
func PatchFromStrings(values map[string]string) (Patch, error) {
	m := make(map[string]any, len(values))
	for k, v := range values {
		m[k] = v
	}
	return PatchFromMap(m)
}

// String retorna un puntero a v.
func String(v string) *string { return &v }

func setStr(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst **bool, v *bool) {
	if v != nil {
		*dst = Bool(*v)
	}
}
