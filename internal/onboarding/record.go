package onboarding

import (
	"reflect"
	"sort"
	"strings"
	"time"
)

// Valores aceptados para los selects del wizard.
const (
	AccountStocksFunds       = "stocks-funds"
	AccountStocksFundsCrypto = "stocks-funds-crypto"
)

var (
	AccountTypes       = []string{AccountStocksFunds, AccountStocksFundsCrypto}
	EmploymentStatuses = []string{"employed", "self-employed", "student", "retired", "unemployed"}
	MilitaryStatuses   = []string{"currently-serving", "transitioning", "post-service"}
	MilitaryServices   = []string{"army", "marine-corps", "navy", "air-force", "space-force", "coast-guard"}
	ExperienceLevels   = []string{"beginner", "intermediate", "advanced"}
)

// KYCStatus es el estado reportado por el proveedor de verificación de identidad.
type KYCStatus string

const (
	KYCPending               KYCStatus = "pending"
	KYCApproved              KYCStatus = "approved"
	KYCRejected              KYCStatus = "rejected"
	KYCResubmissionRequested KYCStatus = "resubmission_requested"
)

// ApplicationStatus es el estado de decisión de la solicitud.
type ApplicationStatus string

const (
	ApplicationDraft     ApplicationStatus = "draft"
	ApplicationSubmitted ApplicationStatus = "submitted"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
)

// Fields agrupa los campos de formulario del wizard, por paso.
// Los strings vacíos equivalen a "ausente". Los booleanos son punteros:
// nil = no respondido, distinto de false explícito.
type Fields struct {
	// Paso A
	AccountType string `json:"accountType,omitempty"`

	// Paso B
	FirstName             string `json:"firstName,omitempty"`
	MiddleName            string `json:"middleName,omitempty"`
	LastName              string `json:"lastName,omitempty"`
	PreferredName         string `json:"preferredName,omitempty"`
	Email                 string `json:"email,omitempty"`
	Mobile                string `json:"mobile,omitempty"`
	HasMilitaryExperience *bool  `json:"hasMilitaryExperience,omitempty"`
	MilitaryStatus        string `json:"militaryStatus,omitempty"`
	MilitaryService       string `json:"militaryService,omitempty"`
	MilitaryRank          string `json:"militaryRank,omitempty"`

	// Paso C (DOB y SSN son sensibles)
	DOB         string `json:"dob,omitempty"`
	IsUSCitizen *bool  `json:"isUsCitizen,omitempty"`
	SSN         string `json:"ssn,omitempty"`

	// Paso D
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`

	// Paso E
	EmploymentStatus               string `json:"employmentStatus,omitempty"`
	JobTitle                       string `json:"jobTitle,omitempty"`
	EmployerName                   string `json:"employerName,omitempty"`
	FinancialInstitutionEmployment *bool  `json:"financialInstitutionEmployment,omitempty"`
	FinancialInstitutionName       string `json:"financialInstitutionName,omitempty"`
	IsRestrictedPerson             *bool  `json:"isRestrictedPerson,omitempty"`
	BackupWithholding              *bool  `json:"backupWithholding,omitempty"`

	// Paso F (opcional)
	TrustedContactName  string `json:"trustedContactName,omitempty"`
	TrustedContactEmail string `json:"trustedContactEmail,omitempty"`
	TrustedContactPhone string `json:"trustedContactPhone,omitempty"`

	// Paso G
	AcknowledgedTerms    *bool `json:"acknowledgedTerms,omitempty"`
	AcknowledgedRisks    *bool `json:"acknowledgedRisks,omitempty"`
	AcknowledgedAccuracy *bool `json:"acknowledgedAccuracy,omitempty"`
	AcknowledgedPrivacy  *bool `json:"acknowledgedPrivacy,omitempty"`

	// Perfil de riesgo
	RiskTolerance   string `json:"riskTolerance,omitempty"`
	ExperienceLevel string `json:"experienceLevel,omitempty"`
}

var fieldNames = func() []string {
	t := reflect.TypeOf(Fields{})
	out := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			out = append(out, name)
		}
	}
	return out
}()

// FieldNames lista los nombres JSON de todos los campos de formulario.
func FieldNames() []string {
	return append([]string(nil), fieldNames...)
}

// Record es el agregado mutable de un intento de apertura (OnboardingRecord).
type Record struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId,omitempty"`

	Fields

	CurrentStep    Step       `json:"currentStep"`
	CompletedSteps []Step     `json:"completedSteps"`
	StartedAt      time.Time  `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`

	// Verificación de identidad
	KYCProvider  string     `json:"kycProvider,omitempty"`
	KYCSessionID string     `json:"kycSessionId,omitempty"`
	KYCStatus    KYCStatus  `json:"kycStatus,omitempty"`
	KYCURL       string     `json:"kycUrl,omitempty"`
	KYCUpdatedAt *time.Time `json:"kycUpdatedAt,omitempty"`

	// Decisión
	ApplicationStatus ApplicationStatus `json:"applicationStatus,omitempty"`
	ApprovedAt        *time.Time        `json:"approvedAt,omitempty"`
}

// NewRecord crea un registro en blanco apuntando al primer paso.
func NewRecord(sessionID, userID string, now time.Time) Record {
	return Record{
		SessionID:         sessionID,
		UserID:            userID,
		CurrentStep:       FirstStep,
		CompletedSteps:    []Step{},
		StartedAt:         now.UTC(),
		ApplicationStatus: ApplicationDraft,
	}
}

// IsCompleted indica si step está en el set de pasos completados.
func (r Record) IsCompleted(step Step) bool {
	for _, s := range r.CompletedSteps {
		if s == step {
			return true
		}
	}
	return false
}

// MarkCompleted inserta step en el set. Idempotente; retorna false si ya estaba.
// El set se mantiene ordenado por la secuencia de pasos.
func (r *Record) MarkCompleted(step Step) bool {
	if !step.Valid() || r.IsCompleted(step) {
		return false
	}
	r.CompletedSteps = append(r.CompletedSteps, step)
	sort.Slice(r.CompletedSteps, func(i, j int) bool {
		return r.CompletedSteps[i].Index() < r.CompletedSteps[j].Index()
	})
	return true
}

// Completed retorna los pasos completados en orden de secuencia.
func (r Record) Completed() []Step {
	out := make([]Step, len(r.CompletedSteps))
	copy(out, r.CompletedSteps)
	return out
}

// IsTerminal es true cuando el registro ya tiene fecha de completado.
func (r Record) IsTerminal() bool {
	return r.CompletedAt != nil
}

// Clone retorna una copia profunda (punteros incluidos).
func (r Record) Clone() Record {
	out := r
	out.Fields = r.Fields.clone()
	out.CompletedSteps = r.Completed()
	out.CompletedAt = cloneTime(r.CompletedAt)
	out.KYCUpdatedAt = cloneTime(r.KYCUpdatedAt)
	out.ApprovedAt = cloneTime(r.ApprovedAt)
	return out
}

func (f Fields) clone() Fields {
	out := f
	for _, name := range BooleanFieldNames() {
		if p := f.boolRef(name); p != nil && *p != nil {
			*out.boolRef(name) = Bool(**p)
		}
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Bool retorna un puntero a v.
func Bool(v bool) *bool { return &v }

// IsTrue es true solo si b fue seteado explícitamente a true.
func IsTrue(b *bool) bool { return b != nil && *b }
