package validation

import (
	"sort"
	"strings"
	"time"

	validation "github.com/jellydator/validation"
)

// FieldIssue is one validation failure, addressed by field path. Paths use
// the field's JSON name, matching the payload wire shape.
type FieldIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result is the discriminated outcome of a structural validation. When Valid
// is true, Data carries the normalized payload; otherwise Issues lists every
// failing field.
type Result[T any] struct {
	Valid  bool         `json:"valid"`
	Data   T            `json:"data,omitempty"`
	Issues []FieldIssue `json:"issues,omitempty"`
}

// Patient is the structural shape of a patient payload.
type Patient struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	MiddleName  string `json:"middleName,omitempty"`
	DateOfBirth string `json:"dateOfBirth"`
	SSN         string `json:"ssn,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
}

// Appointment is the structural shape of an appointment payload.
type Appointment struct {
	AppointmentID   string `json:"appointmentId,omitempty"`
	PatientID       string `json:"patientId"`
	ProviderID      string `json:"providerId"`
	ScheduledAt     string `json:"scheduledAt"`
	DurationMinutes int    `json:"durationMinutes"`
	Reason          string `json:"reason,omitempty"`
}

// Vitals holds one set of vital sign measurements. Zero values mean the vital
// was not measured.
type Vitals struct {
	Systolic    float64 `json:"systolic,omitempty"`
	Diastolic   float64 `json:"diastolic,omitempty"`
	HeartRate   float64 `json:"heartRate,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	Weight      float64 `json:"weight,omitempty"`
	Height      float64 `json:"height,omitempty"`
}

// MedicalRecord is the structural shape of a clinical record payload.
type MedicalRecord struct {
	PatientID      string   `json:"patientId"`
	ProviderID     string   `json:"providerId"`
	DiagnosisCodes []string `json:"diagnosisCodes,omitempty"`
	ProcedureCodes []string `json:"procedureCodes,omitempty"`
	Vitals         Vitals   `json:"vitals,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

const (
	minAppointmentMinutes = 15
	maxAppointmentMinutes = 480
)

// ValidatePatient validates and normalizes a patient payload. Names are
// trimmed and the date of birth must be an ISO date in the past.
func ValidatePatient(p Patient) Result[Patient] {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.MiddleName = strings.TrimSpace(p.MiddleName)
	p.DateOfBirth = strings.TrimSpace(p.DateOfBirth)

	err := validation.ValidateStruct(&p,
		validation.Field(&p.FirstName,
			validation.Required.Error("first name is required"),
			validation.Length(1, 100).Error("first name must be between 1 and 100 characters"),
		),
		validation.Field(&p.LastName,
			validation.Required.Error("last name is required"),
			validation.Length(1, 100).Error("last name must be between 1 and 100 characters"),
		),
		validation.Field(&p.DateOfBirth,
			validation.Required.Error("date of birth is required"),
			validation.By(pastISODate),
		),
		validation.Field(&p.Email, Email),
		validation.Field(&p.SSN,
			validation.Match(ssnRegex).Error("invalid social security number format"),
		),
		validation.Field(&p.ZipCode,
			validation.Match(zipRegex).Error("invalid zip code format"),
		),
	)
	return toResult(p, err)
}

// ValidateAppointment validates an appointment payload: required identifiers,
// RFC 3339 schedule date, and duration between 15 and 480 minutes.
func ValidateAppointment(a Appointment) Result[Appointment] {
	a.PatientID = strings.TrimSpace(a.PatientID)
	a.ProviderID = strings.TrimSpace(a.ProviderID)
	a.ScheduledAt = strings.TrimSpace(a.ScheduledAt)

	err := validation.ValidateStruct(&a,
		validation.Field(&a.PatientID,
			validation.Required.Error("patient id is required"),
		),
		validation.Field(&a.ProviderID,
			validation.Required.Error("provider id is required"),
		),
		validation.Field(&a.ScheduledAt,
			validation.Required.Error("scheduled date is required"),
			validation.By(rfc3339Date),
		),
		validation.Field(&a.DurationMinutes,
			validation.Required.Error("duration is required"),
			validation.Min(minAppointmentMinutes).Error("appointment must be at least 15 minutes"),
			validation.Max(maxAppointmentMinutes).Error("appointment must be at most 480 minutes"),
		),
	)
	return toResult(a, err)
}

// ValidateMedicalRecord validates a clinical record payload: required
// identifiers, diagnosis/procedure code formats, and vitals range sanity.
// Diagnosis and procedure codes are upper-cased during normalization.
func ValidateMedicalRecord(r MedicalRecord) Result[MedicalRecord] {
	r.PatientID = strings.TrimSpace(r.PatientID)
	r.ProviderID = strings.TrimSpace(r.ProviderID)
	for i, code := range r.DiagnosisCodes {
		r.DiagnosisCodes[i] = strings.ToUpper(strings.TrimSpace(code))
	}
	for i, code := range r.ProcedureCodes {
		r.ProcedureCodes[i] = strings.ToUpper(strings.TrimSpace(code))
	}

	err := validation.ValidateStruct(&r,
		validation.Field(&r.PatientID,
			validation.Required.Error("patient id is required"),
		),
		validation.Field(&r.ProviderID,
			validation.Required.Error("provider id is required"),
		),
		validation.Field(&r.DiagnosisCodes, validation.Each(ICD10Code)),
		validation.Field(&r.ProcedureCodes, validation.Each(CPTCode)),
		validation.Field(&r.Vitals),
	)
	return toResult(r, err)
}

// Validate checks every measured vital against its plausible range.
func (v Vitals) Validate() error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.Systolic,
			VitalRange{Name: "systolic pressure", Min: 60, Max: 250, Unit: "mmHg", Optional: true},
		),
		validation.Field(&v.Diastolic,
			VitalRange{Name: "diastolic pressure", Min: 30, Max: 150, Unit: "mmHg", Optional: true},
		),
		validation.Field(&v.HeartRate,
			VitalRange{Name: "heart rate", Min: 30, Max: 220, Unit: "bpm", Optional: true},
		),
		validation.Field(&v.Temperature,
			VitalRange{Name: "temperature", Min: 30, Max: 45, Unit: "°C", Optional: true},
		),
		validation.Field(&v.Weight,
			VitalRange{Name: "weight", Min: 0.5, Max: 500, Unit: "kg", Optional: true},
		),
		validation.Field(&v.Height,
			VitalRange{Name: "height", Min: 20, Max: 260, Unit: "cm", Optional: true},
		),
	)
}

func pastISODate(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return validation.NewError("validation_date", "must be a date in YYYY-MM-DD format")
	}
	if t.After(time.Now()) {
		return validation.NewError("validation_date", "must be a date in the past")
	}
	return nil
}

func rfc3339Date(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, s); err != nil {
		return validation.NewError("validation_date", "must be an RFC 3339 timestamp")
	}
	return nil
}

// toResult converts a jellydator validation error tree into a flat, sorted
// issue list.
func toResult[T any](data T, err error) Result[T] {
	if err == nil {
		return Result[T]{Valid: true, Data: data}
	}
	issues := flattenIssues("", err)
	sort.Slice(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return Result[T]{Valid: false, Data: data, Issues: issues}
}

func flattenIssues(prefix string, err error) []FieldIssue {
	errs, ok := err.(validation.Errors)
	if !ok {
		return []FieldIssue{{Path: prefix, Message: err.Error()}}
	}
	var issues []FieldIssue
	for field, fieldErr := range errs {
		path := field
		if prefix != "" {
			path = prefix + "." + field
		}
		issues = append(issues, flattenIssues(path, fieldErr)...)
	}
	return issues
}
