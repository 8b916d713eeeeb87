// Package domain defines the input sanitization types: sanitization contexts,
// results, threat findings, and registrable field rules.
package domain

import (
	"regexp"
	"time"
)

// Context selects the stripping policy applied to an input.
type Context string

const (
	// PlainText strips all markup.
	PlainText Context = "plain_text"

	// HTML strips dangerous tags and attributes while keeping an allow-list
	// of inline formatting tags.
	HTML Context = "html"

	// MedicalText is HTML stripping tuned for clinical notes; the same
	// allow-list applies.
	MedicalText Context = "medical_text"

	// SQLQuery strips quote and backslash characters.
	SQLQuery Context = "sql_query"

	// FilePath strips traversal sequences and drive-letter colons.
	FilePath Context = "file_path"

	// PatientName keeps letters, spaces, hyphens, apostrophes, and accented
	// characters only.
	PatientName Context = "patient_name"

	// MedicalRecordNumber upper-cases and keeps alphanumerics only.
	MedicalRecordNumber Context = "medical_record_number"

	// DiagnosisCode keeps the ICD-10 character set (upper-case letters,
	// digits, dot).
	DiagnosisCode Context = "diagnosis_code"

	// Medication keeps letters, digits, spaces, and common dosage punctuation.
	Medication Context = "medication"
)

// SanitizationResult is the outcome of a single sanitize call. Produced once
// and never mutated afterwards.
type SanitizationResult struct {
	SanitizedValue string    `json:"sanitizedValue"`
	OriginalValue  string    `json:"originalValue"`
	IsModified     bool      `json:"isModified"`
	Warnings       []string  `json:"warnings,omitempty"`
	Errors         []string  `json:"errors,omitempty"`
	Context        Context   `json:"context"`
	Timestamp      time.Time `json:"timestamp"`
}

// HasErrors reports whether any validation rule failed.
func (r *SanitizationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ThreatType classifies a detected injection pattern.
type ThreatType string

const (
	ThreatXSS              ThreatType = "xss"
	ThreatSQLInjection     ThreatType = "sql_injection"
	ThreatPathTraversal    ThreatType = "path_traversal"
	ThreatCommandInjection ThreatType = "command_injection"
)

// Severity ranks a threat finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ThreatFinding is one detected threat pattern in an input.
type ThreatFinding struct {
	Type        ThreatType `json:"type"`
	Severity    Severity   `json:"severity"`
	Description string     `json:"description"`
}

// ThreatReport aggregates the findings for one input.
type ThreatReport struct {
	HasThreats bool            `json:"hasThreats"`
	Threats    []ThreatFinding `json:"threats"`
}

// FieldRule is a named, registrable validation rule applied after stripping.
type FieldRule struct {
	Pattern      *regexp.Regexp
	MinLength    int
	MaxLength    int
	Required     bool
	ErrorMessage string
}

// Validate checks the stripped value against the rule. A violated rule
// reports its single error message; an empty optional value passes.
func (r FieldRule) Validate(value string) []string {
	if value == "" {
		if r.Required {
			return []string{r.ErrorMessage}
		}
		return nil
	}
	switch {
	case r.MinLength > 0 && len(value) < r.MinLength,
		r.MaxLength > 0 && len(value) > r.MaxLength,
		r.Pattern != nil && !r.Pattern.MatchString(value):
		return []string{r.ErrorMessage}
	}
	return nil
}
