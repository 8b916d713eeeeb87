// Package service implements context-driven input sanitization and
// injection-threat detection for healthcare form data.
package service

import (
	"context"

	sanitizeDomain "github.com/medguard/compliance/internal/sanitize/domain"
)

// BulkInput is one entry in a batch sanitization request.
type BulkInput struct {
	Value   string
	Context sanitizeDomain.Context
	Rule    string
}

// FormResult aggregates per-field sanitization of a healthcare form.
type FormResult struct {
	SanitizedData map[string]string                             `json:"sanitizedData"`
	Results       map[string]*sanitizeDomain.SanitizationResult `json:"results"`
	HasErrors     bool                                          `json:"hasErrors"`
}

// PatientValidationResult is the outcome of patient field validation.
// Sanitized values are always populated, even when validation fails.
type PatientValidationResult struct {
	IsValid       bool              `json:"isValid"`
	Errors        []string          `json:"errors,omitempty"`
	Warnings      []string          `json:"warnings,omitempty"`
	SanitizedData map[string]string `json:"sanitizedData"`
}

// Sanitizer defines the interface for input sanitization and threat detection.
type Sanitizer interface {
	// Sanitize strips the input per the context policy, then applies the
	// named validation rule when ruleName is non-empty. Rule violations are
	// reported in the result's Errors, never as a returned error.
	Sanitize(input string, ctx sanitizeDomain.Context, ruleName string) *sanitizeDomain.SanitizationResult

	// RegisterRule installs or replaces a named validation rule.
	RegisterRule(name string, rule sanitizeDomain.FieldRule)

	// DetectThreats scans the input for injection patterns independent of
	// sanitization. Ordinary clinical prose must produce no findings.
	DetectThreats(input string) *sanitizeDomain.ThreatReport

	// SanitizeHealthcareForm applies context-appropriate sanitization per
	// known field name and aggregates errors.
	SanitizeHealthcareForm(fields map[string]string) *FormResult

	// ValidatePatientData checks required patient fields and validates each
	// known field, always returning sanitized values.
	ValidatePatientData(fields map[string]string) *PatientValidationResult

	// BulkSanitize sanitizes a batch concurrently, preserving input order.
	BulkSanitize(ctx context.Context, inputs []BulkInput) ([]*sanitizeDomain.SanitizationResult, error)
}
