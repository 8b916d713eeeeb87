package service

import (
	"regexp"

	sanitizeDomain "github.com/medguard/compliance/internal/sanitize/domain"
)

// builtinRules returns the default named validation rules for healthcare
// form fields.
func builtinRules() map[string]sanitizeDomain.FieldRule {
	return map[string]sanitizeDomain.FieldRule{
		"patientName": {
			Pattern:      regexp.MustCompile(`^[\p{L}][\p{L}\s'\-]*$`),
			MinLength:    1,
			MaxLength:    100,
			Required:     true,
			ErrorMessage: "patient name must contain only letters, spaces, hyphens, and apostrophes",
		},
		"ssn": {
			Pattern:      regexp.MustCompile(`^\d{3}-?\d{2}-?\d{4}$`),
			Required:     false,
			ErrorMessage: "invalid social security number format",
		},
		"phone": {
			Pattern:      regexp.MustCompile(`^\+?[\d\s().\-]{7,20}$`),
			Required:     false,
			ErrorMessage: "invalid phone number format",
		},
		"email": {
			Pattern:      regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`),
			MaxLength:    254,
			Required:     false,
			ErrorMessage: "invalid email address format",
		},
		"zipCode": {
			Pattern:      regexp.MustCompile(`^\d{5}(-\d{4})?$`),
			Required:     false,
			ErrorMessage: "invalid zip code format",
		},
		"medicalRecordNumber": {
			Pattern:      regexp.MustCompile(`^[A-Z0-9]{4,20}$`),
			Required:     false,
			ErrorMessage: "medical record number must be 4 to 20 alphanumeric characters",
		},
		"icd10": {
			Pattern:      regexp.MustCompile(`^[A-Z]\d{2}(\.\d{1,4})?$`),
			Required:     false,
			ErrorMessage: "invalid diagnosis code format",
		},
		"cpt": {
			Pattern:      regexp.MustCompile(`^\d{5}$`),
			Required:     false,
			ErrorMessage: "invalid procedure code format",
		},
		"medication": {
			MinLength:    2,
			MaxLength:    200,
			Required:     false,
			ErrorMessage: "medication name must be between 2 and 200 characters",
		},
	}
}
