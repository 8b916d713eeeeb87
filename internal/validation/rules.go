// Package validation provides custom validation rules for healthcare payloads.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/medguard/compliance/internal/errors"
)

var (
	// emailRegex is a basic email validation pattern
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// icd10Regex matches ICD-10 diagnosis codes: a letter, two digits, and an
	// optional dot with one to four more digits (e.g., E11.9).
	icd10Regex = regexp.MustCompile(`^[A-Z]\d{2}(\.\d{1,4})?$`)

	// cptRegex matches CPT procedure codes: exactly five digits.
	cptRegex = regexp.MustCompile(`^\d{5}$`)

	// ssnRegex matches social security numbers with or without dashes.
	ssnRegex = regexp.MustCompile(`^\d{3}-?\d{2}-?\d{4}$`)

	// zipRegex matches five-digit zip codes with an optional plus-four suffix.
	zipRegex = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_not_blank", "must be a string")
	}
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_not_blank", "cannot be blank")
	}
	return nil
})

// Email validates email format
var Email = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_email", "must be a string")
	}
	if s != "" && !emailRegex.MatchString(s) {
		return validation.NewError("validation_email", "must be a valid email address")
	}
	return nil
})

// ICD10Code validates ICD-10 diagnosis code format
var ICD10Code = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_icd10", "must be a string")
	}
	if s != "" && !icd10Regex.MatchString(s) {
		return validation.NewError("validation_icd10", "must be a valid diagnosis code (e.g., E11.9)")
	}
	return nil
})

// CPTCode validates CPT procedure code format
var CPTCode = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_cpt", "must be a string")
	}
	if s != "" && !cptRegex.MatchString(s) {
		return validation.NewError("validation_cpt", "must be a five-digit procedure code")
	}
	return nil
})

// VitalRange validates that a measured vital sign falls inside a
// physiologically plausible range. Zero values pass when Optional is set so
// unmeasured vitals do not fail validation.
type VitalRange struct {
	Name     string
	Min      float64
	Max      float64
	Unit     string
	Optional bool
}

// Validate checks the vital against the configured range
func (v VitalRange) Validate(value interface{}) error {
	f, ok := toFloat(value)
	if !ok {
		return validation.NewError("validation_vital_range", v.Name+" must be numeric")
	}
	if f == 0 && v.Optional {
		return nil
	}
	if f < v.Min || f > v.Max {
		return validation.NewError(
			"validation_vital_range",
			fmt.Sprintf("%s must be between %g and %g %s", v.Name, v.Min, v.Max, v.Unit),
		)
	}
	return nil
}

func toFloat(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
