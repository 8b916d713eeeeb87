package service

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	sanitizeDomain "github.com/medguard/compliance/internal/sanitize/domain"
)

// Stripping patterns. HTML handling is regexp-based on purpose: inputs here
// are short form fields, not full documents, and the policy is
// remove-dangerous-keep-allowlist rather than parse-and-rewrite.
var (
	dangerousTagRe  = regexp.MustCompile(`(?is)<\s*(script|iframe|object|embed|svg|style|form|link|meta)\b[^>]*>.*?<\s*/\s*(script|iframe|object|embed|svg|style|form|link|meta)\s*>`)
	dangerousOpenRe = regexp.MustCompile(`(?i)<\s*/?\s*(script|iframe|object|embed|svg|style|form|link|meta)\b[^>]*>`)
	eventAttrRe     = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	jsURIRe         = regexp.MustCompile(`(?i)javascript\s*:`)
	anyTagRe        = regexp.MustCompile(`<[^>]*>`)
	allowedTagRe    = regexp.MustCompile(`(?i)^<\s*/?\s*(b|i|em|strong|u|p|br)\s*/?\s*>$`)
	sqlCharsRe      = regexp.MustCompile(`['"\\;]`)
	traversalRe     = regexp.MustCompile(`\.\.[/\\]`)
	driveColonRe    = regexp.MustCompile(`(?i)^[a-z]:`)
	patientNameRe   = regexp.MustCompile(`[^\p{L}\s'\-]`)
	recordNumberRe  = regexp.MustCompile(`[^A-Z0-9]`)
	diagnosisRe     = regexp.MustCompile(`[^A-Z0-9.]`)
	medicationRe    = regexp.MustCompile(`[^\p{L}\p{N}\s.,/()\-%]`)
)

// SanitizerService implements the Sanitizer interface. Safe for concurrent
// use; rule registration and lookup share an RWMutex.
type SanitizerService struct {
	mu    sync.RWMutex
	rules map[string]sanitizeDomain.FieldRule
	clock func() time.Time
}

// NewSanitizer creates a SanitizerService with the built-in healthcare rules
// registered.
func NewSanitizer() *SanitizerService {
	s := &SanitizerService{
		rules: make(map[string]sanitizeDomain.FieldRule),
		clock: time.Now,
	}
	for name, rule := range builtinRules() {
		s.rules[name] = rule
	}
	return s
}

func (s *SanitizerService) RegisterRule(name string, rule sanitizeDomain.FieldRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[name] = rule
}

func (s *SanitizerService) Sanitize(
	input string,
	ctx sanitizeDomain.Context,
	ruleName string,
) *sanitizeDomain.SanitizationResult {
	sanitized, warnings := strip(input, ctx)

	result := &sanitizeDomain.SanitizationResult{
		SanitizedValue: sanitized,
		OriginalValue:  input,
		IsModified:     sanitized != input,
		Warnings:       warnings,
		Context:        ctx,
		Timestamp:      s.clock().UTC(),
	}

	if ruleName != "" {
		s.mu.RLock()
		rule, ok := s.rules[ruleName]
		s.mu.RUnlock()
		if !ok {
			result.Errors = append(result.Errors, "unknown validation rule: "+ruleName)
			return result
		}
		result.Errors = append(result.Errors, rule.Validate(sanitized)...)
	}
	return result
}

// strip applies the context's stripping policy and reports what was removed.
func strip(input string, ctx sanitizeDomain.Context) (string, []string) {
	var warnings []string
	out := input

	switch ctx {
	case sanitizeDomain.PlainText:
		if anyTagRe.MatchString(out) {
			warnings = append(warnings, "markup removed")
		}
		out = anyTagRe.ReplaceAllString(out, "")
		out = jsURIRe.ReplaceAllString(out, "")

	case sanitizeDomain.HTML, sanitizeDomain.MedicalText:
		before := out
		out = dangerousTagRe.ReplaceAllString(out, "")
		out = dangerousOpenRe.ReplaceAllString(out, "")
		out = eventAttrRe.ReplaceAllString(out, "")
		out = jsURIRe.ReplaceAllString(out, "")
		out = anyTagRe.ReplaceAllStringFunc(out, func(tag string) string {
			if allowedTagRe.MatchString(tag) {
				return tag
			}
			return ""
		})
		if out != before {
			warnings = append(warnings, "dangerous markup removed")
		}

	case sanitizeDomain.SQLQuery:
		if sqlCharsRe.MatchString(out) {
			warnings = append(warnings, "quote characters removed")
		}
		out = sqlCharsRe.ReplaceAllString(out, "")

	case sanitizeDomain.FilePath:
		before := out
		for traversalRe.MatchString(out) {
			out = traversalRe.ReplaceAllString(out, "")
		}
		out = driveColonRe.ReplaceAllString(out, "")
		if out != before {
			warnings = append(warnings, "path traversal sequences removed")
		}

	case sanitizeDomain.PatientName:
		out = anyTagRe.ReplaceAllString(out, "")
		out = patientNameRe.ReplaceAllString(out, "")

	case sanitizeDomain.MedicalRecordNumber:
		out = strings.ToUpper(out)
		out = recordNumberRe.ReplaceAllString(out, "")

	case sanitizeDomain.DiagnosisCode:
		out = strings.ToUpper(out)
		out = diagnosisRe.ReplaceAllString(out, "")

	case sanitizeDomain.Medication:
		out = anyTagRe.ReplaceAllString(out, "")
		out = medicationRe.ReplaceAllString(out, "")

	default:
		// Unknown contexts get the strictest treatment.
		out = anyTagRe.ReplaceAllString(out, "")
		out = jsURIRe.ReplaceAllString(out, "")
	}

	return strings.TrimSpace(out), warnings
}

// healthcareFormContexts maps known form field names to their sanitization
// context and validation rule.
var healthcareFormContexts = map[string]struct {
	context sanitizeDomain.Context
	rule    string
}{
	"firstName":           {sanitizeDomain.PatientName, "patientName"},
	"lastName":            {sanitizeDomain.PatientName, "patientName"},
	"middleName":          {sanitizeDomain.PatientName, ""},
	"ssn":                 {sanitizeDomain.PlainText, "ssn"},
	"email":               {sanitizeDomain.PlainText, "email"},
	"phone":               {sanitizeDomain.PlainText, "phone"},
	"zipCode":             {sanitizeDomain.PlainText, "zipCode"},
	"address":             {sanitizeDomain.PlainText, ""},
	"city":                {sanitizeDomain.PlainText, ""},
	"medicalRecordNumber": {sanitizeDomain.MedicalRecordNumber, "medicalRecordNumber"},
	"diagnosisCode":       {sanitizeDomain.DiagnosisCode, "icd10"},
	"medication":          {sanitizeDomain.Medication, "medication"},
	"notes":               {sanitizeDomain.MedicalText, ""},
}

func (s *SanitizerService) SanitizeHealthcareForm(fields map[string]string) *FormResult {
	result := &FormResult{
		SanitizedData: make(map[string]string, len(fields)),
		Results:       make(map[string]*sanitizeDomain.SanitizationResult, len(fields)),
	}
	for name, value := range fields {
		mapping, known := healthcareFormContexts[name]
		if !known {
			mapping.context = sanitizeDomain.PlainText
		}
		fieldResult := s.Sanitize(value, mapping.context, mapping.rule)
		result.SanitizedData[name] = fieldResult.SanitizedValue
		result.Results[name] = fieldResult
		if fieldResult.HasErrors() {
			result.HasErrors = true
		}
	}
	return result
}

// requiredPatientFields must be present and non-empty for a patient payload.
var requiredPatientFields = []string{"firstName", "lastName", "dateOfBirth"}

func (s *SanitizerService) ValidatePatientData(fields map[string]string) *PatientValidationResult {
	result := &PatientValidationResult{
		IsValid:       true,
		SanitizedData: make(map[string]string, len(fields)),
	}

	for _, required := range requiredPatientFields {
		if strings.TrimSpace(fields[required]) == "" {
			result.IsValid = false
			result.Errors = append(result.Errors, required+" is required")
		}
	}

	form := s.SanitizeHealthcareForm(fields)
	for name, fieldResult := range form.Results {
		result.SanitizedData[name] = fieldResult.SanitizedValue
		result.Errors = append(result.Errors, fieldResult.Errors...)
		result.Warnings = append(result.Warnings, fieldResult.Warnings...)
	}
	if form.HasErrors {
		result.IsValid = false
	}
	return result
}

func (s *SanitizerService) BulkSanitize(
	ctx context.Context,
	inputs []BulkInput,
) ([]*sanitizeDomain.SanitizationResult, error) {
	results := make([]*sanitizeDomain.SanitizationResult, len(inputs))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, input := range inputs {
		g.Go(func() error {
			results[i] = s.Sanitize(input.Value, input.Context, input.Rule)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
