package service_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sanitizeDomain "github.com/medguard/compliance/internal/sanitize/domain"
	"github.com/medguard/compliance/internal/sanitize/service"
)

func TestSanitize(t *testing.T) {
	s := service.NewSanitizer()

	t.Run("plain text strips all markup", func(t *testing.T) {
		result := s.Sanitize("hello <b>world</b><script>alert(1)</script>", sanitizeDomain.PlainText, "")
		assert.Equal(t, "hello worldalert(1)", result.SanitizedValue)
		assert.True(t, result.IsModified)
		assert.NotEmpty(t, result.Warnings)
	})

	t.Run("clean input is unmodified", func(t *testing.T) {
		result := s.Sanitize("John", sanitizeDomain.PlainText, "")
		assert.Equal(t, "John", result.SanitizedValue)
		assert.False(t, result.IsModified)
		assert.Empty(t, result.Warnings)
		assert.False(t, result.Timestamp.IsZero())
	})

	t.Run("html keeps allow-listed inline tags", func(t *testing.T) {
		result := s.Sanitize("<p>Take <b>two</b> daily</p><script>steal()</script>", sanitizeDomain.HTML, "")
		assert.Equal(t, "<p>Take <b>two</b> daily</p>", result.SanitizedValue)
		assert.True(t, result.IsModified)
	})

	t.Run("html strips event handlers and javascript uris", func(t *testing.T) {
		result := s.Sanitize(`<b onclick="evil()">bold</b> <a href="javascript:run()">x</a>`, sanitizeDomain.HTML, "")
		assert.NotContains(t, result.SanitizedValue, "onclick")
		assert.NotContains(t, result.SanitizedValue, "javascript:")
		assert.Contains(t, result.SanitizedValue, "<b>bold</b>")
	})

	t.Run("medical text preserves clinical prose", func(t *testing.T) {
		input := "Patient has Type 2 Diabetes. BP: 120/80 mmHg."
		result := s.Sanitize(input, sanitizeDomain.MedicalText, "")
		assert.Equal(t, input, result.SanitizedValue)
		assert.False(t, result.IsModified)
	})

	t.Run("sql query strips quotes and backslashes", func(t *testing.T) {
		result := s.Sanitize(`Robert'); DROP TABLE patients;--`, sanitizeDomain.SQLQuery, "")
		assert.NotContains(t, result.SanitizedValue, "'")
		assert.NotContains(t, result.SanitizedValue, `\`)
	})

	t.Run("file path strips traversal sequences", func(t *testing.T) {
		result := s.Sanitize(`../../../etc/passwd`, sanitizeDomain.FilePath, "")
		assert.Equal(t, "etc/passwd", result.SanitizedValue)

		result = s.Sanitize(`C:\..\..\secret`, sanitizeDomain.FilePath, "")
		assert.NotContains(t, result.SanitizedValue, "..")
		assert.NotContains(t, result.SanitizedValue, "C:")
	})

	t.Run("nested traversal sequences do not survive one pass", func(t *testing.T) {
		result := s.Sanitize(`....//....//etc/passwd`, sanitizeDomain.FilePath, "")
		assert.NotContains(t, result.SanitizedValue, "../")
	})

	t.Run("patient name keeps accented characters", func(t *testing.T) {
		result := s.Sanitize("José O'Brien-Gonzáles<script>", sanitizeDomain.PatientName, "")
		assert.Equal(t, "José O'Brien-Gonzáles", result.SanitizedValue)
	})

	t.Run("medical record number is uppercased alphanumeric", func(t *testing.T) {
		result := s.Sanitize("mrn-12 345x", sanitizeDomain.MedicalRecordNumber, "")
		assert.Equal(t, "MRN12345X", result.SanitizedValue)
	})

	t.Run("diagnosis code keeps icd10 character set", func(t *testing.T) {
		result := s.Sanitize("e11.9 ", sanitizeDomain.DiagnosisCode, "")
		assert.Equal(t, "E11.9", result.SanitizedValue)
	})
}

func TestSanitizeWithRule(t *testing.T) {
	s := service.NewSanitizer()

	t.Run("valid value passes rule", func(t *testing.T) {
		result := s.Sanitize("123-45-6789", sanitizeDomain.PlainText, "ssn")
		assert.False(t, result.HasErrors())
	})

	t.Run("invalid value reports rule error", func(t *testing.T) {
		result := s.Sanitize("not-an-ssn", sanitizeDomain.PlainText, "ssn")
		require.True(t, result.HasErrors())
		assert.Contains(t, result.Errors[0], "social security")
	})

	t.Run("rule runs after stripping", func(t *testing.T) {
		result := s.Sanitize("<b>123-45-6789</b>", sanitizeDomain.PlainText, "ssn")
		assert.False(t, result.HasErrors())
		assert.Equal(t, "123-45-6789", result.SanitizedValue)
	})

	t.Run("unknown rule reports error", func(t *testing.T) {
		result := s.Sanitize("value", sanitizeDomain.PlainText, "noSuchRule")
		require.True(t, result.HasErrors())
		assert.Contains(t, result.Errors[0], "unknown validation rule")
	})

	t.Run("registered rule replaces builtin", func(t *testing.T) {
		s.RegisterRule("ssn", sanitizeDomain.FieldRule{
			Pattern:      regexp.MustCompile(`^\d{9}$`),
			ErrorMessage: "digits only",
		})
		result := s.Sanitize("123-45-6789", sanitizeDomain.PlainText, "ssn")
		assert.True(t, result.HasErrors())

		result = s.Sanitize("123456789", sanitizeDomain.PlainText, "ssn")
		assert.False(t, result.HasErrors())
	})

	t.Run("empty optional value passes", func(t *testing.T) {
		result := s.Sanitize("", sanitizeDomain.PlainText, "email")
		assert.False(t, result.HasErrors())
	})

	t.Run("empty required value fails", func(t *testing.T) {
		result := s.Sanitize("", sanitizeDomain.PlainText, "patientName")
		assert.True(t, result.HasErrors())
	})
}

func TestDetectThreats(t *testing.T) {
	s := service.NewSanitizer()

	t.Run("flags malicious corpus", func(t *testing.T) {
		malicious := map[string]sanitizeDomain.ThreatType{
			`<script>alert("xss")</script>`: sanitizeDomain.ThreatXSS,
			`' OR '1'='1`:                   sanitizeDomain.ThreatSQLInjection,
			`../../../etc/passwd`:           sanitizeDomain.ThreatPathTraversal,
			"`whoami`":                      sanitizeDomain.ThreatCommandInjection,
		}
		for input, expected := range malicious {
			t.Run(string(expected), func(t *testing.T) {
				report := s.DetectThreats(input)
				require.True(t, report.HasThreats, input)
				found := false
				for _, threat := range report.Threats {
					if threat.Type == expected {
						found = true
					}
				}
				assert.True(t, found, "expected %s finding for %q", expected, input)
			})
		}
	})

	t.Run("does not flag safe clinical corpus", func(t *testing.T) {
		safe := []string{
			"Patient has Type 2 Diabetes",
			"Blood pressure: 120/80 mmHg",
			"Metformin 500mg twice daily",
			"Follow-up in 2 weeks for HbA1c recheck",
			"Patient's condition improved and stabilized",
			"O'Brien reports chest pain radiating to left arm",
		}
		for _, input := range safe {
			report := s.DetectThreats(input)
			assert.False(t, report.HasThreats, "false positive on %q: %v", input, report.Threats)
		}
	})

	t.Run("additional injection variants", func(t *testing.T) {
		variants := []string{
			`<iframe src="https://evil.example"></iframe>`,
			`<img src=x onerror=alert(1)>`,
			`1; DROP TABLE audit_logs`,
			`admin'--`,
			`$(cat /etc/shadow)`,
			`name; rm -rf /`,
		}
		for _, input := range variants {
			report := s.DetectThreats(input)
			assert.True(t, report.HasThreats, "missed threat in %q", input)
		}
	})

	t.Run("each threat type reported once", func(t *testing.T) {
		report := s.DetectThreats(`<script>x</script><iframe>y</iframe>`)
		require.True(t, report.HasThreats)
		count := 0
		for _, threat := range report.Threats {
			if threat.Type == sanitizeDomain.ThreatXSS {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})
}

func TestSanitizeHealthcareForm(t *testing.T) {
	s := service.NewSanitizer()

	t.Run("applies per-field contexts", func(t *testing.T) {
		form := s.SanitizeHealthcareForm(map[string]string{
			"firstName":           "José",
			"ssn":                 "123-45-6789",
			"medicalRecordNumber": "mrn1234",
			"notes":               "<p>Stable</p><script>x</script>",
		})
		assert.False(t, form.HasErrors)
		assert.Equal(t, "José", form.SanitizedData["firstName"])
		assert.Equal(t, "MRN1234", form.SanitizedData["medicalRecordNumber"])
		assert.Equal(t, "<p>Stable</p>", form.SanitizedData["notes"])
	})

	t.Run("aggregates field errors", func(t *testing.T) {
		form := s.SanitizeHealthcareForm(map[string]string{
			"firstName": "John",
			"ssn":       "bad-ssn",
			"email":     "not-an-email",
		})
		assert.True(t, form.HasErrors)
		assert.True(t, form.Results["ssn"].HasErrors())
		assert.True(t, form.Results["email"].HasErrors())
		assert.False(t, form.Results["firstName"].HasErrors())
	})

	t.Run("unknown fields default to plain text", func(t *testing.T) {
		form := s.SanitizeHealthcareForm(map[string]string{
			"customField": "<i>value</i>",
		})
		assert.Equal(t, "value", form.SanitizedData["customField"])
	})
}

func TestValidatePatientData(t *testing.T) {
	s := service.NewSanitizer()

	t.Run("valid patient passes", func(t *testing.T) {
		result := s.ValidatePatientData(map[string]string{
			"firstName":   "John",
			"lastName":    "Doe",
			"dateOfBirth": "1990-01-15",
		})
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Errors)
	})

	t.Run("missing required fields fail", func(t *testing.T) {
		result := s.ValidatePatientData(map[string]string{
			"firstName": "John",
		})
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Errors, "lastName is required")
		assert.Contains(t, result.Errors, "dateOfBirth is required")
	})

	t.Run("sanitized data returned even when invalid", func(t *testing.T) {
		result := s.ValidatePatientData(map[string]string{
			"firstName": "<b>John</b>",
			"ssn":       "bad",
		})
		assert.False(t, result.IsValid)
		assert.Equal(t, "John", result.SanitizedData["firstName"])
		assert.NotEmpty(t, result.SanitizedData)
	})
}

func TestBulkSanitize(t *testing.T) {
	s := service.NewSanitizer()
	ctx := context.Background()

	t.Run("preserves input order", func(t *testing.T) {
		inputs := []service.BulkInput{
			{Value: "first<script>x</script>", Context: sanitizeDomain.PlainText},
			{Value: "second", Context: sanitizeDomain.PlainText},
			{Value: "e11.9", Context: sanitizeDomain.DiagnosisCode},
		}
		results, err := s.BulkSanitize(ctx, inputs)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "firstx", results[0].SanitizedValue)
		assert.Equal(t, "second", results[1].SanitizedValue)
		assert.Equal(t, "E11.9", results[2].SanitizedValue)
	})

	t.Run("handles large batches", func(t *testing.T) {
		inputs := make([]service.BulkInput, 100)
		for i := range inputs {
			inputs[i] = service.BulkInput{Value: "Patient note <b>text</b>", Context: sanitizeDomain.PlainText}
		}
		results, err := s.BulkSanitize(ctx, inputs)
		require.NoError(t, err)
		require.Len(t, results, 100)
		for _, result := range results {
			assert.Equal(t, "Patient note text", result.SanitizedValue)
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		results, err := s.BulkSanitize(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
