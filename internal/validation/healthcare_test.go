package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medguard/compliance/internal/validation"
)

func issuePaths(issues []validation.FieldIssue) []string {
	paths := make([]string, len(issues))
	for i, issue := range issues {
		paths[i] = issue.Path
	}
	return paths
}

func TestValidatePatient(t *testing.T) {
	t.Run("valid patient passes and is normalized", func(t *testing.T) {
		result := validation.ValidatePatient(validation.Patient{
			FirstName:   "  John ",
			LastName:    "Doe",
			DateOfBirth: "1990-01-15",
			Email:       "john@example.com",
			SSN:         "123-45-6789",
			ZipCode:     "90210",
		})
		require.True(t, result.Valid, "%v", result.Issues)
		assert.Equal(t, "John", result.Data.FirstName)
		assert.Empty(t, result.Issues)
	})

	t.Run("missing required fields", func(t *testing.T) {
		result := validation.ValidatePatient(validation.Patient{})
		require.False(t, result.Valid)
		paths := issuePaths(result.Issues)
		assert.Contains(t, paths, "firstName")
		assert.Contains(t, paths, "lastName")
		assert.Contains(t, paths, "dateOfBirth")
	})

	t.Run("future date of birth fails", func(t *testing.T) {
		result := validation.ValidatePatient(validation.Patient{
			FirstName:   "John",
			LastName:    "Doe",
			DateOfBirth: "2990-01-15",
		})
		require.False(t, result.Valid)
		assert.Contains(t, issuePaths(result.Issues), "dateOfBirth")
	})

	t.Run("malformed optional fields fail", func(t *testing.T) {
		result := validation.ValidatePatient(validation.Patient{
			FirstName:   "John",
			LastName:    "Doe",
			DateOfBirth: "1990-01-15",
			Email:       "not-an-email",
			SSN:         "12-345",
			ZipCode:     "ABCDE",
		})
		require.False(t, result.Valid)
		paths := issuePaths(result.Issues)
		assert.Contains(t, paths, "email")
		assert.Contains(t, paths, "ssn")
		assert.Contains(t, paths, "zipCode")
	})

	t.Run("empty optional fields pass", func(t *testing.T) {
		result := validation.ValidatePatient(validation.Patient{
			FirstName:   "John",
			LastName:    "Doe",
			DateOfBirth: "1990-01-15",
		})
		assert.True(t, result.Valid)
	})
}

func TestValidateAppointment(t *testing.T) {
	valid := validation.Appointment{
		PatientID:       "PAT123",
		ProviderID:      "PROV456",
		ScheduledAt:     "2026-09-15T10:30:00Z",
		DurationMinutes: 30,
	}

	t.Run("valid appointment passes", func(t *testing.T) {
		result := validation.ValidateAppointment(valid)
		require.True(t, result.Valid, "%v", result.Issues)
	})

	t.Run("duration bounds", func(t *testing.T) {
		tests := []struct {
			name    string
			minutes int
			valid   bool
		}{
			{"below minimum", 10, false},
			{"at minimum", 15, true},
			{"at maximum", 480, true},
			{"above maximum", 481, false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				a := valid
				a.DurationMinutes = tt.minutes
				result := validation.ValidateAppointment(a)
				assert.Equal(t, tt.valid, result.Valid)
			})
		}
	})

	t.Run("missing identifiers fail", func(t *testing.T) {
		result := validation.ValidateAppointment(validation.Appointment{
			ScheduledAt:     "2026-09-15T10:30:00Z",
			DurationMinutes: 30,
		})
		require.False(t, result.Valid)
		paths := issuePaths(result.Issues)
		assert.Contains(t, paths, "patientId")
		assert.Contains(t, paths, "providerId")
	})

	t.Run("malformed date fails", func(t *testing.T) {
		a := valid
		a.ScheduledAt = "next tuesday"
		result := validation.ValidateAppointment(a)
		require.False(t, result.Valid)
		assert.Contains(t, issuePaths(result.Issues), "scheduledAt")
	})
}

func TestValidateMedicalRecord(t *testing.T) {
	valid := validation.MedicalRecord{
		PatientID:      "PAT123",
		ProviderID:     "PROV456",
		DiagnosisCodes: []string{"E11.9", "I10"},
		ProcedureCodes: []string{"99213"},
		Vitals: validation.Vitals{
			Systolic:    120,
			Diastolic:   80,
			HeartRate:   72,
			Temperature: 36.8,
			Weight:      70,
			Height:      175,
		},
	}

	t.Run("valid record passes", func(t *testing.T) {
		result := validation.ValidateMedicalRecord(valid)
		require.True(t, result.Valid, "%v", result.Issues)
	})

	t.Run("codes are normalized to upper case", func(t *testing.T) {
		r := valid
		r.DiagnosisCodes = []string{" e11.9 "}
		result := validation.ValidateMedicalRecord(r)
		require.True(t, result.Valid, "%v", result.Issues)
		assert.Equal(t, []string{"E11.9"}, result.Data.DiagnosisCodes)
	})

	t.Run("invalid diagnosis code fails", func(t *testing.T) {
		r := valid
		r.DiagnosisCodes = []string{"E11.9", "11E.9"}
		result := validation.ValidateMedicalRecord(r)
		require.False(t, result.Valid)
	})

	t.Run("invalid procedure code fails", func(t *testing.T) {
		r := valid
		r.ProcedureCodes = []string{"123"}
		result := validation.ValidateMedicalRecord(r)
		require.False(t, result.Valid)
	})

	t.Run("implausible vitals fail", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*validation.Vitals)
		}{
			{"systolic too high", func(v *validation.Vitals) { v.Systolic = 300 }},
			{"diastolic too low", func(v *validation.Vitals) { v.Diastolic = 10 }},
			{"heart rate too high", func(v *validation.Vitals) { v.HeartRate = 400 }},
			{"temperature too low", func(v *validation.Vitals) { v.Temperature = 20 }},
			{"weight too high", func(v *validation.Vitals) { v.Weight = 800 }},
			{"height too low", func(v *validation.Vitals) { v.Height = 5 }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r := valid
				r.Vitals = valid.Vitals
				tt.mutate(&r.Vitals)
				result := validation.ValidateMedicalRecord(r)
				assert.False(t, result.Valid)
			})
		}
	})

	t.Run("unmeasured vitals pass", func(t *testing.T) {
		r := valid
		r.Vitals = validation.Vitals{}
		result := validation.ValidateMedicalRecord(r)
		assert.True(t, result.Valid, "%v", result.Issues)
	})

	t.Run("missing identifiers fail", func(t *testing.T) {
		result := validation.ValidateMedicalRecord(validation.MedicalRecord{})
		require.False(t, result.Valid)
	})
}
