package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	cryptoDomain "github.com/medguard/compliance/internal/crypto/domain"
)

// patientFieldClassifications is the fixed classification map for the patient
// record shape. Fields absent from the map pass through unencrypted.
var patientFieldClassifications = map[string]cryptoDomain.DataClassification{
	"firstName":        cryptoDomain.PHI,
	"lastName":         cryptoDomain.PHI,
	"middleName":       cryptoDomain.PHI,
	"dateOfBirth":      cryptoDomain.PHI,
	"ssn":              cryptoDomain.PHI,
	"email":            cryptoDomain.PHI,
	"phone":            cryptoDomain.PHI,
	"address":          cryptoDomain.PHI,
	"city":             cryptoDomain.PHI,
	"zipCode":          cryptoDomain.PHI,
	"insuranceId":      cryptoDomain.PHI,
	"emergencyContact": cryptoDomain.PHI,

	"patientId":  cryptoDomain.Internal,
	"providerId": cryptoDomain.Internal,
	"status":     cryptoDomain.Internal,
	"createdAt":  cryptoDomain.Internal,
	"updatedAt":  cryptoDomain.Internal,

	"preferredLanguage": cryptoDomain.Public,
	"state":             cryptoDomain.Public,
}

// PatientDataUseCase implements the PatientUseCase interface.
type PatientDataUseCase struct {
	encryption EncryptionUseCase
}

// NewPatientDataUseCase creates a new PatientDataUseCase.
func NewPatientDataUseCase(encryption EncryptionUseCase) *PatientDataUseCase {
	return &PatientDataUseCase{encryption: encryption}
}

// PatientFieldClassification returns the classification of a patient field,
// or false if the field is not part of the patient record shape.
func PatientFieldClassification(field string) (cryptoDomain.DataClassification, bool) {
	c, ok := patientFieldClassifications[field]
	return c, ok
}

func (u *PatientDataUseCase) EncryptPatientData(
	ctx context.Context,
	record *cryptoDomain.Record,
) (*cryptoDomain.Record, error) {
	return u.encryption.EncryptRecord(ctx, record, patientFieldClassifications)
}

func (u *PatientDataUseCase) DecryptPatientData(
	ctx context.Context,
	record *cryptoDomain.Record,
) (*cryptoDomain.Record, error) {
	return u.encryption.DecryptRecord(ctx, record)
}

// CreatePatientHash computes the composite identity digest from the normalized
// name and birth date components. Normalization lowercases and trims each
// component so formatting differences in source systems do not split one
// patient into two.
func (u *PatientDataUseCase) CreatePatientHash(firstName, lastName, dateOfBirth string) string {
	normalize := func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	}
	composite := normalize(firstName) + "|" + normalize(lastName) + "|" + normalize(dateOfBirth)
	digest := sha256.Sum256([]byte(composite))
	return hex.EncodeToString(digest[:])
}
