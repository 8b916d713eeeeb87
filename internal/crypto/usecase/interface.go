// Package usecase implements the classification-aware encryption services.
//
// EncryptionUseCase encrypts single values and composite records field-by-field
// based on a caller-supplied classification map. PatientUseCase is the domain
// facade that fixes the classification map for the patient-record shape and
// adds a deterministic, salted lookup hash for searchable-without-decryption
// indexing.
package usecase

import (
	"context"

	cryptoDomain "github.com/medguard/compliance/internal/crypto/domain"
)

// EncryptionUseCase defines the interface for field-level data encryption.
type EncryptionUseCase interface {
	// EncryptValue encrypts a single plaintext value under the given
	// classification. When keyID is empty the key is derived directly from
	// the master secret with the value's own fresh salt; otherwise the
	// managed key for keyID is used. Every call produces different
	// ciphertext for the same input because salt and IV are fresh per call.
	EncryptValue(
		ctx context.Context,
		plaintext string,
		classification cryptoDomain.DataClassification,
		keyID string,
	) (*cryptoDomain.EncryptedValue, error)

	// DecryptValue decrypts a single encrypted value. Returns
	// ErrDecryptionFailed on tampered ciphertext, IV, or tag, and
	// ErrInvalidEncryptedValue on structurally invalid input.
	DecryptValue(ctx context.Context, value *cryptoDomain.EncryptedValue) (string, error)

	// EncryptRecord encrypts every field whose classification meets the
	// sensitivity threshold (PHI by default); all other fields pass through
	// unchanged, including null fields.
	EncryptRecord(
		ctx context.Context,
		record *cryptoDomain.Record,
		classifications map[string]cryptoDomain.DataClassification,
	) (*cryptoDomain.Record, error)

	// DecryptRecord reconstructs the original flat record, decrypting every
	// encrypted field and passing plain fields through unchanged.
	DecryptRecord(ctx context.Context, record *cryptoDomain.Record) (*cryptoDomain.Record, error)

	// HashForIndex computes a deterministic salted digest of the value for
	// equality search without decryption. Pure: equal (value, salt) inputs
	// always produce equal output.
	HashForIndex(value string, salt []byte) string

	// ValidateEncryption probes the integrity of an encrypted value by
	// attempting decryption. Returns false, never an error, on corruption.
	ValidateEncryption(ctx context.Context, value *cryptoDomain.EncryptedValue) bool

	// Metadata returns the non-secret metadata of an encrypted value
	// without performing any decryption.
	Metadata(value *cryptoDomain.EncryptedValue) cryptoDomain.Metadata
}

// PatientUseCase defines the patient-record facade over EncryptionUseCase.
type PatientUseCase interface {
	// EncryptPatientData encrypts a patient record using the fixed patient
	// classification map. Partial and empty records round-trip to the same
	// partial shape; null fields pass through unencrypted.
	EncryptPatientData(ctx context.Context, record *cryptoDomain.Record) (*cryptoDomain.Record, error)

	// DecryptPatientData restores the original patient record.
	DecryptPatientData(ctx context.Context, record *cryptoDomain.Record) (*cryptoDomain.Record, error)

	// CreatePatientHash computes a stable composite identity hash for
	// deduplication and search. Identical (firstName, lastName, dateOfBirth)
	// triples always hash identically; any differing component changes the hash.
	CreatePatientHash(firstName, lastName, dateOfBirth string) string
}
