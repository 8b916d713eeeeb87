package domain

import (
	"github.com/medguard/compliance/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors so
// callers can branch on kind with errors.Is. Encryption and decryption errors
// are always surfaced to the caller: silent failure on PHI is unacceptable.
var (
	// ErrKeyDerivationFailed indicates the key-derivation primitive failed.
	//
	// Returned when PBKDF2 cannot produce key material, for example when the
	// master secret is missing or the underlying primitive is unavailable.
	// Distinct from encryption failures so operators can tell configuration
	// problems apart from data corruption.
	ErrKeyDerivationFailed = errors.Wrap(errors.ErrInternal, "key derivation failed")

	// ErrEncryptionFailed indicates an encryption operation failed.
	ErrEncryptionFailed = errors.Wrap(errors.ErrInternal, "encryption failed")

	// ErrDecryptionFailed indicates a decryption operation failed.
	//
	// This error can occur due to:
	//   - Wrong decryption key used
	//   - Ciphertext, IV, or tag has been tampered with (authentication failure)
	//   - Corrupted encrypted data
	//
	// For security reasons, the specific cause is not disclosed to prevent
	// information leakage that could aid attackers.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	//
	// All derived keys must be exactly 32 bytes (256 bits) for both
	// AES-256-GCM and ChaCha20-Poly1305.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	//
	// Supported algorithms: AESGCM (AES-256-GCM), ChaCha20 (ChaCha20-Poly1305).
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidEncryptedValue indicates an encrypted value is structurally
	// invalid: missing ciphertext, wrong IV length, truncated tag, or an
	// unknown classification. Returned before any cryptographic work is done.
	ErrInvalidEncryptedValue = errors.Wrap(errors.ErrInvalidInput, "invalid encrypted value")
)
