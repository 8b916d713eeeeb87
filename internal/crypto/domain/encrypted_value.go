// Package domain defines the core types for classification-aware field encryption.
//
// An EncryptedValue is the only persisted or transmitted artifact of PHI:
// ciphertext, IV, authentication tag, and key-derivation salt plus non-secret
// metadata. A Record is an ordered mapping from field name to either a plain
// value or an EncryptedValue, matching the flat wire shape that mixes plain
// fields with <field>_encrypted / <field>_is_encrypted pairs.
package domain

import (
	"time"
)

// EncryptedValue holds one AEAD-encrypted field value together with the
// parameters needed to decrypt and authenticate it. Immutable once produced:
// any single-byte corruption of Data, IV, or Tag fails integrity validation.
//
// The JSON encoding is the wire shape: byte slices marshal as standard
// base64 and the timestamp as RFC 3339 UTC.
type EncryptedValue struct {
	// Data is the ciphertext without the authentication tag.
	Data []byte `json:"data"`
	// IV is the per-encryption nonce. Fresh for every call.
	IV []byte `json:"iv"`
	// Tag is the AEAD authentication tag.
	Tag []byte `json:"tag"`
	// Salt is the key-derivation salt used for this value.
	Salt []byte `json:"salt"`
	// Algorithm identifies the AEAD cipher used.
	Algorithm Algorithm `json:"algorithm"`
	// Classification is the data classification the value was encrypted under.
	Classification DataClassification `json:"classification"`
	// Timestamp records when the value was produced.
	Timestamp time.Time `json:"timestamp"`
	// KeyID names the key the value was encrypted with, when a managed key
	// was used instead of direct derivation from the master secret.
	KeyID string `json:"keyId,omitempty"`
}

// Validate checks the structural integrity of the encrypted value without
// performing any cryptographic work. Returns ErrInvalidEncryptedValue when a
// component is missing or has the wrong length.
func (ev *EncryptedValue) Validate() error {
	if ev == nil {
		return ErrInvalidEncryptedValue
	}
	if len(ev.IV) != IVSize {
		return ErrInvalidEncryptedValue
	}
	if len(ev.Tag) != TagSize {
		return ErrInvalidEncryptedValue
	}
	if len(ev.Salt) != SaltSize {
		return ErrInvalidEncryptedValue
	}
	if !ev.Classification.Valid() {
		return ErrInvalidEncryptedValue
	}
	switch ev.Algorithm {
	case AESGCM, ChaCha20:
	default:
		return ErrUnsupportedAlgorithm
	}
	return nil
}

// Metadata is the non-secret description of an EncryptedValue. Safe to log
// and to expose to callers without any decryption.
type Metadata struct {
	Algorithm      Algorithm          `json:"algorithm"`
	Classification DataClassification `json:"classification"`
	Timestamp      time.Time          `json:"timestamp"`
	KeyID          string             `json:"keyId,omitempty"`
}

// Metadata returns the non-secret metadata of the encrypted value.
func (ev *EncryptedValue) Metadata() Metadata {
	return Metadata{
		Algorithm:      ev.Algorithm,
		Classification: ev.Classification,
		Timestamp:      ev.Timestamp,
		KeyID:          ev.KeyID,
	}
}
