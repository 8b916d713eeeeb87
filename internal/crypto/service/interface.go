// Package service provides the cryptographic primitives for field-level
// encryption: AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305), PBKDF2 key
// derivation, and managed key rotation.
package service

import (
	"context"

	cryptoDomain "github.com/medguard/compliance/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
// The ciphertext and authentication tag are returned separately to match the
// persisted wire shape; implementations recombine them for verification.
type AEAD interface {
	// Encrypt encrypts plaintext under the given nonce with optional AAD and
	// returns the ciphertext and authentication tag.
	Encrypt(plaintext, nonce, aad []byte) (ciphertext, tag []byte, err error)

	// Decrypt authenticates ciphertext+tag under the nonce and AAD and
	// returns the plaintext. Any tampering with ciphertext, nonce, or tag
	// fails authentication.
	Decrypt(ciphertext, tag, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyManager derives, stores, rotates, and retrieves symmetric keys from a
// master secret. The keyed lookup cache is the only shared mutable state in
// the encryption layer; see domain.KeyStore for the concurrency discipline.
type KeyManager interface {
	// GenerateSalt returns a fresh cryptographically random key-derivation salt.
	GenerateSalt() ([]byte, error)

	// GenerateIV returns a fresh cryptographically random AEAD nonce.
	GenerateIV() ([]byte, error)

	// DeriveKey derives a 32-byte key from the secret and salt using PBKDF2.
	// Deterministic: the same (secret, salt) pair always yields the same key.
	DeriveKey(secret, salt []byte) ([]byte, error)

	// GetKey returns the current key for the id, lazily creating one when the
	// id is unknown. Never errors on an unknown id.
	GetKey(keyID string) (*cryptoDomain.KeyRecord, error)

	// RotateKey generates and stores a brand-new key under the id, replacing
	// and zeroing any prior key for that id.
	RotateKey(keyID string) (*cryptoDomain.KeyRecord, error)

	// Close zeroes all managed key material.
	Close()
}

// KMSKeeper is the subset of a KMS keeper used to unwrap the master secret.
// *secrets.Keeper from gocloud.dev implements it.
type KMSKeeper interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Close() error
}

// KMSService opens KMS keepers for master-secret wrapping.
type KMSService interface {
	// OpenKeeper opens a keeper for the configured KMS provider.
	// Returns an error if the KMS key URI is invalid or the connection fails.
	OpenKeeper(ctx context.Context, keyURI string) (KMSKeeper, error)
}
