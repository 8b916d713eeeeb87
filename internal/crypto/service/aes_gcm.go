package service

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	cryptoDomain "github.com/medguard/compliance/internal/crypto/domain"
)

// AESGCMCipher implements the AEAD interface using AES-256-GCM
// (Advanced Encryption Standard with Galois/Counter Mode).
//
// AES-GCM provides authenticated encryption with associated data, combining
// the confidentiality of AES with the authenticity of GMAC. This implementation
// uses AES-256 with a 256-bit key.
//
// Security properties:
//   - 256-bit key size
//   - 12-byte nonce (96 bits, supplied by the caller, fresh per encryption)
//   - 16-byte authentication tag, carried separately from the ciphertext
//   - Authenticated encryption prevents tampering and forgery
//
// Thread safety:
//
//	The cipher instance is stateless and safe for concurrent use from
//	multiple goroutines.
type AESGCMCipher struct {
	aead cipher.AEAD
}

// NewAESGCM creates a new AES-256-GCM cipher instance.
//
// The key must be exactly 32 bytes (256 bits) for AES-256. Keys should be
// produced by the key manager's PBKDF2 derivation or a cryptographically
// secure random generator.
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, errors.New("key must be exactly 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMCipher{aead: aead}, nil
}

// Encrypt encrypts plaintext using AES-256-GCM under the caller-supplied nonce.
//
// The AAD (Additional Authenticated Data) is authenticated but not encrypted,
// binding the ciphertext to context such as the field's classification so a
// relabeled value fails authentication. Pass nil when no context applies.
//
// Nonces must never be reused with the same key; the key manager generates a
// fresh random 12-byte nonce per call. The authentication tag is returned
// separately so the stored wire shape can carry {data, tag} as distinct
// fields.
func (a *AESGCMCipher) Encrypt(plaintext, nonce, aad []byte) (ciphertext, tag []byte, err error) {
	if len(nonce) != a.aead.NonceSize() {
		return nil, nil, errors.New("invalid nonce size")
	}

	sealed := a.aead.Seal(nil, nonce, plaintext, aad)
	split := len(sealed) - cryptoDomain.TagSize
	return sealed[:split], sealed[split:], nil
}

// Decrypt decrypts ciphertext using AES-256-GCM with the provided tag, nonce, and AAD.
//
// The same AAD used during encryption must be provided; a mismatch fails
// authentication. The tag is verified before any plaintext is returned, so
// tampered data never reaches the caller.
func (a *AESGCMCipher) Decrypt(ciphertext, tag, nonce, aad []byte) ([]byte, error) {
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := a.aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}
