package service

import (
	"crypto/rand"
	"crypto/sha256"
	"time"

	"golang.org/x/crypto/pbkdf2"

	cryptoDomain "github.com/medguard/compliance/internal/crypto/domain"
	apperrors "github.com/medguard/compliance/internal/errors"
)

// KeyManagerService implements the KeyManager interface.
//
// Keys are derived from a single master secret with PBKDF2-SHA256 and a fresh
// random salt per key, then cached in a KeyStore keyed by key id. Derivation
// is deterministic for a given (secret, salt) pair; managed keys differ
// because each derivation uses its own salt.
//
// Concurrency: GetKey and RotateKey for different key ids proceed
// independently; calls for the same id are serialized by the KeyStore so no
// caller observes a half-written key.
type KeyManagerService struct {
	masterSecret []byte
	iterations   int
	keyStore     *cryptoDomain.KeyStore
}

// NewKeyManager creates a new KeyManagerService.
//
// The master secret is the root input for all key derivation and must be kept
// out of logs and error messages. The iteration count controls PBKDF2 cost;
// values below 1 fall back to the OWASP-recommended 210000.
func NewKeyManager(masterSecret []byte, iterations int) *KeyManagerService {
	if iterations < 1 {
		iterations = 210000
	}
	return &KeyManagerService{
		masterSecret: masterSecret,
		iterations:   iterations,
		keyStore:     cryptoDomain.NewKeyStore(),
	}
}

// GenerateSalt returns a fresh cryptographically random 16-byte salt.
func (km *KeyManagerService) GenerateSalt() ([]byte, error) {
	salt := make([]byte, cryptoDomain.SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, apperrors.Wrap(cryptoDomain.ErrKeyDerivationFailed, "failed to generate salt")
	}
	return salt, nil
}

// GenerateIV returns a fresh cryptographically random 12-byte AEAD nonce.
func (km *KeyManagerService) GenerateIV() ([]byte, error) {
	iv := make([]byte, cryptoDomain.IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, apperrors.Wrap(cryptoDomain.ErrEncryptionFailed, "failed to generate IV")
	}
	return iv, nil
}

// DeriveKey derives a 32-byte key from the secret and salt with PBKDF2-SHA256.
// The same (secret, salt) pair always yields the same key; different salts
// yield different keys. Returns ErrKeyDerivationFailed when the secret or
// salt is unusable rather than producing a weak key.
func (km *KeyManagerService) DeriveKey(secret, salt []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, apperrors.Wrap(cryptoDomain.ErrKeyDerivationFailed, "empty secret")
	}
	if len(salt) != cryptoDomain.SaltSize {
		return nil, apperrors.Wrap(cryptoDomain.ErrKeyDerivationFailed, "invalid salt size")
	}

	return pbkdf2.Key(secret, salt, km.iterations, cryptoDomain.KeySize, sha256.New), nil
}

// GetKey returns the current key for the id, lazily deriving one from the
// master secret with a fresh salt when the id is unknown. Never errors on an
// unknown id; it errors only when derivation itself fails.
func (km *KeyManagerService) GetKey(keyID string) (*cryptoDomain.KeyRecord, error) {
	return km.keyStore.GetOrCreate(keyID, func() (*cryptoDomain.KeyRecord, error) {
		return km.newKey(keyID)
	})
}

// RotateKey generates and stores a brand-new key under the id, replacing any
// prior key. Two different ids never rotate to the same key because each
// rotation derives from a fresh salt.
func (km *KeyManagerService) RotateKey(keyID string) (*cryptoDomain.KeyRecord, error) {
	key, err := km.newKey(keyID)
	if err != nil {
		return nil, err
	}
	km.keyStore.Replace(keyID, key)
	return key, nil
}

// Close zeroes all managed key material and empties the cache.
func (km *KeyManagerService) Close() {
	km.keyStore.Close()
}

// newKey derives a fresh key record for the id from the master secret.
func (km *KeyManagerService) newKey(keyID string) (*cryptoDomain.KeyRecord, error) {
	salt, err := km.GenerateSalt()
	if err != nil {
		return nil, err
	}

	material, err := km.DeriveKey(km.masterSecret, salt)
	if err != nil {
		return nil, err
	}

	return &cryptoDomain.KeyRecord{
		KeyID:     keyID,
		Material:  material,
		Salt:      salt,
		CreatedAt: time.Now().UTC(),
	}, nil
}
