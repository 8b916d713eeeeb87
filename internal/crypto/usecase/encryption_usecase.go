package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	cryptoDomain "github.com/medguard/compliance/internal/crypto/domain"
	"github.com/medguard/compliance/internal/crypto/service"
	"github.com/medguard/compliance/internal/errors"
)

// BasicEncryptionUseCase encrypts individual values and records with keys
// derived from the master secret. It is safe for concurrent use.
type BasicEncryptionUseCase struct {
	keyManager   service.KeyManager
	aeadManager  service.AEADManager
	masterSecret []byte
	algorithm    cryptoDomain.Algorithm
	threshold    cryptoDomain.DataClassification
}

// NewBasicEncryptionUseCase returns a BasicEncryptionUseCase using the given
// algorithm for all new encryptions and encrypting record fields classified at
// or above threshold.
func NewBasicEncryptionUseCase(
	keyManager service.KeyManager,
	aeadManager service.AEADManager,
	masterSecret []byte,
	algorithm cryptoDomain.Algorithm,
	threshold cryptoDomain.DataClassification,
) *BasicEncryptionUseCase {
	return &BasicEncryptionUseCase{
		keyManager:   keyManager,
		aeadManager:  aeadManager,
		masterSecret: masterSecret,
		algorithm:    algorithm,
		threshold:    threshold,
	}
}

func (u *BasicEncryptionUseCase) EncryptValue(
	ctx context.Context,
	plaintext string,
	classification cryptoDomain.DataClassification,
	keyID string,
) (*cryptoDomain.EncryptedValue, error) {
	if !classification.Valid() {
		return nil, errors.Wrapf(cryptoDomain.ErrEncryptionFailed, "unknown classification %q", classification)
	}

	var key, salt []byte
	if keyID == "" {
		newSalt, err := u.keyManager.GenerateSalt()
		if err != nil {
			return nil, err
		}
		derived, err := u.keyManager.DeriveKey(u.masterSecret, newSalt)
		if err != nil {
			return nil, err
		}
		key, salt = derived, newSalt
	} else {
		record, err := u.keyManager.GetKey(keyID)
		if err != nil {
			return nil, err
		}
		key, salt = record.Material, record.Salt
	}

	iv, err := u.keyManager.GenerateIV()
	if err != nil {
		return nil, err
	}

	cipher, err := u.aeadManager.CreateCipher(key, u.algorithm)
	if err != nil {
		return nil, err
	}

	ciphertext, tag, err := cipher.Encrypt([]byte(plaintext), iv, []byte(classification))
	if err != nil {
		return nil, err
	}

	return &cryptoDomain.EncryptedValue{
		Data:           ciphertext,
		IV:             iv,
		Tag:            tag,
		Salt:           salt,
		Algorithm:      u.algorithm,
		Classification: classification,
		Timestamp:      time.Now().UTC(),
		KeyID:          keyID,
	}, nil
}

func (u *BasicEncryptionUseCase) DecryptValue(
	ctx context.Context,
	value *cryptoDomain.EncryptedValue,
) (string, error) {
	if value == nil {
		return "", errors.Wrap(cryptoDomain.ErrInvalidEncryptedValue, "nil value")
	}
	if err := value.Validate(); err != nil {
		return "", err
	}

	var key []byte
	if value.KeyID == "" {
		derived, err := u.keyManager.DeriveKey(u.masterSecret, value.Salt)
		if err != nil {
			return "", err
		}
		key = derived
	} else {
		managed, err := u.keyManager.GetKey(value.KeyID)
		if err != nil {
			return "", err
		}
		key = managed.Material
	}

	cipher, err := u.aeadManager.CreateCipher(key, value.Algorithm)
	if err != nil {
		return "", err
	}

	plaintext, err := cipher.Decrypt(value.Data, value.Tag, value.IV, []byte(value.Classification))
	if err != nil {
		return "", errors.Wrapf(cryptoDomain.ErrDecryptionFailed, "%v", err)
	}
	return string(plaintext), nil
}

func (u *BasicEncryptionUseCase) EncryptRecord(
	ctx context.Context,
	record *cryptoDomain.Record,
	classifications map[string]cryptoDomain.DataClassification,
) (*cryptoDomain.Record, error) {
	if record == nil {
		return nil, errors.Wrap(cryptoDomain.ErrEncryptionFailed, "nil record")
	}

	out := cryptoDomain.NewRecord()
	for _, name := range record.Names() {
		field, _ := record.Get(name)
		switch field.Kind() {
		case cryptoDomain.KindNull:
			out.Set(name, field)
			continue
		case cryptoDomain.KindEncrypted:
			// Already encrypted, pass through untouched.
			out.Set(name, field)
			continue
		}

		classification, mapped := classifications[name]
		if !mapped || classification.Sensitivity() < u.threshold.Sensitivity() {
			out.Set(name, field)
			continue
		}

		encrypted, err := u.EncryptValue(ctx, field.Plain(), classification, "")
		if err != nil {
			return nil, errors.Wrapf(err, "encrypt field %q", name)
		}
		out.Set(name, cryptoDomain.EncryptedField(encrypted))
	}
	return out, nil
}

func (u *BasicEncryptionUseCase) DecryptRecord(
	ctx context.Context,
	record *cryptoDomain.Record,
) (*cryptoDomain.Record, error) {
	if record == nil {
		return nil, errors.Wrap(cryptoDomain.ErrInvalidEncryptedValue, "nil record")
	}

	out := cryptoDomain.NewRecord()
	for _, name := range record.Names() {
		field, _ := record.Get(name)
		if field.Kind() != cryptoDomain.KindEncrypted {
			out.Set(name, field)
			continue
		}

		plaintext, err := u.DecryptValue(ctx, field.Encrypted())
		if err != nil {
			return nil, errors.Wrapf(err, "decrypt field %q", name)
		}
		out.SetPlain(name, plaintext)
	}
	return out, nil
}

func (u *BasicEncryptionUseCase) HashForIndex(value string, salt []byte) string {
	h := sha256.New()
	h.Write(salt)
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}

func (u *BasicEncryptionUseCase) ValidateEncryption(
	ctx context.Context,
	value *cryptoDomain.EncryptedValue,
) bool {
	_, err := u.DecryptValue(ctx, value)
	return err == nil
}

func (u *BasicEncryptionUseCase) Metadata(value *cryptoDomain.EncryptedValue) cryptoDomain.Metadata {
	if value == nil {
		return cryptoDomain.Metadata{}
	}
	return value.Metadata()
}
