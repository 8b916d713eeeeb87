package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/medguard/compliance/internal/crypto/domain"
)

// low iteration count keeps derivation fast in tests
const testIterations = 1000

func newTestKeyManager(t *testing.T) *KeyManagerService {
	t.Helper()
	return NewKeyManager([]byte("test-master-secret"), testIterations)
}

func TestKeyManagerService_GenerateSalt(t *testing.T) {
	km := newTestKeyManager(t)

	first, err := km.GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, first, cryptoDomain.SaltSize)

	second, err := km.GenerateSalt()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestKeyManagerService_GenerateIV(t *testing.T) {
	km := newTestKeyManager(t)

	first, err := km.GenerateIV()
	require.NoError(t, err)
	assert.Len(t, first, cryptoDomain.IVSize)

	second, err := km.GenerateIV()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestKeyManagerService_DeriveKey(t *testing.T) {
	km := newTestKeyManager(t)
	salt, err := km.GenerateSalt()
	require.NoError(t, err)

	t.Run("same secret and salt yield the same key", func(t *testing.T) {
		first, err := km.DeriveKey([]byte("secret"), salt)
		require.NoError(t, err)
		assert.Len(t, first, cryptoDomain.KeySize)

		second, err := km.DeriveKey([]byte("secret"), salt)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("different salts yield different keys", func(t *testing.T) {
		otherSalt, err := km.GenerateSalt()
		require.NoError(t, err)

		first, err := km.DeriveKey([]byte("secret"), salt)
		require.NoError(t, err)
		second, err := km.DeriveKey([]byte("secret"), otherSalt)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("different secrets yield different keys", func(t *testing.T) {
		first, err := km.DeriveKey([]byte("secret-a"), salt)
		require.NoError(t, err)
		second, err := km.DeriveKey([]byte("secret-b"), salt)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("empty secret fails with derivation error", func(t *testing.T) {
		_, err := km.DeriveKey(nil, salt)
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyDerivationFailed)
	})

	t.Run("invalid salt size fails with derivation error", func(t *testing.T) {
		_, err := km.DeriveKey([]byte("secret"), []byte("short"))
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyDerivationFailed)
	})
}

func TestKeyManagerService_GetKey(t *testing.T) {
	km := newTestKeyManager(t)

	t.Run("lazily creates key for unknown id", func(t *testing.T) {
		key, err := km.GetKey("patient-data")
		require.NoError(t, err)
		assert.Equal(t, "patient-data", key.KeyID)
		assert.Len(t, key.Material, cryptoDomain.KeySize)
		assert.False(t, key.CreatedAt.IsZero())
	})

	t.Run("returns the same key on repeat access", func(t *testing.T) {
		first, err := km.GetKey("repeat")
		require.NoError(t, err)
		second, err := km.GetKey("repeat")
		require.NoError(t, err)
		assert.Equal(t, first.Material, second.Material)
	})

	t.Run("different ids yield different keys", func(t *testing.T) {
		first, err := km.GetKey("key-a")
		require.NoError(t, err)
		second, err := km.GetKey("key-b")
		require.NoError(t, err)
		assert.NotEqual(t, first.Material, second.Material)
	})
}

func TestKeyManagerService_RotateKey(t *testing.T) {
	km := newTestKeyManager(t)

	t.Run("replaces the prior key", func(t *testing.T) {
		before, err := km.GetKey("rotating")
		require.NoError(t, err)
		beforeMaterial := make([]byte, len(before.Material))
		copy(beforeMaterial, before.Material)

		after, err := km.RotateKey("rotating")
		require.NoError(t, err)
		assert.NotEqual(t, beforeMaterial, after.Material)

		current, err := km.GetKey("rotating")
		require.NoError(t, err)
		assert.Equal(t, after.Material, current.Material)
	})

	t.Run("different ids never rotate to the same key", func(t *testing.T) {
		first, err := km.RotateKey("key-a")
		require.NoError(t, err)
		second, err := km.RotateKey("key-b")
		require.NoError(t, err)
		assert.NotEqual(t, first.Material, second.Material)
	})

	t.Run("concurrent rotate and get do not corrupt keys", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := km.RotateKey("contended")
				assert.NoError(t, err)
			}()
			wg.Add(1)
			go func() {
				defer wg.Done()
				key, err := km.GetKey("contended")
				assert.NoError(t, err)
				assert.Len(t, key.Material, cryptoDomain.KeySize)
			}()
		}
		wg.Wait()
	})
}
