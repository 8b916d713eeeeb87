package domain

import (
	"sync"
	"time"
)

// KeyRecord holds one managed symmetric key. Key material is owned
// exclusively by the key manager and never leaves encryption operations.
type KeyRecord struct {
	KeyID     string
	Material  []byte
	Salt      []byte
	CreatedAt time.Time
}

// KeyStore is the concurrency-safe keyed lookup cache for managed keys.
// It is the one piece of shared mutable state in the encryption layer:
// operations on different key ids proceed independently, while creation and
// rotation of the same key id are serialized so no caller ever observes a
// half-written key.
type KeyStore struct {
	mu   sync.RWMutex
	keys map[string]*KeyRecord
}

// NewKeyStore creates an empty key store.
func NewKeyStore() *KeyStore {
	return &KeyStore{keys: make(map[string]*KeyRecord)}
}

// Get returns the current key for the id, if present.
func (s *KeyStore) Get(keyID string) (*KeyRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[keyID]
	return key, ok
}

// GetOrCreate returns the current key for the id, invoking create under the
// store lock when the id is unknown. Concurrent callers for the same id see
// exactly one created key.
func (s *KeyStore) GetOrCreate(keyID string, create func() (*KeyRecord, error)) (*KeyRecord, error) {
	s.mu.RLock()
	if key, ok := s.keys[keyID]; ok {
		s.mu.RUnlock()
		return key, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check: another caller may have created the key between locks.
	if key, ok := s.keys[keyID]; ok {
		return key, nil
	}
	key, err := create()
	if err != nil {
		return nil, err
	}
	s.keys[keyID] = key
	return key, nil
}

// Replace installs a new key under the id. The previous record is left
// intact because in-flight encryption calls may still hold it; all material
// is zeroed together on Close.
func (s *KeyStore) Replace(keyID string, key *KeyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[keyID] = key
}

// Len returns the number of managed keys.
func (s *KeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Close zeroes all key material and empties the store.
func (s *KeyStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.keys {
		Zero(key.Material)
	}
	s.keys = make(map[string]*KeyRecord)
}
