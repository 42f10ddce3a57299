package storage

import (
	"fmt"

	"keksly-go/internal/keksly"
)

// EncryptedStore seals every value before handing it to the wrapped store.
// Keys stay in plaintext so the backend layout is unchanged.
type EncryptedStore struct {
	inner  keksly.Store
	sealer keksly.Sealer
}

// NewEncryptedStore wraps inner so values are sealed at rest.
func NewEncryptedStore(inner keksly.Store, sealer keksly.Sealer) *EncryptedStore {
	return &EncryptedStore{inner: inner, sealer: sealer}
}

func (s *EncryptedStore) Get(key string) (string, bool, error) {
	raw, ok, err := s.inner.Get(key)
	if err != nil || !ok {
		return "", ok, err
	}
	plain, err := s.sealer.Open([]byte(raw))
	if err != nil {
		return "", false, fmt.Errorf("opening %s: %w", key, err)
	}
	return string(plain), true, nil
}

func (s *EncryptedStore) Set(key, value string) error {
	sealed, err := s.sealer.Seal([]byte(value))
	if err != nil {
		return fmt.Errorf("sealing %s: %w", key, err)
	}
	return s.inner.Set(key, string(sealed))
}

func (s *EncryptedStore) Remove(key string) error {
	return s.inner.Remove(key)
}

// Close closes the wrapped store if it holds resources.
func (s *EncryptedStore) Close() error {
	if c, ok := s.inner.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Compile-time check that EncryptedStore implements keksly.Store interface
var _ keksly.Store = (*EncryptedStore)(nil)
