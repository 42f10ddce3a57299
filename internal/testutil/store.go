package testutil

import (
	"errors"
	"sync"

	"keksly-go/internal/keksly"
)

// ErrInjected is returned by FailingStore for every operation it fails.
var ErrInjected = errors.New("injected failure")

// MapStore is a minimal keksly.Store over a map, counting writes per key.
type MapStore struct {
	mu     sync.Mutex
	Values map[string]string
	Writes map[string]int
}

func NewMapStore() *MapStore {
	return &MapStore{Values: map[string]string{}, Writes: map[string]int{}}
}

func (s *MapStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.Values[key]
	return v, ok, nil
}

func (s *MapStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Values[key] = value
	s.Writes[key]++
	return nil
}

func (s *MapStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Values, key)
	return nil
}

// FailingStore fails the operations whose flag is set and delegates the
// rest to Inner.
type FailingStore struct {
	Inner      keksly.Store
	FailGet    bool
	FailSet    bool
	FailRemove bool
}

func NewFailingStore(inner keksly.Store) *FailingStore {
	return &FailingStore{Inner: inner}
}

func (s *FailingStore) Get(key string) (string, bool, error) {
	if s.FailGet {
		return "", false, ErrInjected
	}
	return s.Inner.Get(key)
}

func (s *FailingStore) Set(key, value string) error {
	if s.FailSet {
		return ErrInjected
	}
	return s.Inner.Set(key, value)
}

func (s *FailingStore) Remove(key string) error {
	if s.FailRemove {
		return ErrInjected
	}
	return s.Inner.Remove(key)
}

var (
	_ keksly.Store = (*MapStore)(nil)
	_ keksly.Store = (*FailingStore)(nil)
)
