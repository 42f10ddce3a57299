package storage

import (
	"testing"

	"keksly-go/internal/keksly"
	"keksly-go/internal/testutil"
)

// testStoreContract exercises the behavior every keksly.Store backend shares.
func testStoreContract(t *testing.T, s keksly.Store) {
	t.Helper()

	if _, ok, err := s.Get(keksly.KeyConsent); err != nil || ok {
		t.Fatalf("Get() on empty store = ok %v, err %v; want absent", ok, err)
	}

	values := map[string]string{
		keksly.KeyConsent: `{"essential":true,"ads":false}`,
		keksly.KeyVersion: "1",
		keksly.KeyHistory: `[{"timestamp":"` + testutil.FixedTimestamp + `","uid":null,"consent":{"essential":true},"source":"banner","action":"accept_all"}]`,
		keksly.KeyUID:     "0b5e7a9c-1f2d-4c3b-8a6e-9d0f1e2a3b4c",
	}
	for k, v := range values {
		if err := s.Set(k, v); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}
	for k, want := range values {
		got, ok, err := s.Get(k)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", k, err)
		}
		if !ok || got != want {
			t.Errorf("Get(%q) = %q, %v; want %q, true", k, got, ok, want)
		}
	}

	if err := s.Set(keksly.KeyVersion, "2"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if got, _, _ := s.Get(keksly.KeyVersion); got != "2" {
		t.Errorf("Get() after overwrite = %q, want %q", got, "2")
	}

	if err := s.Remove(keksly.KeyConsent); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok, _ := s.Get(keksly.KeyConsent); ok {
		t.Error("Get() after Remove() still finds the key")
	}
	if err := s.Remove(keksly.KeyConsent); err != nil {
		t.Errorf("Remove() of absent key error = %v", err)
	}
	if _, ok, _ := s.Get(keksly.KeyUID); !ok {
		t.Error("Remove() dropped an unrelated key")
	}
}
