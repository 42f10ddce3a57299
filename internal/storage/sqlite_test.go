package storage

import (
	"path/filepath"
	"testing"

	"keksly-go/internal/testutil"
)

func newTestSQLiteStore(t *testing.T, origin string) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:", origin, testutil.FixedClock())
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()
	testStoreContract(t, newTestSQLiteStore(t, "shop.example.com"))
}

func TestSQLiteStore_OriginsShareFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "keksly.db")

	shop, err := NewSQLiteStore(path, "shop.example.com", nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer shop.Close()
	blog, err := NewSQLiteStore(path, "blog.example.com", nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer blog.Close()

	if err := shop.Set("keksly_version", "4"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok, _ := blog.Get("keksly_version"); ok {
		t.Error("blog origin sees shop value")
	}
	if got, ok, _ := shop.Get("keksly_version"); !ok || got != "4" {
		t.Errorf("Get() = %q, %v; want %q, true", got, ok, "4")
	}
}
