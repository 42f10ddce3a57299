package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSystemStore(t *testing.T) {
	t.Parallel()
	s, err := NewFileSystemStore(t.TempDir(), "shop.example.com")
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	testStoreContract(t, s)
}

func TestFileSystemStore_PersistsAcrossInstances(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	a, err := NewFileSystemStore(dir, "shop.example.com")
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	if err := a.Set("keksly_version", "3"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	b, err := NewFileSystemStore(dir, "shop.example.com")
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	if got, ok, _ := b.Get("keksly_version"); !ok || got != "3" {
		t.Errorf("Get() = %q, %v; want %q, true", got, ok, "3")
	}

	other, err := NewFileSystemStore(dir, "blog.example.com")
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	if _, ok, _ := other.Get("keksly_version"); ok {
		t.Error("origins share values, want isolation")
	}
}

func TestFileSystemStore_MalformedFileReadsEmpty(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "default.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileSystemStore(dir, "")
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	if _, ok, err := s.Get("keksly_consent"); ok || err != nil {
		t.Errorf("Get() = ok %v, err %v; want absent, nil", ok, err)
	}
	if err := s.Set("keksly_version", "1"); err != nil {
		t.Fatalf("Set() over malformed file error = %v", err)
	}
	if got, _, _ := s.Get("keksly_version"); got != "1" {
		t.Errorf("Get() = %q, want %q", got, "1")
	}
}

func TestOriginFileName(t *testing.T) {
	tests := []struct {
		origin string
		want   string
	}{
		{origin: "", want: "default"},
		{origin: "shop.example.com", want: "shop.example.com"},
		{origin: "localhost:8080", want: "localhost_8080"},
		{origin: "../etc/passwd", want: ".._etc_passwd"},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			if got := originFileName(tt.origin); got != tt.want {
				t.Errorf("originFileName(%q) = %q, want %q", tt.origin, got, tt.want)
			}
		})
	}
}
