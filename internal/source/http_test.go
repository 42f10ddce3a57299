package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"keksly-go/internal/testutil"
)

func TestHTTP_Fetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q, want application/json", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"version": 2, "design": {"primaryColor": "#000"}, "services": [{"id": "ads", "category": ["ad_storage"]}]}`))
	}))
	defer srv.Close()

	cfg, err := NewHTTP(srv.URL, srv.Client()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if cfg.Version == nil || *cfg.Version != 2 {
		t.Errorf("Version = %v, want 2", cfg.Version)
	}
	if cfg.Design == nil || cfg.Design.PrimaryColor == nil || *cfg.Design.PrimaryColor != "#000" {
		t.Errorf("Design.PrimaryColor not decoded: %+v", cfg.Design)
	}
	if cfg.Design.Position != nil {
		t.Errorf("Design.Position = %q, want unset", *cfg.Design.Position)
	}
	if cfg.Services == nil || len(*cfg.Services) != 1 || (*cfg.Services)[0].ID != "ads" {
		t.Errorf("Services = %+v, want [ads]", cfg.Services)
	}
}

func TestHTTP_Fetch_CoercesMistypedFields(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version": "2", "uid": {"version": " 3 "}, "design": {"position": "top"}, "services": [{"id": "ads", "category": "ad_storage"}]}`))
	}))
	defer srv.Close()

	logger := &testutil.RecordingLogger{}
	s := NewHTTP(srv.URL, srv.Client())
	s.Logger = logger

	cfg, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if cfg.Version == nil || *cfg.Version != 2 {
		t.Errorf("Version = %v, want 2", cfg.Version)
	}
	if cfg.UID == nil || cfg.UID.Version == nil || *cfg.UID.Version != 3 {
		t.Errorf("UID.Version = %+v, want 3", cfg.UID)
	}
	if cfg.Design == nil || cfg.Design.Position == nil || *cfg.Design.Position != "top" {
		t.Errorf("Design.Position not decoded: %+v", cfg.Design)
	}
	if cfg.Services == nil || len(*cfg.Services) != 1 {
		t.Fatalf("Services = %+v, want [ads]", cfg.Services)
	}
	if got := (*cfg.Services)[0].Category; len(got) != 1 || got[0] != "ad_storage" {
		t.Errorf("Category = %v, want [ad_storage]", got)
	}
	if got := logger.Count("WARN"); got != 3 {
		t.Errorf("WARN count = %d, want 3", got)
	}
}

func TestHTTP_Fetch_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "not found", status: http.StatusNotFound, body: `{}`},
		{name: "server error", status: http.StatusInternalServerError, body: `{}`},
		{name: "malformed json", status: http.StatusOK, body: `{"version": `},
		{name: "wrong shape", status: http.StatusOK, body: `{"services": "all"}`},
		{name: "non-numeric version", status: http.StatusOK, body: `{"version": "two"}`},
		{name: "null document", status: http.StatusOK, body: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			if _, err := NewHTTP(srv.URL, srv.Client()).Fetch(context.Background()); err == nil {
				t.Fatal("Fetch() expected error")
			}
		})
	}
}

func TestHTTP_Fetch_ContextDeadline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := NewHTTP(srv.URL, srv.Client()).Fetch(ctx); err == nil {
		t.Fatal("Fetch() expected error after deadline")
	}
}
