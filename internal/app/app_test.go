package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"keksly-go/internal/config"
	"keksly-go/internal/keksly"
	"keksly-go/internal/testutil"
)

const testPage = `<!DOCTYPE html>
<html><head><title>Shop</title>
<script>window.KekslyConfig = {
  version: 2,
  services: [
    {id: "essential", name: "Essential", required: true, category: ["security_storage"]},
    {id: "stats", name: "Statistics", category: ["analytics_storage"]},
    {id: "ads", name: "Ads", category: ["ad_storage", "ad_user_data"]}
  ]
};</script>
</head><body>
<script type="text/plain" data-service="stats" src="https://stats.example.com/s.js"></script>
<script type="text/plain" data-service="ads">window.ads = 1;</script>
</body></html>`

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig("shop.example.com", t.TempDir())
	cfg.Storage = config.StorageConfig{Type: "filesystem", Dir: filepath.Join(cfg.BaseDir, "store")}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts Options) *KekslyApp {
	t.Helper()
	if opts.Out == nil {
		opts.Out = &bytes.Buffer{}
	}
	if opts.Clock == nil {
		opts.Clock = testutil.FixedClock()
	}
	if opts.IDGen == nil {
		opts.IDGen = testutil.NewStubIDGenerator()
	}
	a, err := NewKekslyApp(context.Background(), cfg, "Test", opts)
	if err != nil {
		t.Fatalf("NewKekslyApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestKekslyApp_FirstVisit(t *testing.T) {
	out := &bytes.Buffer{}
	a := newTestApp(t, newTestConfig(t), Options{Out: out})

	if !a.BannerPending() {
		t.Error("BannerPending() = false on first visit")
	}
	if !strings.Contains(out.String(), "We value your privacy") {
		t.Errorf("banner not printed, got %q", out.String())
	}
	if !strings.Contains(out.String(), "keksly accept") {
		t.Errorf("banner lacks accept command, got %q", out.String())
	}
	if a.UID() != "id-1" {
		t.Errorf("UID() = %q, want id-1", a.UID())
	}

	st := a.GetStatus()
	if st.Phase != keksly.PhaseBannerPending {
		t.Errorf("Phase = %v, want banner_pending", st.Phase)
	}
	if len(st.Services) != 1 || !st.Services[0].Granted {
		t.Errorf("Services = %+v, want essential granted", st.Services)
	}
}

func TestKekslyApp_DecisionPersistsAcrossRuns(t *testing.T) {
	cfg := newTestConfig(t)

	a := newTestApp(t, cfg, Options{Quiet: true})
	a.AcceptAll()
	a.Close()

	b := newTestApp(t, cfg, Options{Quiet: true})
	if b.BannerPending() {
		t.Error("BannerPending() = true after a stored decision")
	}
	if b.UID() != "id-1" {
		t.Errorf("UID() = %q, want the persisted id-1", b.UID())
	}
	history := b.GetHistory(0)
	if len(history) != 1 || history[0].Source != keksly.SourceCLI || history[0].Action != keksly.ActionAcceptAll {
		t.Errorf("history = %+v, want one cli/accept_all entry", history)
	}

	records := b.DataLayer()
	if len(records) != 2 {
		t.Fatalf("data layer has %d records at boot, want event and consent mode", len(records))
	}
	if ev, ok := records[0].(keksly.ConsentEvent); !ok || ev.Event != keksly.EventConsentUpdate {
		t.Errorf("first record = %#v, want consent event", records[0])
	}
}

func TestKekslyApp_SetChoices(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Source.InlinePath = writeTestFile(t, "inline.js", `window.KekslyConfig = {services: [
		{id: "essential", name: "Essential", required: true},
		{id: "stats", name: "Statistics", category: ["analytics_storage"]}
	]};`)
	a := newTestApp(t, cfg, Options{Quiet: true})

	state, err := a.SetChoices([]string{"stats=true", "essential=false"})
	if err != nil {
		t.Fatalf("SetChoices() error = %v", err)
	}
	if !state["stats"] || !state["essential"] {
		t.Errorf("state = %v, want stats granted and essential kept", state)
	}

	for _, args := range [][]string{
		nil,
		{"stats"},
		{"video=true"},
		{"stats=maybe"},
	} {
		if _, err := a.SetChoices(args); err == nil {
			t.Errorf("SetChoices(%q) expected error", args)
		}
	}
}

func TestKekslyApp_Reset(t *testing.T) {
	a := newTestApp(t, newTestConfig(t), Options{Quiet: true})
	a.AcceptAll()

	if err := a.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if !a.BannerPending() {
		t.Error("BannerPending() = false after reset")
	}
	if got := a.GetHistory(0); len(got) != 0 {
		t.Errorf("history after reset = %+v, want empty", got)
	}
	if a.UID() != "id-2" {
		t.Errorf("UID() after reset = %q, want a newly minted id-2", a.UID())
	}
}

func TestKekslyApp_DoNotTrack(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.DoNotTrack = true
	a := newTestApp(t, cfg, Options{Quiet: true})

	if a.UID() != "" {
		t.Errorf("UID() = %q under DNT, want empty", a.UID())
	}
	a.AcceptAll()
	h := a.GetHistory(1)
	if len(h) != 1 {
		t.Fatalf("history has %d entries, want 1", len(h))
	}
	if h[0].UID != nil {
		t.Errorf("history uid = %q, want null", *h[0].UID)
	}
}

func TestKekslyApp_RenderPage(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Source.HTMLPath = writeTestFile(t, "page.html", testPage)
	a := newTestApp(t, cfg, Options{Quiet: true})

	if got := len(a.Widget().Config().Services); got != 3 {
		t.Fatalf("services = %d, want 3 from inline config", got)
	}

	if _, err := a.SetChoices([]string{"stats=true"}); err != nil {
		t.Fatalf("SetChoices() error = %v", err)
	}

	var buf bytes.Buffer
	if err := a.RenderPage(&buf); err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<script type="text/javascript" src="https://stats.example.com/s.js"></script>`,
		`<script type="text/plain" data-service="ads">window.ads = 1;</script>`,
		`"analytics_storage":"granted"`,
		`"ad_storage":"denied"`,
		`id="keksly-datalayer"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered page missing %s", want)
		}
	}
}

func TestKekslyApp_ResetRestoresInertScripts(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Source.HTMLPath = writeTestFile(t, "page.html", testPage)
	a := newTestApp(t, cfg, Options{Quiet: true})
	a.AcceptAll()

	if err := a.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	var buf bytes.Buffer
	if err := a.RenderPage(&buf); err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	out := buf.String()
	if strings.Contains(out, `type="text/javascript"`) {
		t.Errorf("page after reset still has scripts activated by the old decision:\n%s", out)
	}
	for _, want := range []string{
		`<script type="text/plain" data-service="stats" src="https://stats.example.com/s.js"></script>`,
		`<script type="text/plain" data-service="ads">window.ads = 1;</script>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page after reset missing inert %s", want)
		}
	}
	if !a.BannerPending() {
		t.Error("BannerPending() = false after reset")
	}
	if got := len(a.Widget().Config().Services); got != 3 {
		t.Errorf("services after reset = %d, want 3 from the page's inline config", got)
	}
}

func TestKekslyApp_RenderPage_NoPage(t *testing.T) {
	a := newTestApp(t, newTestConfig(t), Options{Quiet: true})
	if err := a.RenderPage(&bytes.Buffer{}); err == nil {
		t.Fatal("RenderPage() expected error without a page")
	}
}

func TestKekslyApp_RemoteConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version": 7, "design": {"position": "center"}}`))
	}))
	defer srv.Close()

	cfg := newTestConfig(t)
	cfg.Source.URL = srv.URL
	a := newTestApp(t, cfg, Options{Quiet: true, HTTPClient: srv.Client()})

	got := a.Widget().Config()
	if got.Version != 7 || got.Design.Position != "center" {
		t.Errorf("config = version %d position %q, want 7 center", got.Version, got.Design.Position)
	}
	if got.Design.PrimaryColor != keksly.DefaultConfig().Design.PrimaryColor {
		t.Errorf("PrimaryColor = %q, want default kept", got.Design.PrimaryColor)
	}
}

func TestKekslyApp_RemoteConfigTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := newTestConfig(t)
	cfg.Source.URL = srv.URL
	cfg.Source.Timeout = config.Duration{Duration: 50 * time.Millisecond}
	a := newTestApp(t, cfg, Options{Quiet: true, HTTPClient: srv.Client()})

	if got := a.Widget().Config().Version; got != 1 {
		t.Errorf("Version = %d, want base config after timeout", got)
	}
}

func TestKekslyApp_FileConfig(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Source.File = writeTestFile(t, "keksly.yaml", "gcm:\n  enabled: false\n")
	a := newTestApp(t, cfg, Options{Quiet: true})

	if a.Widget().Config().GCM.Enabled {
		t.Error("GCM.Enabled = true, want false from yaml override")
	}
	a.AcceptAll()
	if n := len(a.DataLayer()); n != 1 {
		t.Errorf("data layer has %d records, want only the event with gcm disabled", n)
	}
}

func TestKekslyApp_EncryptedStorage(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Storage.Encrypted = true
	cfg.Encryption.Type = "test"

	a := newTestApp(t, cfg, Options{Quiet: true})
	a.AcceptAll()
	a.Close()

	data, err := os.ReadFile(filepath.Join(cfg.Storage.Dir, "shop.example.com.json"))
	if err != nil {
		t.Fatalf("reading store: %v", err)
	}
	if !strings.Contains(string(data), "KEKSLY:") {
		t.Errorf("store values are not sealed: %s", data)
	}

	b := newTestApp(t, cfg, Options{Quiet: true})
	if b.BannerPending() {
		t.Error("sealed decision was not read back")
	}
}

func TestKekslyApp_Settings(t *testing.T) {
	out := &bytes.Buffer{}
	cfg := newTestConfig(t)
	a := newTestApp(t, cfg, Options{Quiet: true})
	a.RejectAll()

	b := newTestApp(t, cfg, Options{Out: out})
	b.OpenSettings()
	got := out.String()
	for _, want := range []string{"Cookie Preferences", "[x] Essential (required)", "Consent History", "cli/reject_all"} {
		if !strings.Contains(got, want) {
			t.Errorf("settings output missing %q:\n%s", want, got)
		}
	}
}

func TestResolveConfigURL(t *testing.T) {
	tests := []struct {
		origin  string
		ref     string
		want    string
		wantErr bool
	}{
		{origin: "shop.example.com", ref: "https://cdn.example.com/k.json", want: "https://cdn.example.com/k.json"},
		{origin: "shop.example.com", ref: "/keksly.json", want: "https://shop.example.com/keksly.json"},
		{origin: "shop.example.com", ref: "conf/k.json", want: "https://shop.example.com/conf/k.json"},
		{origin: "", ref: "/keksly.json", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := resolveConfigURL(tt.origin, tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Fatal("resolveConfigURL() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveConfigURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("resolveConfigURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
