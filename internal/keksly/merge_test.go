package keksly_test

import (
	"reflect"
	"testing"

	"keksly-go/internal/keksly"
)

func ptr[T any](v T) *T { return &v }

func TestMerge_ServicesReplacedWhole(t *testing.T) {
	base := keksly.DefaultConfig()
	base.Services = []keksly.ServiceDefinition{{ID: "y"}, {ID: "z"}}

	override := []keksly.ServiceDefinition{{ID: "x", Category: []string{keksly.FlagAdStorage}}}
	got := keksly.Merge(base, &keksly.PartialConfig{Services: &override})

	if len(got.Services) != 1 || got.Services[0].ID != "x" {
		t.Fatalf("Services = %+v, want exactly [x]", got.Services)
	}

	// The merged config must not alias the override document.
	override[0].Category[0] = "changed"
	if got.Services[0].Category[0] != keksly.FlagAdStorage {
		t.Error("merged services share memory with the override")
	}
}

func TestMerge_EmptyServicesReplacesDefaults(t *testing.T) {
	got := keksly.Merge(keksly.DefaultConfig(), &keksly.PartialConfig{Services: &[]keksly.ServiceDefinition{}})
	if len(got.Services) != 0 {
		t.Errorf("Services = %+v, want none", got.Services)
	}
}

func TestMerge_DesignFieldLevel(t *testing.T) {
	base := keksly.DefaultConfig()
	base.Design.PrimaryColor = "#fff"
	base.Design.Position = "bottom"

	got := keksly.Merge(base, &keksly.PartialConfig{
		Design: &keksly.PartialDesign{PrimaryColor: ptr("#000")},
	})

	if got.Design.PrimaryColor != "#000" {
		t.Errorf("PrimaryColor = %q, want %q", got.Design.PrimaryColor, "#000")
	}
	if got.Design.Position != "bottom" {
		t.Errorf("Position = %q, want %q", got.Design.Position, "bottom")
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		override *keksly.PartialConfig
		check    func(t *testing.T, cfg *keksly.Config)
	}{
		{
			name:     "nil override keeps base",
			override: nil,
			check: func(t *testing.T, cfg *keksly.Config) {
				if !reflect.DeepEqual(cfg, keksly.DefaultConfig()) {
					t.Error("config changed by nil override")
				}
			},
		},
		{
			name:     "version",
			override: &keksly.PartialConfig{Version: ptr(4)},
			check: func(t *testing.T, cfg *keksly.Config) {
				if cfg.Version != 4 {
					t.Errorf("Version = %d, want 4", cfg.Version)
				}
			},
		},
		{
			name: "one banner text",
			override: &keksly.PartialConfig{Texts: &keksly.PartialTexts{
				Banner: &keksly.PartialBannerTexts{Title: ptr("Cookies?")},
			}},
			check: func(t *testing.T, cfg *keksly.Config) {
				def := keksly.DefaultConfig()
				if cfg.Texts.Banner.Title != "Cookies?" {
					t.Errorf("Title = %q", cfg.Texts.Banner.Title)
				}
				if cfg.Texts.Banner.AcceptAll != def.Texts.Banner.AcceptAll {
					t.Errorf("AcceptAll = %q, want default", cfg.Texts.Banner.AcceptAll)
				}
				if cfg.Texts.Settings != def.Texts.Settings {
					t.Error("settings texts changed")
				}
			},
		},
		{
			name: "link url only",
			override: &keksly.PartialConfig{Texts: &keksly.PartialTexts{
				Links: &keksly.PartialLinkTexts{Imprint: &keksly.PartialLink{URL: ptr("/imprint")}},
			}},
			check: func(t *testing.T, cfg *keksly.Config) {
				if cfg.Texts.Links.Imprint.URL != "/imprint" || cfg.Texts.Links.Imprint.Text != "Imprint" {
					t.Errorf("Imprint = %+v", cfg.Texts.Links.Imprint)
				}
			},
		},
		{
			name: "buttons replaced",
			override: &keksly.PartialConfig{Design: &keksly.PartialDesign{
				Buttons: &[]keksly.Button{{Type: keksly.ButtonAccept, Label: "OK"}},
			}},
			check: func(t *testing.T, cfg *keksly.Config) {
				if len(cfg.Design.Buttons) != 1 || cfg.Design.Buttons[0].Label != "OK" {
					t.Errorf("Buttons = %+v", cfg.Design.Buttons)
				}
			},
		},
		{
			name:     "gcm disabled",
			override: &keksly.PartialConfig{GCM: &keksly.PartialGCM{Enabled: ptr(false)}},
			check: func(t *testing.T, cfg *keksly.Config) {
				if cfg.GCM.Enabled {
					t.Error("GCM.Enabled = true")
				}
			},
		},
		{
			name:     "uid respectDnt only",
			override: &keksly.PartialConfig{UID: &keksly.PartialUID{RespectDNT: ptr(false)}},
			check: func(t *testing.T, cfg *keksly.Config) {
				if cfg.UID.RespectDNT || cfg.UID.Version != 1 {
					t.Errorf("UID = %+v, want version 1 without dnt", cfg.UID)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, keksly.Merge(keksly.DefaultConfig(), tt.override))
		})
	}
}

func TestMerge_NilBase(t *testing.T) {
	got := keksly.Merge(nil, &keksly.PartialConfig{Version: ptr(3)})
	if got.Version != 3 || len(got.Services) != 1 {
		t.Errorf("Merge(nil) = version %d with %d services", got.Version, len(got.Services))
	}
}

func TestDefaultConfig_FreshCopies(t *testing.T) {
	a := keksly.DefaultConfig()
	a.Services[0].Category[0] = "changed"
	if keksly.DefaultConfig().Services[0].Category[0] != "security_storage" {
		t.Error("DefaultConfig() returns shared memory")
	}
}

func TestConfig_EffectiveVersion(t *testing.T) {
	tests := []struct {
		version int
		want    int
	}{
		{version: 0, want: 1},
		{version: 1, want: 1},
		{version: 5, want: 5},
	}
	for _, tt := range tests {
		cfg := &keksly.Config{Version: tt.version}
		if got := cfg.EffectiveVersion(); got != tt.want {
			t.Errorf("EffectiveVersion() for %d = %d, want %d", tt.version, got, tt.want)
		}
	}
}
