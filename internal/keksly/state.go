package keksly

import "time"

// ConsentState maps service ids to the user's grant. Entries for ids no
// longer in the config may linger until the next reconciliation; consumers
// iterate Config.Services, so such entries are ignored.
type ConsentState map[string]bool

// Clone returns an independent copy.
func (s ConsentState) Clone() ConsentState {
	out := make(ConsentState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Granted reports whether id is granted. Unknown ids are not granted.
func (s ConsentState) Granted(id string) bool {
	return s[id]
}

// Decision sources.
const (
	SourceBanner   = "banner"
	SourceSettings = "settings"
	SourceCLI      = "cli"
	SourceAPI      = "api"
	SourceUnknown  = "unknown"
)

// Decision actions.
const (
	ActionAcceptAll  = "accept_all"
	ActionRejectAll  = "reject_all"
	ActionCustomSave = "custom_save"
	ActionUpdate     = "update"
)

// DecisionMeta tags a decision with where it came from and what it was.
// Empty fields are recorded as SourceUnknown and ActionUpdate.
type DecisionMeta struct {
	Source string
	Action string
}

// HistoryEntry is one recorded decision. UID is nil when no identifier was
// available at save time.
type HistoryEntry struct {
	Timestamp string       `json:"timestamp"`
	UID       *string      `json:"uid"`
	Consent   ConsentState `json:"consent"`
	Source    string       `json:"source"`
	Action    string       `json:"action"`
}

// timestampLayout matches the ISO-8601 form browsers emit: UTC, milliseconds, Z.
const timestampLayout = "2006-01-02T15:04:05.000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// AcceptAll grants every configured service.
func AcceptAll(cfg *Config) ConsentState {
	out := make(ConsentState, len(cfg.Services))
	for _, srv := range cfg.Services {
		out[srv.ID] = true
	}
	return out
}

// RejectAll sets every configured service to its own Required flag, so
// required services stay granted and all others are denied.
func RejectAll(cfg *Config) ConsentState {
	out := make(ConsentState, len(cfg.Services))
	for _, srv := range cfg.Services {
		out[srv.ID] = srv.Required
	}
	return out
}

// requiredDefaults is the baseline state: only required services granted.
func requiredDefaults(cfg *Config) ConsentState {
	return RejectAll(cfg)
}

// enforceRequired grants every required service in state.
func enforceRequired(cfg *Config, state ConsentState) {
	for _, srv := range cfg.Services {
		if srv.Required {
			state[srv.ID] = true
		}
	}
}
