package keksly

import (
	"encoding/json"
	"strconv"
)

// Persisted keys.
const (
	KeyConsent = "keksly_consent"
	KeyVersion = "keksly_version"
	KeyHistory = "keksly_consent_history"
	KeyUID     = "keksly_uid"
)

// AllKeys lists every key the widget persists.
var AllKeys = []string{KeyConsent, KeyVersion, KeyHistory, KeyUID}

// ConsentStore reads and writes the widget's logical records through a Store.
// No method returns an error: read failures and malformed values read as
// absent, write failures are logged and counted, and in-memory state stays
// authoritative for the session.
type ConsentStore struct {
	store    Store
	logger   Logger
	recorder Recorder
}

// NewConsentStore wraps store.
func NewConsentStore(store Store, logger Logger, recorder Recorder) *ConsentStore {
	if logger == nil {
		logger = NewNopLogger()
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &ConsentStore{store: store, logger: logger, recorder: recorder}
}

func (c *ConsentStore) get(key string) (string, bool) {
	v, ok, err := c.store.Get(key)
	if err != nil {
		c.logger.Warn("failed to read persisted value", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

func (c *ConsentStore) set(key, value string) {
	if err := c.store.Set(key, value); err != nil {
		c.logger.Warn("failed to persist value", "key", key, "error", err)
		c.recorder.PersistFailed(key)
	}
}

func (c *ConsentStore) remove(key string) {
	if err := c.store.Remove(key); err != nil {
		c.logger.Warn("failed to remove persisted value", "key", key, "error", err)
		c.recorder.PersistFailed(key)
	}
}

// Consent returns the persisted consent blob. ok is false when the blob is
// absent or cannot be parsed.
func (c *ConsentStore) Consent() (ConsentState, bool) {
	raw, ok := c.get(KeyConsent)
	if !ok {
		return nil, false
	}
	var state ConsentState
	if err := json.Unmarshal([]byte(raw), &state); err != nil || state == nil {
		c.logger.Warn("ignoring malformed consent blob", "error", err)
		return nil, false
	}
	return state, true
}

func (c *ConsentStore) SetConsent(state ConsentState) {
	data, err := json.Marshal(state)
	if err != nil {
		c.logger.Error("failed to encode consent", "error", err)
		return
	}
	c.set(KeyConsent, string(data))
}

func (c *ConsentStore) RemoveConsent() {
	c.remove(KeyConsent)
}

// Version returns the persisted schema version. ok is false when the marker
// is absent or not an integer.
func (c *ConsentStore) Version() (int, bool) {
	raw, ok := c.get(KeyVersion)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (c *ConsentStore) SetVersion(v int) {
	c.set(KeyVersion, strconv.Itoa(v))
}

// History returns the persisted decision log, empty when absent or malformed.
func (c *ConsentStore) History() []HistoryEntry {
	raw, ok := c.get(KeyHistory)
	if !ok {
		return nil
	}
	var entries []HistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		c.logger.Warn("ignoring malformed consent history", "error", err)
		return nil
	}
	return entries
}

// SetHistory persists the whole log.
func (c *ConsentStore) SetHistory(entries []HistoryEntry) {
	if entries == nil {
		entries = []HistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		c.logger.Error("failed to encode consent history", "error", err)
		return
	}
	c.set(KeyHistory, string(data))
}

func (c *ConsentStore) UID() (string, bool) {
	v, ok := c.get(KeyUID)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (c *ConsentStore) SetUID(uid string) {
	c.set(KeyUID, uid)
}

// Clear removes every persisted key.
func (c *ConsentStore) Clear() {
	for _, key := range AllKeys {
		c.remove(key)
	}
}
