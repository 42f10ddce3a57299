package keksly

import (
	"encoding/json"
	"sync"
)

// EventQueue is the page-level append-only event queue tag managers read.
type EventQueue interface {
	Push(record any)
}

// DataLayer is an in-memory EventQueue. The zero value is ready to use.
type DataLayer struct {
	mu      sync.Mutex
	records []any
}

func NewDataLayer() *DataLayer { return &DataLayer{} }

func (d *DataLayer) Push(record any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, record)
}

// Records returns a copy of everything pushed so far, oldest first.
func (d *DataLayer) Records() []any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]any(nil), d.records...)
}

func (d *DataLayer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.records)
}

func (d *DataLayer) MarshalJSON() ([]byte, error) {
	records := d.Records()
	if records == nil {
		records = []any{}
	}
	return json.Marshal(records)
}

// EventConsentUpdate tags the record pushed on every apply.
const EventConsentUpdate = "keksly_consent_update"

// ConsentEvent is the generic record pushed to the event queue.
type ConsentEvent struct {
	Event   string         `json:"event"`
	Consent ConsentState   `json:"consent"`
	History []HistoryEntry `json:"consent_history_entry"`
	UID     *string        `json:"uid"`
}

// Consent-mode flag names and values.
const (
	FlagAdStorage         = "ad_storage"
	FlagAnalyticsStorage  = "analytics_storage"
	FlagAdUserData        = "ad_user_data"
	FlagAdPersonalization = "ad_personalization"

	Granted = "granted"
	Denied  = "denied"
)

// ConsentModeFlags is the standardized grant/deny vector.
type ConsentModeFlags struct {
	AdStorage         string `json:"ad_storage"`
	AnalyticsStorage  string `json:"analytics_storage"`
	AdUserData        string `json:"ad_user_data"`
	AdPersonalization string `json:"ad_personalization"`
}
