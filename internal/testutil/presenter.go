package testutil

import (
	"sync"

	"keksly-go/internal/keksly"
)

// RecordingPresenter records every call the widget makes to its UI.
type RecordingPresenter struct {
	mu       sync.Mutex
	Banners  int
	Settings []keksly.ConsentState
	History  [][]keksly.HistoryEntry
	Hides    int
}

func (p *RecordingPresenter) ShowBanner(*keksly.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Banners++
}

func (p *RecordingPresenter) ShowSettings(_ *keksly.Config, state keksly.ConsentState, history []keksly.HistoryEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Settings = append(p.Settings, state)
	p.History = append(p.History, history)
}

func (p *RecordingPresenter) Hide() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Hides++
}

// RecordingReloader counts reload requests.
type RecordingReloader struct {
	mu      sync.Mutex
	Reloads int
}

func (r *RecordingReloader) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reloads++
}

var (
	_ keksly.Presenter = (*RecordingPresenter)(nil)
	_ keksly.Reloader  = (*RecordingReloader)(nil)
)
