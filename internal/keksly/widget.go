package keksly

import (
	"context"
	"errors"
)

// ErrNoStore is returned by Boot when Deps carries no Store.
var ErrNoStore = errors.New("keksly: store is required")

// Presenter is the banner/settings UI. The core only tells it what to show.
type Presenter interface {
	ShowBanner(cfg *Config)
	ShowSettings(cfg *Config, state ConsentState, history []HistoryEntry)
	Hide()
}

// Reloader asks the host to reinitialize from scratch after a reset.
type Reloader interface {
	Reload()
}

// NopPresenter shows nothing.
type NopPresenter struct{}

func (NopPresenter) ShowBanner(*Config)                                 {}
func (NopPresenter) ShowSettings(*Config, ConsentState, []HistoryEntry) {}
func (NopPresenter) Hide()                                              {}

// NopReloader ignores reload requests.
type NopReloader struct{}

func (NopReloader) Reload() {}

// Deps carries every collaborator the widget needs. Only Store is required.
type Deps struct {
	Resolver   *Resolver
	Store      Store
	Queue      EventQueue
	Gate       ScriptGate
	Presenter  Presenter
	Reloader   Reloader
	Logger     Logger
	Recorder   Recorder
	Clock      Clock
	IDGen      IDGenerator
	DoNotTrack bool
}

// Widget is the handle a host owns for one boot. It replaces page-wide
// globals: everything the widget knows lives here.
type Widget struct {
	cfg       *Config
	engine    *Engine
	applier   *Applier
	presenter Presenter
	reloader  Reloader
	uid       string
}

// Boot runs the boot sequence: resolve config, read or mint the identifier,
// load consent, then either show the banner or apply the stored decision.
func Boot(ctx context.Context, deps Deps) (*Widget, error) {
	if deps.Store == nil {
		return nil, ErrNoStore
	}
	if deps.Logger == nil {
		deps.Logger = NewNopLogger()
	}
	if deps.Recorder == nil {
		deps.Recorder = NopRecorder{}
	}
	if deps.Presenter == nil {
		deps.Presenter = NopPresenter{}
	}
	if deps.Reloader == nil {
		deps.Reloader = NopReloader{}
	}
	if deps.Resolver == nil {
		deps.Resolver = NewResolver(nil, nil, nil, deps.Logger, deps.Recorder)
	}

	cfg := deps.Resolver.Resolve(ctx)
	cs := NewConsentStore(deps.Store, deps.Logger, deps.Recorder)
	applier := NewApplier(cfg, deps.Queue, deps.Gate, deps.Logger, deps.Recorder)
	engine := NewEngine(cfg, cs, applier, deps.Clock, deps.Logger, deps.Recorder)

	uid := ResolveUID(cs, deps.IDGen, cfg, deps.DoNotTrack)
	engine.SetUID(uid)
	engine.Load()

	w := &Widget{
		cfg:       cfg,
		engine:    engine,
		applier:   applier,
		presenter: deps.Presenter,
		reloader:  deps.Reloader,
		uid:       uid,
	}

	if engine.ShouldShowBanner() {
		w.presenter.ShowBanner(cfg)
	} else {
		engine.Apply()
	}
	return w, nil
}

// AcceptAll grants every service.
func (w *Widget) AcceptAll(source string) {
	w.save(AcceptAll(w.cfg), DecisionMeta{Source: source, Action: ActionAcceptAll})
}

// RejectAll denies every non-required service.
func (w *Widget) RejectAll(source string) {
	w.save(RejectAll(w.cfg), DecisionMeta{Source: source, Action: ActionRejectAll})
}

// SaveCustom records exactly the choices read from the settings controls.
// Services missing from choices keep their previous value.
func (w *Widget) SaveCustom(source string, choices ConsentState) {
	w.save(choices, DecisionMeta{Source: source, Action: ActionCustomSave})
}

// Decide records an arbitrary decision.
func (w *Widget) Decide(partial ConsentState, meta DecisionMeta) {
	w.save(partial, meta)
}

func (w *Widget) save(partial ConsentState, meta DecisionMeta) {
	w.engine.Decide(partial, meta)
	w.presenter.Hide()
}

// OpenSettings shows the settings view with the current state and history.
func (w *Widget) OpenSettings() {
	w.presenter.ShowSettings(w.cfg, w.engine.State(), w.engine.History())
}

// Reset erases everything the widget persisted and asks the host to reload.
// The widget must not be used afterwards; boot a new one.
func (w *Widget) Reset() {
	w.engine.Reset()
	w.uid = ""
	w.reloader.Reload()
}

// UID returns the identifier, or "" when none is in use.
func (w *Widget) UID() string { return w.uid }

func (w *Widget) Config() *Config         { return w.cfg }
func (w *Widget) State() ConsentState     { return w.engine.State() }
func (w *Widget) History() []HistoryEntry { return w.engine.History() }
func (w *Widget) ShouldShowBanner() bool  { return w.engine.ShouldShowBanner() }
func (w *Widget) Phase() Phase            { return w.engine.Phase() }
func (w *Widget) Queue() EventQueue       { return w.applier.Queue() }
