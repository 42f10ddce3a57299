package keksly

import "sync"

// Phase is the engine lifecycle position.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseLoaded
	PhaseBannerPending
	PhaseApplied
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseLoaded:
		return "loaded"
	case PhaseBannerPending:
		return "banner_pending"
	case PhaseApplied:
		return "applied"
	default:
		return "unknown"
	}
}

// Snapshot is what the applier publishes: the consent state, the full
// decision log and the identifier ("" when none).
type Snapshot struct {
	Consent ConsentState
	History []HistoryEntry
	UID     string
}

// Engine owns the in-memory consent state. Decide is the only mutation entry
// point; callers never write consent state or persistence directly.
// Engine is safe for concurrent use: each Decide is one read-merge-write
// critical section.
type Engine struct {
	cfg      *Config
	store    *ConsentStore
	applier  *Applier
	clock    Clock
	logger   Logger
	recorder Recorder

	mu               sync.Mutex
	uid              string
	state            ConsentState
	history          []HistoryEntry
	phase            Phase
	shouldShowBanner bool
}

// NewEngine creates an engine for a resolved config. applier may be nil, in
// which case decisions are persisted but not published.
func NewEngine(cfg *Config, store *ConsentStore, applier *Applier, clock Clock, logger Logger, recorder Recorder) *Engine {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Engine{
		cfg:      cfg,
		store:    store,
		applier:  applier,
		clock:    clock,
		logger:   logger,
		recorder: recorder,
		state:    ConsentState{},
	}
}

// SetUID sets the identifier recorded in history and published events.
func (e *Engine) SetUID(uid string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.uid = uid
}

// Load reconciles persisted state with the config.
//
// A missing or unparsable consent blob yields the required defaults. A
// version marker that differs from the config version (absent included)
// discards the blob, rewrites the marker at once and forces the banner.
// Required services are granted on every path.
func (e *Engine) Load() {
	e.mu.Lock()
	defer e.mu.Unlock()

	version := e.cfg.EffectiveVersion()
	storedVersion, hasVersion := e.store.Version()
	stored, hasConsent := e.store.Consent()
	e.shouldShowBanner = false

	if hasConsent {
		e.state = stored
	} else {
		e.state = requiredDefaults(e.cfg)
	}

	if !hasVersion || storedVersion != version {
		e.logger.Info("consent version changed, requesting new consent", "stored", storedVersion, "current", version)
		e.state = requiredDefaults(e.cfg)
		e.store.RemoveConsent()
		e.store.SetVersion(version)
		e.shouldShowBanner = true
	}

	enforceRequired(e.cfg, e.state)

	if !hasConsent {
		e.shouldShowBanner = true
	}

	e.history = e.store.History()

	e.phase = PhaseLoaded
	if e.shouldShowBanner {
		e.phase = PhaseBannerPending
	}
	e.logger.Debug("consent loaded", "phase", e.phase.String(), "services", len(e.cfg.Services))
}

// Decide merges partial into the current state (partial wins per key, other
// keys keep their value), persists the result, records it in the history
// and applies it.
func (e *Engine) Decide(partial ConsentState, meta DecisionMeta) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == nil {
		e.state = ConsentState{}
	}
	for id, granted := range partial {
		e.state[id] = granted
	}
	enforceRequired(e.cfg, e.state)

	e.store.SetConsent(e.state)
	e.store.SetVersion(e.cfg.EffectiveVersion())

	if meta.Source == "" {
		meta.Source = SourceUnknown
	}
	if meta.Action == "" {
		meta.Action = ActionUpdate
	}
	e.history = append(e.history, HistoryEntry{
		Timestamp: formatTimestamp(e.clock.Now()),
		UID:       optionalString(e.uid),
		Consent:   e.state.Clone(),
		Source:    meta.Source,
		Action:    meta.Action,
	})
	e.store.SetHistory(e.history)
	e.recorder.DecisionRecorded(meta.Source, meta.Action)
	e.logger.Info("consent saved", "source", meta.Source, "action", meta.Action)

	e.applyLocked()
	e.shouldShowBanner = false
	e.phase = PhaseApplied
}

// Apply publishes the current state without changing it. It is used at boot
// when a valid decision already exists.
func (e *Engine) Apply() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applyLocked()
	e.phase = PhaseApplied
}

func (e *Engine) applyLocked() {
	if e.applier == nil {
		return
	}
	e.applier.Apply(Snapshot{
		Consent: e.state.Clone(),
		History: append([]HistoryEntry(nil), e.history...),
		UID:     e.uid,
	})
}

// Reset erases every persisted key and drops all in-memory state, returning
// the engine to PhaseUninitialized. The host is expected to reload.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Clear()
	e.state = ConsentState{}
	e.history = nil
	e.uid = ""
	e.shouldShowBanner = false
	e.phase = PhaseUninitialized
	e.logger.Info("consent reset")
}

// State returns a copy of the current consent state.
func (e *Engine) State() ConsentState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// History returns a copy of the decision log, oldest first.
func (e *Engine) History() []HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]HistoryEntry(nil), e.history...)
}

// LastHistoryEntry returns the most recent decision, if any.
func (e *Engine) LastHistoryEntry() (HistoryEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.history) == 0 {
		return HistoryEntry{}, false
	}
	return e.history[len(e.history)-1], true
}

func (e *Engine) ShouldShowBanner() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shouldShowBanner
}

func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
