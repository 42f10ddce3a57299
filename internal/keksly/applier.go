package keksly

// Applier publishes a consent snapshot to the page: one event record, an
// optional consent-mode update and activation of granted gated scripts.
// A failure in one step is logged and never stops the others.
type Applier struct {
	cfg      *Config
	queue    EventQueue
	gate     ScriptGate
	logger   Logger
	recorder Recorder
}

// NewApplier creates an applier. A nil queue is replaced by a new DataLayer;
// a nil gate disables script activation.
func NewApplier(cfg *Config, queue EventQueue, gate ScriptGate, logger Logger, recorder Recorder) *Applier {
	if queue == nil {
		queue = NewDataLayer()
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Applier{cfg: cfg, queue: queue, gate: gate, logger: logger, recorder: recorder}
}

// Queue returns the event queue records are pushed to.
func (a *Applier) Queue() EventQueue { return a.queue }

// Apply publishes snap.
func (a *Applier) Apply(snap Snapshot) {
	a.pushEvent(snap)
	if a.cfg.GCM.Enabled {
		a.pushConsentMode(snap.Consent)
	}
	a.activateScripts(snap.Consent)
}

func (a *Applier) pushEvent(snap Snapshot) {
	history := snap.History
	if history == nil {
		history = []HistoryEntry{}
	}
	a.queue.Push(ConsentEvent{
		Event:   EventConsentUpdate,
		Consent: snap.Consent.Clone(),
		History: history,
		UID:     optionalString(snap.UID),
	})
}

func (a *Applier) pushConsentMode(state ConsentState) {
	a.queue.Push([]any{"consent", "update", DeriveConsentMode(a.cfg, state)})
}

// DeriveConsentMode grants a flag when any service whose category lists it
// is granted.
func DeriveConsentMode(cfg *Config, state ConsentState) ConsentModeFlags {
	return ConsentModeFlags{
		AdStorage:         flag(cfg, state, FlagAdStorage),
		AnalyticsStorage:  flag(cfg, state, FlagAnalyticsStorage),
		AdUserData:        flag(cfg, state, FlagAdUserData),
		AdPersonalization: flag(cfg, state, FlagAdPersonalization),
	}
}

func flag(cfg *Config, state ConsentState, name string) string {
	for _, srv := range cfg.Services {
		if !state[srv.ID] {
			continue
		}
		for _, c := range srv.Category {
			if c == name {
				return Granted
			}
		}
	}
	return Denied
}

func (a *Applier) activateScripts(state ConsentState) {
	if a.gate == nil {
		return
	}
	scripts, err := a.gate.ListGatedScripts()
	if err != nil {
		a.logger.Error("failed to list gated scripts", "error", err)
		return
	}
	for _, s := range scripts {
		if !state[s.ServiceID] {
			continue
		}
		if err := a.gate.Activate(s); err != nil {
			a.logger.Error("failed to activate script", "service", s.ServiceID, "error", err)
			continue
		}
		a.recorder.ScriptActivated(s.ServiceID)
		a.logger.Debug("script activated", "service", s.ServiceID)
	}
}
