package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"keksly-go/internal/config"
	"keksly-go/internal/encryption"
	"keksly-go/internal/htmlgate"
	"keksly-go/internal/keksly"
	"keksly-go/internal/metrics"
	"keksly-go/internal/server"
	"keksly-go/internal/source"
	"keksly-go/internal/storage"
)

// Options carries inputs that come from the command line rather than the
// config file.
type Options struct {
	Passphrase string    // unlocks the age key when storage is encrypted
	HTMLPath   string    // overrides source.html_path
	Out        io.Writer // banner and settings output, defaults to os.Stdout
	Verbose    bool      // mirror log output to stderr
	Quiet      bool      // do not print the banner at boot
	HTTPClient *http.Client

	// Clock and IDGen default to the real clock and UUIDs.
	Clock keksly.Clock
	IDGen keksly.IDGenerator
}

// KekslyApp is the application layer between the CLI and the consent widget.
// It constructs all dependencies from config, boots the widget and manages
// the store and log lifecycle on Close.
type KekslyApp struct {
	cfg      *config.Config
	opts     Options
	store    keksly.Store
	htmlPath string
	doc      *htmlgate.Document
	queue    *keksly.DataLayer
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	logger   keksly.Logger
	logFile  *os.File
	op       *Operation
	reloader *reloadRequest
	widget   *keksly.Widget
}

// reloadRequest records that the widget asked the host to start over.
type reloadRequest struct {
	requested bool
}

func (r *reloadRequest) Reload() { r.requested = true }

// NewKekslyApp creates a fully wired KekslyApp from the given config and
// boots the widget.
// operation identifies the CLI command being run (e.g. "Accept", "Status").
// The caller must call Close when done.
func NewKekslyApp(ctx context.Context, cfg *config.Config, operation string, opts Options) (*KekslyApp, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Clock == nil {
		opts.Clock = keksly.RealClock{}
	}
	if opts.IDGen == nil {
		opts.IDGen = keksly.UUIDGenerator{}
	}

	op := NewOperation(operation, opts.Clock.Now())
	sl, logFile, err := newLogger(cfg.LogDir, cfg.Origin, opts.Verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: sl.With("op", op.ID, "command", op.Name)}

	a := &KekslyApp{
		cfg:      cfg,
		opts:     opts,
		queue:    keksly.NewDataLayer(),
		registry: prometheus.NewRegistry(),
		logger:   logger,
		logFile:  logFile,
		op:       op,
		reloader: &reloadRequest{},
	}
	a.metrics = metrics.New(a.registry)

	var sealer keksly.Sealer
	if cfg.Storage.Encrypted {
		sealer, err = encryption.NewSealerFromConfig(cfg.Encryption, opts.Passphrase)
		if err != nil {
			a.closeLog()
			return nil, fmt.Errorf("creating sealer: %w", err)
		}
	}

	a.store, err = storage.NewStoreFromConfig(ctx, cfg.Storage, cfg.Origin, opts.Clock, sealer)
	if err != nil {
		a.closeLog()
		return nil, fmt.Errorf("creating store: %w", err)
	}

	a.htmlPath = opts.HTMLPath
	if a.htmlPath == "" {
		a.htmlPath = cfg.Source.HTMLPath
	}
	if err := a.loadPage(); err != nil {
		a.Close()
		return nil, err
	}

	if err := a.boot(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// loadPage parses the page from disk, discarding any scripts a previous boot
// activated in memory.
func (a *KekslyApp) loadPage() error {
	if a.htmlPath == "" {
		return nil
	}
	doc, err := parseHTMLFile(a.htmlPath)
	if err != nil {
		return err
	}
	a.doc = doc
	return nil
}

func parseHTMLFile(path string) (*htmlgate.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer f.Close()

	doc, err := htmlgate.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("reading page %s: %w", path, err)
	}
	return doc, nil
}

// boot resolves configuration within the fetch deadline and boots a widget.
func (a *KekslyApp) boot(ctx context.Context) error {
	inline := a.inlineConfig(ctx)
	remote := a.remoteSource()

	resolver := keksly.NewResolver(nil, inline, remote, a.logger, a.metrics)
	fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.Source.FetchTimeout())
	resolver.Resolve(fetchCtx)
	cancel()

	var presenter keksly.Presenter = newTextPresenter(a.opts.Out)
	if a.opts.Quiet {
		presenter = keksly.NopPresenter{}
	}

	deps := keksly.Deps{
		Resolver:   resolver,
		Store:      a.store,
		Queue:      a.queue,
		Presenter:  presenter,
		Reloader:   a.reloader,
		Logger:     a.logger,
		Recorder:   a.metrics,
		Clock:      a.opts.Clock,
		IDGen:      a.opts.IDGen,
		DoNotTrack: a.cfg.DoNotTrack,
	}
	if a.doc != nil {
		deps.Gate = a.doc
	}

	w, err := keksly.Boot(ctx, deps)
	if err != nil {
		return fmt.Errorf("booting widget: %w", err)
	}
	a.widget = w
	return nil
}

// inlineConfig evaluates the inline script from source.inline_path, or the
// page's own KekslyConfig script. A script that fails to evaluate is logged
// and skipped so the remote source can still apply.
func (a *KekslyApp) inlineConfig(ctx context.Context) *keksly.PartialConfig {
	var script string
	switch {
	case a.cfg.Source.InlinePath != "":
		data, err := os.ReadFile(a.cfg.Source.InlinePath)
		if err != nil {
			a.logger.Warn("failed to read inline config", "path", a.cfg.Source.InlinePath, "error", err)
			return nil
		}
		script = string(data)
	case a.doc != nil:
		body, ok := a.doc.InlineConfigScript()
		if !ok {
			return nil
		}
		script = body
	default:
		return nil
	}

	cfg, err := source.Inline(ctx, script)
	if err != nil {
		a.logger.Warn("ignoring inline config", "error", err)
		return nil
	}
	return cfg
}

// remoteSource picks the asynchronous source: a local file, the configured
// URL, or the page loader's data-config URL, in that order.
func (a *KekslyApp) remoteSource() keksly.ConfigSource {
	switch {
	case a.cfg.Source.File != "":
		f := source.NewFile(a.cfg.Source.File)
		f.Logger = a.logger
		return f
	case a.cfg.Source.URL != "":
		return a.httpSource(a.cfg.Source.URL)
	case a.doc != nil:
		ref, ok := a.doc.ConfigURL()
		if !ok {
			return nil
		}
		u, err := resolveConfigURL(a.cfg.Origin, ref)
		if err != nil {
			a.logger.Warn("ignoring data-config url", "url", ref, "error", err)
			return nil
		}
		return a.httpSource(u)
	default:
		return nil
	}
}

func (a *KekslyApp) httpSource(u string) *source.HTTP {
	s := source.NewHTTP(u, a.opts.HTTPClient)
	s.Logger = a.logger
	return s
}

// resolveConfigURL resolves a possibly relative data-config reference
// against https://<origin>/.
func resolveConfigURL(origin, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if origin == "" {
		return "", fmt.Errorf("relative url %q needs an origin", ref)
	}
	base, err := url.Parse("https://" + origin + "/")
	if err != nil {
		return "", fmt.Errorf("parsing origin: %w", err)
	}
	return base.ResolveReference(u).String(), nil
}

// Widget returns the booted widget.
func (a *KekslyApp) Widget() *keksly.Widget { return a.widget }

// Status summarizes the widget after boot.
type Status struct {
	Origin     string
	UID        string
	Phase      keksly.Phase
	ShowBanner bool
	Services   []ServiceStatus
}

// ServiceStatus is one service and its current grant.
type ServiceStatus struct {
	ID       string
	Name     string
	Required bool
	Granted  bool
}

// GetStatus returns the current consent state per configured service.
func (a *KekslyApp) GetStatus() *Status {
	state := a.widget.State()
	st := &Status{
		Origin:     a.cfg.Origin,
		UID:        a.widget.UID(),
		Phase:      a.widget.Phase(),
		ShowBanner: a.widget.ShouldShowBanner(),
	}
	for _, srv := range a.widget.Config().Services {
		st.Services = append(st.Services, ServiceStatus{
			ID:       srv.ID,
			Name:     srv.Name,
			Required: srv.Required,
			Granted:  state[srv.ID],
		})
	}
	return st
}

// BannerPending reports whether the widget still waits for a first decision.
func (a *KekslyApp) BannerPending() bool {
	return a.widget.ShouldShowBanner()
}

// AcceptAll grants every service.
func (a *KekslyApp) AcceptAll() {
	a.widget.AcceptAll(keksly.SourceCLI)
}

// RejectAll denies every non-required service.
func (a *KekslyApp) RejectAll() {
	a.widget.RejectAll(keksly.SourceCLI)
}

// SetChoices parses id=bool arguments and saves them as a custom decision.
// Services not named keep their current value.
func (a *KekslyApp) SetChoices(args []string) (keksly.ConsentState, error) {
	choices, err := ParseChoices(a.widget.Config(), args)
	if err != nil {
		return nil, err
	}
	a.widget.SaveCustom(keksly.SourceCLI, choices)
	return a.widget.State(), nil
}

// OpenSettings prints the settings view with the decision history.
func (a *KekslyApp) OpenSettings() {
	a.widget.OpenSettings()
}

// GetHistory returns the decision log, newest first, at most limit entries
// (all when limit <= 0).
func (a *KekslyApp) GetHistory(limit int) []keksly.HistoryEntry {
	h := a.widget.History()
	out := make([]keksly.HistoryEntry, 0, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		out = append(out, h[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// WriteHistory prints entries in the settings history format.
func (a *KekslyApp) WriteHistory(w io.Writer, entries []keksly.HistoryEntry) {
	for _, e := range entries {
		writeHistoryEntry(w, a.widget.Config(), e)
	}
}

// UID returns the visitor identifier, or "" under Do-Not-Track.
func (a *KekslyApp) UID() string {
	return a.widget.UID()
}

// Reset erases the persisted decision and identifier, then boots a fresh
// widget against a freshly parsed page when the old one asks to reload.
func (a *KekslyApp) Reset(ctx context.Context) error {
	a.widget.Reset()
	if !a.reloader.requested {
		return nil
	}
	a.reloader.requested = false
	a.queue = keksly.NewDataLayer()
	if err := a.loadPage(); err != nil {
		return fmt.Errorf("reloading page: %w", err)
	}
	return a.boot(ctx)
}

// RenderPage injects the data layer into the page and writes it to w. Gated
// scripts for granted services were activated during boot or the last
// decision.
func (a *KekslyApp) RenderPage(w io.Writer) error {
	if a.doc == nil {
		return fmt.Errorf("no page loaded: pass --input or set source.html_path")
	}
	if err := a.doc.InjectDataLayer(a.queue.Records()); err != nil {
		return fmt.Errorf("injecting data layer: %w", err)
	}
	return a.doc.Render(w)
}

// DataLayer returns the records pushed so far.
func (a *KekslyApp) DataLayer() []any {
	return a.queue.Records()
}

// Handler returns the HTTP surface for `keksly serve`.
func (a *KekslyApp) Handler() http.Handler {
	return server.Router(server.New(a.widget, a.logger), a.registry)
}

// Serve runs the HTTP server until ctx is done.
func (a *KekslyApp) Serve(ctx context.Context) error {
	return server.ListenAndServe(ctx, a.cfg.Server.Addr, a.Handler(), a.logger)
}

// Fail marks the running operation as failed.
func (a *KekslyApp) Fail() {
	a.op.Fail()
}

// Close finalizes the operation and closes all resources.
func (a *KekslyApp) Close() error {
	var firstErr error
	if c, ok := a.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			firstErr = fmt.Errorf("closing store: %w", err)
		}
	}
	a.logger.Info("operation finished", "status", a.op.Status)
	a.closeLog()
	return firstErr
}

func (a *KekslyApp) closeLog() {
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
}

// ParseChoices turns "id=true" arguments into a partial consent state.
// Every id must name a configured service.
func ParseChoices(cfg *keksly.Config, args []string) (keksly.ConsentState, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no choices given: use <id>=true|false")
	}
	out := keksly.ConsentState{}
	for _, arg := range args {
		id, raw, ok := strings.Cut(arg, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid choice %q: use <id>=true|false", arg)
		}
		if _, known := cfg.Service(id); !known {
			return nil, fmt.Errorf("unknown service %q (known: %s)", id, strings.Join(serviceIDs(cfg), ", "))
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", id, err)
		}
		out[id] = v
	}
	return out, nil
}

func serviceIDs(cfg *keksly.Config) []string {
	ids := make([]string, len(cfg.Services))
	for i, srv := range cfg.Services {
		ids[i] = srv.ID
	}
	sort.Strings(ids)
	return ids
}
