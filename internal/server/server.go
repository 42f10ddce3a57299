package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"keksly-go/internal/keksly"
)

// ConsentService is the part of the widget the HTTP surface drives.
type ConsentService interface {
	Config() *keksly.Config
	State() keksly.ConsentState
	History() []keksly.HistoryEntry
	UID() string
	ShouldShowBanner() bool
	Decide(partial keksly.ConsentState, meta keksly.DecisionMeta)
}

var _ ConsentService = (*keksly.Widget)(nil)

// Handler serves the widget's state over HTTP.
type Handler struct {
	consent ConsentService
	logger  keksly.Logger
}

// New creates a Handler. A nil logger discards output.
func New(consent ConsentService, logger keksly.Logger) *Handler {
	if logger == nil {
		logger = keksly.NewNopLogger()
	}
	return &Handler{consent: consent, logger: logger}
}

// Register registers the consent routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/keksly.json", h.handleConfig)
	r.Get("/consent", h.handleGetConsent)
	r.Post("/consent", h.handleDecide)
}

// Router returns a router with the consent routes and, when gatherer is
// non-nil, /metrics.
func Router(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ConsentResponse is the body of GET /consent and POST /consent.
type ConsentResponse struct {
	Consent    keksly.ConsentState   `json:"consent"`
	UID        *string               `json:"uid"`
	ShowBanner bool                  `json:"showBanner"`
	History    []keksly.HistoryEntry `json:"history"`
}

// DecideRequest is the body of POST /consent. Action is accept_all,
// reject_all or custom_save; Consent is only read for custom_save.
type DecideRequest struct {
	Action  string              `json:"action"`
	Source  string              `json:"source,omitempty"`
	Consent keksly.ConsentState `json:"consent,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (h *Handler) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.consent.Config())
}

func (h *Handler) handleGetConsent(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshot())
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req DecideRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	source := req.Source
	if source == "" {
		source = keksly.SourceAPI
	}
	cfg := h.consent.Config()

	var partial keksly.ConsentState
	switch req.Action {
	case keksly.ActionAcceptAll:
		partial = keksly.AcceptAll(cfg)
	case keksly.ActionRejectAll:
		partial = keksly.RejectAll(cfg)
	case keksly.ActionCustomSave, keksly.ActionUpdate:
		for id := range req.Consent {
			if _, ok := cfg.Service(id); !ok {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown service %q", id))
				return
			}
		}
		partial = req.Consent
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown action %q", req.Action))
		return
	}

	h.consent.Decide(partial, keksly.DecisionMeta{Source: source, Action: req.Action})
	h.logger.Info("decision received over http", "source", source, "action", req.Action)
	writeJSON(w, http.StatusOK, h.snapshot())
}

func (h *Handler) snapshot() ConsentResponse {
	var uid *string
	if v := h.consent.UID(); v != "" {
		uid = &v
	}
	history := h.consent.History()
	if history == nil {
		history = []keksly.HistoryEntry{}
	}
	return ConsentResponse{
		Consent:    h.consent.State(),
		UID:        uid,
		ShowBanner: h.consent.ShouldShowBanner(),
		History:    history,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ShutdownTimeout bounds graceful shutdown once ctx is done.
const ShutdownTimeout = 5 * time.Second

// ListenAndServe serves handler on addr until ctx is done, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger keksly.Logger) error {
	if logger == nil {
		logger = keksly.NewNopLogger()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		logger.Info("http server stopped")
		return nil
	})
	return g.Wait()
}
