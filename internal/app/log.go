package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// kekslyHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<origin>\t<message>\t<key=value ...>
type kekslyHandler struct {
	w      io.Writer
	origin string
	attrs  []slog.Attr
}

func (h *kekslyHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *kekslyHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	origin := h.origin
	if origin == "" {
		origin = "-"
	}

	_, err := fmt.Fprintf(h.w, "%s\t%s\t%s\t%s", ts, r.Level.String(), origin, r.Message)
	if err != nil {
		return err
	}

	for _, a := range h.attrs {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
		return true
	})

	_, err = fmt.Fprintln(h.w)
	return err
}

func (h *kekslyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &kekslyHandler{
		w:      h.w,
		origin: h.origin,
		attrs:  append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *kekslyHandler) WithGroup(string) slog.Handler { return h }

// newLogger creates a structured logger that writes to logDir/keksly.log and,
// when verbose, to stderr as well.
// It returns the slog.Logger, the open log file (for cleanup), and any error.
func newLogger(logDir, origin string, verbose bool) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "keksly.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	var w io.Writer = f
	if verbose {
		w = io.MultiWriter(f, os.Stderr)
	}
	return slog.New(&kekslyHandler{w: w, origin: origin}), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the keksly.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
