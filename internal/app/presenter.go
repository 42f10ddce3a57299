package app

import (
	"fmt"
	"io"
	"sync"

	"keksly-go/internal/keksly"
)

// textPresenter renders the banner and settings view as plain text for the
// terminal. Banner buttons become the commands that perform their action.
type textPresenter struct {
	mu sync.Mutex
	w  io.Writer
}

func newTextPresenter(w io.Writer) *textPresenter {
	return &textPresenter{w: w}
}

var buttonCommands = map[string]string{
	keksly.ButtonAccept:   "keksly accept",
	keksly.ButtonReject:   "keksly reject",
	keksly.ButtonSettings: "keksly settings",
}

func (p *textPresenter) ShowBanner(cfg *keksly.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := cfg.Texts.Banner
	fmt.Fprintf(p.w, "%s\n\n%s\n\n", t.Title, t.Description)

	buttons := cfg.Design.Buttons
	if len(buttons) == 0 {
		buttons = []keksly.Button{
			{Type: keksly.ButtonAccept, Label: t.AcceptAll},
			{Type: keksly.ButtonReject, Label: t.RejectAll},
			{Type: keksly.ButtonSettings, Label: t.Settings},
		}
	}
	for _, b := range buttons {
		cmd, ok := buttonCommands[b.Type]
		if !ok {
			continue
		}
		fmt.Fprintf(p.w, "  %-20s %s\n", b.Label, cmd)
	}
	p.writeLinks(cfg)
}

func (p *textPresenter) ShowSettings(cfg *keksly.Config, state keksly.ConsentState, history []keksly.HistoryEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := cfg.Texts.Settings
	fmt.Fprintf(p.w, "%s\n\n", t.Title)
	for _, srv := range cfg.Services {
		mark := " "
		if state[srv.ID] {
			mark = "x"
		}
		suffix := ""
		if srv.Required {
			suffix = " (required)"
		}
		fmt.Fprintf(p.w, "  [%s] %s%s  id=%s\n", mark, srv.Name, suffix, srv.ID)
		if srv.Description != "" {
			fmt.Fprintf(p.w, "      %s\n", srv.Description)
		}
	}
	fmt.Fprintf(p.w, "\n  %-20s keksly set <id>=true|false ...\n", t.Save)

	fmt.Fprintf(p.w, "\n%s\n", t.HistoryTitle)
	if len(history) == 0 {
		fmt.Fprintf(p.w, "  %s\n", t.HistoryEmpty)
	}
	for i := len(history) - 1; i >= 0; i-- {
		writeHistoryEntry(p.w, cfg, history[i])
	}
	p.writeLinks(cfg)
}

func (p *textPresenter) Hide() {}

func (p *textPresenter) writeLinks(cfg *keksly.Config) {
	l := cfg.Texts.Links
	fmt.Fprintf(p.w, "\n%s: %s | %s: %s\n", l.PrivacyPolicy.Text, l.PrivacyPolicy.URL, l.Imprint.Text, l.Imprint.URL)
}

// writeHistoryEntry prints one decision, listing services in config order.
func writeHistoryEntry(w io.Writer, cfg *keksly.Config, e keksly.HistoryEntry) {
	fmt.Fprintf(w, "  %s  %s/%s", e.Timestamp, e.Source, e.Action)
	for _, srv := range cfg.Services {
		granted, ok := e.Consent[srv.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %s=%t", srv.ID, granted)
	}
	fmt.Fprintln(w)
}

var _ keksly.Presenter = (*textPresenter)(nil)
