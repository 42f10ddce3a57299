package testutil

import (
	"fmt"
	"sync"

	"keksly-go/internal/keksly"
)

// FakeGate is an in-memory keksly.ScriptGate. Activated scripts move from
// Pending to Activated, so they are never listed again.
type FakeGate struct {
	mu        sync.Mutex
	Pending   []keksly.GatedScript
	Activated []keksly.GatedScript

	ListErr  error
	FailOn   map[string]bool // service ids whose activation fails
	ListHits int
}

// NewFakeGate creates a gate with one inert script per service id, in order.
func NewFakeGate(serviceIDs ...string) *FakeGate {
	g := &FakeGate{FailOn: map[string]bool{}}
	for i, id := range serviceIDs {
		g.Pending = append(g.Pending, keksly.GatedScript{
			ServiceID: id,
			Src:       fmt.Sprintf("https://cdn.example.com/%s.js", id),
			Ref:       i,
		})
	}
	return g
}

func (g *FakeGate) ListGatedScripts() ([]keksly.GatedScript, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ListHits++
	if g.ListErr != nil {
		return nil, g.ListErr
	}
	return append([]keksly.GatedScript(nil), g.Pending...), nil
}

func (g *FakeGate) Activate(script keksly.GatedScript) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailOn[script.ServiceID] {
		return fmt.Errorf("activating %s: %w", script.ServiceID, ErrInjected)
	}
	for i, s := range g.Pending {
		if s.Ref == script.Ref {
			g.Pending = append(g.Pending[:i], g.Pending[i+1:]...)
			g.Activated = append(g.Activated, s)
			return nil
		}
	}
	return fmt.Errorf("script %v is not pending", script.Ref)
}

// ActivatedIDs returns the service ids of activated scripts in activation order.
func (g *FakeGate) ActivatedIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, len(g.Activated))
	for i, s := range g.Activated {
		ids[i] = s.ServiceID
	}
	return ids
}

var _ keksly.ScriptGate = (*FakeGate)(nil)
