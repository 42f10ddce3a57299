package testutil

import (
	"context"
	"sync/atomic"

	"keksly-go/internal/keksly"
)

// StaticSource returns Config and Err on every fetch.
type StaticSource struct {
	Config *keksly.PartialConfig
	Err    error
	calls  atomic.Int32
}

func (s *StaticSource) Fetch(context.Context) (*keksly.PartialConfig, error) {
	s.calls.Add(1)
	return s.Config, s.Err
}

// Calls returns how many times Fetch ran.
func (s *StaticSource) Calls() int { return int(s.calls.Load()) }

// BlockingSource never answers on its own. Fetch returns when ctx is done
// or Release is closed, whichever comes first.
type BlockingSource struct {
	Release chan struct{}
	Config  *keksly.PartialConfig
}

func NewBlockingSource() *BlockingSource {
	return &BlockingSource{Release: make(chan struct{})}
}

func (s *BlockingSource) Fetch(ctx context.Context) (*keksly.PartialConfig, error) {
	select {
	case <-s.Release:
		return s.Config, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var (
	_ keksly.ConfigSource = (*StaticSource)(nil)
	_ keksly.ConfigSource = (*BlockingSource)(nil)
)
