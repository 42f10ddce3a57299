package keksly

import (
	"context"
	"fmt"
	"sync"
)

// ConfigSource asynchronously yields an override document or fails.
// Implementations must honor ctx cancellation where they block.
type ConfigSource interface {
	Fetch(ctx context.Context) (*PartialConfig, error)
}

// FetchResult is the outcome of one ConfigSource.Fetch call.
type FetchResult struct {
	Config *PartialConfig
	Err    error
}

// Resolver produces the effective configuration exactly once.
//
// Priority: an inline override is merged immediately; otherwise the remote
// source is fetched and merged; otherwise the base is used alone. A failed or
// abandoned fetch falls back to the unmerged base.
type Resolver struct {
	base     *Config
	inline   *PartialConfig
	remote   ConfigSource
	logger   Logger
	recorder Recorder

	once     sync.Once
	resolved *Config
}

// NewResolver creates a Resolver. A nil base means DefaultConfig().
// inline and remote may both be nil.
func NewResolver(base *Config, inline *PartialConfig, remote ConfigSource, logger Logger, recorder Recorder) *Resolver {
	if base == nil {
		base = DefaultConfig()
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Resolver{
		base:     base,
		inline:   inline,
		remote:   remote,
		logger:   logger,
		recorder: recorder,
	}
}

// Resolve returns the effective configuration. The first call does the work;
// later calls return the same value regardless of ctx.
func (r *Resolver) Resolve(ctx context.Context) *Config {
	r.once.Do(func() {
		r.resolved = r.resolve(ctx)
		if !r.resolved.HasRequiredService() {
			r.logger.Warn("resolved config has no required service", "services", len(r.resolved.Services))
		}
	})
	return r.resolved
}

func (r *Resolver) resolve(ctx context.Context) *Config {
	switch {
	case r.inline != nil:
		r.logger.Debug("using inline config")
		return Merge(r.base, r.inline)
	case r.remote != nil:
		res := r.await(ctx)
		if res.Err != nil {
			r.logger.Error("failed to load config", "error", res.Err)
			r.recorder.ConfigFallback(res.Err)
			return r.base
		}
		r.logger.Debug("using remote config")
		return Merge(r.base, res.Config)
	default:
		return r.base
	}
}

// await runs the fetch in its own goroutine so a source that ignores ctx
// cannot hold up boot past the deadline. The fetch is left to finish on its
// own schedule; its late result is discarded.
func (r *Resolver) await(ctx context.Context) FetchResult {
	ch := make(chan FetchResult, 1)
	go func() {
		cfg, err := r.remote.Fetch(ctx)
		if err == nil && cfg == nil {
			err = fmt.Errorf("config source returned no document")
		}
		ch <- FetchResult{Config: cfg, Err: err}
	}()

	select {
	case res := <-ch:
		return res
	case <-ctx.Done():
		return FetchResult{Err: fmt.Errorf("waiting for config: %w", ctx.Err())}
	}
}
