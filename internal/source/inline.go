package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"

	"keksly-go/internal/keksly"
)

// ErrNoInlineConfig is returned when a script runs but never assigns
// window.KekslyConfig.
var ErrNoInlineConfig = errors.New("script does not define window.KekslyConfig")

// Inline evaluates a page script that assigns window.KekslyConfig and
// returns the assigned object as an override.
//
// The script runs in a fresh runtime whose only globals are the ECMAScript
// built-ins plus window and self, both pointing at the same empty object.
// Evaluation is interrupted when ctx is done.
func Inline(ctx context.Context, script string) (*keksly.PartialConfig, error) {
	vm := goja.New()
	window := vm.NewObject()
	if err := vm.Set("window", window); err != nil {
		return nil, fmt.Errorf("preparing runtime: %w", err)
	}
	if err := vm.Set("self", window); err != nil {
		return nil, fmt.Errorf("preparing runtime: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	if _, err := vm.RunString(script); err != nil {
		return nil, fmt.Errorf("evaluating inline config: %w", err)
	}

	v := window.Get("KekslyConfig")
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, ErrNoInlineConfig
	}

	out, err := vm.RunString("JSON.stringify(window.KekslyConfig)")
	if err != nil {
		return nil, fmt.Errorf("serializing inline config: %w", err)
	}
	return DecodeJSON([]byte(out.String()))
}

// InlineSource adapts an inline script to keksly.ConfigSource.
type InlineSource struct {
	Script string
}

func (s *InlineSource) Fetch(ctx context.Context) (*keksly.PartialConfig, error) {
	return Inline(ctx, s.Script)
}

var _ keksly.ConfigSource = (*InlineSource)(nil)
