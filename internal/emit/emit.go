// Package emit runs artifact emitters over a frozen bus.
//
// Emitters are pure functions of the IR. Run executes them concurrently and
// only reports success once every emitter has finished; the caller writes
// the returned artifacts, so a failure leaves nothing on disk.
package emit

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/canspec/internal/ir"
)

// Emitter renders one artifact from a bus. Implementations must not modify
// the bus.
type Emitter interface {
	Name() string
	Emit(bus *ir.Bus) ([]byte, error)
}

// Artifact is the rendered output of one emitter.
type Artifact struct {
	Name string
	Data []byte
}

// Run executes the emitters concurrently and returns their artifacts in
// argument order. The first error cancels the remaining emitters and is
// returned alone. The bus fingerprint is checked afterwards so that an
// emitter mutating the IR is reported instead of silently diverging.
func Run(ctx context.Context, bus *ir.Bus, emitters ...Emitter) ([]Artifact, error) {
	before, err := ir.Fingerprint(bus)
	if err != nil {
		return nil, fmt.Errorf("emit: %w", err)
	}

	out := make([]Artifact, len(emitters))
	g, ctx := errgroup.WithContext(ctx)

	for i, e := range emitters {
		i, e := i, e
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := e.Emit(bus)
			if err != nil {
				return fmt.Errorf("emit %s: %w", e.Name(), err)
			}
			out[i] = Artifact{Name: e.Name(), Data: data}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	after, err := ir.Fingerprint(bus)
	if err != nil {
		return nil, fmt.Errorf("emit: %w", err)
	}
	if after != before {
		return nil, fmt.Errorf("emit: bus %q was modified during emission", bus.Name)
	}
	return out, nil
}
