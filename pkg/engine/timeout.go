package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/mapcore/pkg/scene"
)

// DefaultEvalTimeout is the hard limit for a single evaluation unless the
// engine is configured otherwise.
const DefaultEvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when an evaluation runs past the engine timeout.
	ErrTimeout = errors.New("engine: evaluation timed out")
	// ErrSuperseded is returned when a newer Evaluate call started while an
	// older one was running.
	ErrSuperseded = errors.New("engine: evaluation superseded by a newer request")
)

type evalResult struct {
	scene  *scene.Scene
	errors []EvalError
	err    error
}

// latest reports whether gen is the most recent evaluation.
func (e *Engine) latest(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}

// await blocks until generation gen reports on ch or the timeout passes. An
// evaluation left running after a timeout keeps its buffered channel and is
// garbage once it finishes.
func (e *Engine) await(ctx context.Context, ch <-chan evalResult, gen uint64) (*scene.Scene, []EvalError, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	select {
	case res := <-ch:
		if !e.latest(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.scene, res.errors, res.err
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
}
