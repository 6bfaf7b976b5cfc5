package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past EvalTimeout or the
	// caller's deadline.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned to a caller whose evaluation finished
	// after a newer one had started.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

type evalResult struct {
	program *Program
	errors  []EvalError
	err     error
}

// await blocks until ch delivers or ctx ends. A result whose generation
// is no longer current is discarded. On timeout the interpreter goroutine
// may keep running; its late result lands in the buffered channel and is
// dropped.
func (e *Engine) await(ctx context.Context, ch <-chan evalResult, gen uint64) (*Program, []EvalError, error) {
	ctx, cancel := context.WithTimeout(ctx, EvalTimeout)
	defer cancel()

	select {
	case res := <-ch:
		if !e.current(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.program, res.errors, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, EvalTimeout)
		}
		return nil, nil, ctx.Err()
	}
}

func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation == gen
}
