package modem

import (
	"context"
	"sync"
	"sync/atomic"
)

// Result is the outcome of an operation. It is resolved exactly once.
type Result struct {
	done     chan struct{}
	once     sync.Once
	err      error
	resolved atomic.Int32
}

func newResult() *Result {
	return &Result{done: make(chan struct{})}
}

// resolve completes the result with err. Only the first call has an effect;
// it reports whether this call resolved the result.
func (r *Result) resolve(err error) bool {
	first := false
	r.once.Do(func() {
		r.err = err
		first = true
		close(r.done)
	})

	if first {
		r.resolved.Add(1)
	}

	return first
}

// Done returns a channel closed when the result is resolved.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Err returns the outcome of a resolved result, and nil while it is pending.
func (r *Result) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Wait waits for the result and returns its outcome, or ctx.Err() when ctx
// is done first.
func (r *Result) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
