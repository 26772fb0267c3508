package wirerpc

import "context"

// Future is the one-shot pending result of a call that expects a response.
// It is resolved exactly once, when the response packet is dispatched, and
// never expires on its own: a call whose response is lost stays pending
// unless the application gives up on it (Wait with a context).
type Future struct {
	done  chan struct{}
	value any
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve delivers the result. Called at most once, via Interface.Resolve.
func (f *Future) resolve(v any) {
	f.value = v
	close(f.done)
}

// Done returns a channel closed when the result has been delivered.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Ready reports whether the result has been delivered, without blocking.
func (f *Future) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Value blocks until the result is delivered and returns it.
func (f *Future) Value() any {
	<-f.done
	return f.value
}

// Wait blocks until the result is delivered or ctx is done. This is the
// seam for timeouts and cancellation, which the core itself does not model.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Await blocks until f resolves and returns the result as R. It panics if
// the resolved value is not an R, which cannot happen for a future obtained
// from a Call declared with return type R.
func Await[R any](f *Future) R {
	return f.Value().(R)
}
