package event

import (
	"context"

	"github.com/dshills/relay/dispatch"
)

// Listener is the interface for event listeners. Handle may settle
// immediately or return a pending result whose deferred completion the
// bus joins on before Emit returns.
type Listener interface {
	Handle(ctx context.Context, ev Event) dispatch.Result
}

// ListenerFunc adapts a plain synchronous function to Listener. The
// returned result is always settled.
type ListenerFunc func(ctx context.Context, ev Event) error

// Handle implements the Listener interface.
func (f ListenerFunc) Handle(ctx context.Context, ev Event) dispatch.Result {
	return dispatch.Complete(f(ctx, ev))
}

// DeferredFunc adapts a function that starts asynchronous work to
// Listener. Returning nil is treated as immediate success.
type DeferredFunc func(ctx context.Context, ev Event) *dispatch.Deferred

// Handle implements the Listener interface.
func (f DeferredFunc) Handle(ctx context.Context, ev Event) dispatch.Result {
	d := f(ctx, ev)
	if d == nil {
		return dispatch.Complete(nil)
	}
	return dispatch.Pend(d)
}

// Stats contains bus counters. Values are read without a lock and may be
// slightly inconsistent while emissions are in flight.
type Stats struct {
	// Emitted is the number of Emit calls that dispatched.
	Emitted uint64

	// Delivered is the number of successful listener completions.
	Delivered uint64

	// Failures is the number of listener errors, panics included.
	Failures uint64

	// Panics is the number of recovered listener panics.
	Panics uint64

	// DepthDropped is the number of emissions dropped by the depth guard.
	DepthDropped uint64

	// Reported is the number of failures forwarded to the error topic.
	Reported uint64
}
