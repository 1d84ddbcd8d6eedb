package dispatch

import "time"

// Result is the outcome of one handler invocation. It is either settled
// (Err, Panicked and the panic fields are final) or pending, in which
// case Deferred() tracks the handler's eventual completion.
type Result struct {
	// Err is the handler's error, nil on success. For a pending result
	// the final error lives on the Deferred.
	Err error

	// Panicked is true if the handler's invocation panicked.
	Panicked bool

	// PanicValue is the recovered panic value, when Panicked.
	PanicValue any

	// PanicStack is the stack trace captured at recovery, when Panicked.
	PanicStack []byte

	// Duration is the time spent inside the handler's invocation. For a
	// pending result this covers only the synchronous portion.
	Duration time.Duration

	deferred *Deferred
}

// Complete returns a settled result with the given error (nil = success).
func Complete(err error) Result {
	return Result{Err: err}
}

// Pend returns a pending result tracking the given deferred.
func Pend(d *Deferred) Result {
	return Result{deferred: d}
}

// Pending reports whether the handler's completion is still outstanding.
func (r Result) Pending() bool {
	return r.deferred != nil && !r.deferred.IsSettled()
}

// Deferred returns the deferred completion, nil for settled results.
func (r Result) Deferred() *Deferred {
	return r.deferred
}

// Failure returns the result's error, consulting the deferred for
// results that have since settled.
func (r Result) Failure() error {
	if r.deferred != nil {
		return r.deferred.Err()
	}
	return r.Err
}
