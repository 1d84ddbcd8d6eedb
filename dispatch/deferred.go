package dispatch

import "sync"

// Deferred tracks a handler's asynchronous completion. A handler that
// cannot finish inside its invocation returns a pending Result carrying
// a Deferred and settles it later from any goroutine.
//
// A Deferred settles exactly once; later Resolve/Fail calls are no-ops.
type Deferred struct {
	once sync.Once
	done chan struct{}
	err  error
}

// NewDeferred creates an unsettled Deferred.
func NewDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

// Resolve settles the deferred successfully.
func (d *Deferred) Resolve() {
	d.settle(nil)
}

// Fail settles the deferred with an error. A nil error is recorded as a
// successful settlement.
func (d *Deferred) Fail(err error) {
	d.settle(err)
}

func (d *Deferred) settle(err error) {
	d.once.Do(func() {
		d.err = err
		close(d.done)
	})
}

// Done returns a channel closed when the deferred settles.
func (d *Deferred) Done() <-chan struct{} {
	return d.done
}

// Err returns the settlement error. It is only meaningful after Done()
// is closed.
func (d *Deferred) Err() error {
	select {
	case <-d.done:
		return d.err
	default:
		return nil
	}
}

// IsSettled reports whether the deferred has settled.
func (d *Deferred) IsSettled() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// SettleAll blocks until every deferred in the batch settles and returns
// each settlement error in input order (nil for success). Nil deferreds
// are treated as already settled.
func SettleAll(ds []*Deferred) []error {
	if len(ds) == 0 {
		return nil
	}
	errs := make([]error, len(ds))
	for i, d := range ds {
		if d == nil {
			continue
		}
		<-d.Done()
		errs[i] = d.Err()
	}
	return errs
}
