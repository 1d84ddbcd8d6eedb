package hook

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dshills/relay/dispatch"
	"github.com/dshills/relay/registry"
	"github.com/dshills/relay/topic"
)

// FailureSink receives handler failures. *event.Bus satisfies it; its
// error-topic loop guard then applies to hook failures as well.
type FailureSink interface {
	ReportFailure(origin topic.Topic, registrationID uint64, err error)
}

// Point names an interception point, e.g. "beforeRequest" or
// "route:enter". Points follow the same segment grammar as event
// topics but never contain wildcards.
type Point = topic.Topic

// Registration identifies one registered handler.
type Registration struct {
	ID    uint64
	Point Point
}

// Registry holds handler chains keyed by interception point. All
// methods are safe for concurrent use.
type Registry struct {
	table          *registry.Table[Handler]
	sink           FailureSink
	logger         *zap.Logger
	defaultTimeout time.Duration
}

// NewRegistry creates a hook registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	config := defaultRegistryConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &Registry{
		table:          registry.NewTable[Handler](),
		sink:           config.sink,
		logger:         config.logger,
		defaultTimeout: config.defaultTimeout,
	}
}

// Register adds a handler to the chain for point and returns its
// registration handle.
func (r *Registry) Register(point Point, h Handler, opts ...RegisterOption) (Registration, error) {
	if h == nil {
		return Registration{}, ErrNilHandler
	}
	if !point.IsValid() || point.IsPattern() {
		return Registration{}, ErrInvalidPoint
	}

	var config registerConfig
	for _, opt := range opts {
		opt(&config)
	}

	entry := r.table.Insert(string(point), config.priority, config.once, h)
	return Registration{ID: entry.ID, Point: point}, nil
}

// Unregister removes a registration by handle. It reports whether
// anything was removed and is idempotent.
func (r *Registry) Unregister(reg Registration) bool {
	return r.table.RemoveID(string(reg.Point), reg.ID)
}

// UnregisterHandler removes the first registration under point whose
// handler is identical to h.
//
// Function handlers compare by code pointer, so distinct closures over
// one function body are indistinguishable here and the first one
// registered is removed. To remove one specific registration, use
// Unregister with the Registration returned by Register.
func (r *Registry) UnregisterHandler(point Point, h Handler) bool {
	return r.table.RemoveHandler(string(point), h)
}

// Count returns the number of handlers registered for point.
func (r *Registry) Count(point Point) int {
	return r.table.Count(string(point))
}

// Points returns every point with at least one registration.
func (r *Registry) Points() []Point {
	keys := r.table.Keys()
	if len(keys) == 0 {
		return nil
	}
	out := make([]Point, len(keys))
	for i, k := range keys {
		out[i] = Point(k)
	}
	return out
}

// Clear removes every registration. Intended for test isolation.
func (r *Registry) Clear() {
	r.table.Clear()
}

// Run fires the chain registered for point. The input context is never
// mutated; handlers work against a clone, and the final working
// context is returned.
//
// Sequential runs thread the working context through each handler's
// delta and honor the Stop flag. Parallel runs give every handler its
// own clone of the input and discard deltas unless WithParallelMerge
// is set.
//
// Handler failures are forwarded to the failure sink and otherwise
// swallowed; WithoutSwallow additionally returns them combined.
func (r *Registry) Run(ctx context.Context, point Point, input *Context, opts ...RunOption) (*Context, error) {
	if !point.IsValid() || point.IsPattern() {
		return input, ErrInvalidPoint
	}

	config := runConfig{
		mode:    Sequential,
		timeout: r.defaultTimeout,
		swallow: true,
	}
	for _, opt := range opts {
		opt(&config)
	}

	snapshot := r.table.Snapshot(string(point))
	working := input.Clone()
	if len(snapshot) == 0 {
		return working, nil
	}

	var errs []error
	if config.mode == Parallel {
		errs = r.runParallel(ctx, point, snapshot, working, config)
	} else {
		errs = r.runSequential(ctx, point, snapshot, working, config)
	}

	if !config.swallow && len(errs) > 0 {
		return working, multierr.Combine(errs...)
	}
	return working, nil
}

func (r *Registry) runSequential(ctx context.Context, point Point, snapshot []registry.Entry[Handler], working *Context, config runConfig) []error {
	var errs []error
	invoked := 0

	for _, entry := range snapshot {
		invoked++
		delta, err := r.invoke(ctx, entry.Handler, working, config.timeout)
		if err != nil {
			errs = append(errs, err)
			r.report(point, entry.ID, err)
			if !config.swallow {
				break
			}
			continue
		}
		working.merge(delta)
		if working.Stop {
			break
		}
	}

	// Reap once-registrations that actually ran; a Stop short-circuit
	// leaves the rest armed.
	for _, entry := range snapshot[:invoked] {
		if entry.Once {
			r.table.RemoveID(entry.Key, entry.ID)
		}
	}

	return errs
}

func (r *Registry) runParallel(ctx context.Context, point Point, snapshot []registry.Entry[Handler], working *Context, config runConfig) []error {
	type outcome struct {
		delta *Context
		err   error
	}
	results := make([]outcome, len(snapshot))

	var wg sync.WaitGroup
	for i, entry := range snapshot {
		wg.Add(1)
		go func(i int, h Handler) {
			defer wg.Done()
			delta, err := r.invoke(ctx, h, working.Clone(), config.timeout)
			results[i] = outcome{delta: delta, err: err}
		}(i, entry.Handler)
	}
	wg.Wait()

	for _, entry := range snapshot {
		if entry.Once {
			r.table.RemoveID(entry.Key, entry.ID)
		}
	}

	var errs []error
	for i, res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
			r.report(point, snapshot[i].ID, res.err)
			continue
		}
		if config.parallelMerge {
			// Snapshot order is priority order, so merges land
			// deterministically.
			working.merge(res.delta)
		}
	}

	return errs
}

// invoke runs one handler with panic recovery and an optional deadline.
// A handler that outlives its deadline is abandoned; its eventual
// return is discarded.
func (r *Registry) invoke(ctx context.Context, h Handler, hc *Context, timeout time.Duration) (*Context, error) {
	if timeout <= 0 {
		var delta *Context
		res := dispatch.Invoke(ctx, func(c context.Context) dispatch.Result {
			d, err := h.Run(c, hc)
			delta = d
			return dispatch.Complete(err)
		})
		if res.Err != nil {
			return nil, res.Err
		}
		return delta, nil
	}

	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// The goroutine may outlive the deadline, so it gets its own copy of
	// the context; an abandoned handler must never alias the working
	// context the chain keeps merging into.
	hc = hc.Clone()

	type outcome struct {
		delta *Context
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		var delta *Context
		res := dispatch.Invoke(hctx, func(c context.Context) dispatch.Result {
			d, err := h.Run(c, hc)
			delta = d
			return dispatch.Complete(err)
		})
		done <- outcome{delta: delta, err: res.Err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		return out.delta, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", dispatch.ErrHandlerTimeout, timeout)
	}
}

// report forwards one failure to the sink, or logs it when no sink is
// configured.
func (r *Registry) report(point Point, id uint64, err error) {
	if r.sink != nil {
		r.sink.ReportFailure(topic.Join("hook", string(point)), id, err)
		return
	}
	r.logger.Error("hook handler failed",
		zap.String("point", point.String()),
		zap.Uint64("registration", id),
		zap.Error(err))
}
