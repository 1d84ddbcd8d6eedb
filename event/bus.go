package event

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/relay/dispatch"
	"github.com/dshills/relay/registry"
	"github.com/dshills/relay/topic"
)

// Bus is the event broadcast component. The zero value is not usable;
// construct with NewBus. All methods are safe for concurrent use.
type Bus struct {
	table  *registry.Table[Listener]
	logger *zap.Logger
	source string

	maxDepth int32
	depth    atomic.Int32

	// Stats
	emitted      atomic.Uint64
	delivered    atomic.Uint64
	failures     atomic.Uint64
	panics       atomic.Uint64
	depthDropped atomic.Uint64
	reported     atomic.Uint64
}

// NewBus creates an event bus with the given options.
func NewBus(opts ...BusOption) *Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &Bus{
		table:    registry.NewTable[Listener](),
		logger:   config.logger,
		source:   config.source,
		maxDepth: config.maxDepth,
	}
}

// On registers a listener for a topic or wildcard pattern. It returns an
// unsubscribe closure that removes this exact registration; invoking it
// more than once is a no-op.
//
// A nil listener or malformed topic is a programming error and fails
// synchronously.
func (b *Bus) On(t topic.Topic, l Listener, opts ...ListenOption) (func(), error) {
	if l == nil {
		return nil, ErrNilListener
	}
	if !t.IsValid() {
		return nil, ErrInvalidTopic
	}

	var config listenConfig
	for _, opt := range opts {
		opt(&config)
	}

	entry := b.table.Insert(string(t), config.priority, config.once, l)

	return func() {
		b.table.RemoveID(string(t), entry.ID)
	}, nil
}

// Off removes the first registration under t whose listener is identical
// to l. It reports whether anything was removed.
//
// Function listeners compare by code pointer, so distinct closures over
// one function body (every OnPayload wrapper, for example) are
// indistinguishable here and Off removes whichever was registered
// first. To remove one specific registration, use the unsubscribe
// closure returned by On.
func (b *Bus) Off(t topic.Topic, l Listener) bool {
	return b.table.RemoveHandler(string(t), l)
}

// Emit dispatches payload to every listener registered for t, in
// priority order, and returns once every listener has settled. Listener
// failures never surface here; they are forwarded to the error topic.
//
// Emit returns an error only for misuse (malformed or wildcard topic).
func (b *Bus) Emit(ctx context.Context, t topic.Topic, payload any) error {
	if !t.IsValid() {
		return ErrInvalidTopic
	}
	if t.IsPattern() {
		return ErrPatternEmit
	}

	// Depth guard. The counter is global to the bus: a listener chain
	// that re-emits without terminating runs it up until emissions
	// become no-ops.
	for {
		d := b.depth.Load()
		if d >= b.maxDepth {
			b.depthDropped.Add(1)
			b.logger.Warn("emission depth exceeded, dropping",
				zap.String("topic", t.String()),
				zap.Int32("depth", d))
			return nil
		}
		if b.depth.CompareAndSwap(d, d+1) {
			break
		}
	}
	defer b.depth.Add(-1)

	snapshot := b.table.SnapshotMatch(func(key string) bool {
		return t.Matches(topic.Topic(key))
	})
	if len(snapshot) == 0 {
		return nil
	}

	b.emitted.Add(1)
	ev := newEvent(t, payload, b.source)

	// Dispatching: start every listener in order, collecting deferred
	// completions rather than awaiting them in-line.
	type pendingCompletion struct {
		id uint64
		d  *dispatch.Deferred
	}
	var pending []pendingCompletion
	var failed []Failure

	for _, entry := range snapshot {
		l := entry.Handler
		res := dispatch.Invoke(ctx, func(c context.Context) dispatch.Result {
			return l.Handle(c, ev)
		})

		if res.Panicked {
			b.panics.Add(1)
		}

		switch {
		case res.Deferred() != nil:
			// Joined later even if it already settled; SettleAll
			// classifies the outcome.
			pending = append(pending, pendingCompletion{id: entry.ID, d: res.Deferred()})
		case res.Err != nil:
			failed = append(failed, Failure{
				Origin:         t,
				Err:            res.Err,
				RegistrationID: entry.ID,
				Time:           time.Now(),
			})
		default:
			b.delivered.Add(1)
		}
	}

	// Reaping: once-registrations leave after the invocation pass, as a
	// separate table mutation so the live sequence is never edited
	// mid-iteration.
	for _, entry := range snapshot {
		if entry.Once {
			b.table.RemoveID(entry.Key, entry.ID)
		}
	}

	// Settling: join every deferred completion, success or failure.
	if len(pending) > 0 {
		ds := make([]*dispatch.Deferred, len(pending))
		for i, p := range pending {
			ds[i] = p.d
		}
		for i, err := range dispatch.SettleAll(ds) {
			if err != nil {
				failed = append(failed, Failure{
					Origin:         t,
					Err:            err,
					RegistrationID: pending[i].id,
					Time:           time.Now(),
				})
			} else {
				b.delivered.Add(1)
			}
		}
	}

	for _, f := range failed {
		b.failures.Add(1)
		b.report(f)
	}

	return nil
}

// ReportFailure publishes a handler failure on the error topic on behalf
// of a collaborator (the hook registry shares this path and its loop
// guard).
func (b *Bus) ReportFailure(origin topic.Topic, registrationID uint64, err error) {
	if err == nil {
		return
	}
	b.report(Failure{
		Origin:         origin,
		Err:            err,
		RegistrationID: registrationID,
		Time:           time.Now(),
	})
}

// report forwards one failure to the error topic from a fresh goroutine.
// Loop guard: a failure that originated on the error topic itself is
// only logged, never re-emitted.
func (b *Bus) report(f Failure) {
	if f.Origin == TopicError {
		b.logger.Error("error-topic listener failed",
			zap.Uint64("registration", f.RegistrationID),
			zap.Error(f.Err))
		return
	}

	b.reported.Add(1)
	go func() {
		// Deliberately detached from the failing emission's context.
		_ = b.Emit(context.Background(), TopicError, f)
	}()
}

// Count returns the number of registrations under t (exact key, not
// pattern expansion).
func (b *Bus) Count(t topic.Topic) int {
	return b.table.Count(string(t))
}

// Topics returns every topic or pattern with at least one registration.
func (b *Bus) Topics() []topic.Topic {
	keys := b.table.Keys()
	if len(keys) == 0 {
		return nil
	}
	out := make([]topic.Topic, len(keys))
	for i, k := range keys {
		out[i] = topic.Topic(k)
	}
	return out
}

// Clear removes every registration. Intended for test isolation.
func (b *Bus) Clear() {
	b.table.Clear()
}

// Stats returns current bus counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Emitted:      b.emitted.Load(),
		Delivered:    b.delivered.Load(),
		Failures:     b.failures.Load(),
		Panics:       b.panics.Load(),
		DepthDropped: b.depthDropped.Load(),
		Reported:     b.reported.Load(),
	}
}
