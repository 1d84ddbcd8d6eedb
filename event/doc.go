// Package event provides the process-wide event bus: fire-and-forget
// broadcast of immutable payloads to every listener registered for a
// topic.
//
// # Dispatch
//
// Emit takes a snapshot of the current registrations for the topic, then
// starts each listener synchronously in priority order (higher priority
// first; among equal priorities, registration order). A listener that
// cannot finish inside its invocation returns a pending result carrying
// a dispatch.Deferred; Emit collects those and, once every listener has
// been started, waits for all of them to settle before returning. One
// listener's failure never cancels or delays the others.
//
// Registrations added or removed by a listener during a dispatch affect
// only subsequent emissions, never the in-flight one.
//
// # Failure isolation
//
// A listener that returns an error, panics, or fails its deferred is
// reported on the "error" topic as a Failure payload. The report is
// published from a fresh goroutine, never inside the failing listener's
// call frame. Failures of "error"-topic listeners themselves are only
// logged, so error reporting cannot recurse.
//
// # Recursion guard
//
// The bus tracks a global emission depth. An Emit nested beyond the
// configured maximum (default 10) is a no-op: no listeners run, a local
// warning is logged, and no error is returned.
//
// # Basic usage
//
//	bus := event.NewBus(event.WithLogger(logger))
//
//	off, _ := bus.On("request:complete", event.ListenerFunc(
//		func(ctx context.Context, ev event.Event) error {
//			log.Printf("request finished: %v", ev.Payload)
//			return nil
//		}), event.WithPriority(10))
//	defer off()
//
//	bus.Emit(ctx, "request:complete", payload)
package event
