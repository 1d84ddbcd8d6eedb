// Package dispatch provides the execution primitives shared by the event
// bus and the hook registry: a uniform handler result that is either
// already settled or still pending, a Deferred for handlers that complete
// asynchronously, a panic-capturing invoker, and the settle-all join.
//
// The join waits for every deferred in a batch to settle, success or
// failure, before proceeding; one handler's failure never cancels or
// delays observation of the others' outcomes.
package dispatch
