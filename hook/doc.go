// Package hook provides named interception points with ordered handler
// chains. Registered handlers run when a point fires, each receiving a
// working context and returning a delta that is merged back before the
// next handler runs. A handler can stop the chain, run under a
// deadline, or participate in a parallel pass where every handler sees
// the same starting context.
//
// Handler failures never abort the chain; they are forwarded to the
// event bus error topic through a FailureSink.
package hook
