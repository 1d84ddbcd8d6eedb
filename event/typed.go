package event

import (
	"context"

	"github.com/dshills/relay/topic"
)

// OnPayload registers a listener that only fires when the event payload
// is of type T. Events carrying a different payload type are skipped
// silently, which keeps a well-known topic's payload contract a
// compile-time property of the subscriber.
func OnPayload[T any](b *Bus, t topic.Topic, fn func(ctx context.Context, payload T) error, opts ...ListenOption) (func(), error) {
	if fn == nil {
		return nil, ErrNilListener
	}
	return b.On(t, ListenerFunc(func(ctx context.Context, ev Event) error {
		p, ok := ev.Payload.(T)
		if !ok {
			return nil
		}
		return fn(ctx, p)
	}), opts...)
}

// OnFailure registers a listener for the error topic that receives the
// decoded Failure payload. This is the subscription diagnostics
// consumers use; such listeners should never fail themselves.
func OnFailure(b *Bus, fn func(ctx context.Context, f Failure) error, opts ...ListenOption) (func(), error) {
	return OnPayload(b, TopicError, fn, opts...)
}
