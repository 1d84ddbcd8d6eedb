package event

import (
	"context"
	"sync"

	"github.com/dshills/relay/topic"
)

var (
	defaultOnce sync.Once
	defaultBus  *Bus
)

// Default returns the process-wide bus, created on first use. Prefer
// constructing and injecting an explicit Bus; the default instance
// exists for collaborators that share one ambient dispatch domain.
func Default() *Bus {
	defaultOnce.Do(func() {
		defaultBus = NewBus()
	})
	return defaultBus
}

// On registers a listener on the default bus.
func On(t topic.Topic, l Listener, opts ...ListenOption) (func(), error) {
	return Default().On(t, l, opts...)
}

// Off removes a listener from the default bus by identity.
func Off(t topic.Topic, l Listener) bool {
	return Default().Off(t, l)
}

// Emit dispatches on the default bus.
func Emit(ctx context.Context, t topic.Topic, payload any) error {
	return Default().Emit(ctx, t, payload)
}
