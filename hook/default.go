package hook

import (
	"context"
	"sync"

	"github.com/dshills/relay/event"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the process-wide registry, created on first
// use and wired to the default event bus as its failure sink.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(WithFailureSink(event.Default()))
	})
	return defaultRegistry
}

// Register adds a handler on the default registry.
func Register(point Point, h Handler, opts ...RegisterOption) (Registration, error) {
	return DefaultRegistry().Register(point, h, opts...)
}

// Unregister removes a registration from the default registry.
func Unregister(reg Registration) bool {
	return DefaultRegistry().Unregister(reg)
}

// Run fires a chain on the default registry.
func Run(ctx context.Context, point Point, input *Context, opts ...RunOption) (*Context, error) {
	return DefaultRegistry().Run(ctx, point, input, opts...)
}
