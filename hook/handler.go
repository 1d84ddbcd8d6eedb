package hook

import "context"

// Handler is the interface for interception handlers. Run receives the
// working context and returns a delta to merge back, or an error. A nil
// delta with a nil error means "observed, changed nothing".
//
// Handlers must not retain or mutate hc after returning; the delta is
// the only channel for changes.
type Handler interface {
	Run(ctx context.Context, hc *Context) (*Context, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, hc *Context) (*Context, error)

// Run implements the Handler interface.
func (f HandlerFunc) Run(ctx context.Context, hc *Context) (*Context, error) {
	return f(ctx, hc)
}
