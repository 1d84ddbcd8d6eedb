package dispatch

import (
	"context"
	"runtime/debug"
	"time"
)

// Invoke runs fn with panic recovery and timing. A panic is converted to
// a settled Result carrying a *PanicError; it never escapes to the
// caller.
func Invoke(ctx context.Context, fn func(context.Context) Result) (result Result) {
	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)

		if r := recover(); r != nil {
			stack := debug.Stack()
			result = Result{
				Err:        &PanicError{Value: r, Stack: stack},
				Panicked:   true,
				PanicValue: r,
				PanicStack: stack,
				Duration:   time.Since(start),
			}
		}
	}()

	result = fn(ctx)
	return result
}
