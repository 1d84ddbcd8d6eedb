package dispatch

import "errors"

// Sentinel errors for the dispatch package.
var (
	// ErrHandlerPanic is the error class for handlers that panicked.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrHandlerTimeout is the error class for handlers that exceeded
	// their allotted time.
	ErrHandlerTimeout = errors.New("handler timeout exceeded")
)

// PanicError wraps a recovered panic value as an error.
type PanicError struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace captured at recovery.
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return "handler panicked: " + valueString(e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}

func valueString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case error:
		return s.Error()
	default:
		return "non-string panic value"
	}
}
