package event

import "errors"

// Sentinel errors for the event bus. These are the misuse class: they
// are returned synchronously at the call site and indicate a programming
// error, not a runtime condition.
var (
	// ErrNilListener is returned when a nil listener is registered.
	ErrNilListener = errors.New("listener cannot be nil")

	// ErrInvalidTopic is returned when a topic is empty or malformed.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrPatternEmit is returned when Emit is called with a wildcard
	// pattern; emissions name one concrete topic.
	ErrPatternEmit = errors.New("cannot emit to a wildcard pattern")
)
