package hook

import "errors"

// Sentinel errors for the hook package.
var (
	// ErrNilHandler is returned when registering a nil handler.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrInvalidPoint is returned for a malformed interception point
	// name.
	ErrInvalidPoint = errors.New("invalid interception point")
)
