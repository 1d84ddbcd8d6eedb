package script

import "errors"

// Sentinel errors for the script package.
var (
	// ErrHostClosed is returned when using a closed host.
	ErrHostClosed = errors.New("script host is closed")
)
