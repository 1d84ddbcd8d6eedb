package fetch

import "errors"

// Sentinel errors for the fetch package.
var (
	// ErrShortCircuit is returned when a beforeRequest handler stops the
	// chain without supplying a response.
	ErrShortCircuit = errors.New("request stopped by hook without a response")
)
