package auth

import "errors"

// Sentinel errors for the auth package.
var (
	// ErrLoginRejected is returned when an onLogin handler stops the
	// chain.
	ErrLoginRejected = errors.New("login rejected by hook")

	// ErrNoSession is returned when logging out without a session.
	ErrNoSession = errors.New("no active session")

	// ErrAlreadyLoggedIn is returned when logging in over an active
	// session.
	ErrAlreadyLoggedIn = errors.New("a session is already active")
)
