package config

import (
	"errors"
	"fmt"
)

// Sentinel errors for the config package.
var (
	// ErrUnsupportedFormat is returned for a config file extension that
	// no loader handles.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrWatcherClosed is returned when using a closed watcher.
	ErrWatcherClosed = errors.New("watcher is closed")
)

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
