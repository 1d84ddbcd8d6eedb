package hook

import (
	"time"

	"go.uber.org/zap"
)

// Mode selects how a chain executes.
type Mode int

const (
	// Sequential runs handlers one at a time, threading the working
	// context through each delta merge.
	Sequential Mode = iota

	// Parallel starts every handler at once against its own clone of
	// the input context and waits for all of them to settle.
	Parallel
)

// RegistryOption configures a Registry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	sink           FailureSink
	logger         *zap.Logger
	defaultTimeout time.Duration
}

func defaultRegistryConfig() registryConfig {
	return registryConfig{
		logger: zap.NewNop(),
	}
}

// WithFailureSink forwards handler failures to the given sink, usually
// an event bus.
func WithFailureSink(s FailureSink) RegistryOption {
	return func(c *registryConfig) {
		c.sink = s
	}
}

// WithLogger sets the logger used when no failure sink is configured.
func WithLogger(l *zap.Logger) RegistryOption {
	return func(c *registryConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDefaultTimeout bounds every handler invocation unless a run
// overrides it. Zero means no deadline.
func WithDefaultTimeout(d time.Duration) RegistryOption {
	return func(c *registryConfig) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

// RegisterOption configures one registration.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	priority int
	once     bool
}

// WithPriority sets the registration priority. Higher values run
// earlier; the default is 0.
func WithPriority(p int) RegisterOption {
	return func(c *registerConfig) {
		c.priority = p
	}
}

// WithOnce removes the registration after its first invocation, success
// or failure.
func WithOnce() RegisterOption {
	return func(c *registerConfig) {
		c.once = true
	}
}

// RunOption configures one chain execution.
type RunOption func(*runConfig)

type runConfig struct {
	mode          Mode
	timeout       time.Duration
	swallow       bool
	parallelMerge bool
}

// WithMode selects sequential or parallel execution.
func WithMode(m Mode) RunOption {
	return func(c *runConfig) {
		c.mode = m
	}
}

// WithTimeout bounds each handler invocation for this run, overriding
// the registry default.
func WithTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithoutSwallow makes handler failures abort a sequential chain and be
// returned from Run, combined, instead of only going to the failure
// sink. The context assembled before the failure is still returned. A
// parallel run cannot be aborted; its handlers all complete and every
// failure is returned.
func WithoutSwallow() RunOption {
	return func(c *runConfig) {
		c.swallow = false
	}
}

// WithParallelMerge merges parallel handlers' deltas into the returned
// context in priority order. Without it a parallel run returns the
// input unchanged and deltas are discarded.
func WithParallelMerge() RunOption {
	return func(c *runConfig) {
		c.parallelMerge = true
	}
}
