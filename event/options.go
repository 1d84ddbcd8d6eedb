package event

import "go.uber.org/zap"

// DefaultMaxDepth is the default limit on nested emissions.
const DefaultMaxDepth = 10

// BusOption configures a Bus.
type BusOption func(*busConfig)

type busConfig struct {
	logger   *zap.Logger
	source   string
	maxDepth int32
}

func defaultBusConfig() busConfig {
	return busConfig{
		logger:   zap.NewNop(),
		source:   "relay",
		maxDepth: DefaultMaxDepth,
	}
}

// WithLogger sets the logger used for the local warnings the guards
// record (depth exceeded, error-listener failures).
func WithLogger(l *zap.Logger) BusOption {
	return func(c *busConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSource sets the source string stamped into event metadata.
func WithSource(source string) BusOption {
	return func(c *busConfig) {
		if source != "" {
			c.source = source
		}
	}
}

// WithMaxDepth sets the maximum nested emission depth.
func WithMaxDepth(depth int) BusOption {
	return func(c *busConfig) {
		if depth > 0 {
			c.maxDepth = int32(depth)
		}
	}
}

// ListenOption configures one registration.
type ListenOption func(*listenConfig)

type listenConfig struct {
	priority int
	once     bool
}

// WithPriority sets the registration priority. Higher values run
// earlier; the default is 0.
func WithPriority(p int) ListenOption {
	return func(c *listenConfig) {
		c.priority = p
	}
}

// WithOnce removes the registration after its first execution, success
// or failure.
func WithOnce() ListenOption {
	return func(c *listenConfig) {
		c.once = true
	}
}
