package config

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/dshills/relay/event"
	"github.com/dshills/relay/hook"
)

// Config holds every tunable of the dispatch core.
type Config struct {
	Bus    BusConfig    `toml:"bus" yaml:"bus"`
	Hook   HookConfig   `toml:"hook" yaml:"hook"`
	Log    LogConfig    `toml:"log" yaml:"log"`
	Script ScriptConfig `toml:"script" yaml:"script"`
}

// BusConfig tunes the event bus.
type BusConfig struct {
	// Source is stamped into event metadata.
	Source string `toml:"source" yaml:"source"`

	// MaxDepth bounds nested emissions. Zero means the bus default.
	MaxDepth int `toml:"max_depth" yaml:"max_depth"`
}

// HookConfig tunes the hook registry.
type HookConfig struct {
	// DefaultTimeout bounds each handler invocation. Zero means no
	// deadline.
	DefaultTimeout Duration `toml:"default_timeout" yaml:"default_timeout"`
}

// ScriptConfig lists Lua files a script host should run at startup.
type ScriptConfig struct {
	Paths []string `toml:"paths" yaml:"paths"`
}

// LogConfig tunes the logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`

	// Development switches to the human-readable console encoder.
	Development bool `toml:"development" yaml:"development"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Bus: BusConfig{
			Source:   "relay",
			MaxDepth: event.DefaultMaxDepth,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for values no component accepts.
func (c Config) Validate() error {
	if c.Bus.MaxDepth < 0 {
		return fmt.Errorf("bus.max_depth must not be negative, got %d", c.Bus.MaxDepth)
	}
	if c.Hook.DefaultTimeout < 0 {
		return fmt.Errorf("hook.default_timeout must not be negative, got %s", c.Hook.DefaultTimeout)
	}
	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	return nil
}

// BusOptions bridges the configuration into event bus options.
func (c Config) BusOptions(logger *zap.Logger) []event.BusOption {
	opts := []event.BusOption{
		event.WithSource(c.Bus.Source),
		event.WithLogger(logger),
	}
	if c.Bus.MaxDepth > 0 {
		opts = append(opts, event.WithMaxDepth(c.Bus.MaxDepth))
	}
	return opts
}

// RegistryOptions bridges the configuration into hook registry options,
// wiring the given bus as the failure sink.
func (c Config) RegistryOptions(b *event.Bus, logger *zap.Logger) []hook.RegistryOption {
	opts := []hook.RegistryOption{
		hook.WithLogger(logger),
	}
	if b != nil {
		opts = append(opts, hook.WithFailureSink(b))
	}
	if d := c.Hook.DefaultTimeout.Std(); d > 0 {
		opts = append(opts, hook.WithDefaultTimeout(d))
	}
	return opts
}

// BuildLogger constructs a zap logger from the log section.
func (c LogConfig) BuildLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if c.Level != "" {
		level, err := zapcore.ParseLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

// Duration is a time.Duration that unmarshals from strings like "250ms"
// in both TOML and YAML documents.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the duration in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalText implements encoding.TextUnmarshaler for the TOML
// decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}
