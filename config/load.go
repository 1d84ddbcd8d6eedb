package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "RELAY_"

// Load reads the config file at path, applies environment overrides,
// and validates the result. A missing file is not an error; defaults
// plus environment overrides apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if err := unmarshal(path, data, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// unmarshal decodes by file extension.
func unmarshal(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// applyEnv overlays RELAY_-prefixed environment variables. Unparseable
// values are ignored; the environment cannot make a loaded file
// invalid.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvPrefix + "SOURCE"); ok && v != "" {
		cfg.Bus.Source = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "MAX_DEPTH"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Bus.MaxDepth = n
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "HOOK_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Hook.DefaultTimeout = Duration(d)
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "SCRIPTS"); ok && v != "" {
		var paths []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
		if len(paths) > 0 {
			cfg.Script.Paths = paths
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_DEV"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.Development = b
		}
	}
}
