package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Bus.Source != "relay" {
		t.Errorf("default source = %q", cfg.Bus.Source)
	}
	if cfg.Bus.MaxDepth != 10 {
		t.Errorf("default max depth = %d", cfg.Bus.MaxDepth)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default log level = %q", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate, got %v", err)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "relay.toml", `
[bus]
source = "myapp"
max_depth = 5

[hook]
default_timeout = "250ms"

[log]
level = "debug"
development = true

[script]
paths = ["init.lua", "hooks.lua"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Bus.Source != "myapp" {
		t.Errorf("source = %q", cfg.Bus.Source)
	}
	if cfg.Bus.MaxDepth != 5 {
		t.Errorf("max depth = %d", cfg.Bus.MaxDepth)
	}
	if cfg.Hook.DefaultTimeout.Std() != 250*time.Millisecond {
		t.Errorf("timeout = %s", cfg.Hook.DefaultTimeout)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Development {
		t.Errorf("log = %+v", cfg.Log)
	}
	if len(cfg.Script.Paths) != 2 || cfg.Script.Paths[0] != "init.lua" {
		t.Errorf("script paths = %v", cfg.Script.Paths)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "relay.yaml", `
bus:
  source: myapp
  max_depth: 3
hook:
  default_timeout: 1s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Bus.Source != "myapp" || cfg.Bus.MaxDepth != 3 {
		t.Errorf("bus = %+v", cfg.Bus)
	}
	if cfg.Hook.DefaultTimeout.Std() != time.Second {
		t.Errorf("timeout = %s", cfg.Hook.DefaultTimeout)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("expected missing file to load defaults, got %v", err)
	}
	if cfg.Bus.Source != "relay" {
		t.Errorf("source = %q", cfg.Bus.Source)
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, "relay.json", `{}`)
	if _, err := Load(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoad_ParseError(t *testing.T) {
	path := writeFile(t, "relay.toml", `[bus`)
	_, err := Load(path)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Errorf("expected ParseError, got %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "relay.toml", `
[bus]
source = "fromfile"
`)

	t.Setenv("RELAY_SOURCE", "fromenv")
	t.Setenv("RELAY_MAX_DEPTH", "20")
	t.Setenv("RELAY_HOOK_TIMEOUT", "2s")
	t.Setenv("RELAY_LOG_LEVEL", "warn")
	t.Setenv("RELAY_LOG_DEV", "true")
	t.Setenv("RELAY_SCRIPTS", "a.lua, b.lua")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Bus.Source != "fromenv" {
		t.Errorf("expected env to override the file, got %q", cfg.Bus.Source)
	}
	if cfg.Bus.MaxDepth != 20 {
		t.Errorf("max depth = %d", cfg.Bus.MaxDepth)
	}
	if cfg.Hook.DefaultTimeout.Std() != 2*time.Second {
		t.Errorf("timeout = %s", cfg.Hook.DefaultTimeout)
	}
	if cfg.Log.Level != "warn" || !cfg.Log.Development {
		t.Errorf("log = %+v", cfg.Log)
	}
	if len(cfg.Script.Paths) != 2 || cfg.Script.Paths[1] != "b.lua" {
		t.Errorf("script paths = %v", cfg.Script.Paths)
	}
}

func TestLoad_EnvIgnoresGarbage(t *testing.T) {
	t.Setenv("RELAY_MAX_DEPTH", "not-a-number")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Bus.MaxDepth != 10 {
		t.Errorf("expected the default to survive an unparseable override, got %d", cfg.Bus.MaxDepth)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cfg := Default()
	cfg.Bus.MaxDepth = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected negative max_depth to be rejected")
	}

	cfg = Default()
	cfg.Log.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected an unknown log level to be rejected")
	}
}

func TestBuildLogger(t *testing.T) {
	logger, err := LogConfig{Level: "error"}.BuildLogger()
	if err != nil {
		t.Fatalf("BuildLogger failed: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("expected info to be disabled at error level")
	}
}
