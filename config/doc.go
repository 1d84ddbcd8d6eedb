// Package config loads dispatch configuration from TOML or YAML files
// with environment overrides, and can watch a file for live reload.
//
// Configuration is optional everywhere: a missing file yields defaults,
// and every field has a usable zero interpretation. Loaded values
// bridge into bus and registry options rather than being consulted at
// dispatch time.
package config
