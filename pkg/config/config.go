// Package config loads the optional per-root configuration file. The
// file tunes scanning (ignore globs), the env context value and custom
// context keys; an absent file yields usable defaults.
package config

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/dotsmith/pkg/errors"
	toml "github.com/pelletier/go-toml/v2"
)

// FileName is the per-root configuration file, looked up at the
// synthesis root and never treated as a source.
const FileName = ".dotsmith.toml"

// Config is the per-root configuration
type Config struct {
	// Ignore holds glob patterns (matched against the path relative to
	// the root and against the bare name) excluded from scanning
	Ignore []string `toml:"ignore"`
	// Env overrides the env context value for this root
	Env string `toml:"env"`
	// Context supplies custom context keys available to filters
	Context map[string]string `toml:"context"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{}
}

// Load reads the configuration file at the given root. A missing file is
// not an error and yields the defaults.
func Load(root string) (*Config, error) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read %s", path)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse %s", path)
	}
	return cfg, nil
}

// IsIgnored reports whether the given root-relative path matches one of
// the ignore globs. Both the full relative path and the final path
// component are tried, so a bare "*.bak" pattern works at any depth.
func (c *Config) IsIgnored(rel string) bool {
	name := filepath.Base(rel)
	for _, pattern := range c.Ignore {
		if ok, err := filepath.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
