package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/coupling-analyzer/pkg/coupling"
)

// FileName is the optional config file read from the working directory
const FileName = "coupling-analyzer.toml"

// EnvPrefix prefixes environment overrides, e.g. COUPLING_ANALYZER_PORT=9090
const EnvPrefix = "COUPLING_ANALYZER_"

// Config holds all configuration for the application
type Config struct {
	Source      string `koanf:"source"`       // Pre-parsed model file (.json, .yaml)
	Output      string `koanf:"output"`       // Markdown report, empty to skip
	GraphOutput string `koanf:"graph-output"` // Call graph JSON, empty to skip
	OutOfSet    string `koanf:"out-of-set"`   // drop, grow or reject
	Top         int    `koanf:"top"`          // Strongest pairs listed, 0 for all
	Debug       bool   `koanf:"debug"`
	WebMode     bool   `koanf:"web"`
	Port        int    `koanf:"port"`
	Watch       bool   `koanf:"watch"`
	OpenBrowser bool   `koanf:"open"`
	Verbosity   string `koanf:"verbosity"`
	VerboseCnt  int    `koanf:"verbose"`
	LogFormat   string `koanf:"log-format"`
}

// Defaults returns the built-in configuration values
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"source":       "",
		"output":       "results.md",
		"graph-output": "class-call-output.json",
		"out-of-set":   string(coupling.PolicyDrop),
		"top":          10,
		"debug":        false,
		"web":          false,
		"port":         8080,
		"watch":        false,
		"open":         false,
		"verbosity":    "",
		"verbose":      0,
		"log-format":   "compact",
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return load(f, FileName)
}

func load(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// The config file is optional, but a broken one is an error
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	// COUPLING_ANALYZER_GRAPH_OUTPUT -> graph-output
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be expressed by types alone
func (c *Config) Validate() error {
	if _, err := c.Policy(); err != nil {
		return err
	}
	if c.Top < 0 {
		return fmt.Errorf("invalid top %d", c.Top)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "compact", "json":
	default:
		return fmt.Errorf("invalid log format %q (want compact or json)", c.LogFormat)
	}
	return nil
}

// Policy returns the parsed out-of-set policy
func (c *Config) Policy() (coupling.Policy, error) {
	return coupling.ParsePolicy(c.OutOfSet)
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
