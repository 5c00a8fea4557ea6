// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable pointing at the config file.
const EnvVar = "COMPTREE_CONFIG"

// Config is the client configuration for comptree commands.
type Config struct {
	// Servers are name server addresses added to the tree at startup,
	// in the same forms the command line accepts ("localhost:2809",
	// "iiop:host:port", a full corbaloc locator).
	Servers []string `yaml:"servers,omitempty"`

	// Filter restricts which entries are resolved when parsing, as
	// "/"-separated paths relative to each server. Empty means parse
	// everything.
	Filter []string `yaml:"filter,omitempty"`

	// CallTimeout bounds each remote operation, as a Go duration
	// string. Empty means no timeout.
	CallTimeout string `yaml:"call_timeout,omitempty"`

	// Watch configures the live watch view.
	Watch WatchConfig `yaml:"watch"`

	// Snapshot configures snapshot output.
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	// Interval is the reparse period, as a Go duration string.
	// Default: 2s.
	Interval string `yaml:"interval"`
}

// SnapshotConfig configures the snapshot command.
type SnapshotConfig struct {
	// Path is the default output file. Paths ending in ".zst" are
	// zstd-compressed. Empty means stdout.
	Path string `yaml:"path,omitempty"`
}

// Default returns the configuration used when no config file is
// given. Servers stay empty so the command line and the
// COMPTREE_NAMESERVERS environment variable decide what to parse.
func Default() *Config {
	return &Config{
		CallTimeout: "10s",
		Watch: WatchConfig{
			Interval: "2s",
		},
	}
}

// Load loads configuration from the file named by COMPTREE_CONFIG.
// Fails when the variable is unset; callers that can run without a
// config file use LoadOrDefault.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your comptree.yaml, or use --config", EnvVar)
	}
	return LoadFile(path)
}

// LoadOrDefault loads the file named by COMPTREE_CONFIG when the
// variable is set and returns Default otherwise.
func LoadOrDefault() (*Config, error) {
	if os.Getenv(EnvVar) == "" {
		return Default(), nil
	}
	return Load()
}

// LoadFile loads configuration from a specific file path. The file is
// the single source of truth: environment variables do not override
// its values. The only expansion performed is of ${VAR} patterns in
// path fields, for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return cfg, nil
}

// expandVariables expands ${VAR} patterns in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Snapshot.Path = expandVars(c.Snapshot.Path, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	for i, server := range c.Servers {
		if strings.TrimSpace(server) == "" {
			errs = append(errs, fmt.Errorf("servers[%d] is empty", i))
		}
	}
	for i, path := range c.Filter {
		if strings.TrimSpace(path) == "" {
			errs = append(errs, fmt.Errorf("filter[%d] is empty", i))
		}
	}
	if c.CallTimeout != "" {
		if _, err := time.ParseDuration(c.CallTimeout); err != nil {
			errs = append(errs, fmt.Errorf("call_timeout: %w", err))
		}
	}
	if c.Watch.Interval != "" {
		if d, err := time.ParseDuration(c.Watch.Interval); err != nil {
			errs = append(errs, fmt.Errorf("watch.interval: %w", err))
		} else if d <= 0 {
			errs = append(errs, fmt.Errorf("watch.interval must be positive, got %s", c.Watch.Interval))
		}
	}

	return errors.Join(errs...)
}

// CallTimeoutDuration returns the parsed call timeout, zero when none
// is configured. Call Validate first; invalid strings parse as zero.
func (c *Config) CallTimeoutDuration() time.Duration {
	if c.CallTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.CallTimeout)
	if err != nil {
		return 0
	}
	return d
}

// WatchInterval returns the parsed watch interval, defaulting to two
// seconds when unset or invalid.
func (c *Config) WatchInterval() time.Duration {
	if c.Watch.Interval == "" {
		return 2 * time.Second
	}
	d, err := time.ParseDuration(c.Watch.Interval)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// FilterPaths splits the configured filter entries into the path
// element chains the tree package takes.
func (c *Config) FilterPaths() [][]string {
	if len(c.Filter) == 0 {
		return nil
	}
	paths := make([][]string, 0, len(c.Filter))
	for _, entry := range c.Filter {
		var elements []string
		for _, element := range strings.Split(entry, "/") {
			if element != "" {
				elements = append(elements, element)
			}
		}
		if len(elements) > 0 {
			paths = append(paths, elements)
		}
	}
	return paths
}
