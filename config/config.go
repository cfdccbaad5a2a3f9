// Package config loads and validates the module's configuration from
// defaults, an optional YAML file and environment variables, in increasing
// order of priority.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. YAML configuration file (config.yaml, if present)
// 3. Default values (lowest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// YAML file is optional
	if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
		fmt.Printf("Warning: could not load config.yaml: %v\n", err)
	}

	if err := k.Load(envprovider.Provider(".", envprovider.Opt{
		TransformFunc: func(key, value string) (string, any) {
			// Convert UPPER_CASE to lower.case for koanf
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"txn.isolation": "repeatable_read",

		"log.level":  "info",
		"log.pretty": false,

		"database.max_conns":          10,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "30m",
		"database.conn_max_idle_time": "5m",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
