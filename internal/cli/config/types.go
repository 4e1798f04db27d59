// Package config provides configuration management for the metabrowse CLI.
//
// Configuration merges, from lowest to highest priority: built-in defaults,
// the metabrowse.yaml config file, METABROWSE_-prefixed environment
// variables, and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/metabrowse/pkg/core"
	"github.com/leapstack-labs/metabrowse/pkg/source"
)

// TargetConfig holds the connection target.
type TargetConfig struct {
	Type string `koanf:"type"` // postgres, duckdb

	// File-based databases (DuckDB)
	Path string `koanf:"path"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Default schema for unqualified object references
	Schema string `koanf:"schema"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`
}

// Config is the resolved CLI configuration.
type Config struct {
	Target       TargetConfig `koanf:"target"`
	Verbose      bool         `koanf:"verbose"`
	OutputFormat string       `koanf:"output"`
}

// ToSourceConfig converts the target into the source-layer config.
func (t *TargetConfig) ToSourceConfig() core.SourceConfig {
	return core.SourceConfig{
		Type:     t.Type,
		Path:     t.Path,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Options:  t.Options,
	}
}

// DefaultSchema returns the schema to browse when none is named.
func (t *TargetConfig) DefaultSchema() string {
	if t.Schema != "" {
		return t.Schema
	}
	if t.Type == "duckdb" {
		return "main"
	}
	return "public"
}

// Validate checks if the target configuration is valid.
// It uses the source registry to determine which source types are available.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !source.IsRegistered(strings.ToLower(t.Type)) {
		return &source.UnknownSourceError{
			Type:      t.Type,
			Available: source.ListSources(),
		}
	}
	return nil
}
