// Package config provides configuration management for the ldmgen CLI.
//
// Configuration is layered: built-in defaults, then ldmgen.yaml, then
// LDMGEN_* environment variables, then explicitly set command-line flags.
package config

import (
	"github.com/leapstack-labs/ldmgen/internal/extract"
	"github.com/leapstack-labs/ldmgen/pkg/core"
)

// TargetConfig is an alias for the shared deployment target configuration.
type TargetConfig = core.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	Input        string               `koanf:"input"`
	OutputDir    string               `koanf:"output_dir"`
	OutputFormat string               `koanf:"output"`
	ExportFormat string               `koanf:"export_format"`
	TemplatesDir string               `koanf:"templates_dir"`
	StatePath    string               `koanf:"state_path"`
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	LogLevel     string               `koanf:"log_level"`
	LogFormat    string               `koanf:"log_format"`
	Extract      ExtractConfig        `koanf:"extract"`
	Target       *TargetConfig        `koanf:"target"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// ExtractConfig tunes document resolution.
type ExtractConfig struct {
	ExcludedMappings    []string `koanf:"excluded_mappings"`
	ExcludedCollections []string `koanf:"excluded_collections"`
	TimestampFields     []string `koanf:"timestamp_fields"`
}

// Options converts the configuration into extractor options.
func (c ExtractConfig) Options() extract.Options {
	opts := extract.DefaultOptions()
	if c.ExcludedMappings != nil {
		opts.ExcludedMappings = c.ExcludedMappings
	}
	if c.ExcludedCollections != nil {
		opts.ExcludedCollections = c.ExcludedCollections
	}
	if len(c.TimestampFields) > 0 {
		opts.TimestampFields = c.TimestampFields
	}
	return opts
}

// EnvConfig holds environment-specific overrides.
type EnvConfig struct {
	OutputDir string        `koanf:"output_dir"`
	Target    *TargetConfig `koanf:"target"`
}

// Default configuration values.
const (
	ConfigFileName    = "ldmgen.yaml"
	ConfigFileNameAlt = "ldmgen.yml"

	DefaultOutputDir    = "out"
	DefaultExportFormat = "json"
	DefaultStateFile    = ".ldmgen/state.db"
	DefaultEnv          = "dev"
	DefaultOutput       = "auto" // TTY=text, non-TTY=markdown
	DefaultLogLevel     = "warn"
	DefaultLogFormat    = "text"
	DefaultTargetType   = "duckdb"
)
