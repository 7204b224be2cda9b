// Package config defines process configuration and its layered loading:
// built-in defaults, an optional YAML file, then environment variables.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds everything the CLI tools need.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// StorePath is the JSON record store location.
	StorePath string `koanf:"store_path"`

	// ExportFormat selects the default export format: csv or parquet.
	ExportFormat string `koanf:"export_format"`

	// AIProvider selects the external text-generation payload shape:
	// custom, openai, or google_gemini. Empty disables the external call.
	AIProvider string `koanf:"ai_provider"`

	// AIURL is the external text-generation endpoint.
	AIURL string `koanf:"ai_url"`

	// AIKey authenticates against the endpoint.
	AIKey string `koanf:"ai_key"`

	// AITimeout bounds the external call.
	AITimeout time.Duration `koanf:"ai_timeout"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		StorePath:    "agility-records.json",
		ExportFormat: "csv",
		AIProvider:   "",
		AITimeout:    20 * time.Second,
	}
}

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if AGILITY_CONFIG is set
//  3. env (prefix AGILITY_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("AGILITY_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: AGILITY_STORE_PATH, AGILITY_AI_URL, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("AGILITY_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "agility_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.StorePath == "" {
		return nil, errors.New("store_path must not be empty")
	}
	if cfg.ExportFormat != "csv" && cfg.ExportFormat != "parquet" {
		return nil, errors.New("export_format must be csv or parquet")
	}
	return &cfg, nil
}
