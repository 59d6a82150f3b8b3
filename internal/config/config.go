// SPDX-License-Identifier: Apache-2.0

// Package config holds the runtime configuration: one YAML file read at
// startup, unknown keys rejected, environment overrides applied last.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/editalproj/edital-mcp/internal/logging"
	"github.com/editalproj/edital-mcp/internal/quality"
	"github.com/editalproj/edital-mcp/internal/structure"
)

// Environment variables read by Load.
const (
	EnvConfigPath = "EDITAL_CONFIG"
	EnvLedgerDSN  = "EDITAL_LEDGER_DSN"
	EnvLogLevel   = "EDITAL_LOG_LEVEL"
)

// Ledger backends.
const (
	BackendCSV      = "csv"
	BackendPostgres = "postgres"
)

// ErrInvalidConfig: the configuration file or a value in it is invalid.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Extractor  Extractor  `yaml:"extractor"`
	Locator    Locator    `yaml:"locator"`
	Quality    Quality    `yaml:"quality"`
	Conformity Conformity `yaml:"conformity"`
	Ledger     Ledger     `yaml:"ledger"`
	Logging    Logging    `yaml:"logging"`
}

type Extractor struct {
	MaxScanPages int `yaml:"max_scan_pages"`
}

// Locator bounds the specification scan to page indices [ScanStart, ScanEnd).
type Locator struct {
	ScanStart       int `yaml:"scan_start"`
	ScanEnd         int `yaml:"scan_end"`
	MarkerThreshold int `yaml:"marker_threshold"`
	MaxKeywords     int `yaml:"max_keywords"`
}

type Quality struct {
	PassScore float64 `yaml:"pass_score"`
}

// Conformity.CatalogFile is an optional YAML catalog; empty selects the
// built-in catalog.
type Conformity struct {
	CatalogFile string `yaml:"catalog_file"`
}

type Ledger struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	DSN     string `yaml:"dsn"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	return Config{
		Extractor: Extractor{MaxScanPages: structure.DefaultMaxScanPages},
		Locator: Locator{
			ScanStart:       structure.DefaultScanStart,
			ScanEnd:         structure.DefaultScanEnd,
			MarkerThreshold: structure.DefaultMarkerThreshold,
			MaxKeywords:     structure.DefaultMaxKeywords,
		},
		Quality: Quality{PassScore: quality.DefaultPassScore},
		Ledger:  Ledger{Backend: BackendCSV, Path: "analysis_ledger.csv"},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Load reads the configuration at path, or at $EDITAL_CONFIG when path is
// empty. With neither set the defaults are used. Keys absent from the file
// keep their default values.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. It does not apply the environment.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.DisallowUnknownField()); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if dsn := strings.TrimSpace(os.Getenv(EnvLedgerDSN)); dsn != "" {
		cfg.Ledger.DSN = dsn
	}
	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		cfg.Logging.Level = level
	}
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	var problems []string
	if c.Extractor.MaxScanPages < 1 {
		problems = append(problems, "extractor.max_scan_pages must be at least 1")
	}
	if c.Locator.ScanStart < 0 || c.Locator.ScanStart >= c.Locator.ScanEnd {
		problems = append(problems, "locator.scan_start must be >= 0 and below locator.scan_end")
	}
	if c.Locator.MarkerThreshold < 0 {
		problems = append(problems, "locator.marker_threshold must not be negative")
	}
	if c.Locator.MaxKeywords < 1 {
		problems = append(problems, "locator.max_keywords must be at least 1")
	}
	if c.Quality.PassScore < 0 || c.Quality.PassScore > 100 {
		problems = append(problems, "quality.pass_score must be within [0, 100]")
	}
	switch c.Ledger.Backend {
	case BackendCSV:
		if strings.TrimSpace(c.Ledger.Path) == "" {
			problems = append(problems, "ledger.path is required for the csv backend")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Ledger.DSN) == "" {
			problems = append(problems, "ledger.dsn (or "+EnvLedgerDSN+") is required for the postgres backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("ledger.backend %q is not one of csv, postgres", c.Ledger.Backend))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		problems = append(problems, fmt.Sprintf("logging.level: %v", err))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of text, json", c.Logging.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
