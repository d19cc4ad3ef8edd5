// =============================================================================
// Receipt-to-SQL Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the application
// configuration. A configuration file is optional: every setting has a
// default that reproduces the behaviour of a plain `receipts process <dir>`.
//
// CONFIGURATION SOURCES (lowest to highest precedence):
//   1. Built-in defaults (Default)
//   2. YAML file given with --config
//   3. RECEIPTS_* environment variables and command-line flags (bound in cmd)
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ginjaninja78/receipts-to-sql/internal/receiptloader"
	"github.com/ginjaninja78/receipts-to-sql/internal/types"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// InputDir is the directory scanned for receipt documents.
	// Default: "."
	InputDir string `yaml:"input_dir"`

	// Extension selects which files in InputDir are receipts.
	// Default: ".txt"
	Extension string `yaml:"extension"`

	// Encoding is the character encoding of the receipt files.
	// Valid values: "UTF-8", "ISO-8859-1", "ISO-8859-15", "Windows-1252"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is where the generated SQL script is written.
	// Default: "."
	OutputDir string `yaml:"output_dir"`

	// OutputNameFormat is the file name of the generated script.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	// Default: "InsertUnderlineTicket.sql"
	OutputNameFormat string `yaml:"output_name_format"`

	// DatabaseName is used for the CREATE DATABASE / USE prelude.
	// An empty value after defaults means "supermercado"; set
	// SkipDatabasePrelude to omit the prelude entirely.
	DatabaseName string `yaml:"database_name"`

	// SkipDatabasePrelude omits CREATE DATABASE and USE from the script.
	SkipDatabasePrelude bool `yaml:"skip_database_prelude"`

	// XLSXPath is the default workbook written by the export command.
	// Default: "receipts.xlsx"
	XLSXPath string `yaml:"xlsx_path"`

	// SQLitePath is the default database written by the load command.
	// Default: "receipts.db"
	SQLitePath string `yaml:"sqlite_path"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "trace", "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// BRANCH
	// =========================================================================

	// Branch is the single store every ticket is attributed to.
	Branch BranchConfig `yaml:"branch"`
}

// BranchConfig describes the fixed branch record.
type BranchConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	TaxID   string `yaml:"tax_id"`
	Phone   string `yaml:"phone"`
}

// ToBranch converts the configuration block into the domain entity.
func (b BranchConfig) ToBranch() types.Branch {
	return types.Branch{
		Name:    b.Name,
		Address: b.Address,
		TaxID:   b.TaxID,
		Phone:   b.Phone,
	}
}

var validLogLevels = []string{"trace", "debug", "info", "warn", "error"}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load loads the configuration from a YAML file.
//
// An empty path returns the defaults. A missing file is an error, since
// the path was given explicitly.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.InputDir == "" {
		cfg.InputDir = "."
	}
	if cfg.Extension == "" {
		cfg.Extension = ".txt"
	}
	cfg.Extension = NormalizeExtension(cfg.Extension)
	if cfg.Encoding == "" {
		cfg.Encoding = "UTF-8"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.OutputNameFormat == "" {
		cfg.OutputNameFormat = "InsertUnderlineTicket.sql"
	}
	if cfg.DatabaseName == "" {
		cfg.DatabaseName = "supermercado"
	}
	if cfg.XLSXPath == "" {
		cfg.XLSXPath = "receipts.xlsx"
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "receipts.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	// Branch defaults.
	if cfg.Branch.Name == "" {
		cfg.Branch.Name = "SUPERMERCADOS EL AHORRO"
	}
	if cfg.Branch.Address == "" {
		cfg.Branch.Address = "Av. Principal #123 - Madrid"
	}
	if cfg.Branch.TaxID == "" {
		cfg.Branch.TaxID = "B12345678"
	}
	if cfg.Branch.Phone == "" {
		cfg.Branch.Phone = "910123456"
	}
}

// Validate checks the configuration for unsupported values.
func (c *Config) Validate() error {
	if !receiptloader.SupportedEncoding(c.Encoding) {
		return fmt.Errorf("unsupported encoding %q (supported: %s)",
			c.Encoding, strings.Join(receiptloader.EncodingNames(), ", "))
	}

	if !containsFold(validLogLevels, c.LogLevel) {
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}

	if c.InputDir == "" || c.OutputDir == "" {
		return fmt.Errorf("input and output directories must not be empty")
	}

	if c.OutputNameFormat == "" || strings.ContainsAny(c.OutputNameFormat, `/\`) {
		return fmt.Errorf("output_name_format must be a file name, got %q", c.OutputNameFormat)
	}

	if strings.ContainsAny(c.DatabaseName, " ;`'\"") {
		return fmt.Errorf("invalid database_name %q", c.DatabaseName)
	}

	return nil
}

// NormalizeExtension adds the leading dot to an extension given without one.
func NormalizeExtension(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}
