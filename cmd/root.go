// =============================================================================
// Receipt-to-SQL Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (receipts [dir])
//   ├── processCmd (receipts process [dir])
//   ├── exportCmd  (receipts export [dir])
//   ├── loadCmd    (receipts load [dir])
//   └── versionCmd (receipts version)
//
// CONFIGURATION PRECEDENCE (highest first):
//   1. Command-line flags
//   2. RECEIPTS_* environment variables (e.g. RECEIPTS_ENCODING)
//   3. The YAML configuration file (--config, or ./config.yaml if present)
//   4. Built-in defaults
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ginjaninja78/receipts-to-sql/internal/config"
	"github.com/ginjaninja78/receipts-to-sql/internal/logger"
	"github.com/ginjaninja78/receipts-to-sql/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// defaultConfigFile is picked up from the working directory when --config is
// not given.
const defaultConfigFile = "config.yaml"

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "receipts [dir]",
	Short: "Receipt-to-SQL Converter - Turn supermarket receipts into a relational SQL script",
	Long: `Receipt-to-SQL Converter reads plain-text supermarket receipts from a
directory, extracts the ticket, cashier, item and payment data from each one,
and writes a SQL script that creates a normalized schema and inserts the data.

Key Features:
  - Best-effort extraction; incomplete receipts are skipped, never fatal
  - Employees and products deduplicated across receipts
  - Output as a MySQL script, an XLSX workbook, or a SQLite database

Example Usage:
  receipts ./tickets                       # Same as "receipts process ./tickets"
  receipts process --output-dir ./out      # Write the script to ./out
  receipts export ./tickets --out review.xlsx
  receipts load ./tickets --db receipts.db`,

	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,

	// A lone directory argument runs the process command.
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runProcess(cmd, args)
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command and exits with status 1 on error.
// Interrupts cancel the running pipeline between receipts.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	flags := rootCmd.PersistentFlags()

	flags.String("config", "", "Path to the YAML configuration file (default ./config.yaml if present)")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error")
	flags.String("encoding", "", "Receipt encoding: UTF-8, ISO-8859-1, ISO-8859-15, Windows-1252 (or latin1, latin9, cp1252)")
	flags.String("extension", "", "Extension of receipt files (default .txt)")

	viper.BindPFlag("config", flags.Lookup("config"))
	viper.BindPFlag("verbose", flags.Lookup("verbose"))

	viper.SetEnvPrefix("RECEIPTS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// The single-argument shortcut accepts the process flags too.
	addProcessFlags(rootCmd)
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// overrides maps configuration fields to their flag and environment key.
// A changed flag wins over RECEIPTS_<KEY>; fields with neither keep the
// value from the file or the defaults.
var overrides = []struct {
	flag  string
	key   string
	apply func(cfg *config.Config, value string)
}{
	{"encoding", "encoding", func(c *config.Config, v string) { c.Encoding = v }},
	{"extension", "extension", func(c *config.Config, v string) { c.Extension = config.NormalizeExtension(v) }},
	{"log-level", "log_level", func(c *config.Config, v string) { c.LogLevel = v }},
	{"output-dir", "output_dir", func(c *config.Config, v string) { c.OutputDir = v }},
	{"output-name", "output_name", func(c *config.Config, v string) { c.OutputNameFormat = v }},
	{"out", "xlsx_path", func(c *config.Config, v string) { c.XLSXPath = v }},
	{"db", "sqlite_path", func(c *config.Config, v string) { c.SQLitePath = v }},
}

// loadConfig resolves the configuration for a command run and attaches the
// run's logger to the command context. A positional argument overrides the
// input directory.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	path := viper.GetString("config")
	if path == "" && utils.FileExists(defaultConfigFile) {
		path = defaultConfigFile
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	for _, o := range overrides {
		if f := cmd.Flags().Lookup(o.flag); f != nil && f.Changed {
			o.apply(cfg, f.Value.String())
		} else if viper.IsSet(o.key) {
			o.apply(cfg, viper.GetString(o.key))
		}
	}
	if viper.GetBool("verbose") {
		cfg.LogLevel = "debug"
	}
	if len(args) > 0 {
		cfg.InputDir = args[0]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(cfg.LogLevel)
	if path != "" {
		log.Debug().Str("config", path).Msg("configuration loaded")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logger.WithContext(ctx, log))

	return cfg, nil
}
