// =============================================================================
// Receipt-to-SQL Converter - Load Command
// =============================================================================
//
// This file defines the 'load' command, which inserts the extracted model
// directly into a SQLite database.
//
// COMMAND USAGE:
//   receipts load [dir] --db receipts.db
//
// Loading twice is safe: tickets already in the database are skipped.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ginjaninja78/receipts-to-sql/internal/converter"
	"github.com/ginjaninja78/receipts-to-sql/internal/logger"
	"github.com/ginjaninja78/receipts-to-sql/internal/sqlitestore"
	"github.com/ginjaninja78/receipts-to-sql/pkg/utils"
	"github.com/spf13/cobra"
)

// loadCmd represents the 'load' command.
var loadCmd = &cobra.Command{
	Use:   "load [dir]",
	Short: "Load the extracted receipts into a SQLite database",
	Long: `The load command runs the same extraction as process, creates the six
tables in a SQLite database if needed, and inserts the data in one transaction.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().String("db", "", "Path of the SQLite database (default receipts.db)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log := logger.FromContext(cmd.Context())
	out := cmd.OutOrStdout()

	ctx := cmd.Context()
	conv := converter.New(cfg, log)

	ds, stats, err := conv.Build(ctx)
	if errors.Is(err, converter.ErrNoDocuments) {
		fmt.Fprintf(out, "No receipt documents found in %s\n", cfg.InputDir)
		return nil
	}
	if err != nil {
		return err
	}

	if err := utils.EnsureDir(filepath.Dir(cfg.SQLitePath)); err != nil {
		return err
	}

	store, err := sqlitestore.Open(cfg.SQLitePath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	loaded, err := store.Load(ctx, ds)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", cfg.SQLitePath, err)
	}

	printStats(out, stats)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "=== Database ===")
	fmt.Fprintf(out, "Database:        %s\n", cfg.SQLitePath)
	fmt.Fprintf(out, "Tickets added:   %d\n", loaded.Tickets)
	fmt.Fprintf(out, "Already present: %d\n", loaded.SkippedTickets)
	fmt.Fprintf(out, "Lines added:     %d\n", loaded.Lines)
	fmt.Fprintf(out, "Employees added: %d\n", loaded.Employees)
	fmt.Fprintf(out, "Products added:  %d\n", loaded.Products)
	fmt.Fprintf(out, "Payments added:  %d\n", loaded.Payments)
	return nil
}
