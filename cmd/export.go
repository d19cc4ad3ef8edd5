// =============================================================================
// Receipt-to-SQL Converter - Export Command
// =============================================================================
//
// This file defines the 'export' command, which writes the extracted model to
// an XLSX workbook for review, one sheet per table.
//
// COMMAND USAGE:
//   receipts export [dir] --out receipts.xlsx
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ginjaninja78/receipts-to-sql/internal/converter"
	"github.com/ginjaninja78/receipts-to-sql/internal/logger"
	"github.com/ginjaninja78/receipts-to-sql/internal/xlsxexport"
	"github.com/ginjaninja78/receipts-to-sql/pkg/utils"
	"github.com/spf13/cobra"
)

// exportCmd represents the 'export' command.
var exportCmd = &cobra.Command{
	Use:   "export [dir]",
	Short: "Export the extracted receipts to an XLSX workbook",
	Long: `The export command runs the same extraction as process and writes the
resulting tables to an Excel workbook instead of a SQL script. Sheets reference
each other by natural keys (ticket number, employee code, product description).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("out", "", "Path of the workbook to write (default receipts.xlsx)")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log := logger.FromContext(cmd.Context())
	out := cmd.OutOrStdout()

	conv := converter.New(cfg, log)

	ds, stats, err := conv.Build(cmd.Context())
	if errors.Is(err, converter.ErrNoDocuments) {
		fmt.Fprintf(out, "No receipt documents found in %s\n", cfg.InputDir)
		return nil
	}
	if err != nil {
		return err
	}

	if err := utils.EnsureDir(filepath.Dir(cfg.XLSXPath)); err != nil {
		return err
	}
	if err := xlsxexport.Export(ds, cfg.XLSXPath); err != nil {
		return err
	}

	log.Info().Str("workbook", cfg.XLSXPath).Msg("workbook written")

	printStats(out, stats)
	fmt.Fprintf(out, "Workbook:        %s\n", cfg.XLSXPath)
	return nil
}
