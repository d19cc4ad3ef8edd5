// =============================================================================
// Receipt-to-SQL Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, which is the main command for
// converting a directory of receipts into a SQL script.
//
// COMMAND USAGE:
//   receipts process [dir] [flags]
//
// FLAGS:
//   --output-dir    : Directory the script is written to
//   --output-name   : File name of the script ({uuid}, {timestamp}, {date})
//   --dry-run       : Print the script to stdout instead of writing it
//   --rejection-log : Also write a log of the receipts left out
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/receipts-to-sql/internal/config"
	"github.com/ginjaninja78/receipts-to-sql/internal/converter"
	"github.com/ginjaninja78/receipts-to-sql/internal/logger"
	"github.com/ginjaninja78/receipts-to-sql/pkg/utils"
	"github.com/spf13/cobra"
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process [dir]",
	Short: "Convert a directory of receipts into a SQL script",
	Long: `The process command reads every receipt file in the input directory
(the dir argument, or input_dir from the configuration), extracts a ticket from
each one, and writes a SQL script that creates the schema and inserts the
branch, employees, products, tickets, ticket lines and payments.

Receipts missing a ticket number, date, subtotal, tax or total are skipped.
If the directory holds no receipts, nothing is written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
	addProcessFlags(processCmd)
}

// addProcessFlags declares the flags of the process command on cmd.
func addProcessFlags(cmd *cobra.Command) {
	cmd.Flags().String("output-dir", "", "Directory the SQL script is written to (default .)")
	cmd.Flags().String("output-name", "", "File name of the SQL script (default InsertUnderlineTicket.sql)")
	cmd.Flags().Bool("dry-run", false, "Print the script to stdout instead of writing it")
	cmd.Flags().Bool("rejection-log", false, "Write a log of rejected receipts to the output directory")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log := logger.FromContext(cmd.Context())
	out := cmd.OutOrStdout()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	rejectionLog, _ := cmd.Flags().GetBool("rejection-log")

	conv := converter.New(cfg, log)

	if dryRun {
		ds, _, err := conv.Build(cmd.Context())
		if errors.Is(err, converter.ErrNoDocuments) {
			fmt.Fprintf(os.Stderr, "No receipt documents found in %s\n", cfg.InputDir)
			return nil
		}
		if err != nil {
			return err
		}

		script, err := conv.Generate(ds)
		if err != nil {
			return err
		}
		_, err = out.Write(script)
		return err
	}

	fmt.Fprintln(out, "=== Receipt-to-SQL Converter ===")
	fmt.Fprintf(out, "Input directory: %s\n", cfg.InputDir)
	fmt.Fprintf(out, "Run:             %s\n", conv.RunID())

	result := conv.Run(cmd.Context())
	if errors.Is(result.Error, converter.ErrNoDocuments) {
		fmt.Fprintf(out, "No receipt documents found in %s\n", cfg.InputDir)
		return nil
	}
	if result.Error != nil {
		return result.Error
	}

	printStats(out, result.Stats)
	fmt.Fprintf(out, "Output file:     %s\n", result.OutputFile)
	fmt.Fprintf(out, "Processing time: %s\n", result.Stats.ProcessingTime)

	if rejectionLog {
		if err := writeRejectionLog(out, cfg, result.Stats.Rejections); err != nil {
			return err
		}
	}

	return nil
}

// printStats prints the counts summary shared by all commands.
func printStats(out io.Writer, stats converter.Stats) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "=== Processing Summary ===")
	fmt.Fprintf(out, "Receipts read:   %d\n", stats.Documents)
	fmt.Fprintf(out, "Tickets:         %d\n", stats.Tickets)
	fmt.Fprintf(out, "Rejected:        %d\n", stats.Rejected)
	if stats.Duplicates > 0 {
		fmt.Fprintf(out, "Duplicates:      %d\n", stats.Duplicates)
	}
	fmt.Fprintf(out, "Ticket lines:    %d\n", stats.Lines)
	fmt.Fprintf(out, "Employees:       %d\n", stats.Employees)
	fmt.Fprintf(out, "Products:        %d\n", stats.Products)
	fmt.Fprintf(out, "Payments:        %d\n", stats.Payments)
}

func writeRejectionLog(out io.Writer, cfg *config.Config, rejections []converter.Rejection) error {
	entries := make([]utils.RejectionLogEntry, 0, len(rejections))
	for _, r := range rejections {
		entries = append(entries, utils.RejectionLogEntry{FileName: r.Source, Reason: r.Reason})
	}

	path, err := utils.WriteRejectionLog(entries, cfg.OutputDir)
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintf(out, "Rejection log:   %s\n", path)
	}
	return nil
}
