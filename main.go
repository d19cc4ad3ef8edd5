// =============================================================================
// Receipt-to-SQL Converter - Main Entry Point
// =============================================================================
//
// USAGE:
//   receipts [dir]          - Convert the receipts in dir (default: input_dir)
//   receipts process [dir]  - Same, with output flags
//   receipts export [dir]   - Write the extracted tables to an XLSX workbook
//   receipts load [dir]     - Insert the extracted tables into SQLite
//   receipts version        - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Pipeline stages and output writers
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/receipts-to-sql/cmd"
)

func main() {
	cmd.Execute()
}
