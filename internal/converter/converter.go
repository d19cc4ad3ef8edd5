// =============================================================================
// Receipt-to-SQL Converter - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It orchestrates the entire
// pipeline for one input directory, from receipt text to the SQL script.
//
// CONVERSION PIPELINE:
//   1. Load the receipt documents from the input directory
//   2. Extract a ticket record from each document
//   3. Collapse employees and products of every extracted ticket into
//      unique entities
//   4. Accept tickets carrying every required field; reject the rest
//   5. Drop tickets whose number was already accepted
//   6. Check referential completeness of the dataset
//   7. Generate the SQL script
//   8. Write the output file
//
// Steps 1-6 are exposed as Build so other outputs (XLSX, SQLite) share them.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/receipts-to-sql/internal/config"
	"github.com/ginjaninja78/receipts-to-sql/internal/extractor"
	"github.com/ginjaninja78/receipts-to-sql/internal/receiptloader"
	"github.com/ginjaninja78/receipts-to-sql/internal/registry"
	"github.com/ginjaninja78/receipts-to-sql/internal/sqlwriter"
	"github.com/ginjaninja78/receipts-to-sql/internal/types"
	"github.com/ginjaninja78/receipts-to-sql/internal/validation"
	"github.com/ginjaninja78/receipts-to-sql/pkg/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNoDocuments is returned when the input directory holds no receipts.
var ErrNoDocuments = errors.New("no receipt documents found")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of converting one input directory.
type Result struct {
	// InputDir is the directory that was scanned.
	InputDir string

	// OutputFile is the path to the generated script.
	// This is empty if processing failed or nothing was written.
	OutputFile string

	// Success indicates whether the script was written.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains processing statistics.
	Stats Stats
}

// Stats contains statistics about one run.
type Stats struct {
	// Documents is the number of receipt documents read.
	Documents int

	// Tickets is the number of tickets accepted into the output.
	Tickets int

	// Rejected is the number of receipts left out for missing fields.
	Rejected int

	// Duplicates is the number of accepted tickets dropped because an
	// earlier receipt had the same ticket number.
	Duplicates int

	Lines     int
	Employees int
	Products  int
	Payments  int

	// Rejections describes every receipt left out of the output.
	Rejections []Rejection

	// ProcessingTime is the time taken by the run.
	ProcessingTime time.Duration
}

// Rejection records why a receipt was left out.
type Rejection struct {
	Source string
	Reason string
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the pipeline with one configuration.
type Converter struct {
	cfg       *config.Config
	log       zerolog.Logger
	extractor *extractor.Extractor
	runID     string
}

// New creates a Converter. Every log line of the run carries a run id.
func New(cfg *config.Config, log zerolog.Logger) *Converter {
	runID := uuid.New().String()
	log = log.With().Str("run", runID).Logger()

	return &Converter{
		cfg:       cfg,
		log:       log,
		extractor: extractor.New(log),
		runID:     runID,
	}
}

// RunID returns the identifier attached to this converter's log lines.
func (c *Converter) RunID() string {
	return c.runID
}

// =============================================================================
// DATASET BUILDING
// =============================================================================

// Build loads, extracts, filters and deduplicates the receipts of the input
// directory. It returns ErrNoDocuments when the directory holds no receipts.
func (c *Converter) Build(ctx context.Context) (*types.Dataset, Stats, error) {
	var stats Stats

	docs, err := receiptloader.Load(c.cfg.InputDir, receiptloader.Options{
		Extension: c.cfg.Extension,
		Encoding:  c.cfg.Encoding,
	})
	if err != nil {
		return nil, stats, fmt.Errorf("failed to load receipts: %w", err)
	}

	stats.Documents = len(docs)
	if len(docs) == 0 {
		return nil, stats, fmt.Errorf("%w in %s", ErrNoDocuments, c.cfg.InputDir)
	}

	c.log.Info().Int("documents", len(docs)).Str("input_dir", c.cfg.InputDir).Msg("receipts loaded")

	extracted := make([]*types.Ticket, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		extracted = append(extracted, c.extractor.Extract(doc.Name, doc.Text))
	}

	// Every extracted ticket registers its cashier and products, accepted
	// or not, so the first receipt by name fixes names and unit prices.
	reg := registry.Build(extracted)

	var tickets []*types.Ticket
	seen := make(map[string]string)

	for _, ticket := range extracted {
		if err := validation.Accept(ticket); err != nil {
			stats.Rejected++
			stats.Rejections = append(stats.Rejections, Rejection{Source: ticket.Source, Reason: err.Error()})
			c.log.Debug().Err(err).Str("receipt", ticket.Source).Msg("receipt rejected")
			continue
		}

		if first, dup := seen[ticket.Number]; dup {
			stats.Duplicates++
			stats.Rejections = append(stats.Rejections, Rejection{
				Source: ticket.Source,
				Reason: fmt.Sprintf("duplicate ticket number %s (first seen in %s)", ticket.Number, first),
			})
			c.log.Warn().
				Str("receipt", ticket.Source).
				Str("ticket", ticket.Number).
				Str("first_seen", first).
				Msg("duplicate ticket number, keeping the first")
			continue
		}
		seen[ticket.Number] = ticket.Source

		tickets = append(tickets, ticket)
	}

	ds := &types.Dataset{
		Branch:    c.cfg.Branch.ToBranch(),
		Employees: reg.Employees(),
		Products:  reg.Products(),
		Tickets:   tickets,
	}

	if errs := validation.CheckDataset(ds); len(errs) > 0 {
		return nil, stats, fmt.Errorf("dataset failed consistency check: %s", validation.FormatErrors(errs))
	}

	stats.Tickets = len(ds.Tickets)
	stats.Lines = ds.LineCount()
	stats.Employees = len(ds.Employees)
	stats.Products = len(ds.Products)
	stats.Payments = len(ds.Payments())

	c.log.Info().
		Int("tickets", stats.Tickets).
		Int("rejected", stats.Rejected).
		Int("duplicates", stats.Duplicates).
		Int("employees", stats.Employees).
		Int("products", stats.Products).
		Msg("dataset built")

	return ds, stats, nil
}

// =============================================================================
// SCRIPT GENERATION
// =============================================================================

// Generate serializes ds with the configured database options.
func (c *Converter) Generate(ds *types.Dataset) ([]byte, error) {
	opts := sqlwriter.DefaultGenerateOptions()
	opts.DatabaseName = c.cfg.DatabaseName
	opts.IncludeDatabasePrelude = !c.cfg.SkipDatabasePrelude

	script, err := sqlwriter.GenerateWithOptions(ds, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate SQL: %w", err)
	}
	return script, nil
}

// OutputPath returns the path the next script will be written to.
func (c *Converter) OutputPath() string {
	return filepath.Join(c.cfg.OutputDir, utils.GenerateOutputFileName(c.cfg.OutputNameFormat, nil))
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run builds the dataset, generates the script and writes it atomically.
// Nothing is written when the input directory holds no receipts.
func (c *Converter) Run(ctx context.Context) (result Result) {
	startTime := time.Now()
	result.InputDir = c.cfg.InputDir

	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	ds, stats, err := c.Build(ctx)
	result.Stats = stats
	if err != nil {
		result.Error = err
		return result
	}

	script, err := c.Generate(ds)
	if err != nil {
		result.Error = err
		return result
	}

	if err := utils.EnsureDir(c.cfg.OutputDir); err != nil {
		result.Error = err
		return result
	}

	outputPath := c.OutputPath()
	if err := utils.WriteFileAtomic(outputPath, script, 0o644); err != nil {
		result.Error = fmt.Errorf("failed to write output file: %w", err)
		return result
	}

	c.log.Info().Str("output", outputPath).Int("bytes", len(script)).Msg("script written")

	result.OutputFile = outputPath
	result.Success = true
	return result
}
