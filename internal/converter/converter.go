// =============================================================================
// Subledger Mapper - Converter Module
// =============================================================================
//
// This module orchestrates one run, from loading the inputs to writing the
// reports and recording the run.
//
// PROCESSING PIPELINE:
//   1. Parse the transaction extract and keep DTL records
//   2. Discover and parse the rule tables and the product sheet
//   3. Build the repository, resolve, aggregate and detect unmatched records
//   4. Build the report tables
//   5. Write the CSV reports (and the optional workbook)
//   6. Archive the transaction file
//   7. Write the run summary
//   8. Record the run in the history database
//
// A dry run stops after step 4 and writes nothing.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/subledger-mapper/internal/aggregate"
	"github.com/ginjaninja78/subledger-mapper/internal/config"
	"github.com/ginjaninja78/subledger-mapper/internal/history"
	"github.com/ginjaninja78/subledger-mapper/internal/report"
	"github.com/ginjaninja78/subledger-mapper/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one run.
type Result struct {
	// RunID identifies the run in logs, output names and history.
	RunID string

	// TransactionsFile is the transaction extract that was processed.
	TransactionsFile string

	// OutputFiles maps each report table name to the CSV written for it.
	// This is empty for dry runs and failed runs.
	OutputFiles map[string]string

	// WorkbookFile is the XLSX workbook, when one was written.
	WorkbookFile string

	// SummaryLog is the plain-text run summary.
	SummaryLog string

	// ArchivePath is the archived copy of the transaction file.
	ArchivePath string

	// Success indicates whether the run completed.
	Success bool

	// DryRun is set when nothing was written.
	DryRun bool

	// Error contains the error if the run failed.
	Error error

	// TotalDebit and TotalCredit are the exact grand totals.
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal

	// Output is the in-memory pipeline result. It is nil if the run failed
	// before resolution.
	Output *Output

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the run.
type ProcessingStats struct {
	// RowsRead is the number of non-empty data rows in the transaction file.
	RowsRead int

	// DetailRecords is the number of DTL records resolved.
	DetailRecords int

	// MappingFiles is the number of rule-table sources loaded, including the
	// product sheet.
	MappingFiles int

	// SkippedFiles is the number of mapping files with unrecognized names.
	SkippedFiles int

	// Groups is the number of summary groups.
	Groups int

	// Unmatched is the number of flagged records.
	Unmatched int

	// ProcessingTime is the time taken by the run.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the configured job.
type Converter struct {
	config *config.MainConfig
	logger *zap.Logger
	dryRun bool

	now      func() time.Time
	newRunID func() string
}

// Option configures a Converter.
type Option func(*Converter)

// WithDryRun resolves and aggregates without writing anything.
func WithDryRun(dryRun bool) Option {
	return func(c *Converter) { c.dryRun = dryRun }
}

// WithClock replaces the clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// WithRunID replaces the run id generator.
func WithRunID(newRunID func() string) Option {
	return func(c *Converter) { c.newRunID = newRunID }
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - cfg: The validated application configuration.
//   - logger: The logger; nil discards output.
//   - opts: Optional settings.
//
// RETURNS:
//   - A new Converter instance.
func New(cfg *config.MainConfig, logger *zap.Logger, opts ...Option) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Converter{
		config:   cfg,
		logger:   logger,
		now:      time.Now,
		newRunID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the job.
//
// RETURNS:
//   - A Result struct containing the outcome of the run. Result.Error is set
//     when any step fails; later steps are not attempted.
func (c *Converter) Run(ctx context.Context) Result {
	startTime := c.now()
	runID := c.newRunID()
	logger := c.logger.With(zap.String("run_id", runID))

	result := Result{
		RunID:            runID,
		TransactionsFile: c.config.TransactionsFile,
		DryRun:           c.dryRun,
	}

	fail := func(err error) Result {
		result.Error = err
		result.Stats.ProcessingTime = c.now().Sub(startTime)
		logger.Error("run failed", zap.Error(err))
		return result
	}

	// =========================================================================
	// STEP 1: LOAD TRANSACTIONS
	// =========================================================================
	// Only DTL records take part in resolution.

	logger.Info("processing transactions", zap.String("file", c.config.TransactionsFile))

	records, rowsRead, err := LoadTransactions(c.config)
	if err != nil {
		return fail(fmt.Errorf("failed to load transactions: %w", err))
	}

	result.Stats.RowsRead = rowsRead
	result.Stats.DetailRecords = len(records)
	logger.Debug("parsed transactions", zap.Int("rows", rowsRead), zap.Int("records", len(records)))

	// =========================================================================
	// STEP 2: LOAD RULE TABLES
	// =========================================================================

	loaded, err := LoadTables(c.config, logger)
	if err != nil {
		return fail(err)
	}

	result.Stats.MappingFiles = len(loaded.Files)
	result.Stats.SkippedFiles = len(loaded.Skipped)

	// =========================================================================
	// STEP 3: RESOLVE AND AGGREGATE
	// =========================================================================
	// The repository is built once here. A missing table or column is fatal.

	pipeline := NewPipeline(c.config.Workers, logger)
	output, err := pipeline.Run(Inputs{Records: records, Tables: loaded.Tables})
	if err != nil {
		return fail(fmt.Errorf("failed to build mapping repository: %w", err))
	}

	result.Output = output
	result.TotalDebit = output.TotalDebit
	result.TotalCredit = output.TotalCredit
	result.Stats.Groups = len(output.Rows)
	result.Stats.Unmatched = len(output.Unmatched)

	// =========================================================================
	// STEP 4: BUILD REPORT TABLES
	// =========================================================================

	rep := report.New(output.Records, output.Lines, output.Unmatched)

	if c.dryRun {
		result.Success = true
		result.Stats.ProcessingTime = c.now().Sub(startTime)
		logger.Info("dry run complete",
			zap.Int("records", len(output.Records)),
			zap.Int("unmatched", len(output.Unmatched)),
			zap.String("total_debit", aggregate.FormatAmount(output.TotalDebit)),
			zap.String("total_credit", aggregate.FormatAmount(output.TotalCredit)),
		)
		return result
	}

	// =========================================================================
	// STEP 5: WRITE OUTPUT
	// =========================================================================

	fm := utils.NewFileManager(c.config.OutputDir, c.config.InputArchiveDir)
	if err := fm.EnsureDirectories(); err != nil {
		return fail(err)
	}

	outputs, err := c.writeOutput(rep, runID, startTime)
	if err != nil {
		return fail(err)
	}
	result.OutputFiles = outputs

	if c.config.WriteXLSX {
		workbook, err := c.writeWorkbook(rep, runID, startTime)
		if err != nil {
			return fail(err)
		}
		result.WorkbookFile = workbook
	}

	// =========================================================================
	// STEP 6: ARCHIVE INPUT
	// =========================================================================

	if c.config.ArchiveInputs {
		archived, err := fm.ArchiveInputFile(c.config.TransactionsFile, startTime)
		if err != nil {
			return fail(fmt.Errorf("failed to archive transactions: %w", err))
		}
		result.ArchivePath = archived
		logger.Debug("archived transactions", zap.String("file", archived))
	}

	// =========================================================================
	// STEP 7: WRITE RUN SUMMARY
	// =========================================================================

	finishTime := c.now()

	summaryLog, err := utils.WriteSummaryLog(utils.RunSummary{
		RunID:            runID,
		StartTime:        startTime,
		EndTime:          finishTime,
		TransactionsFile: c.config.TransactionsFile,
		MappingFiles:     loaded.SourceFiles(),
		ProductFile:      c.config.ProductFile,
		Records:          len(output.Records),
		Groups:           len(output.Rows),
		Unmatched:        len(output.Unmatched),
		TotalDebit:       aggregate.FormatAmount(output.TotalDebit),
		TotalCredit:      aggregate.FormatAmount(output.TotalCredit),
		OutputFiles:      outputList(outputs, result.WorkbookFile),
		ArchivePath:      result.ArchivePath,
	}, c.config.OutputDir)
	if err != nil {
		return fail(err)
	}
	result.SummaryLog = summaryLog

	// =========================================================================
	// STEP 8: RECORD HISTORY
	// =========================================================================

	if c.config.HistoryDB != "" {
		if err := c.recordHistory(ctx, result, startTime, finishTime); err != nil {
			return fail(err)
		}
	}

	result.Success = true
	result.Stats.ProcessingTime = c.now().Sub(startTime)

	logger.Info("run complete",
		zap.Int("records", len(output.Records)),
		zap.Int("groups", len(output.Rows)),
		zap.Int("unmatched", len(output.Unmatched)),
		zap.String("total_debit", aggregate.FormatAmount(output.TotalDebit)),
		zap.String("total_credit", aggregate.FormatAmount(output.TotalCredit)),
		zap.Duration("elapsed", result.Stats.ProcessingTime),
	)

	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// writeOutput writes one CSV per report table.
func (c *Converter) writeOutput(rep *report.Report, runID string, startTime time.Time) (map[string]string, error) {
	outputs := make(map[string]string, 3)

	for _, table := range rep.Tables() {
		path := c.outputPath(table.Name, runID, startTime, "")
		if err := report.WriteCSVFile(path, table); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", table.Name, err)
		}
		outputs[table.Name] = path
		c.logger.Debug("wrote report", zap.String("file", path), zap.Int("rows", len(table.Rows)))
	}

	return outputs, nil
}

// writeWorkbook writes the three report tables as sheets of one workbook.
func (c *Converter) writeWorkbook(rep *report.Report, runID string, startTime time.Time) (string, error) {
	path := c.outputPath(report.WorkbookName, runID, startTime, ".xlsx")
	if err := report.WriteWorkbook(path, rep.Tables()); err != nil {
		return "", fmt.Errorf("failed to write workbook: %w", err)
	}
	return path, nil
}

func (c *Converter) outputPath(name, runID string, startTime time.Time, ext string) string {
	fileName := utils.GenerateOutputFileName(c.config.OutputNameFormat, map[string]string{
		"name": name,
		"uuid": runID,
	}, startTime, ext)
	return filepath.Join(c.config.OutputDir, fileName)
}

// recordHistory stores the run and its unmatched records.
func (c *Converter) recordHistory(ctx context.Context, result Result, startTime, finishTime time.Time) error {
	store, err := history.Open(c.config.HistoryDB)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	run := history.Run{
		ID:               result.RunID,
		StartedAt:        startTime,
		FinishedAt:       finishTime,
		TransactionsFile: result.TransactionsFile,
		Records:          len(result.Output.Records),
		Unmatched:        len(result.Output.Unmatched),
		TotalDebit:       result.TotalDebit,
		TotalCredit:      result.TotalCredit,
		SummaryFile:      result.OutputFiles[report.SummaryName],
		DetailFile:       result.OutputFiles[report.DetailName],
		UnmatchedFile:    result.OutputFiles[report.UnmatchedName],
	}

	if err := store.RecordRun(ctx, run, result.Output.Unmatched); err != nil {
		return fmt.Errorf("failed to record run history: %w", err)
	}

	c.logger.Debug("recorded run history",
		zap.String("run_id", result.RunID),
		zap.String("db", store.Path()),
	)
	return nil
}

// outputList returns the written files in report order.
func outputList(outputs map[string]string, workbook string) []string {
	var files []string
	for _, name := range []string{report.SummaryName, report.DetailName, report.UnmatchedName} {
		if path, ok := outputs[name]; ok {
			files = append(files, path)
		}
	}
	if workbook != "" {
		files = append(files, workbook)
	}
	return files
}
