// =============================================================================
// Subledger Mapper - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the whole job: load,
// resolve, aggregate, report.
//
// COMMAND USAGE:
//   subledger-mapper process [flags]
//
// FLAGS (each overrides the matching config value):
//   --transactions  : Transaction extract to resolve
//   --mappings      : Directory holding the rule-table files
//   --product       : Product cross-reference workbook
//   --product-sheet : Worksheet inside the product workbook
//   --output        : Output directory
//   --workers       : Number of resolution shards
//   --xlsx          : Also write the XLSX workbook
//   --archive       : Copy the transaction file to the input archive
//   --dry-run       : Resolve and print totals without writing anything
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/ginjaninja78/subledger-mapper/internal/aggregate"
	"github.com/ginjaninja78/subledger-mapper/internal/config"
	"github.com/ginjaninja78/subledger-mapper/internal/converter"
	"github.com/ginjaninja78/subledger-mapper/internal/report"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// processFlags holds the process flag values.
type processFlags struct {
	transactions string
	mappings     string
	product      string
	productSheet string
	output       string
	workers      int
	xlsx         bool
	archive      bool
	dryRun       bool
}

var processOpts processFlags

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Resolve a transaction extract and write the reports",
	Long: `The process command loads the transaction extract and the rule tables,
resolves every DTL record into its nine-segment account, and writes:

  Grouped_Summary    debit and credit lines per account group, then TOTAL
  Detailed_DTL       every resolved record
  Unmatched_Records  records whose main account, sub account, company or
                     product could not be resolved

A missing rule table or a table missing required columns stops the run
before any record is resolved.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context(), cmd, cmd.OutOrStdout())
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(processCmd)

	addInputFlags(processCmd)

	flags := processCmd.Flags()
	flags.StringVar(&processOpts.output, "output", "", "Output directory")
	flags.IntVar(&processOpts.workers, "workers", 0, "Number of resolution shards")
	flags.BoolVar(&processOpts.xlsx, "xlsx", false, "Also write the XLSX workbook")
	flags.BoolVar(&processOpts.archive, "archive", false, "Copy the transaction file to the input archive")
	flags.BoolVar(&processOpts.dryRun, "dry-run", false, "Resolve and print totals without writing anything")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(ctx context.Context, cmd *cobra.Command, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	applyInputFlags(cmd, cfg)
	if cmd.Flags().Changed("output") {
		cfg.OutputDir = processOpts.output
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = processOpts.workers
	}
	if cmd.Flags().Changed("xlsx") {
		cfg.WriteXLSX = processOpts.xlsx
	}
	if cmd.Flags().Changed("archive") {
		cfg.ArchiveInputs = processOpts.archive
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck // stderr sync fails on some terminals

	// =========================================================================
	// STEP 2: RUN
	// =========================================================================

	result := converter.New(cfg, log, converter.WithDryRun(processOpts.dryRun)).Run(ctx)
	if result.Error != nil {
		return result.Error
	}

	// =========================================================================
	// STEP 3: PRINT SUMMARY
	// =========================================================================

	printResult(out, result)
	return nil
}

// addInputFlags registers the input flags shared by process and validate.
func addInputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&processOpts.transactions, "transactions", "", "Transaction extract to resolve")
	flags.StringVar(&processOpts.mappings, "mappings", "", "Directory holding the rule-table files")
	flags.StringVar(&processOpts.product, "product", "", "Product cross-reference workbook")
	flags.StringVar(&processOpts.productSheet, "product-sheet", "", "Worksheet inside the product workbook")
}

// applyInputFlags copies the input flags shared by process and validate.
func applyInputFlags(cmd *cobra.Command, cfg *config.MainConfig) {
	flags := cmd.Flags()
	if flags.Changed("transactions") {
		cfg.TransactionsFile = processOpts.transactions
	}
	if flags.Changed("mappings") {
		cfg.MappingDir = processOpts.mappings
	}
	if flags.Changed("product") {
		cfg.ProductFile = processOpts.product
	}
	if flags.Changed("product-sheet") {
		cfg.ProductSheet = processOpts.productSheet
	}
}

func printResult(out io.Writer, result converter.Result) {
	fmt.Fprintln(out, "=== Subledger Mapper ===")
	if result.DryRun {
		fmt.Fprintln(out, "(dry run: nothing written)")
	}
	fmt.Fprintf(out, "Run ID:          %s\n", result.RunID)
	fmt.Fprintf(out, "Rows read:       %d\n", result.Stats.RowsRead)
	fmt.Fprintf(out, "DTL records:     %d\n", result.Stats.DetailRecords)
	fmt.Fprintf(out, "Groups:          %d\n", result.Stats.Groups)
	fmt.Fprintf(out, "Unmatched:       %d\n", result.Stats.Unmatched)
	fmt.Fprintf(out, "Total debit:     %s\n", aggregate.FormatAmount(result.TotalDebit))
	fmt.Fprintf(out, "Total credit:    %s\n", aggregate.FormatAmount(result.TotalCredit))
	fmt.Fprintf(out, "Time elapsed:    %s\n", result.Stats.ProcessingTime)

	if len(result.OutputFiles) == 0 {
		return
	}

	fmt.Fprintln(out, "\nOutputs:")
	for _, name := range []string{report.SummaryName, report.DetailName, report.UnmatchedName} {
		if path, ok := result.OutputFiles[name]; ok {
			fmt.Fprintf(out, "  ✓ %s -> %s\n", name, path)
		}
	}
	if result.WorkbookFile != "" {
		fmt.Fprintf(out, "  ✓ %s -> %s\n", report.WorkbookName, result.WorkbookFile)
	}
	if result.ArchivePath != "" {
		fmt.Fprintf(out, "  ✓ archived -> %s\n", result.ArchivePath)
	}
}
