// =============================================================================
// Subledger Mapper - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It loads every input, checks the
// rule tables and builds the repository exactly as a run would, then reports
// what was found. Nothing is written.
//
// COMMAND USAGE:
//   subledger-mapper validate [flags]
//
// EXIT STATUS:
//   Non-zero when a table is missing, a required column is absent, or the
//   transaction file cannot be read.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/ginjaninja78/subledger-mapper/internal/converter"
	"github.com/ginjaninja78/subledger-mapper/internal/mapping"
	"github.com/ginjaninja78/subledger-mapper/internal/types"
	"github.com/ginjaninja78/subledger-mapper/internal/validation"
	"github.com/spf13/cobra"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and inputs without processing",
	Long: `Loads the configuration, the rule tables, the product sheet and (when
configured) the transaction extract, and checks that every required table and
column is present. Blank lookup keys are reported as warnings.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addInputFlags(validateCmd)
}

func runValidate(cmd *cobra.Command, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyInputFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck // stderr sync fails on some terminals

	fmt.Fprintln(out, "=== Subledger Mapper: Validate ===")

	loaded, err := converter.LoadTables(cfg, log)
	if err != nil {
		return err
	}

	for _, category := range types.RequiredCategories {
		if file, ok := loaded.Files[category]; ok {
			fmt.Fprintf(out, "  ✓ %-22s %s (%d rows)\n",
				category.Description(), filepath.Base(file), len(loaded.Tables[category].Rows))
		} else {
			fmt.Fprintf(out, "  ✗ %-22s not found\n", category.Description())
		}
	}
	for _, skipped := range loaded.Skipped {
		fmt.Fprintf(out, "  - skipped %s (unrecognized name)\n", filepath.Base(skipped))
	}

	findings := validation.ValidateTables(loaded.Tables)
	if len(findings.Errors) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, validation.FormatErrors(findings.Errors))
	}

	repo, err := mapping.Build(loaded.Tables)
	if err != nil {
		return err
	}

	stats := repo.Stats()
	for _, category := range types.RequiredCategories {
		if shadowed := stats[category].Shadowed; shadowed > 0 {
			fmt.Fprintf(out, "  ! %s: %d duplicate key(s) ignored (first row wins)\n", category.Description(), shadowed)
		}
		if blank := stats[category].Blank; blank > 0 {
			fmt.Fprintf(out, "  ! %s: %d row(s) with a blank key ignored\n", category.Description(), blank)
		}
	}

	if cfg.TransactionsFile != "" {
		records, rows, err := converter.LoadTransactions(cfg)
		if err != nil {
			return fmt.Errorf("failed to load transactions: %w", err)
		}
		fmt.Fprintf(out, "  ✓ %-22s %s (%d rows, %d DTL)\n",
			"Transactions", filepath.Base(cfg.TransactionsFile), rows, len(records))
	}

	fmt.Fprintln(out, "\nValidation passed.")
	return nil
}
