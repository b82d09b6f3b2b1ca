// =============================================================================
// Subledger Mapper - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (subledger-mapper)
//   ├── processCmd  (subledger-mapper process)
//   ├── validateCmd (subledger-mapper validate)
//   ├── historyCmd  (subledger-mapper history)
//   └── versionCmd  (subledger-mapper version)
//
// CONFIGURATION:
//   The root command owns the global flags (--config, --env-file, --verbose).
//   Each subcommand loads the configuration through loadConfig and applies
//   its own flags on top.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/ginjaninja78/subledger-mapper/internal/config"
	"github.com/ginjaninja78/subledger-mapper/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// envFile is an optional .env file loaded before environment overrides.
var envFile string

// verbose enables console debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "subledger-mapper",
	Short: "Subledger Mapper - Resolve transaction extracts into GL account strings",

	Long: `Subledger Mapper resolves raw financial transaction records into
standardized general-ledger accounts by chaining rule-lookup tables, then
aggregates the resolved records into a debit/credit summary and reports the
records that failed resolution.

Inputs:
  - A transaction extract (19 positional columns, DTL records resolved)
  - Five pipe-delimited rule tables (sam, mam, ma, company, ccm)
  - The product cross-reference workbook

Example Usage:
  subledger-mapper process                          # Run with config.yaml
  subledger-mapper process --transactions tx.csv    # Override the input
  subledger-mapper process --dry-run                # Print totals only
  subledger-mapper validate                         # Check inputs, write nothing`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		"",
		"Path to a .env file (default: ./.env when present)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads the main configuration named by the global flags.
func loadConfig() (*config.MainConfig, error) {
	cfg, err := config.LoadMainConfig(cfgFile, envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logger for a command.
func newLogger(cfg *config.MainConfig) (*zap.Logger, error) {
	log, _, err := logger.New(logger.Options{
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
		Development: verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return log, nil
}
