// =============================================================================
// Subledger Mapper - History Command
// =============================================================================
//
// This file defines the 'history' command, which reads the run history
// database configured by history_db.
//
// COMMAND USAGE:
//   subledger-mapper history            # List recent runs
//   subledger-mapper history <run-id>   # Show one run and its unmatched rows
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ginjaninja78/subledger-mapper/internal/aggregate"
	"github.com/ginjaninja78/subledger-mapper/internal/history"
	"github.com/spf13/cobra"
)

// errNoHistory is returned when history_db is not configured.
var errNoHistory = errors.New("history_db is not configured")

// historyLimit is the number of runs listed.
var historyLimit int

// historyCmd represents the 'history' command.
var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs or show one run",
	Args:  cobra.MaximumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.HistoryDB == "" {
			return errNoHistory
		}

		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer store.Close()

		if len(args) == 1 {
			return showRun(cmd, store, args[0])
		}
		return listRuns(cmd, store)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to list (0 for all)")
}

func listRuns(cmd *cobra.Command, store *history.Store) error {
	runs, err := store.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tSTARTED\tRECORDS\tUNMATCHED\tDEBIT\tCREDIT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Records,
			run.Unmatched,
			aggregate.FormatAmount(run.TotalDebit),
			aggregate.FormatAmount(run.TotalCredit),
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, store *history.Store, id string) error {
	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}

	entries, err := store.UnmatchedForRun(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printRun(out, run)

	if len(entries) == 0 {
		return nil
	}

	fmt.Fprintln(out, "\nUnmatched:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ROW\tREASONS\tAMOUNT\tACCOUNT")
	for _, entry := range entries {
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n",
			entry.RowNumber, entry.Reasons, aggregate.FormatAmount(entry.Amount), entry.Account)
	}
	return w.Flush()
}

func printRun(out io.Writer, run *history.Run) {
	fmt.Fprintf(out, "Run ID:          %s\n", run.ID)
	fmt.Fprintf(out, "Started:         %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Duration:        %s\n", run.FinishedAt.Sub(run.StartedAt))
	fmt.Fprintf(out, "Transactions:    %s\n", run.TransactionsFile)
	fmt.Fprintf(out, "DTL records:     %d\n", run.Records)
	fmt.Fprintf(out, "Unmatched:       %d\n", run.Unmatched)
	fmt.Fprintf(out, "Total debit:     %s\n", aggregate.FormatAmount(run.TotalDebit))
	fmt.Fprintf(out, "Total credit:    %s\n", aggregate.FormatAmount(run.TotalCredit))
	fmt.Fprintf(out, "Summary file:    %s\n", run.SummaryFile)
	fmt.Fprintf(out, "Detail file:     %s\n", run.DetailFile)
	fmt.Fprintf(out, "Unmatched file:  %s\n", run.UnmatchedFile)
}
