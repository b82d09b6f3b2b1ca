package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/subledger-mapper/internal/types"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shopspring/decimal"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// Run is one processing run.
type Run struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       time.Time
	TransactionsFile string
	Records          int
	Unmatched        int
	TotalDebit       decimal.Decimal
	TotalCredit      decimal.Decimal
	SummaryFile      string
	DetailFile       string
	UnmatchedFile    string
}

// UnmatchedEntry is one stored unmatched record.
type UnmatchedEntry struct {
	RowNumber int
	Reasons   string
	Amount    decimal.Decimal
	Account   string
}

// Store reads and writes run history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the history database at dbPath and
// initialises the schema. Pass MemoryPath for a throwaway database.
func Open(dbPath string) (*Store, error) {
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: an in-memory database exists per connection, and
	// SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// RecordRun stores a run and its unmatched records in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run, unmatched []types.UnmatchedRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, started_at, finished_at, transactions_file, records, unmatched,
			total_debit, total_credit, summary_file, detail_file, unmatched_file
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.TransactionsFile,
		run.Records,
		run.Unmatched,
		run.TotalDebit.String(),
		run.TotalCredit.String(),
		run.SummaryFile,
		run.DetailFile,
		run.UnmatchedFile,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	if len(unmatched) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO unmatched_records (run_id, row_number, reasons, amount, account)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare unmatched insert: %w", err)
		}
		defer stmt.Close()

		for _, u := range unmatched {
			_, err := stmt.ExecContext(ctx,
				run.ID,
				u.Resolved.Record.RowNumber,
				u.ReasonList(),
				u.Resolved.Record.Amount.String(),
				u.Resolved.Account.String(),
			)
			if err != nil {
				return fmt.Errorf("failed to record unmatched row %d: %w", u.Resolved.Record.RowNumber, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const runColumns = `
	id, started_at, finished_at, transactions_file, records, unmatched,
	total_debit, total_credit, summary_file, detail_file, unmatched_file
`

// GetRun retrieves a run by id. It returns ErrRunNotFound when absent.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// UnmatchedForRun returns the stored unmatched records of a run in row
// order.
func (s *Store) UnmatchedForRun(ctx context.Context, runID string) ([]UnmatchedEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT row_number, reasons, amount, account
		FROM unmatched_records
		WHERE run_id = ?
		ORDER BY row_number, id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unmatched records: %w", err)
	}
	defer rows.Close()

	var entries []UnmatchedEntry
	for rows.Next() {
		var entry UnmatchedEntry
		var amount string
		if err := rows.Scan(&entry.RowNumber, &entry.Reasons, &amount, &entry.Account); err != nil {
			return nil, fmt.Errorf("failed to scan unmatched record: %w", err)
		}
		if entry.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get unmatched records: %w", err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run                   Run
		startedAt, finishedAt string
		totalDebit, totalCredit string
	)

	if err := row.Scan(
		&run.ID,
		&startedAt,
		&finishedAt,
		&run.TransactionsFile,
		&run.Records,
		&run.Unmatched,
		&totalDebit,
		&totalCredit,
		&run.SummaryFile,
		&run.DetailFile,
		&run.UnmatchedFile,
	); err != nil {
		return nil, err
	}

	var err error
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseTime(finishedAt); err != nil {
		return nil, err
	}
	if run.TotalDebit, err = decimal.NewFromString(totalDebit); err != nil {
		return nil, fmt.Errorf("invalid stored total_debit %q: %w", totalDebit, err)
	}
	if run.TotalCredit, err = decimal.NewFromString(totalCredit); err != nil {
		return nil, fmt.Errorf("invalid stored total_credit %q: %w", totalCredit, err)
	}

	return &run, nil
}

// timeLayout is fixed width so stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", value, err)
	}
	return t, nil
}
