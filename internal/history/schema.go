// Package history records processing runs in SQLite so every summary and
// unmatched report can be traced back to the run that produced it.
package history

// Schema defines the SQL statements to create the history tables.
const Schema = `
-- One row per processing run
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,               -- run UUID
    started_at TEXT NOT NULL,          -- UTC, fixed width
    finished_at TEXT NOT NULL,         -- UTC, fixed width
    transactions_file TEXT NOT NULL,
    records INTEGER NOT NULL,          -- DTL records resolved
    unmatched INTEGER NOT NULL,        -- records flagged unmatched
    total_debit TEXT NOT NULL,         -- exact decimal
    total_credit TEXT NOT NULL,        -- exact decimal
    summary_file TEXT NOT NULL DEFAULT '',
    detail_file TEXT NOT NULL DEFAULT '',
    unmatched_file TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at
    ON runs(started_at);

-- Unmatched records of each run
CREATE TABLE IF NOT EXISTS unmatched_records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    row_number INTEGER NOT NULL,       -- 1-based position in the transaction file
    reasons TEXT NOT NULL,             -- comma-separated stage names
    amount TEXT NOT NULL,              -- exact decimal
    account TEXT NOT NULL              -- nine-segment account
);

CREATE INDEX IF NOT EXISTS idx_unmatched_records_run
    ON unmatched_records(run_id);
`
