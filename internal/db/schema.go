package db

import (
	"context"
	"database/sql"
)

// Schema defines the DuckDB table schema
const Schema = `
-- One invocation of the CLI
CREATE TABLE IF NOT EXISTS runs (
    id VARCHAR PRIMARY KEY,
    command VARCHAR NOT NULL,
    data_dir VARCHAR NOT NULL,
    started_at TIMESTAMP NOT NULL
);

-- One pipeline stage inside a run
CREATE TABLE IF NOT EXISTS stage_runs (
    id VARCHAR PRIMARY KEY,
    run_id VARCHAR NOT NULL,
    stage VARCHAR NOT NULL,
    status VARCHAR NOT NULL DEFAULT 'running',
    input_count INTEGER DEFAULT 0,
    output_count INTEGER DEFAULT 0,
    skipped INTEGER DEFAULT 0,
    error_message VARCHAR DEFAULT '',
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP
);

-- Skip counts per reason for a finished stage
CREATE TABLE IF NOT EXISTS skip_counts (
    stage_run_id VARCHAR NOT NULL,
    reason VARCHAR NOT NULL,
    hits INTEGER NOT NULL,
    PRIMARY KEY (stage_run_id, reason)
);

CREATE INDEX IF NOT EXISTS idx_stage_runs_run ON stage_runs(run_id);
CREATE INDEX IF NOT EXISTS idx_stage_runs_started ON stage_runs(started_at);
`

// CreateSchema creates any missing tables
func CreateSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}
