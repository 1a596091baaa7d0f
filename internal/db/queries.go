package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// StartRun records a CLI invocation and returns its id.
func (l *Ledger) StartRun(ctx context.Context, command, dataDir string) (string, error) {
	id := uuid.New().String()
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (id, command, data_dir, started_at)
		VALUES (?, ?, ?, ?)
	`, id, command, dataDir, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return id, nil
}

// StartStage opens a stage row in the running state.
func (l *Ledger) StartStage(ctx context.Context, runID, stage string) (string, error) {
	id := uuid.New().String()
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO stage_runs (id, run_id, stage, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, runID, stage, StatusRunning, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to record stage %s: %w", stage, err)
	}
	return id, nil
}

// FinishStage closes a stage row and stores its skip counts.
func (l *Ledger) FinishStage(ctx context.Context, stageRunID string, res StageResult) error {
	errMsg := ""
	if res.Err != nil {
		errMsg = res.Err.Error()
	}
	skipped := 0
	for _, n := range res.Skipped {
		skipped += n
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE stage_runs
		SET status = ?, input_count = ?, output_count = ?, skipped = ?, error_message = ?, finished_at = ?
		WHERE id = ?
	`, res.Status, res.Input, res.Output, skipped, errMsg, time.Now(), stageRunID)
	if err != nil {
		return fmt.Errorf("failed to update stage: %w", err)
	}

	for reason, n := range res.Skipped {
		if n == 0 {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO skip_counts (stage_run_id, reason, hits)
			VALUES (?, ?, ?)
		`, stageRunID, reason, n)
		if err != nil {
			return fmt.Errorf("failed to record skips: %w", err)
		}
	}

	return tx.Commit()
}

// RecentStages returns the latest stage runs, newest first.
func (l *Ledger) RecentStages(ctx context.Context, limit int) ([]StageRun, error) {
	rows, err := l.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, run_id, stage, status, input_count, output_count, skipped, error_message, started_at, finished_at
		FROM stage_runs
		ORDER BY started_at DESC
		LIMIT %d
	`, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query stage runs: %w", err)
	}
	defer rows.Close()

	var stages []StageRun
	for rows.Next() {
		var s StageRun
		var finished sql.NullTime
		if err := rows.Scan(&s.ID, &s.RunID, &s.Stage, &s.Status, &s.Input, &s.Output,
			&s.Skipped, &s.Error, &s.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan stage run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			s.FinishedAt = &t
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

// SkipCount is one reason and how often a stage hit it.
type SkipCount struct {
	Reason string
	Count  int
}

// SkipTotals returns the skip counts of a stage run, most frequent first.
func (l *Ledger) SkipTotals(ctx context.Context, stageRunID string) ([]SkipCount, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT reason, hits FROM skip_counts WHERE stage_run_id = ?
	`, stageRunID)
	if err != nil {
		return nil, fmt.Errorf("failed to query skip counts: %w", err)
	}
	defer rows.Close()

	var counts []SkipCount
	for rows.Next() {
		var c SkipCount
		if err := rows.Scan(&c.Reason, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan skip count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Reason < counts[j].Reason
	})
	return counts, nil
}
