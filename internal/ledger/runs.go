package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stutterprep/internal/pipeline"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// BeginRun inserts a running row for runID.
func (s *Store) BeginRun(ctx context.Context, runID, stage, inputRoot, outputRoot string) (*Run, error) {
	started := time.Now().UTC()
	err := s.exec(ctx,
		`INSERT INTO runs (id, stage, status, input_root, output_root, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stage, StatusRunning, nullableString(inputRoot), nullableString(outputRoot), formatTime(started),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &Run{
		ID:         runID,
		Stage:      stage,
		Status:     StatusRunning,
		InputRoot:  inputRoot,
		OutputRoot: outputRoot,
		StartedAt:  started,
	}, nil
}

// FinishRun stores the summary counts and final status. runErr decides the
// status: nil completes, a context cancellation cancels, anything else fails.
func (s *Store) FinishRun(ctx context.Context, runID string, summary pipeline.Summary, runErr error) error {
	status := StatusCompleted
	message := ""
	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled):
		status = StatusCancelled
		message = runErr.Error()
	default:
		status = StatusFailed
		message = runErr.Error()
	}
	finished := summary.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	// The caller's context may already be cancelled; the final row must still land.
	err := s.exec(context.WithoutCancel(ctx),
		`UPDATE runs SET status = ?, finished_at = ?, processed = ?, skipped = ?, failed = ?, error_message = ?
         WHERE id = ?`,
		status, formatTime(finished), summary.Processed, summary.Skipped, summary.Failed, nullableString(message), runID,
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", runID, err)
	}
	return nil
}

// RecordSkips stores every issue from the summary in one transaction.
func (s *Store) RecordSkips(ctx context.Context, runID string, issues []pipeline.ItemResult) error {
	if len(issues) == 0 {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin skips tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO skips (run_id, item, outcome, reason, detail) VALUES (?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("prepare skip insert: %w", err)
		}
		defer stmt.Close()

		for _, issue := range issues {
			detail := ""
			if issue.Err != nil {
				detail = issue.Err.Error()
			}
			if _, err := stmt.ExecContext(ctx, runID, issue.Item, string(issue.Outcome), issue.Reason, nullableString(detail)); err != nil {
				return fmt.Errorf("insert skip %s: %w", issue.Item, err)
			}
		}
		return tx.Commit()
	})
}

// GetRun returns a single run.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, runSelect+" WHERE id = ?", runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := runSelect + " ORDER BY started_at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Skips returns the recorded issues for a run in insertion order.
func (s *Store) Skips(ctx context.Context, runID string) ([]Skip, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, item, outcome, reason, detail FROM skips WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("list skips: %w", err)
	}
	defer rows.Close()

	var skips []Skip
	for rows.Next() {
		var (
			skip    Skip
			outcome string
			detail  sql.NullString
		)
		if err := rows.Scan(&skip.RunID, &skip.Item, &outcome, &skip.Reason, &detail); err != nil {
			return nil, fmt.Errorf("scan skip: %w", err)
		}
		skip.Outcome = pipeline.Outcome(outcome)
		skip.Detail = detail.String
		skips = append(skips, skip)
	}
	return skips, rows.Err()
}

// SkipReasons returns per-reason counts for a run.
func (s *Store) SkipReasons(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT reason, COUNT(1) FROM skips WHERE run_id = ? GROUP BY reason", runID)
	if err != nil {
		return nil, fmt.Errorf("count skips: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			reason string
			n      int
		)
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, fmt.Errorf("scan skip count: %w", err)
		}
		counts[reason] = n
	}
	return counts, rows.Err()
}

const runSelect = `SELECT id, stage, status, input_root, output_root, started_at, finished_at,
    processed, skipped, failed, error_message FROM runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(scanner rowScanner) (*Run, error) {
	var (
		run                   Run
		status                string
		inputRoot, outputRoot sql.NullString
		started, finished     sql.NullString
		message               sql.NullString
	)
	if err := scanner.Scan(&run.ID, &run.Stage, &status, &inputRoot, &outputRoot, &started, &finished,
		&run.Processed, &run.Skipped, &run.Failed, &message); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Status = Status(status)
	run.InputRoot = inputRoot.String
	run.OutputRoot = outputRoot.String
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	run.ErrorMessage = message.String
	return &run, nil
}
