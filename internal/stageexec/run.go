// Package stageexec runs a stage.Handler with the bookkeeping every stage
// shares: run id and stage context, preflight, the output lock, the run
// ledger, and start/finish logging.
package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stutterprep/internal/ledger"
	"stutterprep/internal/logging"
	"stutterprep/internal/pipeline"
	"stutterprep/internal/preflight"
	"stutterprep/internal/runlock"
	"stutterprep/internal/stage"
)

// Options controls stage execution and ledger persistence.
type Options struct {
	Logger  *slog.Logger
	Ledger  *ledger.Store
	Handler stage.Handler
	// RunID is generated when empty.
	RunID string
}

// Result is what a stage run produced.
type Result struct {
	RunID   string
	Summary pipeline.Summary
}

// Run executes a stage. The returned error is the stage's batch-level error;
// per-item problems only appear in the summary.
func Run(ctx context.Context, opts Options) (Result, error) {
	if opts.Handler == nil {
		return Result{}, fmt.Errorf("stage handler unavailable")
	}
	name := opts.Handler.Name()
	runID := opts.RunID
	if runID == "" {
		runID = pipeline.NewRunID()
	}
	result := Result{RunID: runID, Summary: pipeline.NewSummary(name)}

	stageCtx := pipeline.WithStage(pipeline.WithRunID(ctx, runID), name)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		// Handlers derive run fields from the context themselves.
		aware.SetLogger(opts.Logger)
	}

	if err := preflight.Verify(name, opts.Handler.Requirements()); err != nil {
		logging.ErrorWithContext(stageLogger, "preflight failed", "preflight_failure",
			logging.String(logging.FieldErrorHint, "fix the listed paths or pass --labels/--wavs/--in/--out"),
			logging.Error(err),
		)
		return result, err
	}

	input, output := opts.Handler.Roots()
	lockDir := output
	if locker, ok := opts.Handler.(stage.Locker); ok {
		lockDir = locker.LockDir()
	}
	lock, err := runlock.Acquire(lockDir)
	if err != nil {
		if errors.Is(err, runlock.ErrLocked) {
			err = pipeline.Wrap(pipeline.ErrConfiguration, name, "lock output", "another run is writing this tree", err)
		}
		return result, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			stageLogger.Warn("failed to release output lock", logging.Error(err))
		}
	}()

	if opts.Ledger != nil {
		if _, err := opts.Ledger.BeginRun(stageCtx, runID, name, input, output); err != nil {
			return result, fmt.Errorf("record run start: %w", err)
		}
	}

	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("input", input),
		logging.String("output", output),
	)

	summary, stageErr := opts.Handler.Execute(stageCtx)
	if summary.Stage == "" {
		summary.Stage = name
	}
	result.Summary = summary

	if opts.Ledger != nil {
		if err := opts.Ledger.RecordSkips(stageCtx, runID, summary.Issues); err != nil {
			stageLogger.Error("failed to persist skipped items", logging.Error(err))
		}
		if err := opts.Ledger.FinishRun(stageCtx, runID, summary, stageErr); err != nil {
			stageLogger.Error("failed to persist run result", logging.Error(err))
		}
	}

	if stageErr != nil {
		return result, handleFailure(stageLogger, summary, stageErr)
	}

	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("processed", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.Duration()),
	)
	return result, nil
}

func handleFailure(logger *slog.Logger, summary pipeline.Summary, stageErr error) error {
	if errors.Is(stageErr, context.Canceled) {
		logger.Warn("stage interrupted",
			logging.String(logging.FieldEventType, "stage_cancelled"),
			logging.Int("processed", summary.Processed),
			logging.String(logging.FieldImpact, "completed items are kept; rerun to finish"),
		)
		return stageErr
	}
	logger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.Bool("fatal", pipeline.IsFatal(stageErr)),
		logging.Int("processed", summary.Processed),
		logging.Error(stageErr),
	)
	return stageErr
}
