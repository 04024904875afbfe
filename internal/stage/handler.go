// Package stage adapts each pipeline step to the Handler contract that
// stageexec drives: a name, the paths it needs, and an Execute call that
// returns a summary.
package stage

import (
	"context"
	"log/slog"

	"stutterprep/internal/pipeline"
	"stutterprep/internal/preflight"
	"stutterprep/internal/progress"
)

// Handler describes the contract the stage runner needs from each stage.
type Handler interface {
	Name() string
	// Roots returns the input and output locations recorded in the ledger.
	Roots() (input, output string)
	Requirements() []preflight.Requirement
	Execute(context.Context) (pipeline.Summary, error)
}

// LoggerAware is implemented by handlers that accept a run-scoped logger.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}

// Locker is implemented by handlers whose lock directory differs from the
// output root, for example when the output is a single file.
type Locker interface {
	LockDir() string
}

// ProgressAware is implemented by handlers that report progress.
type ProgressAware interface {
	SetProgress(progress.Reporter)
}
