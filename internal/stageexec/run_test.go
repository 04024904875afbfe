package stageexec_test

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"stutterprep/internal/ledger"
	"stutterprep/internal/pipeline"
	"stutterprep/internal/preflight"
	"stutterprep/internal/runlock"
	"stutterprep/internal/stageexec"
	"stutterprep/internal/testsupport"
)

type fakeHandler struct {
	in, out  string
	reqs     []preflight.Requirement
	summary  pipeline.Summary
	err      error
	executed bool
	gotRunID string
	gotStage string
	logger   *slog.Logger
}

func (f *fakeHandler) Name() string { return "trim" }
func (f *fakeHandler) Roots() (string, string) { return f.in, f.out }
func (f *fakeHandler) Requirements() []preflight.Requirement { return f.reqs }
func (f *fakeHandler) SetLogger(logger *slog.Logger) { f.logger = logger }
func (f *fakeHandler) Execute(ctx context.Context) (pipeline.Summary, error) {
	f.executed = true
	f.gotRunID, _ = pipeline.RunIDFromContext(ctx)
	f.gotStage, _ = pipeline.StageFromContext(ctx)
	return f.summary, f.err
}

func newHandler(t *testing.T) *fakeHandler {
	base := t.TempDir()
	summary := pipeline.NewSummary("trim")
	summary.Add(pipeline.Written("a.wav"))
	summary.Add(pipeline.Skipped("b.wav", pipeline.ReasonSilent, nil))
	return &fakeHandler{
		in:      base,
		out:     filepath.Join(base, "out"),
		summary: summary,
	}
}

func TestRunRecordsLedger(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	h := newHandler(t)

	res, err := stageexec.Run(context.Background(), stageexec.Options{Ledger: store, Handler: h, RunID: "run-42"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !h.executed || h.gotRunID != "run-42" || h.gotStage != "trim" {
		t.Fatalf("unexpected handler state %+v", h)
	}
	if res.RunID != "run-42" || res.Summary.Processed != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	run, err := store.GetRun(context.Background(), "run-42")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != ledger.StatusCompleted || run.Skipped != 1 || run.OutputRoot != h.out {
		t.Fatalf("unexpected ledger run %+v", run)
	}
	skips, err := store.Skips(context.Background(), "run-42")
	if err != nil || len(skips) != 1 || skips[0].Reason != pipeline.ReasonSilent {
		t.Fatalf("unexpected skips %+v (%v)", skips, err)
	}
}

func TestRunFailsPreflightBeforeExecuting(t *testing.T) {
	h := newHandler(t)
	h.reqs = []preflight.Requirement{{Name: "Input", Path: filepath.Join(h.in, "missing"), Kind: preflight.ReadableDir}}

	_, err := stageexec.Run(context.Background(), stageexec.Options{Handler: h})
	if !errors.Is(err, pipeline.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if h.executed {
		t.Fatal("handler should not run when preflight fails")
	}
}

func TestRunRefusesLockedOutput(t *testing.T) {
	h := newHandler(t)
	held, err := runlock.Acquire(h.out)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer held.Release()

	_, err = stageexec.Run(context.Background(), stageexec.Options{Handler: h})
	if !errors.Is(err, runlock.ErrLocked) || !errors.Is(err, pipeline.ErrConfiguration) {
		t.Fatalf("expected locked configuration error, got %v", err)
	}
	if h.executed {
		t.Fatal("handler should not run without the lock")
	}
}

func TestRunPropagatesFatalError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	h := newHandler(t)
	h.err = pipeline.Wrap(pipeline.ErrSampleRateMismatch, "extract", "decode", "44100 Hz", nil)

	res, err := stageexec.Run(context.Background(), stageexec.Options{Ledger: store, Handler: h})
	if !errors.Is(err, pipeline.ErrSampleRateMismatch) {
		t.Fatalf("expected sample rate error, got %v", err)
	}
	run, gerr := store.GetRun(context.Background(), res.RunID)
	if gerr != nil {
		t.Fatalf("GetRun: %v", gerr)
	}
	if run.Status != ledger.StatusFailed {
		t.Fatalf("expected failed status, got %s", run.Status)
	}

	again, err := runlock.Acquire(h.out)
	if err != nil {
		t.Fatalf("lock should be released after a failed run: %v", err)
	}
	again.Release()
}

func TestRunRequiresHandler(t *testing.T) {
	if _, err := stageexec.Run(context.Background(), stageexec.Options{}); err == nil {
		t.Fatal("expected error without handler")
	}
}
