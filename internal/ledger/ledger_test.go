package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"stutterprep/internal/ledger"
	"stutterprep/internal/pipeline"
	"stutterprep/internal/testsupport"
)

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "run-1", "extract", "/raw", "/clips")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if run.Status != ledger.StatusRunning {
		t.Fatalf("expected running, got %s", run.Status)
	}

	summary := pipeline.NewSummary("extract")
	summary.Add(pipeline.Written("/clips/a.wav"))
	summary.Add(pipeline.Skipped("A/0/1", pipeline.ReasonShowNotFound, nil))
	summary.Add(pipeline.Skipped("A/0/2", pipeline.ReasonShowNotFound, nil))
	summary.Add(pipeline.Failed("/clips/b.wav", pipeline.ReasonWriteFailed, errors.New("disk full")))
	summary.Finished = time.Now()

	if err := store.RecordSkips(ctx, "run-1", summary.Issues); err != nil {
		t.Fatalf("RecordSkips: %v", err)
	}
	if err := store.FinishRun(ctx, "run-1", summary, nil); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != ledger.StatusCompleted || got.Processed != 1 || got.Skipped != 2 || got.Failed != 1 {
		t.Fatalf("unexpected run %+v", got)
	}
	if got.InputRoot != "/raw" || got.OutputRoot != "/clips" {
		t.Fatalf("unexpected roots %+v", got)
	}
	if got.FinishedAt.IsZero() || got.Duration() < 0 {
		t.Fatalf("expected finished timestamp, got %+v", got)
	}

	skips, err := store.Skips(ctx, "run-1")
	if err != nil {
		t.Fatalf("Skips: %v", err)
	}
	if len(skips) != 3 {
		t.Fatalf("expected 3 skips, got %d", len(skips))
	}
	if skips[2].Outcome != pipeline.OutcomeFailed || skips[2].Detail != "disk full" {
		t.Fatalf("unexpected failed skip %+v", skips[2])
	}

	reasons, err := store.SkipReasons(ctx, "run-1")
	if err != nil {
		t.Fatalf("SkipReasons: %v", err)
	}
	if reasons[pipeline.ReasonShowNotFound] != 2 || reasons[pipeline.ReasonWriteFailed] != 1 {
		t.Fatalf("unexpected reason counts %v", reasons)
	}
}

func TestFinishRunStatusFromError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	cases := []struct {
		name   string
		err    error
		status ledger.Status
	}{
		{"completed", nil, ledger.StatusCompleted},
		{"cancelled", fmt.Errorf("extract: %w", context.Canceled), ledger.StatusCancelled},
		{"failed", pipeline.ErrSampleRateMismatch, ledger.StatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			if _, err := store.BeginRun(ctx, tc.name, "trim", "", ""); err != nil {
				t.Fatalf("BeginRun: %v", err)
			}
			cancel()
			if err := store.FinishRun(ctx, tc.name, pipeline.NewSummary("trim"), tc.err); err != nil {
				t.Fatalf("FinishRun: %v", err)
			}
			run, err := store.GetRun(context.Background(), tc.name)
			if err != nil {
				t.Fatalf("GetRun: %v", err)
			}
			if run.Status != tc.status {
				t.Fatalf("status = %s, want %s", run.Status, tc.status)
			}
			if tc.err != nil && run.ErrorMessage == "" {
				t.Fatal("expected error message to be stored")
			}
		})
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := store.BeginRun(ctx, id, "manifest", "", ""); err != nil {
			t.Fatalf("BeginRun %s: %v", id, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", runs)
	}

	all, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
}

func TestGetRunUnknown(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	if _, err := store.GetRun(context.Background(), "missing"); !errors.Is(err, ledger.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.BeginRun(context.Background(), "keep", "clean", "", ""); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenLedger(t, cfg)
	if _, err := reopened.GetRun(context.Background(), "keep"); err != nil {
		t.Fatalf("expected run to survive reopen: %v", err)
	}
}
