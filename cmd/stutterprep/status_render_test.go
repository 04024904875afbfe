package main

import (
	"strings"
	"testing"
	"time"

	"stutterprep/internal/pipeline"
)

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable("Reasons", reasonColumns, [][]string{{"silent"}})
	requireContains(t, out, "Reasons")
	requireContains(t, out, "silent")
	if lines := strings.Split(out, "\n"); len(lines) < 5 {
		t.Fatalf("expected a framed table, got %q", out)
	}
}

func TestRenderSummariesShowsCounts(t *testing.T) {
	s := pipeline.NewSummary("trim")
	s.Add(pipeline.Written("a.wav"))
	s.Add(pipeline.Skipped("b.wav", pipeline.ReasonSilent, nil))
	s.Finished = s.Started.Add(1500 * time.Millisecond)

	out := renderSummaries([]pipeline.Summary{s})
	for _, want := range []string{"Stage", "Written", "trim", "1.5s"} {
		requireContains(t, out, want)
	}
	requireContains(t, renderReasons(s), pipeline.ReasonSilent)
}

func TestRenderStatusLine(t *testing.T) {
	if got := renderStatusLine("extract", statusOK, "ready", false); got != "  extract:     [OK] ready" {
		t.Fatalf("unexpected status line %q", got)
	}
	if got := renderStatusLine("trim", statusError, "", false); !strings.HasSuffix(got, "[ERROR]") {
		t.Fatalf("unexpected status line %q", got)
	}
}
