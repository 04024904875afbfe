package main

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"stutterprep/internal/ledger"
	"stutterprep/internal/pipeline"
)

func renderSummaries(summaries []pipeline.Summary) string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Stage,
			humanize.Comma(int64(s.Processed)),
			humanize.Comma(int64(s.Skipped)),
			humanize.Comma(int64(s.Failed)),
			formatElapsed(s.Duration()),
		})
	}
	return renderTable("Summary", summaryColumns, rows)
}

// renderReasons lists skip reasons and notes, or "" when there are none.
func renderReasons(s pipeline.Summary) string {
	var rows [][]string
	for _, reason := range s.ReasonKeys() {
		rows = append(rows, []string{reason, "skipped", humanize.Comma(int64(s.Reasons[reason]))})
	}
	for _, note := range s.NoteKeys() {
		rows = append(rows, []string{note, "written", humanize.Comma(int64(s.Notes[note]))})
	}
	if len(rows) == 0 {
		return ""
	}
	return renderTable("Reasons", reasonColumns, rows)
}

func renderRuns(runs []ledger.Run, now time.Time) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			shortID(r.ID),
			r.Stage,
			string(r.Status),
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			humanize.Comma(int64(r.Processed)),
			humanize.Comma(int64(r.Skipped)),
			humanize.Comma(int64(r.Failed)),
			formatElapsed(r.Duration()),
		})
	}
	return renderTable("Runs", runColumns, rows)
}

func renderSkips(skips []ledger.Skip) string {
	rows := make([][]string, 0, len(skips))
	for _, s := range skips {
		rows = append(rows, []string{s.Item, string(s.Outcome), s.Reason, s.Detail})
	}
	return renderTable("Skipped items", skipColumns, rows)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
	}
	return d.Round(100 * time.Millisecond).String()
}
