package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column is one table column. Counts and durations are right aligned.
type column struct {
	title string
	right bool
}

func left(title string) column  { return column{title: title} }
func right(title string) column { return column{title: title, right: true} }

// Column layouts shared by the stage and history output.
var (
	summaryColumns = []column{left("Stage"), right("Written"), right("Skipped"), right("Failed"), right("Elapsed")}
	reasonColumns  = []column{left("Reason"), left("Outcome"), right("Count")}
	runColumns     = []column{
		left("Run"), left("Stage"), left("Status"), left("Started"),
		right("Written"), right("Skipped"), right("Failed"), right("Elapsed"),
	}
	skipColumns = []column{left("Item"), left("Outcome"), left("Reason"), left("Detail")}
)

// renderTable draws rows under a titled header. Short rows are padded with
// empty cells.
func renderTable(title string, columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle(title)
	}

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		align := text.AlignLeft
		if c.right {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
