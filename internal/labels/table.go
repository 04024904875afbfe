package labels

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"stutterprep/internal/pipeline"
)

// Row rejection reasons.
const (
	ReasonMalformedRow = "malformed_row"
	ReasonBadID        = "bad_id"
	ReasonBadRange     = "bad_range"
	ReasonBadFlag      = "bad_flag"
	ReasonEmptyShow    = "empty_show"
)

// LoadOptions tunes how the table is read.
type LoadOptions struct {
	// CleanOnly keeps only rows whose five flags are all zero.
	CleanOnly bool
}

// RowError describes a rejected table row.
type RowError struct {
	Line   int
	Reason string
	Err    error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Reason, e.Err)
}

// Table is the parsed label table.
type Table struct {
	Records []Record
	// Rejected lists rows that failed to parse.
	Rejected []RowError
	// Filtered counts valid rows dropped by the clean-speech filter.
	Filtered int
}

var flagColumns = []string{
	ColumnProlongation,
	ColumnBlock,
	ColumnSoundRep,
	ColumnWordRep,
	ColumnDifficultToUnderstand,
}

// RequiredColumns lists the header names Load insists on.
func RequiredColumns(cleanOnly bool) []string {
	cols := []string{ColumnShow, ColumnEpisode, ColumnClip, ColumnStart, ColumnStop}
	if cleanOnly {
		cols = append(cols, flagColumns...)
	}
	return cols
}

// Load reads the label table at path.
func Load(path string, opts LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, "labels", "open table", path, err)
	}
	defer f.Close()
	return Read(f, opts)
}

// Read parses a label table from r.
func Read(r io.Reader, opts LoadOptions) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, pipeline.Wrap(pipeline.ErrConfiguration, "labels", "read header", "label table is empty", nil)
		}
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, "labels", "read header", "", err)
	}
	columns := indexHeader(header)
	var missing []string
	for _, name := range RequiredColumns(opts.CleanOnly) {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, "labels", "read header",
			"missing required columns: "+strings.Join(missing, ", "), nil)
	}

	table := &Table{}
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				table.Rejected = append(table.Rejected, RowError{Line: parseErr.Line, Reason: ReasonMalformedRow, Err: err})
				continue
			}
			return nil, pipeline.Wrap(pipeline.ErrConfiguration, "labels", "read row", "", err)
		}
		line, _ := reader.FieldPos(0)
		rec, rowErr := parseRow(fields, columns, opts.CleanOnly)
		if rowErr != nil {
			rowErr.Line = line
			table.Rejected = append(table.Rejected, *rowErr)
			continue
		}
		rec.Line = line
		if opts.CleanOnly && !rec.Flags.Clean() {
			table.Filtered++
			continue
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

func indexHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			continue
		}
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	return columns
}

func parseRow(fields []string, columns map[string]int, cleanOnly bool) (Record, *RowError) {
	cell := func(name string) (string, bool) {
		idx, ok := columns[name]
		if !ok || idx >= len(fields) {
			return "", false
		}
		return strings.TrimSpace(fields[idx]), true
	}

	var rec Record
	show, ok := cell(ColumnShow)
	if !ok {
		return rec, &RowError{Reason: ReasonMalformedRow, Err: errors.New("row is shorter than header")}
	}
	if show == "" {
		return rec, &RowError{Reason: ReasonEmptyShow, Err: errors.New("show is empty")}
	}
	rec.Show = show

	ints := []struct {
		column string
		dest   *int
		reason string
	}{
		{ColumnEpisode, &rec.EpisodeID, ReasonBadID},
		{ColumnClip, &rec.ClipID, ReasonBadID},
		{ColumnStart, &rec.Start, ReasonBadRange},
		{ColumnStop, &rec.Stop, ReasonBadRange},
	}
	for _, field := range ints {
		raw, ok := cell(field.column)
		if !ok {
			return rec, &RowError{Reason: ReasonMalformedRow, Err: fmt.Errorf("missing %s", field.column)}
		}
		value, err := ParseInt(raw)
		if err != nil {
			return rec, &RowError{Reason: field.reason, Err: fmt.Errorf("%s: %w", field.column, err)}
		}
		*field.dest = value
	}
	if rec.Start < 0 || rec.Start >= rec.Stop {
		return rec, &RowError{Reason: ReasonBadRange, Err: fmt.Errorf("start %d stop %d", rec.Start, rec.Stop)}
	}

	flags := []*bool{
		&rec.Flags.Prolongation,
		&rec.Flags.Block,
		&rec.Flags.SoundRep,
		&rec.Flags.WordRep,
		&rec.Flags.DifficultToUnderstand,
	}
	for i, column := range flagColumns {
		raw, ok := cell(column)
		if !ok {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(value) {
			if cleanOnly {
				return rec, &RowError{Reason: ReasonBadFlag, Err: fmt.Errorf("%s: %q", column, raw)}
			}
			continue
		}
		*flags[i] = value != 0
	}
	return rec, nil
}

// ParseInt parses an integer cell, accepting float encodings of whole numbers
// such as "3.0".
func ParseInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.Atoi(raw); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse integer %q: %w", raw, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("parse integer %q: not a whole number", raw)
	}
	if math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("parse integer %q: out of range", raw)
	}
	return int(f), nil
}

// RejectCounts groups rejected rows by reason.
func (t *Table) RejectCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range t.Rejected {
		counts[r.Reason]++
	}
	return counts
}
