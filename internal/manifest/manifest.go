// Package manifest walks a processed clip tree and writes the training
// dataset table.
package manifest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"stutterprep/internal/cliptree"
	"stutterprep/internal/fileutil"
	"stutterprep/internal/labels"
	"stutterprep/internal/logging"
	"stutterprep/internal/pipeline"
	"stutterprep/internal/progress"
	"stutterprep/internal/wavio"
)

// StageName identifies manifest runs in logs and the ledger.
const StageName = "manifest"

// Output variants.
const (
	FormatPaths = "paths"
	FormatFolds = "folds"
)

// DefaultMinDuration is the shortest clip, in seconds, kept in the manifest.
const DefaultMinDuration = 0.2

// Row is one manifest entry. Start and End are only set for the folds
// variant.
type Row struct {
	Path     string
	FileName string
	Folder   string
	Show     string
	Episode  string
	Label    int
	Duration float64
	Start    int
	End      int
}

// Options wires a Builder.
type Options struct {
	Root        string
	Folders     []cliptree.Folder
	Format      string
	MinDuration float64
	// Labels is required for FormatFolds.
	Labels   *labels.Index
	Logger   *slog.Logger
	Progress progress.Reporter
}

// Builder collects manifest rows.
type Builder struct {
	opts     Options
	logger   *slog.Logger
	progress progress.Reporter
}

// New validates opts and returns a Builder.
func New(opts Options) (*Builder, error) {
	switch opts.Format {
	case "":
		opts.Format = FormatPaths
	case FormatPaths:
	case FormatFolds:
		if opts.Labels == nil {
			return nil, pipeline.Wrap(pipeline.ErrConfiguration, StageName, "new builder",
				"folds format needs the label table", nil)
		}
	default:
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, StageName, "new builder",
			fmt.Sprintf("unknown format %q", opts.Format), nil)
	}
	if opts.MinDuration < 0 {
		opts.MinDuration = 0
	}
	reporter := opts.Progress
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Builder{
		opts:     opts,
		logger:   logging.NewComponentLogger(opts.Logger, "manifest"),
		progress: reporter,
	}, nil
}

// Format returns the output variant.
func (b *Builder) Format() string { return b.opts.Format }

// Build walks the clip tree in traversal order. Clips that cannot be
// described are counted in the summary and left out of the rows.
func (b *Builder) Build(ctx context.Context) ([]Row, pipeline.Summary, error) {
	logger := logging.WithContext(ctx, b.logger)
	summary := pipeline.NewSummary(StageName)
	b.progress.Start(StageName, 0)
	defer b.progress.Finish()

	var rows []Row
	for ep, err := range cliptree.Episodes(b.opts.Root, b.opts.Folders) {
		if cerr := ctx.Err(); cerr != nil {
			summary.Finished = time.Now()
			return rows, summary, cerr
		}
		if err != nil {
			summary.Add(b.walkProblem(logger, ep, err))
			continue
		}
		for _, clip := range ep.Clips {
			row, result := b.describe(ep, clip)
			if result.Outcome == pipeline.OutcomeWritten {
				rows = append(rows, row)
			} else if result.Reason == pipeline.ReasonDecodeFailed {
				logging.WarnWithContext(logger, "clip header unreadable", "clip_header_unreadable",
					logging.String(logging.FieldPath, clip),
					logging.Error(result.Err),
				)
			} else {
				logger.Debug("clip left out of manifest", logging.Args(logging.SkipAttrs(clip, result.Reason, result.Err)...)...)
			}
			summary.Add(result)
			b.progress.Add(1)
		}
	}
	summary.Finished = time.Now()
	logger.Info("manifest rows collected",
		logging.Int("rows", len(rows)),
		logging.Int("skipped", summary.Skipped),
		logging.String("format", b.opts.Format),
	)
	return rows, summary, nil
}

func (b *Builder) walkProblem(logger *slog.Logger, ep cliptree.Episode, err error) pipeline.ItemResult {
	dir := filepath.Join(b.opts.Root, ep.Folder.Name, ep.Show, ep.Episode)
	if errors.Is(err, cliptree.ErrMissingFolder) {
		logging.WarnWithContext(logger, "label folder missing", "label_folder_missing",
			logging.String(logging.FieldPath, dir),
			logging.String(logging.FieldImpact, "manifest has no rows for this label"),
		)
		return pipeline.Skipped(dir, pipeline.ReasonMissingFolder, err)
	}
	logging.WarnWithContext(logger, "clip directory unreadable", "clip_dir_unreadable",
		logging.String(logging.FieldPath, dir),
		logging.Error(err),
	)
	return pipeline.Failed(dir, pipeline.ReasonUnreadableDir, err)
}

func (b *Builder) describe(ep cliptree.Episode, clip string) (Row, pipeline.ItemResult) {
	info, err := wavio.Probe(clip)
	if err != nil {
		return Row{}, pipeline.Skipped(clip, pipeline.ReasonDecodeFailed,
			pipeline.Wrap(pipeline.ErrDecode, StageName, "probe clip", clip, err))
	}
	if info.SampleRate <= 0 {
		return Row{}, pipeline.Skipped(clip, pipeline.ReasonDecodeFailed,
			pipeline.Wrap(pipeline.ErrDecode, StageName, "probe clip", "zero sample rate", nil))
	}
	duration := info.Duration()
	if duration < b.opts.MinDuration {
		return Row{}, pipeline.Skipped(clip, pipeline.ReasonTooShort, nil)
	}
	row := Row{
		Path:     clip,
		FileName: filepath.Base(clip),
		Folder:   ep.Folder.Name,
		Show:     ep.Show,
		Episode:  ep.Episode,
		Label:    ep.Folder.Label,
		Duration: RoundDuration(duration),
	}
	if b.opts.Format != FormatFolds {
		return row, pipeline.Written(clip)
	}

	episodeID, err := labels.ParseInt(ep.Episode)
	if err != nil {
		return Row{}, pipeline.Skipped(clip, pipeline.ReasonBadName, err)
	}
	clipID, err := ClipID(row.FileName)
	if err != nil {
		return Row{}, pipeline.Skipped(clip, pipeline.ReasonBadName, err)
	}
	rec, ok := b.opts.Labels.Lookup(ep.Show, episodeID, clipID)
	if !ok {
		return Row{}, pipeline.Skipped(clip, pipeline.ReasonNoLabel, nil)
	}
	row.Start, row.End = rec.Start, rec.Stop
	return row, pipeline.Written(clip)
}

// ClipID parses the clip id from the last underscore-separated part of a
// clip file name, e.g. "HeStutters_1_0.wav" -> 0.
func ClipID(fileName string) (int, error) {
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	idx := strings.LastIndexByte(stem, '_')
	if idx < 0 || idx == len(stem)-1 {
		return 0, fmt.Errorf("clip name %q has no id suffix", fileName)
	}
	id, err := strconv.Atoi(stem[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("clip name %q: %w", fileName, err)
	}
	return id, nil
}

// RoundDuration rounds seconds to three decimals.
func RoundDuration(seconds float64) float64 {
	return math.Round(seconds*1000) / 1000
}

// Header returns the column names for format.
func Header(format string) []string {
	if format == FormatFolds {
		return []string{"file_name", "fold1", "fold2", "fold3", "start", "end", "stutter"}
	}
	return []string{"path", "label", "duration"}
}

// Encode writes rows as CSV in the given format.
func Encode(w io.Writer, format string, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(format)); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(record(format, row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func record(format string, row Row) []string {
	if format == FormatFolds {
		return []string{
			row.FileName,
			row.Folder,
			row.Show,
			row.Episode,
			strconv.Itoa(row.Start),
			strconv.Itoa(row.End),
			strconv.Itoa(row.Label),
		}
	}
	return []string{
		row.Path,
		strconv.Itoa(row.Label),
		strconv.FormatFloat(row.Duration, 'f', -1, 64),
	}
}

// WriteFile atomically replaces path with the encoded manifest.
func WriteFile(path, format string, rows []Row) error {
	err := fileutil.WriteAtomic(path, 0o644, func(f *os.File) error {
		return Encode(f, format, rows)
	})
	if err != nil {
		return pipeline.Wrap(pipeline.ErrEncode, StageName, "write manifest", path, err)
	}
	return nil
}
