// Package extract cuts labeled clips out of full-episode recordings.
//
// For each label record the show is resolved to an on-disk directory, the
// episode is loaded through a single-entry cache, the [Start, Stop) sample
// range is sliced, and the clip is written to
// <out>/<safe show>/<episode>/<safe show>_<episode>_<clip>.wav at the source
// bit depth. Rows that cannot be served are skipped with a reason; only a
// sample rate mismatch aborts the batch.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"stutterprep/internal/episodecache"
	"stutterprep/internal/labels"
	"stutterprep/internal/logging"
	"stutterprep/internal/pipeline"
	"stutterprep/internal/progress"
	"stutterprep/internal/shows"
	"stutterprep/internal/wavio"
)

// StageName identifies extraction runs in logs and the ledger.
const StageName = "extract"

// Options wires an Extractor.
type Options struct {
	RawRoot  string
	OutRoot  string
	Shows    *shows.Map
	Cache    *episodecache.Cache
	Logger   *slog.Logger
	Progress progress.Reporter
}

// Extractor writes clip files for label records.
type Extractor struct {
	rawRoot  string
	outRoot  string
	shows    *shows.Map
	cache    *episodecache.Cache
	logger   *slog.Logger
	progress progress.Reporter

	unknownShows map[string]int
}

// New returns an Extractor. A nil cache gets a default 16 kHz cache.
func New(opts Options) *Extractor {
	cache := opts.Cache
	if cache == nil {
		cache = episodecache.New(16000, episodecache.WithLogger(opts.Logger))
	}
	reporter := opts.Progress
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Extractor{
		rawRoot:      opts.RawRoot,
		outRoot:      opts.OutRoot,
		shows:        opts.Shows,
		cache:        cache,
		logger:       logging.NewComponentLogger(opts.Logger, "extractor"),
		progress:     reporter,
		unknownShows: make(map[string]int),
	}
}

// EpisodePath returns the raw recording for an episode.
func EpisodePath(rawRoot, showDir string, episodeID int) string {
	return filepath.Join(rawRoot, showDir, strconv.Itoa(episodeID)+".wav")
}

// ClipPath returns the output location for a clip. showDir is the canonical
// on-disk show directory the label row resolved to; it is passed through
// shows.SafeName, so every spelling of a show shares one output tree.
func ClipPath(outRoot, showDir string, episodeID, clipID int) string {
	safe := shows.SafeName(showDir)
	ep := strconv.Itoa(episodeID)
	name := fmt.Sprintf("%s_%d_%d.wav", safe, episodeID, clipID)
	return filepath.Join(outRoot, safe, ep, name)
}

// Extract processes records in order. It stops early when ctx is cancelled
// or an episode has the wrong sample rate; the summary covers the rows
// handled so far.
func (e *Extractor) Extract(ctx context.Context, records []labels.Record) (pipeline.Summary, error) {
	logger := logging.WithContext(ctx, e.logger)
	summary := pipeline.NewSummary(StageName)
	e.unknownShows = make(map[string]int)
	e.progress.Start(StageName, len(records))
	defer e.progress.Finish()

	logger.Info("extraction started",
		logging.Int("records", len(records)),
		logging.String("raw_root", e.rawRoot),
		logging.String("out_root", e.outRoot),
		logging.Int("shows", e.shows.Len()),
	)

	var fatal error
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			fatal = err
			break
		}
		result, err := e.ExtractRecord(logger, rec)
		if err != nil {
			fatal = err
			break
		}
		summary.Add(result)
		e.progress.Add(1)
	}
	summary.Finished = time.Now()

	e.reportUnknownShows(logger)
	stats := e.cache.Stats()
	logger.Info("extraction finished",
		logging.Int("written", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("truncated", summary.Notes[pipeline.ReasonTruncated]),
		logging.Int("episode_decodes", stats.Decodes),
		logging.Int("cache_hits", stats.Hits),
	)
	return summary, fatal
}

// ExtractRecord handles one label record. The returned error is non-nil only
// for batch-fatal conditions.
func (e *Extractor) ExtractRecord(logger *slog.Logger, rec labels.Record) (pipeline.ItemResult, error) {
	item := rec.String()
	rowLogger := logger.With(logging.Args(logging.ClipAttrs(rec.Show, rec.EpisodeID, rec.ClipID)...)...)

	showDir, ok := e.shows.Resolve(rec.Show)
	if !ok {
		e.unknownShows[rec.Show]++
		rowLogger.Debug("show not found")
		return pipeline.Skipped(item, pipeline.ReasonShowNotFound, nil), nil
	}

	episodePath := EpisodePath(e.rawRoot, showDir, rec.EpisodeID)
	if _, err := os.Stat(episodePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			rowLogger.Debug("episode audio missing", logging.String(logging.FieldPath, episodePath))
			return pipeline.Skipped(item, pipeline.ReasonEpisodeMissing, nil), nil
		}
		return pipeline.Skipped(item, pipeline.ReasonEpisodeMissing, err), nil
	}

	buf, err := e.cache.Get(episodePath)
	if err != nil {
		if pipeline.IsFatal(err) {
			logging.ErrorWithContext(rowLogger, "episode sample rate mismatch", "sample_rate_mismatch",
				logging.String(logging.FieldPath, episodePath),
				logging.String(logging.FieldErrorHint, "resample episodes to 16 kHz mono before extraction"),
				logging.Error(err),
			)
			return pipeline.ItemResult{}, err
		}
		logging.WarnWithContext(rowLogger, "episode decode failed", "episode_decode_failed",
			logging.String(logging.FieldPath, episodePath),
			logging.String(logging.FieldImpact, "clips from this episode are skipped"),
			logging.Error(err),
		)
		return pipeline.Skipped(item, pipeline.ReasonDecodeFailed, err), nil
	}

	clip, truncated := buf.Slice(rec.Start, rec.Stop)
	if clip.Frames() == 0 {
		rowLogger.Debug("clip starts past end of episode",
			logging.Int("start", rec.Start),
			logging.Int("episode_frames", buf.Frames()),
		)
		return pipeline.Skipped(item, pipeline.ReasonEmptyClip, nil), nil
	}

	out := ClipPath(e.outRoot, showDir, rec.EpisodeID, rec.ClipID)
	if err := wavio.Write(out, clip); err != nil {
		wrapped := pipeline.Wrap(pipeline.ErrEncode, StageName, "write clip", out, err)
		logging.WarnWithContext(rowLogger, "clip write failed", "clip_write_failed",
			logging.String(logging.FieldPath, out),
			logging.String(logging.FieldErrorHint, "check free space and permissions on the output root"),
			logging.Error(err),
		)
		return pipeline.Failed(out, pipeline.ReasonWriteFailed, wrapped), nil
	}

	if truncated {
		rowLogger.Debug("clip truncated at end of episode",
			logging.Int("stop", rec.Stop),
			logging.Int("episode_frames", buf.Frames()),
		)
		return pipeline.WrittenWithNote(out, pipeline.ReasonTruncated), nil
	}
	return pipeline.Written(out), nil
}

func (e *Extractor) reportUnknownShows(logger *slog.Logger) {
	if len(e.unknownShows) == 0 {
		return
	}
	names := make([]string, 0, len(e.unknownShows))
	rows := 0
	for name, n := range e.unknownShows {
		names = append(names, name)
		rows += n
	}
	slices.Sort(names)
	logging.WarnWithContext(logger, "label shows without an audio directory", "show_not_found",
		logging.Any("shows", names),
		logging.Int("rows", rows),
		logging.String(logging.FieldImpact, "rows for these shows were skipped"),
		logging.String(logging.FieldErrorHint, "check show directory names under the raw audio root"),
	)
}
