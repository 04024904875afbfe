// Package cleaning runs the per-clip audio passes over a clip tree: silence
// trimming, loudness normalization, or both in a single pass.
//
// Input and output trees share the <label folder>/<show>/<episode>/<clip>.wav
// layout. When the input and output roots are the same, clips are replaced
// in place; every write goes through a temp file and a rename.
package cleaning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"stutterprep/internal/cliptree"
	"stutterprep/internal/logging"
	"stutterprep/internal/loudness"
	"stutterprep/internal/pipeline"
	"stutterprep/internal/progress"
	"stutterprep/internal/trim"
	"stutterprep/internal/wavio"
)

// Mode selects which passes run over each clip.
type Mode string

const (
	ModeTrim      Mode = "trim"
	ModeNormalize Mode = "normalize"
	ModeClean     Mode = "clean"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeTrim, ModeNormalize, ModeClean:
		return true
	}
	return false
}

func (m Mode) trims() bool      { return m == ModeTrim || m == ModeClean }
func (m Mode) normalizes() bool { return m == ModeNormalize || m == ModeClean }

// Options wires a Stage.
type Options struct {
	Mode       Mode
	InputRoot  string
	OutputRoot string
	Folders    []cliptree.Folder
	SampleRate int
	Trim       trim.Options
	Normalize  loudness.Options
	Logger     *slog.Logger
	Progress   progress.Reporter
}

// Stage walks a clip tree and writes the processed clips to OutputRoot.
type Stage struct {
	opts     Options
	logger   *slog.Logger
	progress progress.Reporter
}

// New validates opts and returns a Stage.
func New(opts Options) (*Stage, error) {
	if !opts.Mode.Valid() {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, "cleaning", "new stage",
			fmt.Sprintf("unknown mode %q", opts.Mode), nil)
	}
	if opts.InputRoot == "" || opts.OutputRoot == "" {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, string(opts.Mode), "new stage",
			"input and output roots are required", nil)
	}
	if len(opts.Folders) == 0 {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, string(opts.Mode), "new stage",
			"at least one label folder is required", nil)
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	if opts.Normalize.TargetRMS <= 0 {
		opts.Normalize.TargetRMS = loudness.DefaultOptions().TargetRMS
	}
	if opts.Normalize.Epsilon <= 0 {
		opts.Normalize.Epsilon = loudness.DefaultOptions().Epsilon
	}
	reporter := opts.Progress
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Stage{
		opts:     opts,
		logger:   logging.NewComponentLogger(opts.Logger, "cleaning"),
		progress: reporter,
	}, nil
}

// Name returns the stage name used in logs and the ledger.
func (s *Stage) Name() string { return string(s.opts.Mode) }

// Run processes every clip under the input root. Per-clip problems are
// recorded in the summary; only cancellation returns an error.
func (s *Stage) Run(ctx context.Context) (pipeline.Summary, error) {
	logger := logging.WithContext(ctx, s.logger)
	summary := pipeline.NewSummary(s.Name())

	total := s.countClips()
	s.progress.Start(s.Name(), total)
	defer s.progress.Finish()

	logger.Info("cleaning started",
		logging.String("mode", s.Name()),
		logging.String("input_root", s.opts.InputRoot),
		logging.String("output_root", s.opts.OutputRoot),
		logging.Int("clips", total),
	)

	var stopErr error
	for ep, err := range cliptree.Episodes(s.opts.InputRoot, s.opts.Folders) {
		if cerr := ctx.Err(); cerr != nil {
			stopErr = cerr
			break
		}
		if err != nil {
			summary.Add(s.walkProblem(logger, ep, err))
			continue
		}
		episodeSummary, cerr := s.runEpisode(ctx, logger, ep)
		summary.Merge(episodeSummary)
		if cerr != nil {
			stopErr = cerr
			break
		}
	}
	summary.Finished = time.Now()

	logger.Info("cleaning finished",
		logging.String("mode", s.Name()),
		logging.Int("written", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.Duration()),
	)
	return summary, stopErr
}

func (s *Stage) countClips() int {
	n := 0
	for ep, err := range cliptree.Episodes(s.opts.InputRoot, s.opts.Folders) {
		if err == nil {
			n += len(ep.Clips)
		}
	}
	return n
}

func (s *Stage) walkProblem(logger *slog.Logger, ep cliptree.Episode, err error) pipeline.ItemResult {
	dir := filepath.Join(s.opts.InputRoot, ep.Folder.Name, ep.Show, ep.Episode)
	if errors.Is(err, cliptree.ErrMissingFolder) {
		logging.WarnWithContext(logger, "label folder missing", "label_folder_missing",
			logging.String(logging.FieldPath, dir),
			logging.String(logging.FieldImpact, "no clips from this label were processed"),
			logging.String(logging.FieldErrorHint, "run the previous stage or check manifest.folders"),
		)
		return pipeline.Skipped(dir, pipeline.ReasonMissingFolder, err)
	}
	logging.WarnWithContext(logger, "clip directory unreadable", "clip_dir_unreadable",
		logging.String(logging.FieldPath, dir),
		logging.Error(err),
	)
	return pipeline.Failed(dir, pipeline.ReasonUnreadableDir, err)
}

func (s *Stage) runEpisode(ctx context.Context, logger *slog.Logger, ep cliptree.Episode) (pipeline.Summary, error) {
	summary := pipeline.NewSummary(s.Name())
	epLogger := logger.With(
		logging.String("folder", ep.Folder.Name),
		logging.String(logging.FieldShow, ep.Show),
		logging.String(logging.FieldEpisode, ep.Episode),
	)
	for _, clip := range ep.Clips {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		out := filepath.Join(s.opts.OutputRoot, ep.Folder.Name, ep.Rel(clip))
		result := s.ProcessClip(clip, out)
		if result.Outcome != pipeline.OutcomeWritten {
			epLogger.Debug("clip not written", logging.Args(logging.SkipAttrs(clip, result.Reason, result.Err)...)...)
		}
		summary.Add(result)
		s.progress.Add(1)
	}
	epLogger.Info("episode processed",
		logging.Int("files", len(ep.Clips)),
		logging.Int("written", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
	)
	return summary, nil
}

// ProcessClip reads in, applies the stage's passes and writes out.
func (s *Stage) ProcessClip(in, out string) pipeline.ItemResult {
	buf, err := wavio.Read(in)
	if err != nil {
		return pipeline.Skipped(in, pipeline.ReasonDecodeFailed,
			pipeline.Wrap(pipeline.ErrDecode, s.Name(), "read clip", in, err))
	}
	if buf.Frames() == 0 {
		return pipeline.Skipped(in, pipeline.ReasonEmptyAudio, nil)
	}
	if buf.SampleRate != s.opts.SampleRate {
		return pipeline.Skipped(in, pipeline.ReasonSampleRate,
			fmt.Errorf("%w: %d Hz, want %d Hz", pipeline.ErrSampleRateMismatch, buf.SampleRate, s.opts.SampleRate))
	}

	if s.opts.Mode == ModeTrim {
		return s.trimOnly(in, out, buf)
	}

	samples := buf.Signal().Samples
	if s.opts.Mode.trims() {
		res, err := trim.Trim(samples, buf.SampleRate, s.opts.Trim)
		if err != nil {
			return pipeline.Skipped(in, rejectReason(err), err)
		}
		samples = res.Samples
	}
	if s.opts.Mode.normalizes() {
		samples = loudness.Normalize(samples, s.opts.Normalize)
	}
	if err := wavio.WriteSignal(out, &wavio.Signal{SampleRate: buf.SampleRate, Samples: samples}); err != nil {
		return pipeline.Failed(out, pipeline.ReasonWriteFailed,
			pipeline.Wrap(pipeline.ErrEncode, s.Name(), "write clip", out, err))
	}
	return pipeline.Written(out)
}

// trimOnly keeps the source bit depth by slicing the integer buffer with the
// bounds found on the float signal.
func (s *Stage) trimOnly(in, out string, buf *wavio.Buffer) pipeline.ItemResult {
	res, err := trim.Trim(buf.Signal().Samples, buf.SampleRate, s.opts.Trim)
	if err != nil {
		return pipeline.Skipped(in, rejectReason(err), err)
	}
	kept, _ := buf.Slice(res.Start, res.End)
	if err := wavio.Write(out, kept); err != nil {
		return pipeline.Failed(out, pipeline.ReasonWriteFailed,
			pipeline.Wrap(pipeline.ErrEncode, s.Name(), "write clip", out, err))
	}
	return pipeline.Written(out)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, trim.ErrEmpty):
		return pipeline.ReasonEmptyAudio
	case errors.Is(err, trim.ErrSilent):
		return pipeline.ReasonSilent
	default:
		return pipeline.ReasonTooShort
	}
}
