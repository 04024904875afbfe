package stage

import (
	"context"
	"log/slog"

	"stutterprep/internal/cleaning"
	"stutterprep/internal/config"
	"stutterprep/internal/logging"
	"stutterprep/internal/loudness"
	"stutterprep/internal/pipeline"
	"stutterprep/internal/preflight"
	"stutterprep/internal/progress"
	"stutterprep/internal/trim"
)

// Cleaning runs one of the trim, normalize or clean passes over a clip tree.
type Cleaning struct {
	cfg      *config.Config
	mode     cleaning.Mode
	in       string
	out      string
	progress progress.Reporter
	logger   *slog.Logger
}

// DefaultRoots returns the configured input and output trees for mode.
func DefaultRoots(cfg *config.Config, mode cleaning.Mode) (in, out string) {
	switch mode {
	case cleaning.ModeTrim:
		return cfg.Paths.ClipsDir, cfg.Paths.TrimmedDir
	case cleaning.ModeNormalize:
		return cfg.Paths.TrimmedDir, cfg.Paths.NormalizedDir
	default:
		return cfg.Paths.ClipsDir, cfg.Paths.NormalizedDir
	}
}

// NewCleaning builds a cleaning stage. Empty in or out fall back to
// DefaultRoots.
func NewCleaning(cfg *config.Config, mode cleaning.Mode, in, out string, reporter progress.Reporter) *Cleaning {
	defIn, defOut := DefaultRoots(cfg, mode)
	if in == "" {
		in = defIn
	}
	if out == "" {
		out = defOut
	}
	return &Cleaning{cfg: cfg, mode: mode, in: in, out: out, progress: reporter, logger: logging.NewNop()}
}

func (s *Cleaning) Name() string { return string(s.mode) }

func (s *Cleaning) SetLogger(logger *slog.Logger) { s.logger = logger }

func (s *Cleaning) SetProgress(reporter progress.Reporter) { s.progress = reporter }

func (s *Cleaning) Roots() (string, string) { return s.in, s.out }

func (s *Cleaning) Requirements() []preflight.Requirement {
	return []preflight.Requirement{
		{Name: "Input clip directory", Path: s.in, Kind: preflight.ReadableDir},
		{Name: "Output clip directory", Path: s.out, Kind: preflight.WritableDir},
	}
}

func (s *Cleaning) Execute(ctx context.Context) (pipeline.Summary, error) {
	runner, err := cleaning.New(cleaning.Options{
		Mode:       s.mode,
		InputRoot:  s.in,
		OutputRoot: s.out,
		Folders:    s.cfg.LabelFolders(),
		SampleRate: s.cfg.Extract.SampleRate,
		Trim: trim.Options{
			TopDB:       s.cfg.Trim.TopDB,
			MinDuration: s.cfg.Trim.MinDurationSeconds,
			FrameLength: s.cfg.Trim.FrameLength,
			HopLength:   s.cfg.Trim.HopLength,
		},
		Normalize: loudness.Options{
			TargetRMS: s.cfg.Normalize.TargetRMS,
			Epsilon:   s.cfg.Normalize.Epsilon,
		},
		Logger:   s.logger,
		Progress: s.progress,
	})
	if err != nil {
		return pipeline.NewSummary(s.Name()), err
	}
	return runner.Run(ctx)
}
