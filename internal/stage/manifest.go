package stage

import (
	"context"
	"log/slog"
	"path/filepath"

	"stutterprep/internal/config"
	"stutterprep/internal/labels"
	"stutterprep/internal/logging"
	"stutterprep/internal/manifest"
	"stutterprep/internal/pipeline"
	"stutterprep/internal/preflight"
	"stutterprep/internal/progress"
)

// Manifest indexes a processed clip tree into the dataset table.
type Manifest struct {
	cfg      *config.Config
	in       string
	out      string
	format   string
	progress progress.Reporter
	logger   *slog.Logger
}

// NewManifest builds the manifest stage. Empty arguments fall back to the
// normalized tree, the configured manifest path and the configured format.
func NewManifest(cfg *config.Config, in, out, format string, reporter progress.Reporter) *Manifest {
	if in == "" {
		in = cfg.Paths.NormalizedDir
	}
	if out == "" {
		out = cfg.Paths.ManifestPath
	}
	if format == "" {
		format = cfg.Manifest.Format
	}
	return &Manifest{cfg: cfg, in: in, out: out, format: format, progress: reporter, logger: logging.NewNop()}
}

func (s *Manifest) Name() string { return manifest.StageName }

func (s *Manifest) SetLogger(logger *slog.Logger) { s.logger = logger }

func (s *Manifest) SetProgress(reporter progress.Reporter) { s.progress = reporter }

func (s *Manifest) Roots() (string, string) { return s.in, s.out }

func (s *Manifest) LockDir() string { return filepath.Dir(s.out) }

func (s *Manifest) Requirements() []preflight.Requirement {
	reqs := []preflight.Requirement{
		{Name: "Clip directory", Path: s.in, Kind: preflight.ReadableDir},
		{Name: "Manifest directory", Path: filepath.Dir(s.out), Kind: preflight.WritableDir},
	}
	if s.format == manifest.FormatFolds {
		reqs = append(reqs, preflight.Requirement{Name: "Label table", Path: s.cfg.Labels.Path, Kind: preflight.ReadableFile})
	}
	return reqs
}

func (s *Manifest) Execute(ctx context.Context) (pipeline.Summary, error) {
	logger := logging.WithContext(ctx, s.logger)
	opts := manifest.Options{
		Root:        s.in,
		Folders:     s.cfg.LabelFolders(),
		Format:      s.format,
		MinDuration: s.cfg.Manifest.MinDurationSeconds,
		Logger:      s.logger,
		Progress:    s.progress,
	}
	if s.format == manifest.FormatFolds {
		table, err := labels.Load(s.cfg.Labels.Path, labels.LoadOptions{})
		if err != nil {
			return pipeline.NewSummary(s.Name()), err
		}
		reportTable(logger, s.cfg.Labels.Path, table)
		opts.Labels = labels.Build(table.Records)
	}

	builder, err := manifest.New(opts)
	if err != nil {
		return pipeline.NewSummary(s.Name()), err
	}
	rows, summary, err := builder.Build(ctx)
	if err != nil {
		return summary, err
	}
	if err := manifest.WriteFile(s.out, builder.Format(), rows); err != nil {
		return summary, err
	}
	logger.Info("manifest written",
		logging.String(logging.FieldPath, s.out),
		logging.Int("rows", len(rows)),
		logging.String("format", builder.Format()),
	)
	return summary, nil
}
