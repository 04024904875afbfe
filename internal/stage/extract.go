package stage

import (
	"context"
	"log/slog"
	"strconv"

	"stutterprep/internal/config"
	"stutterprep/internal/episodecache"
	"stutterprep/internal/extract"
	"stutterprep/internal/labels"
	"stutterprep/internal/logging"
	"stutterprep/internal/pipeline"
	"stutterprep/internal/preflight"
	"stutterprep/internal/progress"
	"stutterprep/internal/shows"
)

// Extract cuts labeled clips from raw episodes.
type Extract struct {
	cfg       *config.Config
	cleanOnly bool
	outRoot   string
	progress  progress.Reporter
	logger    *slog.Logger
}

// NewExtract builds the extraction stage. cleanOnly keeps only rows with no
// disfluency flags and writes them to the clean folder.
func NewExtract(cfg *config.Config, cleanOnly bool, reporter progress.Reporter) *Extract {
	return &Extract{
		cfg:       cfg,
		cleanOnly: cleanOnly,
		outRoot:   cfg.ExtractOutputDir(cleanOnly),
		progress:  reporter,
		logger:    logging.NewNop(),
	}
}

func (s *Extract) Name() string { return extract.StageName }

func (s *Extract) SetLogger(logger *slog.Logger) { s.logger = logger }

func (s *Extract) SetProgress(reporter progress.Reporter) { s.progress = reporter }

func (s *Extract) Roots() (string, string) {
	return s.cfg.Paths.RawAudioDir, s.outRoot
}

func (s *Extract) Requirements() []preflight.Requirement {
	return []preflight.Requirement{
		{Name: "Label table", Path: s.cfg.Labels.Path, Kind: preflight.ReadableFile},
		{Name: "Raw audio directory", Path: s.cfg.Paths.RawAudioDir, Kind: preflight.ReadableDir},
		{Name: "Clip directory", Path: s.outRoot, Kind: preflight.WritableDir},
	}
}

func (s *Extract) Execute(ctx context.Context) (pipeline.Summary, error) {
	logger := logging.WithContext(ctx, s.logger)

	table, err := labels.Load(s.cfg.Labels.Path, labels.LoadOptions{CleanOnly: s.cleanOnly})
	if err != nil {
		return pipeline.NewSummary(s.Name()), err
	}
	reportTable(logger, s.cfg.Labels.Path, table)
	if idx := labels.Build(table.Records); idx.Overwritten() > 0 {
		logging.WarnWithContext(logger, "duplicate label keys", "label_duplicates",
			logging.Int("overwritten", idx.Overwritten()),
			logging.String(logging.FieldImpact, "later rows overwrite earlier clips with the same id"),
		)
	}

	showMap, err := shows.Discover(s.cfg.Paths.RawAudioDir)
	if err != nil {
		return pipeline.NewSummary(s.Name()), pipeline.Wrap(pipeline.ErrConfiguration, s.Name(), "list shows",
			s.cfg.Paths.RawAudioDir, err)
	}
	for _, c := range showMap.Collisions() {
		logging.WarnWithContext(logger, "show directories collide", "show_collision",
			logging.String("key", c.Key),
			logging.String("kept", c.Kept),
			logging.String("dropped", c.Dropped),
		)
	}

	cache := episodecache.New(s.cfg.Extract.SampleRate, episodecache.WithLogger(s.logger))
	ex := extract.New(extract.Options{
		RawRoot:  s.cfg.Paths.RawAudioDir,
		OutRoot:  s.outRoot,
		Shows:    showMap,
		Cache:    cache,
		Logger:   s.logger,
		Progress: s.progress,
	})
	summary, runErr := ex.Extract(ctx, table.Records)

	for _, rej := range table.Rejected {
		summary.Add(pipeline.Skipped("line "+strconv.Itoa(rej.Line), rej.Reason, rej.Err))
	}
	return summary, runErr
}

func reportTable(logger *slog.Logger, path string, table *labels.Table) {
	logger.Info("label table loaded",
		logging.String(logging.FieldPath, path),
		logging.Int("records", len(table.Records)),
		logging.Int("rejected", len(table.Rejected)),
		logging.Int("filtered", table.Filtered),
	)
	if len(table.Rejected) == 0 {
		return
	}
	counts := table.RejectCounts()
	attrs := make([]logging.Attr, 0, len(counts)+1)
	for reason, n := range counts {
		attrs = append(attrs, logging.Int(reason, n))
	}
	attrs = append(attrs, logging.String(logging.FieldImpact, "rejected rows produce no clips"))
	logging.WarnWithContext(logger, "label rows rejected", "label_rows_rejected", attrs...)
	for _, rej := range table.Rejected {
		logger.Debug("label row rejected", logging.Int("line", rej.Line), logging.String(logging.FieldReason, rej.Reason), logging.Error(rej.Err))
	}
}
