package testsupport

import (
	"path/filepath"
	"testing"

	"stutterprep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose roots all live under a per-test temp
// directory. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RawAudioDir = filepath.Join(base, "wavs")
	cfgVal.Paths.ClipsDir = filepath.Join(base, "clips")
	cfgVal.Paths.TrimmedDir = filepath.Join(base, "trimmed_audio")
	cfgVal.Paths.NormalizedDir = filepath.Join(base, "normalized_audio")
	cfgVal.Paths.ManifestPath = filepath.Join(base, "train_dataset.csv")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Labels.Path = filepath.Join(base, "labels.csv")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLogDir enables file logging under the test directory.
func WithLogDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.LogDir = filepath.Join(b.baseDir, "logs")
	}
}

// WithManifestFormat selects the manifest variant.
func WithManifestFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Manifest.Format = format
	}
}

// WithCleanOnly enables the clean-speech label filter.
func WithCleanOnly() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Labels.CleanOnly = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
