package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stutterprep/internal/config"
	"stutterprep/internal/pipeline"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvLabels, "")
	t.Setenv(config.EnvRawDir, "")
	t.Chdir(t.TempDir())

	cfg, path, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatalf("expected no config file, got %s", path)
	}
	if cfg.Extract.SampleRate != 16000 {
		t.Fatalf("expected 16000 Hz default, got %d", cfg.Extract.SampleRate)
	}
	if cfg.Trim.TopDB != 30 || cfg.Trim.MinDurationSeconds != 0.1 {
		t.Fatalf("unexpected trim defaults %+v", cfg.Trim)
	}
	if cfg.Normalize.TargetRMS != 0.05 || cfg.Normalize.Epsilon != 1e-8 {
		t.Fatalf("unexpected normalize defaults %+v", cfg.Normalize)
	}
	if !filepath.IsAbs(cfg.Paths.ClipsDir) {
		t.Fatalf("expected absolute clips dir, got %q", cfg.Paths.ClipsDir)
	}
	folders := cfg.LabelFolders()
	if len(folders) != 2 || folders[0].Name != "clean_audio" || folders[1].Label != 1 {
		t.Fatalf("unexpected default folders %+v", folders)
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
raw_audio_dir = "~/wavs"
clips_dir = "~/out/clips"

[labels]
path = "~/labels.csv"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s, got %s (exists=%v)", path, resolved, exists)
	}
	if cfg.Paths.RawAudioDir != filepath.Join(home, "wavs") {
		t.Fatalf("unexpected raw dir %q", cfg.Paths.RawAudioDir)
	}
	if cfg.Labels.Path != filepath.Join(home, "labels.csv") {
		t.Fatalf("unexpected labels path %q", cfg.Labels.Path)
	}
}

func TestLoadCustomFoldersReplaceDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[[manifest.folders]]
name = "fluent"
label = 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Manifest.Folders) != 1 || cfg.Manifest.Folders[0].Name != "fluent" {
		t.Fatalf("expected single custom folder, got %+v", cfg.Manifest.Folders)
	}
}

func TestLoadEnvFallbacks(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	labels := filepath.Join(t.TempDir(), "labels.csv")
	raw := t.TempDir()
	t.Setenv(config.EnvLabels, labels)
	t.Setenv(config.EnvRawDir, raw)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Labels.Path != labels {
		t.Fatalf("expected labels from env, got %q", cfg.Labels.Path)
	}
	if cfg.Paths.RawAudioDir != raw {
		t.Fatalf("expected raw dir from env, got %q", cfg.Paths.RawAudioDir)
	}
	if err := cfg.RequireLabels(); err != nil {
		t.Fatalf("RequireLabels: %v", err)
	}
	if err := cfg.RequireRawAudio(); err != nil {
		t.Fatalf("RequireRawAudio: %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvLabels, "")
	work := t.TempDir()
	t.Chdir(work)
	// Clear so godotenv can populate it; t.Setenv restores afterwards.
	os.Unsetenv(config.EnvLabels)
	if err := os.WriteFile(filepath.Join(work, ".env"), []byte(config.EnvLabels+"=/data/labels.csv\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Labels.Path != "/data/labels.csv" {
		t.Fatalf("expected labels from .env, got %q", cfg.Labels.Path)
	}
}

func TestRequireLabelsMissing(t *testing.T) {
	cfg := config.Default()
	if err := cfg.RequireLabels(); err == nil {
		t.Fatal("expected error when labels path is empty")
	}
	if err := cfg.RequireRawAudio(); err == nil {
		t.Fatal("expected error when raw audio dir is empty")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"sample rate", func(c *config.Config) { c.Extract.SampleRate = 0 }, "extract.sample_rate"},
		{"same folders", func(c *config.Config) { c.Extract.CleanFolder = c.Extract.StutterFolder }, "must differ"},
		{"nested folder", func(c *config.Config) { c.Extract.StutterFolder = "a/b" }, "single directory"},
		{"top db", func(c *config.Config) { c.Trim.TopDB = 0 }, "trim.top_db"},
		{"hop", func(c *config.Config) { c.Trim.HopLength = 4096 }, "trim.hop_length"},
		{"target", func(c *config.Config) { c.Normalize.TargetRMS = 2 }, "normalize.target_rms"},
		{"epsilon", func(c *config.Config) { c.Normalize.Epsilon = 0 }, "normalize.epsilon"},
		{"format", func(c *config.Config) { c.Manifest.Format = "parquet" }, "manifest.format"},
		{"duplicate folder", func(c *config.Config) {
			c.Manifest.Folders = append(c.Manifest.Folders, config.LabelFolder{Name: "clean_audio"})
		}, "duplicate"},
		{"level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadInvalidConfigIsConfigurationError(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[trim]\ntop_db = -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if !errors.Is(err, pipeline.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[trim]\ntop_dbb = 20\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestSampleConfigLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Manifest.Format != config.ManifestFormatPaths {
		t.Fatalf("unexpected manifest format %q", cfg.Manifest.Format)
	}
	if len(cfg.Manifest.Folders) != 2 {
		t.Fatalf("expected 2 folders from sample, got %d", len(cfg.Manifest.Folders))
	}
}

func TestExtractFolder(t *testing.T) {
	cfg := config.Default()
	if cfg.ExtractFolder(false) != "stutter_audio" {
		t.Fatalf("unexpected stutter folder %q", cfg.ExtractFolder(false))
	}
	if cfg.ExtractFolder(true) != "clean_audio" {
		t.Fatalf("unexpected clean folder %q", cfg.ExtractFolder(true))
	}
}
