package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnv()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExtract()
	c.normalizeManifest()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnv() {
	if strings.TrimSpace(c.Labels.Path) == "" {
		if value, ok := os.LookupEnv(EnvLabels); ok {
			c.Labels.Path = value
		}
	}
	if strings.TrimSpace(c.Paths.RawAudioDir) == "" {
		if value, ok := os.LookupEnv(EnvRawDir); ok {
			c.Paths.RawAudioDir = value
		}
	}
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"paths.raw_audio_dir", &c.Paths.RawAudioDir},
		{"paths.clips_dir", &c.Paths.ClipsDir},
		{"paths.trimmed_dir", &c.Paths.TrimmedDir},
		{"paths.normalized_dir", &c.Paths.NormalizedDir},
		{"paths.manifest_path", &c.Paths.ManifestPath},
		{"paths.state_dir", &c.Paths.StateDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"labels.path", &c.Labels.Path},
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	if c.Paths.StateDir == "" {
		expanded, err := expandPath(defaultStateDir)
		if err != nil {
			return fmt.Errorf("paths.state_dir: %w", err)
		}
		c.Paths.StateDir = expanded
	}
	return nil
}

func (c *Config) normalizeExtract() {
	c.Extract.StutterFolder = strings.TrimSpace(c.Extract.StutterFolder)
	if c.Extract.StutterFolder == "" {
		c.Extract.StutterFolder = defaultStutterFolder
	}
	c.Extract.CleanFolder = strings.TrimSpace(c.Extract.CleanFolder)
	if c.Extract.CleanFolder == "" {
		c.Extract.CleanFolder = defaultCleanFolder
	}
}

func (c *Config) normalizeManifest() {
	c.Manifest.Format = strings.ToLower(strings.TrimSpace(c.Manifest.Format))
	if c.Manifest.Format == "" {
		c.Manifest.Format = defaultManifestFormat
	}
	for i := range c.Manifest.Folders {
		c.Manifest.Folders[i].Name = strings.TrimSpace(c.Manifest.Folders[i].Name)
	}
	if len(c.Manifest.Folders) == 0 {
		c.Manifest.Folders = defaultFolders()
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
