package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExtract(); err != nil {
		return err
	}
	if err := c.validateTrim(); err != nil {
		return err
	}
	if err := c.validateNormalize(); err != nil {
		return err
	}
	if err := c.validateManifest(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequireLabels reports an error when no label table is configured.
func (c *Config) RequireLabels() error {
	if strings.TrimSpace(c.Labels.Path) == "" {
		return fmt.Errorf("labels.path is required. Set %s, pass --labels, or edit the config file (create with 'stutterprep config init')", EnvLabels)
	}
	return nil
}

// RequireRawAudio reports an error when no raw audio root is configured.
func (c *Config) RequireRawAudio() error {
	if strings.TrimSpace(c.Paths.RawAudioDir) == "" {
		return fmt.Errorf("paths.raw_audio_dir is required. Set %s, pass --wavs, or edit the config file", EnvRawDir)
	}
	return nil
}

func (c *Config) validateExtract() error {
	if c.Extract.SampleRate <= 0 {
		return errors.New("extract.sample_rate must be positive")
	}
	for name, folder := range map[string]string{
		"extract.stutter_folder": c.Extract.StutterFolder,
		"extract.clean_folder":   c.Extract.CleanFolder,
	} {
		if err := validateFolderName(name, folder); err != nil {
			return err
		}
	}
	if c.Extract.StutterFolder == c.Extract.CleanFolder {
		return errors.New("extract.stutter_folder and extract.clean_folder must differ")
	}
	return nil
}

func (c *Config) validateTrim() error {
	if c.Trim.TopDB <= 0 {
		return errors.New("trim.top_db must be positive")
	}
	if c.Trim.MinDurationSeconds < 0 {
		return errors.New("trim.min_duration_seconds must not be negative")
	}
	if c.Trim.FrameLength <= 0 {
		return errors.New("trim.frame_length must be positive")
	}
	if c.Trim.HopLength <= 0 {
		return errors.New("trim.hop_length must be positive")
	}
	if c.Trim.HopLength > c.Trim.FrameLength {
		return errors.New("trim.hop_length must not exceed trim.frame_length")
	}
	return nil
}

func (c *Config) validateNormalize() error {
	if c.Normalize.TargetRMS <= 0 || c.Normalize.TargetRMS > 1 {
		return errors.New("normalize.target_rms must be in (0, 1]")
	}
	if c.Normalize.Epsilon <= 0 {
		return errors.New("normalize.epsilon must be positive")
	}
	return nil
}

func (c *Config) validateManifest() error {
	switch c.Manifest.Format {
	case ManifestFormatPaths, ManifestFormatFolds:
	default:
		return fmt.Errorf("manifest.format must be %q or %q, got %q", ManifestFormatPaths, ManifestFormatFolds, c.Manifest.Format)
	}
	if c.Manifest.MinDurationSeconds < 0 {
		return errors.New("manifest.min_duration_seconds must not be negative")
	}
	seen := make(map[string]struct{}, len(c.Manifest.Folders))
	for i, folder := range c.Manifest.Folders {
		if err := validateFolderName(fmt.Sprintf("manifest.folders[%d].name", i), folder.Name); err != nil {
			return err
		}
		if _, dup := seen[folder.Name]; dup {
			return fmt.Errorf("manifest.folders: duplicate folder %q", folder.Name)
		}
		seen[folder.Name] = struct{}{}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func validateFolderName(field, name string) error {
	if name == "" {
		return fmt.Errorf("%s must be set", field)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%s must be a single directory name, got %q", field, name)
	}
	return nil
}
