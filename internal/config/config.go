package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"stutterprep/internal/cliptree"
	"stutterprep/internal/pipeline"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directory roots each stage reads and writes.
type Paths struct {
	RawAudioDir   string `toml:"raw_audio_dir"`
	ClipsDir      string `toml:"clips_dir"`
	TrimmedDir    string `toml:"trimmed_dir"`
	NormalizedDir string `toml:"normalized_dir"`
	ManifestPath  string `toml:"manifest_path"`
	StateDir      string `toml:"state_dir"`
	LogDir        string `toml:"log_dir"`
}

// Labels points at the clip label table.
type Labels struct {
	Path      string `toml:"path"`
	CleanOnly bool   `toml:"clean_only"`
}

// Extract contains clip extraction settings.
type Extract struct {
	SampleRate    int    `toml:"sample_rate"`
	StutterFolder string `toml:"stutter_folder"`
	CleanFolder   string `toml:"clean_folder"`
}

// Trim contains silence trimming settings.
type Trim struct {
	TopDB              float64 `toml:"top_db"`
	MinDurationSeconds float64 `toml:"min_duration_seconds"`
	FrameLength        int     `toml:"frame_length"`
	HopLength          int     `toml:"hop_length"`
}

// Normalize contains loudness normalization settings.
type Normalize struct {
	TargetRMS float64 `toml:"target_rms"`
	Epsilon   float64 `toml:"epsilon"`
}

// LabelFolder maps a top-level clip folder to its class label.
type LabelFolder struct {
	Name  string `toml:"name"`
	Label int    `toml:"label"`
}

// Manifest contains dataset manifest settings.
type Manifest struct {
	MinDurationSeconds float64       `toml:"min_duration_seconds"`
	Format             string        `toml:"format"`
	Folders            []LabelFolder `toml:"folders"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for stutterprep.
//
// Configuration sections by subsystem:
//   - Paths: input, intermediate, and output roots plus state/log directories
//   - Labels: label table location and clean-speech filter
//   - Extract: expected sample rate and extraction target folders
//   - Trim: silence trimming thresholds and framing
//   - Normalize: loudness target
//   - Manifest: dataset manifest variant, label folders, and minimum duration
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Labels    Labels    `toml:"labels"`
	Extract   Extract   `toml:"extract"`
	Trim      Trim      `toml:"trim"`
	Normalize Normalize `toml:"normalize"`
	Manifest  Manifest  `toml:"manifest"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/stutterprep/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Errors carry pipeline.ErrConfiguration.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, configError("resolve path", err)
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, configError("open config", err)
		}
		defer file.Close()

		// Array tables append to existing slices, so defaults are restored in normalize.
		cfg.Manifest.Folders = nil
		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, configError("parse config", err)
		}
	}

	if err := loadDotEnv(resolvedPath, exists); err != nil {
		return nil, "", false, configError("load .env", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, configError("normalize", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, configError("validate", err)
	}

	return &cfg, resolvedPath, exists, nil
}

func configError(op string, err error) error {
	return pipeline.Wrap(pipeline.ErrConfiguration, "config", op, "", err)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("stutterprep.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// loadDotEnv loads .env from the working directory and, when a config file
// was found, from the config file's directory. Existing environment variables
// are never overridden.
func loadDotEnv(configPath string, exists bool) error {
	candidates := []string{".env"}
	if exists && configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("%s: %w", abs, err)
		}
	}
	return nil
}

// EnsureDirectories creates the state directory and, when configured, the log directory.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the location of the run ledger database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// LabelFolders returns the configured label folders in traversal order.
func (c *Config) LabelFolders() []cliptree.Folder {
	folders := make([]cliptree.Folder, 0, len(c.Manifest.Folders))
	for _, f := range c.Manifest.Folders {
		folders = append(folders, cliptree.Folder{Name: f.Name, Label: f.Label})
	}
	return folders
}

// ExtractFolder returns the folder that extraction writes into for the given
// filter mode.
func (c *Config) ExtractFolder(cleanOnly bool) string {
	if cleanOnly {
		return c.Extract.CleanFolder
	}
	return c.Extract.StutterFolder
}

// ExtractOutputDir returns the clip directory extraction writes to.
func (c *Config) ExtractOutputDir(cleanOnly bool) string {
	return filepath.Join(c.Paths.ClipsDir, c.ExtractFolder(cleanOnly))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
