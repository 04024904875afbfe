package config

const (
	defaultClipsDir           = "~/stutterprep/clips"
	defaultTrimmedDir         = "~/stutterprep/trimmed_audio"
	defaultNormalizedDir      = "~/stutterprep/normalized_audio"
	defaultManifestPath       = "~/stutterprep/train_dataset.csv"
	defaultStateDir           = "~/.local/share/stutterprep"
	defaultSampleRate         = 16000
	defaultStutterFolder      = "stutter_audio"
	defaultCleanFolder        = "clean_audio"
	defaultTopDB              = 30.0
	defaultTrimMinDuration    = 0.1
	defaultFrameLength        = 2048
	defaultHopLength          = 512
	defaultTargetRMS          = 0.05
	defaultEpsilon            = 1e-8
	defaultManifestMinSeconds = 0.2
	defaultManifestFormat     = ManifestFormatPaths
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Manifest output variants.
const (
	ManifestFormatPaths = "paths"
	ManifestFormatFolds = "folds"
)

// Environment fallbacks.
const (
	EnvLabels = "STUTTERPREP_LABELS"
	EnvRawDir = "STUTTERPREP_RAW_DIR"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ClipsDir:      defaultClipsDir,
			TrimmedDir:    defaultTrimmedDir,
			NormalizedDir: defaultNormalizedDir,
			ManifestPath:  defaultManifestPath,
			StateDir:      defaultStateDir,
		},
		Extract: Extract{
			SampleRate:    defaultSampleRate,
			StutterFolder: defaultStutterFolder,
			CleanFolder:   defaultCleanFolder,
		},
		Trim: Trim{
			TopDB:              defaultTopDB,
			MinDurationSeconds: defaultTrimMinDuration,
			FrameLength:        defaultFrameLength,
			HopLength:          defaultHopLength,
		},
		Normalize: Normalize{
			TargetRMS: defaultTargetRMS,
			Epsilon:   defaultEpsilon,
		},
		Manifest: Manifest{
			MinDurationSeconds: defaultManifestMinSeconds,
			Format:             defaultManifestFormat,
			Folders:            defaultFolders(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultFolders() []LabelFolder {
	return []LabelFolder{
		{Name: defaultCleanFolder, Label: 0},
		{Name: defaultStutterFolder, Label: 1},
	}
}
