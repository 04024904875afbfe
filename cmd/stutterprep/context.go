package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"stutterprep/internal/config"
	"stutterprep/internal/ledger"
	"stutterprep/internal/logging"
	"stutterprep/internal/pipeline"
	"stutterprep/internal/progress"
)

type globalFlags struct {
	config   string
	labels   string
	wavs     string
	progress bool
	logLevel string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	store *ledger.Store
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if err := c.applyOverrides(cfg); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = pipeline.Wrap(pipeline.ErrConfiguration, "config", "ensure directories", "", err)
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) applyOverrides(cfg *config.Config) error {
	if v := strings.TrimSpace(c.flags.labels); v != "" {
		expanded, err := config.ExpandPath(v)
		if err != nil {
			return pipeline.Wrap(pipeline.ErrConfiguration, "config", "--labels", v, err)
		}
		cfg.Labels.Path = expanded
	}
	if v := strings.TrimSpace(c.flags.wavs); v != "" {
		expanded, err := config.ExpandPath(v)
		if err != nil {
			return pipeline.Wrap(pipeline.ErrConfiguration, "config", "--wavs", v, err)
		}
		cfg.Paths.RawAudioDir = expanded
	}
	if v := strings.TrimSpace(c.flags.logLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if err := cfg.Validate(); err != nil {
		return pipeline.Wrap(pipeline.ErrConfiguration, "config", "validate", "", err)
	}
	return nil
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) ledger() (*ledger.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		return nil, err
	}
	c.store = store
	return store, nil
}

func (c *commandContext) reporter(logger *slog.Logger) progress.Reporter {
	return progress.New(progress.Options{
		Bar:    c.flags.progress,
		Output: os.Stderr,
		Logger: logger,
	})
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
