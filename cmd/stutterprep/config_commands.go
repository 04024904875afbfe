package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"stutterprep/internal/cleaning"
	"stutterprep/internal/config"
	"stutterprep/internal/pipeline"
	"stutterprep/internal/stage"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintf(out, "Set labels.path and paths.raw_audio_dir (or export %s and %s) before running extract.\n",
				config.EnvLabels, config.EnvRawDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and check stage inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if _, statErr := os.Stat(ctx.configPath); statErr != nil {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, "Configuration valid")
			fmt.Fprintln(out)

			handlers := []stage.Handler{
				stage.NewExtract(cfg, cfg.Labels.CleanOnly, nil),
				stage.NewCleaning(cfg, cleaning.ModeTrim, "", "", nil),
				stage.NewCleaning(cfg, cleaning.ModeNormalize, "", "", nil),
				stage.NewCleaning(cfg, cleaning.ModeClean, "", "", nil),
				stage.NewManifest(cfg, "", "", "", nil),
			}
			for _, line := range renderSectionHeader("Stage inputs", colorize) {
				fmt.Fprintln(out, line)
			}
			var unready []string
			for _, h := range handlers {
				health := stage.Check(h)
				if health.Ready {
					fmt.Fprintln(out, renderStatusLine(health.Name, statusOK, "ready", colorize))
					continue
				}
				unready = append(unready, health.Name)
				fmt.Fprintln(out, renderStatusLine(health.Name, statusError, health.Detail, colorize))
			}
			if strict && len(unready) > 0 {
				return pipeline.Wrap(pipeline.ErrConfiguration, "config", "validate",
					"stages not ready: "+strings.Join(unready, ", "), nil)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any stage is missing its inputs")
	return cmd
}
