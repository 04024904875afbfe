package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"stutterprep/internal/cleaning"
	"stutterprep/internal/config"
	"stutterprep/internal/pipeline"
	"stutterprep/internal/stage"
	"stutterprep/internal/stageexec"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var cleanOnly bool
	var outRoot string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Cut labeled clips out of raw episodes",
		Long: `Reads the label table, matches each row's show to a directory under the raw
audio root and writes <clips>/<folder>/<show>/<episode>/<show>_<episode>_<clip>.wav.
With --clean-only only rows whose five disfluency flags are all zero are kept
and the clips go to the clean folder.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := requireExtractInputs(cfg); err != nil {
				return err
			}
			if outRoot != "" {
				cfg.Paths.ClipsDir = outRoot
			}
			h := stage.NewExtract(cfg, cleanOnly || cfg.Labels.CleanOnly, nil)
			return runStages(cmd, ctx, h)
		},
	}
	cmd.Flags().BoolVar(&cleanOnly, "clean-only", false, "Keep only rows without disfluency flags")
	cmd.Flags().StringVar(&outRoot, "out", "", "Clip root (overrides paths.clips_dir)")
	return cmd
}

func newCleaningCommands(ctx *commandContext) []*cobra.Command {
	entries := []struct {
		mode  cleaning.Mode
		short string
	}{
		{cleaning.ModeTrim, "Strip leading and trailing silence from clips"},
		{cleaning.ModeNormalize, "Rescale clips to the target RMS level"},
		{cleaning.ModeClean, "Trim and normalize clips in a single pass"},
	}
	cmds := make([]*cobra.Command, 0, len(entries))
	for _, entry := range entries {
		var in, out string
		cmd := &cobra.Command{
			Use:   string(entry.mode),
			Short: entry.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				return runStages(cmd, ctx, stage.NewCleaning(cfg, entry.mode, in, out, nil))
			},
		}
		cmd.Flags().StringVar(&in, "in", "", "Input clip root")
		cmd.Flags().StringVar(&out, "out", "", "Output clip root (may equal --in)")
		cmds = append(cmds, cmd)
	}
	return cmds
}

func newManifestCommand(ctx *commandContext) *cobra.Command {
	var in, out, format string

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Write the training dataset table",
		Long: `Walks <in>/<folder>/<show>/<episode>/*.wav for every configured label folder
and writes one row per clip. The paths format writes path,label,duration; the
folds format writes file_name,fold1,fold2,fold3,start,end,stutter and needs
the label table for start and end.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runStages(cmd, ctx, stage.NewManifest(cfg, in, out, format, nil))
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "Clip root to index (default paths.normalized_dir)")
	cmd.Flags().StringVar(&out, "out", "", "Manifest file (default paths.manifest_path)")
	cmd.Flags().StringVar(&format, "format", "", "Manifest format: paths or folds")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var cleanOnly, singlePass bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run extract, trim, normalize and manifest in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := requireExtractInputs(cfg); err != nil {
				return err
			}
			handlers := []stage.Handler{stage.NewExtract(cfg, cleanOnly || cfg.Labels.CleanOnly, nil)}
			if singlePass {
				handlers = append(handlers, stage.NewCleaning(cfg, cleaning.ModeClean, "", "", nil))
			} else {
				handlers = append(handlers,
					stage.NewCleaning(cfg, cleaning.ModeTrim, "", "", nil),
					stage.NewCleaning(cfg, cleaning.ModeNormalize, "", "", nil),
				)
			}
			handlers = append(handlers, stage.NewManifest(cfg, "", "", "", nil))
			return runStages(cmd, ctx, handlers...)
		},
	}
	cmd.Flags().BoolVar(&cleanOnly, "clean-only", false, "Extract only rows without disfluency flags")
	cmd.Flags().BoolVar(&singlePass, "single-pass", false, "Use the clean stage instead of separate trim and normalize")
	return cmd
}

func requireExtractInputs(cfg *config.Config) error {
	if err := cfg.RequireLabels(); err != nil {
		return pipeline.Wrap(pipeline.ErrConfiguration, "extract", "labels", "", err)
	}
	if err := cfg.RequireRawAudio(); err != nil {
		return pipeline.Wrap(pipeline.ErrConfiguration, "extract", "raw audio", "", err)
	}
	return nil
}

// runStages executes handlers in order, printing a summary after each one.
// It stops at the first stage error.
func runStages(cmd *cobra.Command, ctx *commandContext, handlers ...stage.Handler) error {
	defer ctx.close()

	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	store, err := ctx.ledger()
	if err != nil {
		return err
	}
	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}

	out := cmd.OutOrStdout()
	var summaries []pipeline.Summary
	for _, h := range handlers {
		if aware, ok := h.(stage.ProgressAware); ok {
			aware.SetProgress(ctx.reporter(logger))
		}
		res, err := stageexec.Run(runCtx, stageexec.Options{Logger: logger, Ledger: store, Handler: h})
		summaries = append(summaries, res.Summary)
		if err != nil {
			fmt.Fprintln(out, renderSummaries(summaries))
			return err
		}
	}
	fmt.Fprintln(out, renderSummaries(summaries))
	if len(summaries) == 1 {
		if reasons := renderReasons(summaries[0]); reasons != "" {
			fmt.Fprintln(out, reasons)
		}
	}
	return nil
}
