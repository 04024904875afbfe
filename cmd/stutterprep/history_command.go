package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stutterprep/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or the skipped items of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			store, err := ctx.ledger()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded yet")
					return nil
				}
				fmt.Fprintln(out, renderRuns(runs, time.Now()))
				return nil
			}

			run, err := findRun(cmd, store, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderRuns([]ledger.Run{*run}, time.Now()))
			if run.ErrorMessage != "" {
				fmt.Fprintf(out, "Error: %s\n", run.ErrorMessage)
			}
			skips, err := store.Skips(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			if len(skips) == 0 {
				fmt.Fprintln(out, "No skipped items")
				return nil
			}
			total := len(skips)
			if limit > 0 && total > limit {
				skips = skips[:limit]
			}
			fmt.Fprintln(out, renderSkips(skips))
			if len(skips) < total {
				fmt.Fprintf(out, "Showing %d of %d skipped items (raise --limit to see more)\n", len(skips), total)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows to show (0 for all)")
	return cmd
}

// findRun resolves a full run id or a unique prefix of one.
func findRun(cmd *cobra.Command, store *ledger.Store, id string) (*ledger.Run, error) {
	id = strings.TrimSpace(id)
	if run, err := store.GetRun(cmd.Context(), id); err == nil {
		return run, nil
	}
	runs, err := store.ListRuns(cmd.Context(), 0)
	if err != nil {
		return nil, err
	}
	var matches []ledger.Run
	for _, r := range runs {
		if strings.HasPrefix(r.ID, id) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ledger.ErrRunNotFound, id)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q matches %d runs", id, len(matches))
	}
}
