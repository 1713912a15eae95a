package main

import (
	"context"
	"os"
	"time"

	"github.com/acksell/assetsync/ingest"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		debounce time.Duration
		confirm  bool
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Reconcile every JSON file written to a directory",
		Long: `Watches a directory and reconciles each .json file that is created or
written, in the format accepted by ingest. Unwrapped records are observed
at the time the file is picked up. Runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ingest.Watch(cmd.Context(), args[0], debounce, a.log, func(ctx context.Context, path string) error {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()

				observations, err := ingest.ReadObservations(f, time.Now().UTC())
				if err != nil {
					return err
				}
				a.log.Info("Ingesting file", zap.String("path", path), zap.Int("observations", len(observations)))
				return a.run(cmd, observations, confirm)
			})
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", ingest.DefaultDebounce, "quiet period before changed files are read")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "read every asset back after reconciling it")
	return cmd
}
