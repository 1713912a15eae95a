package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/acksell/assetsync/ingest"

	"github.com/spf13/cobra"
)

func newIngestCmd(a *app) *cobra.Command {
	var (
		eventTime string
		confirm   bool
	)
	cmd := &cobra.Command{
		Use:   "ingest [file|-]",
		Short: "Reconcile observations read from a JSON file or stdin",
		Long: `Reads a JSON array or a stream of asset records:

  {"assetId": "...", "assetName": "...", "accountId": 2, "properties": {...}}

Records are observed at --event-time unless they carry their own
"eventTime", either as a top-level field or wrapped as
{"eventTime": "2023-03-01T00:00:00Z", "asset": {...}}.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now().UTC()
			if eventTime != "" {
				t, err := time.Parse(time.RFC3339Nano, eventTime)
				if err != nil {
					return fmt.Errorf("--event-time: %w", err)
				}
				at = t
			}

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			observations, err := ingest.ReadObservations(in, at)
			if err != nil {
				return err
			}
			return a.run(cmd, observations, confirm)
		},
	}
	cmd.Flags().StringVar(&eventTime, "event-time", "", "RFC 3339 observation time for unwrapped records (default now)")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "read every asset back after reconciling it")
	return cmd
}

// run reconciles observations and prints one result per observation
// followed by the summary.
func (a *app) run(cmd *cobra.Command, observations []ingest.Observation, confirm bool) error {
	view := runView{Results: []resultView{}}
	opts := []ingest.Option{
		ingest.WithLogger(a.log),
		ingest.WithReport(func(r ingest.Result) error {
			view.Results = append(view.Results, newResultView(r))
			return nil
		}),
	}
	if confirm {
		opts = append(opts, ingest.WithConfirm())
	}

	sum, err := ingest.NewDriver(a.repo, opts...).Run(cmd.Context(), observations)
	view.Summary = sum
	if perr := a.print(view); perr != nil && err == nil {
		err = perr
	}
	return err
}
