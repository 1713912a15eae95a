package main

import (
	"github.com/acksell/assetsync/ingest"

	"github.com/spf13/cobra"
)

func newDemoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Reconcile the sample observations and show the stored results",
		Long: `Reconciles A1 and B1 observed on 2023-03-01 and then an older
observation of B1 from 2023-02-01, which is discarded. Each asset is read
back after reconciling it.

Runs against an in-memory store unless --persist is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, ingest.SampleObservations(), true)
		},
	}
	cmd.Flags().Bool("persist", false, "use the configured store instead of an in-memory one")
	return cmd
}
