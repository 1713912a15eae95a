package main

import (
	"fmt"
	"io"

	"github.com/acksell/assetsync/dynamodb/assetrepo"
	"github.com/acksell/assetsync/dynamodb/ddbiface"
	"github.com/acksell/assetsync/dynamodb/ddbsdk"
	"github.com/acksell/assetsync/dynamodb/ddbstore"
	"github.com/acksell/assetsync/internal/config"
	"github.com/acksell/assetsync/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what the commands share once setup ran.
type app struct {
	stdout io.Writer
	output string

	cfg  *config.Config
	log  *zap.Logger
	repo *assetrepo.Repository

	closers []func() error
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "assetsync",
		Short: "Reconcile asset observations into DynamoDB",
		Long: `assetsync stores the latest observed version of every asset.

Observations older than, or as old as, the stored version are discarded.
Concurrent writers are resolved with an ETag check on every write.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.output, "output", "o", "json", "output format: json or yaml")

	flags.String("backend", "", "storage backend: badger or dynamodb")
	config.FlagKey(flags, "backend", "store.backend")
	flags.String("db", "", "badger data directory")
	config.FlagKey(flags, "db", "store.path")
	flags.Bool("memory", false, "use an in-memory badger store")
	config.FlagKey(flags, "memory", "store.in_memory")
	flags.String("table", "", "table name")
	config.FlagKey(flags, "table", "store.table")
	flags.String("region", "", "AWS region")
	config.FlagKey(flags, "region", "aws.region")
	flags.String("endpoint", "", "DynamoDB endpoint, e.g. http://localhost:8000")
	config.FlagKey(flags, "endpoint", "aws.endpoint")
	flags.String("log-level", "", "debug, info, warn or error")
	config.FlagKey(flags, "log-level", "log.level")

	root.AddCommand(
		newIngestCmd(a),
		newGetCmd(a),
		newListCmd(a),
		newDemoCmd(a),
		newWatchCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.output != "json" && a.output != "yaml" {
		return fmt.Errorf("unknown output format %q", a.output)
	}

	cfg, err := config.Load(config.Options{Flags: cmd.Root().PersistentFlags()})
	if err != nil {
		return err
	}
	if persistent, _ := cmd.Flags().GetBool("persist"); cmd.Name() == "demo" && !persistent {
		cfg.Store.Backend = config.BackendBadger
		cfg.Store.InMemory = true
	}
	a.cfg = cfg

	a.log, err = logger.New(&cfg.Log)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error {
		_ = a.log.Sync()
		return nil
	})

	api, err := a.openStore(cmd)
	if err != nil {
		return err
	}
	a.repo = assetrepo.New(api, cfg.Store.Table)

	if cfg.Store.CreateTable {
		created, err := a.repo.EnsureTable(cmd.Context(), ddbsdk.DefaultTableWait)
		if err != nil {
			return err
		}
		if created {
			a.log.Info("Created table", zap.String("table", cfg.Store.Table))
		}
	}
	return nil
}

func (a *app) openStore(cmd *cobra.Command) (ddbiface.TableAPI, error) {
	switch a.cfg.Store.Backend {
	case config.BackendDynamoDB:
		client, err := ddbsdk.NewAWSClient(cmd.Context(), ddbsdk.AWSOptions{
			Region:   a.cfg.AWS.Region,
			Profile:  a.cfg.AWS.Profile,
			Endpoint: a.cfg.AWS.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		a.log.Debug("Using DynamoDB", zap.String("region", a.cfg.AWS.Region), zap.String("endpoint", a.cfg.AWS.Endpoint))
		return client, nil
	default:
		store, err := ddbstore.New(ddbstore.StoreOptions{
			Path:     a.cfg.Store.Path,
			InMemory: a.cfg.Store.InMemory,
			Logger:   logger.Badger(a.log),
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		a.log.Debug("Using local store", zap.String("path", a.cfg.Store.Path), zap.Bool("in_memory", a.cfg.Store.InMemory))
		return store, nil
	}
}

// close releases resources in reverse order of acquisition.
func (a *app) close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
