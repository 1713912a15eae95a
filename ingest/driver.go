package ingest

import (
	"context"
	"fmt"

	"github.com/acksell/assetsync/asset"
	"github.com/acksell/assetsync/reconcile"
	"go.uber.org/zap"
)

// Result is reported for every observation the driver processed.
type Result struct {
	Observation Observation
	Outcome     reconcile.Outcome
	// Stored is the row read back after reconciling. Only set when the
	// driver confirms.
	Stored *asset.Asset
}

// Summary counts outcomes of one run.
type Summary struct {
	Inserted int `json:"inserted" yaml:"inserted"`
	Updated  int `json:"updated" yaml:"updated"`
	Stale    int `json:"stale" yaml:"stale"`
	LostRace int `json:"lostRace" yaml:"lostRace"`
}

func (s *Summary) add(o reconcile.Outcome) {
	switch o {
	case reconcile.OutcomeInserted:
		s.Inserted++
	case reconcile.OutcomeUpdated:
		s.Updated++
	case reconcile.OutcomeStale:
		s.Stale++
	case reconcile.OutcomeLostRace:
		s.LostRace++
	}
}

func (s Summary) Total() int {
	return s.Inserted + s.Updated + s.Stale + s.LostRace
}

// Driver feeds observations through a reconciler in order.
type Driver struct {
	reconciler *reconcile.Reconciler
	repo       reconcile.Repository
	log        *zap.Logger

	confirm bool
	report  func(Result) error
}

type Option func(*Driver)

// WithConfirm re-reads every asset after it was reconciled and puts the
// stored version into the Result.
func WithConfirm() Option {
	return func(d *Driver) { d.confirm = true }
}

// WithReport is called after each observation. An error stops the run.
func WithReport(fn func(Result) error) Option {
	return func(d *Driver) { d.report = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) { d.log = l }
}

func NewDriver(repo reconcile.Repository, opts ...Option) *Driver {
	d := &Driver{repo: repo, log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	d.reconciler = reconcile.New(repo, d.log)
	return d
}

// Run reconciles observations one by one and stops at the first error.
// The summary covers the observations processed before it.
func (d *Driver) Run(ctx context.Context, observations []Observation) (Summary, error) {
	var sum Summary
	for i, o := range observations {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		a := o.Asset()
		outcome, err := d.reconciler.Reconcile(ctx, a)
		if err != nil {
			return sum, fmt.Errorf("observation %d (%s): %w", i, a.Key(), err)
		}
		sum.add(outcome)
		d.log.Info("Observation reconciled",
			zap.Stringer("asset", a.Key()),
			zap.Time("event_time", a.EventTime),
			zap.Stringer("outcome", outcome))

		res := Result{Observation: o, Outcome: outcome}
		if d.confirm {
			stored, _, err := d.repo.Get(ctx, a.AccountID, a.AssetID)
			if err != nil {
				return sum, fmt.Errorf("confirm observation %d (%s): %w", i, a.Key(), err)
			}
			res.Stored = stored
		}
		if d.report != nil {
			if err := d.report(res); err != nil {
				return sum, err
			}
		}
	}
	return sum, nil
}
