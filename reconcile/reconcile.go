// Package reconcile decides whether an observed asset is inserted, replaces
// the stored version, or is discarded as stale.
//
// Only strictly newer observations replace stored ones; an equal event time
// keeps the stored row. Concurrent writers are resolved by the repository's
// concurrency token, so no locks are taken here.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/acksell/assetsync/asset"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository is the storage the reconciler reads from and writes to.
// assetrepo.Repository implements it.
type Repository interface {
	// Get returns a nil asset when none is stored.
	Get(ctx context.Context, accountID int32, assetID uuid.UUID) (*asset.Asset, asset.ETag, error)
	// Insert fails with asset.ErrAlreadyExists if the row exists.
	Insert(ctx context.Context, a asset.Asset) (asset.ETag, error)
	// Update fails with asset.ErrConcurrencyConflict if the stored token
	// differs from expected.
	Update(ctx context.Context, a asset.Asset, expected asset.ETag) (asset.ETag, error)
}

// Outcome is what happened to one observation.
type Outcome int

const (
	OutcomeNone Outcome = iota
	// OutcomeInserted means no version was stored before.
	OutcomeInserted
	// OutcomeUpdated means the observation replaced an older version.
	OutcomeUpdated
	// OutcomeStale means the stored version is as new or newer; nothing was written.
	OutcomeStale
	// OutcomeLostRace means another writer changed the row between our read
	// and our write. The observation is dropped.
	OutcomeLostRace
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	case OutcomeStale:
		return "stale"
	case OutcomeLostRace:
		return "lost-race"
	default:
		return "none"
	}
}

// Written reports whether the outcome stored the observation.
func (o Outcome) Written() bool {
	return o == OutcomeInserted || o == OutcomeUpdated
}

type Reconciler struct {
	repo Repository
	log  *zap.Logger
}

// New returns a reconciler. A nil logger disables logging.
func New(repo Repository, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{repo: repo, log: log}
}

// Reconcile applies one observation. incoming.EventTime is the time the
// observation was made.
//
// Storage errors are returned unchanged in kind. When an insert collides
// with a concurrent insert, the row is read once more and the observation
// is judged against it; a conflict on that second attempt is returned as
// asset.ErrConcurrencyConflict instead of OutcomeLostRace.
func (r *Reconciler) Reconcile(ctx context.Context, incoming asset.Asset) (Outcome, error) {
	l := r.log.With(
		zap.Stringer("asset", incoming.Key()),
		zap.Time("event_time", incoming.EventTime))

	existing, etag, err := r.repo.Get(ctx, incoming.AccountID, incoming.AssetID)
	if err != nil {
		return OutcomeNone, fmt.Errorf("reconcile %s: %w", incoming.Key(), err)
	}
	if existing != nil {
		return r.replace(ctx, l, incoming, *existing, etag, false)
	}

	_, err = r.repo.Insert(ctx, incoming)
	if err == nil {
		l.Debug("Inserted asset")
		return OutcomeInserted, nil
	}
	if !errors.Is(err, asset.ErrAlreadyExists) {
		return OutcomeNone, fmt.Errorf("reconcile %s: %w", incoming.Key(), err)
	}

	l.Debug("Concurrent insert detected, re-reading")
	existing, etag, err = r.repo.Get(ctx, incoming.AccountID, incoming.AssetID)
	if err != nil {
		return OutcomeNone, fmt.Errorf("reconcile %s: %w", incoming.Key(), err)
	}
	if existing == nil {
		return OutcomeNone, fmt.Errorf("reconcile %s: row vanished after concurrent insert: %w",
			incoming.Key(), asset.ErrConcurrencyConflict)
	}
	return r.replace(ctx, l, incoming, *existing, etag, true)
}

func (r *Reconciler) replace(ctx context.Context, l *zap.Logger, incoming, existing asset.Asset, etag asset.ETag, retry bool) (Outcome, error) {
	if !incoming.NewerThan(existing) {
		l.Debug("Discarded stale observation", zap.Time("stored_event_time", existing.EventTime))
		return OutcomeStale, nil
	}

	_, err := r.repo.Update(ctx, incoming, etag)
	switch {
	case err == nil:
		l.Debug("Updated asset", zap.Time("previous_event_time", existing.EventTime))
		return OutcomeUpdated, nil
	case errors.Is(err, asset.ErrConcurrencyConflict) && !retry:
		l.Debug("Lost update race, observation dropped")
		return OutcomeLostRace, nil
	default:
		return OutcomeNone, fmt.Errorf("reconcile %s: %w", incoming.Key(), err)
	}
}
