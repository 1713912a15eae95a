package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/acksell/assetsync/asset"
	"github.com/acksell/assetsync/dynamodb/assetrepo"
	"github.com/acksell/assetsync/dynamodb/assetrow"
	"github.com/acksell/assetsync/dynamodb/ddbstore"
	"github.com/acksell/assetsync/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *assetrepo.Repository {
	t.Helper()
	store, err := ddbstore.New(ddbstore.StoreOptions{InMemory: true}, assetrow.TableDefinition("assets"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return assetrepo.New(store, "assets")
}

func TestDriver_Sample(t *testing.T) {
	repo := newTestRepo(t)
	var results []Result
	d := NewDriver(repo, WithConfirm(), WithReport(func(r Result) error {
		results = append(results, r)
		return nil
	}))

	sample := SampleObservations()
	sum, err := d.Run(context.Background(), sample)
	require.NoError(t, err)
	assert.Equal(t, Summary{Inserted: 2, Stale: 1}, sum)
	assert.Equal(t, 3, sum.Total())

	require.Len(t, results, 3)
	assert.Equal(t, []reconcile.Outcome{reconcile.OutcomeInserted, reconcile.OutcomeInserted, reconcile.OutcomeStale},
		[]reconcile.Outcome{results[0].Outcome, results[1].Outcome, results[2].Outcome})

	// the stale observation leaves B1 as it was observed in March
	require.NotNil(t, results[2].Stored)
	assert.True(t, sample[1].Asset().Equal(*results[2].Stored))
	assert.NotContains(t, results[2].Stored.Properties, "udef_OldProp")
}

func TestDriver_NoConfirm(t *testing.T) {
	var stored []*asset.Asset
	d := NewDriver(newTestRepo(t), WithReport(func(r Result) error {
		stored = append(stored, r.Stored)
		return nil
	}))
	_, err := d.Run(context.Background(), SampleObservations()[:1])
	require.NoError(t, err)
	assert.Equal(t, []*asset.Asset{nil}, stored)
}

func TestDriver_StopsOnReportError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	d := NewDriver(newTestRepo(t), WithReport(func(Result) error {
		calls++
		return stop
	}))
	sum, err := d.Run(context.Background(), SampleObservations())
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, sum.Inserted)
}

func TestDriver_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := NewDriver(newTestRepo(t)).Run(ctx, SampleObservations())
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sum.Total())
}
