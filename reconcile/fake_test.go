package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/acksell/assetsync/asset"
	"github.com/google/uuid"
)

type fakeRow struct {
	asset asset.Asset
	etag  asset.ETag
}

// fakeRepo is an in-memory Repository. The before hooks run before the
// operation takes effect and may call store to simulate other writers.
type fakeRepo struct {
	mu   sync.Mutex
	rows map[asset.Key]fakeRow
	seq  int

	getErr       error
	beforeInsert func()
	beforeUpdate func()

	gets, inserts, updates int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[asset.Key]fakeRow)}
}

var _ Repository = (*fakeRepo)(nil)

// store writes a unconditionally, as another process would.
func (f *fakeRepo) store(a asset.Asset) asset.ETag {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.storeLocked(a)
}

func (f *fakeRepo) storeLocked(a asset.Asset) asset.ETag {
	f.seq++
	etag := asset.ETag(fmt.Sprintf("etag-%d", f.seq))
	a.Properties = a.Properties.Clone()
	f.rows[a.Key()] = fakeRow{asset: a, etag: etag}
	return etag
}

func (f *fakeRepo) remove(k asset.Key) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, k)
}

func (f *fakeRepo) stored(k asset.Key) (asset.Asset, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[k]
	return row.asset, ok
}

func (f *fakeRepo) Get(_ context.Context, accountID int32, assetID uuid.UUID) (*asset.Asset, asset.ETag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, "", f.getErr
	}
	row, ok := f.rows[asset.Key{AccountID: accountID, AssetID: assetID}]
	if !ok {
		return nil, "", nil
	}
	a := row.asset
	a.Properties = a.Properties.Clone()
	return &a, row.etag, nil
}

func (f *fakeRepo) Insert(_ context.Context, a asset.Asset) (asset.ETag, error) {
	if f.beforeInsert != nil {
		f.beforeInsert()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if _, ok := f.rows[a.Key()]; ok {
		return "", asset.ErrAlreadyExists
	}
	return f.storeLocked(a), nil
}

func (f *fakeRepo) Update(_ context.Context, a asset.Asset, expected asset.ETag) (asset.ETag, error) {
	if f.beforeUpdate != nil {
		f.beforeUpdate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	row, ok := f.rows[a.Key()]
	if !ok || row.etag != expected {
		return "", asset.ErrConcurrencyConflict
	}
	return f.storeLocked(a), nil
}
