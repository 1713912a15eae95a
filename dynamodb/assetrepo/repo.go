// Package assetrepo stores assets in a DynamoDB table, one row per
// (account, asset), guarded by an ETag concurrency token.
package assetrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/acksell/assetsync/asset"
	"github.com/acksell/assetsync/dynamodb/assetrow"
	"github.com/acksell/assetsync/dynamodb/ddbiface"
	"github.com/acksell/assetsync/dynamodb/ddbsdk"
	"github.com/acksell/assetsync/dynamodb/table"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

type Repository struct {
	db    *ddbsdk.Client
	table table.TableDefinition

	newETag  func() asset.ETag
	eventual bool
}

type Option func(*Repository)

// WithETagSource replaces the random token generator.
func WithETagSource(fn func() asset.ETag) Option {
	return func(r *Repository) { r.newETag = fn }
}

func New(api ddbiface.TableAPI, tableName string, opts ...Option) *Repository {
	if tableName == "" {
		tableName = assetrow.DefaultTableName
	}
	r := &Repository{
		db:    ddbsdk.New(api),
		table: assetrow.TableDefinition(tableName),
		newETag: func() asset.ETag {
			return asset.ETag(uuid.NewString())
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Table() table.TableDefinition {
	return r.table
}

// EventuallyConsistent returns a view of the repository whose Get and List
// may miss the most recent writes. Writes are unaffected. Do not hand it
// to a reconciler: a stale read turns a valid update into a lost race.
func (r *Repository) EventuallyConsistent() *Repository {
	c := *r
	c.eventual = true
	return &c
}

// EnsureTable creates the asset table when it does not exist yet.
func (r *Repository) EnsureTable(ctx context.Context, maxWait time.Duration) (bool, error) {
	return ddbsdk.EnsureTable(ctx, r.db.API(), r.table, maxWait)
}

// Get returns the stored asset and its token, or a nil asset when no row
// exists.
func (r *Repository) Get(ctx context.Context, accountID int32, assetID uuid.UUID) (*asset.Asset, asset.ETag, error) {
	var opts []ddbsdk.GetOption
	if r.eventual {
		opts = append(opts, ddbsdk.WithEventualConsistency())
	}
	item, err := r.db.NewLookup(opts...).GetItem(ctx, ddbsdk.GetItemRequest{
		Table: r.table,
		Key:   assetrow.PrimaryKey(accountID, assetID),
	})
	if err != nil {
		return nil, "", fmt.Errorf("get asset %d/%s: %w", accountID, assetID, err)
	}
	if item == nil {
		return nil, "", nil
	}
	a, err := assetrow.Decode(item)
	if err != nil {
		return nil, "", fmt.Errorf("decode asset %d/%s: %w", accountID, assetID, err)
	}
	return &a, assetrow.ETag(item), nil
}

// Insert stores a new row. It fails with asset.ErrAlreadyExists when the
// row is already present.
func (r *Repository) Insert(ctx context.Context, a asset.Asset) (asset.ETag, error) {
	item, etag, err := r.encode(a)
	if err != nil {
		return "", err
	}
	err = r.db.PutItem(ctx, ddbsdk.NewCreate(r.table, assetrow.PrimaryKey(a.AccountID, a.AssetID), item))
	if ddbsdk.IsConditionFailed(err) {
		return "", fmt.Errorf("insert asset %s: %w", a.Key(), asset.ErrAlreadyExists)
	}
	if err != nil {
		return "", fmt.Errorf("insert asset %s: %w", a.Key(), err)
	}
	return etag, nil
}

// Update replaces the row if its token still equals expected, and fails
// with asset.ErrConcurrencyConflict otherwise. An empty expected token
// matches rows written without a token.
func (r *Repository) Update(ctx context.Context, a asset.Asset, expected asset.ETag) (asset.ETag, error) {
	item, etag, err := r.encode(a)
	if err != nil {
		return "", err
	}
	key := assetrow.PrimaryKey(a.AccountID, a.AssetID)
	var put *ddbsdk.Put
	if expected == "" {
		put = ddbsdk.NewUnsafePut(r.table, key, item).WithCondition(
			expression.AttributeExists(expression.Name(assetrow.FieldPartitionKey)).
				And(expression.AttributeNotExists(expression.Name(assetrow.FieldETag))))
	} else {
		put = ddbsdk.NewSafePut(r.table, key, item, assetrow.FieldETag, string(expected))
	}

	err = r.db.PutItem(ctx, put)
	if ddbsdk.IsConditionFailed(err) {
		return "", fmt.Errorf("update asset %s: %w", a.Key(), asset.ErrConcurrencyConflict)
	}
	if err != nil {
		return "", fmt.Errorf("update asset %s: %w", a.Key(), err)
	}
	return etag, nil
}

type listOptions struct {
	pageSize   int
	descending bool
	idPrefix   string
	name       *string
}

type ListOption func(*listOptions)

// ListPageSize sets how many rows each underlying query request reads.
// List still returns every matching asset.
func ListPageSize(n int) ListOption {
	return func(o *listOptions) { o.pageSize = n }
}

// ListDescending orders the result by descending asset id.
func ListDescending() ListOption {
	return func(o *listOptions) { o.descending = true }
}

// ListIDPrefix only returns assets whose id, in canonical lower-case form,
// starts with prefix.
func ListIDPrefix(prefix string) ListOption {
	return func(o *listOptions) { o.idPrefix = strings.ToLower(prefix) }
}

// ListNamed only returns assets with exactly this name.
func ListNamed(name string) ListOption {
	return func(o *listOptions) { o.name = &name }
}

// List returns the assets of an account ordered by asset id.
func (r *Repository) List(ctx context.Context, accountID int32, opts ...ListOption) ([]asset.Asset, error) {
	var lo listOptions
	for _, opt := range opts {
		opt(&lo)
	}

	kc := ddbsdk.NewKeyCondition(assetrow.PartitionValue(accountID))
	if lo.idPrefix != "" {
		kc = kc.WithSortKeyPrefix(lo.idPrefix)
	}
	var qopts []ddbsdk.QueryOption
	if lo.pageSize > 0 {
		qopts = append(qopts, ddbsdk.WithPageSize(lo.pageSize))
	}
	if lo.descending {
		qopts = append(qopts, ddbsdk.WithDescending())
	}
	if lo.name != nil {
		qopts = append(qopts, ddbsdk.WithFilter(
			expression.Equal(expression.Name(assetrow.FieldAssetName), expression.Value(*lo.name))))
	}
	if r.eventual {
		qopts = append(qopts, ddbsdk.WithEventuallyConsistentReads())
	}

	res, err := r.db.NewQuery(r.table, kc, qopts...).QueryAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assets of account %d: %w", accountID, err)
	}
	out := make([]asset.Asset, 0, len(res.Items))
	for _, item := range res.Items {
		a, err := assetrow.Decode(item)
		if err != nil {
			return nil, fmt.Errorf("list assets of account %d: %w", accountID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *Repository) encode(a asset.Asset) (ddbsdk.Item, asset.ETag, error) {
	item, err := assetrow.Encode(a)
	if err != nil {
		return nil, "", fmt.Errorf("encode asset %s: %w", a.Key(), err)
	}
	etag := r.newETag()
	item[assetrow.FieldETag] = &types.AttributeValueMemberS{Value: string(etag)}
	return item, etag, nil
}
