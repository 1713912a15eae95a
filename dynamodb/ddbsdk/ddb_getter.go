package ddbsdk

import (
	"context"
	"fmt"

	"github.com/acksell/assetsync/dynamodb/ddbiface"
	"github.com/acksell/assetsync/dynamodb/table"

	dynamodbv2 "github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type getter struct {
	awsddb ddbiface.TableAPI

	opts getOpts
}

var _ Getter = &getter{}

type getOpts struct {
	eventuallyConsistent bool
}

type GetOption func(*getOpts)

// WithEventualConsistency trades read-after-write consistency for cheaper reads.
func WithEventualConsistency() GetOption {
	return func(o *getOpts) {
		o.eventuallyConsistent = true
	}
}

func NewGetter(ddb ddbiface.TableAPI, opts ...GetOption) *getter {
	g := &getter{
		awsddb: ddb,
	}
	for _, opt := range opts {
		opt(&g.opts)
	}
	return g
}

// GetItemRequest identifies an item to retrieve.
type GetItemRequest struct {
	Table table.TableDefinition
	Key   table.PrimaryKey
}

// GetItem retrieves a single item from DynamoDB using GetItem.
func (g *getter) GetItem(ctx context.Context, item GetItemRequest) (Item, error) {
	res, err := g.awsddb.GetItem(ctx, &dynamodbv2.GetItemInput{
		TableName:      &item.Table.Name,
		Key:            item.Key.DDB(),
		ConsistentRead: ptr(!g.opts.eventuallyConsistent),
	})
	if err != nil {
		return nil, fmt.Errorf("get item failed: %w", err)
	}

	if res.Item == nil {
		return nil, nil
	}

	return res.Item, nil
}

func ptr[T any](v T) *T {
	return &v
}
