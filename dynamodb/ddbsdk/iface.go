package ddbsdk

import (
	"context"

	"github.com/acksell/assetsync/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type IO interface {
	Writer
	Reader
}

type Writer interface {
	PutItem(context.Context, PutItemAction) error
}

type Reader interface {
	NewQuery(table.TableDefinition, KeyCondition, ...QueryOption) Querier
	NewLookup(...GetOption) Getter
}

type Querier interface {
	Next(context.Context) (*QueryResult, error)
	QueryAll(context.Context) (*QueryResult, error)
}

// ConsistentReads are enabled by default.
// To use EventuallyConsistent reads, add the WithEventualConsistency option.
type Getter interface {
	// GetItem retrieves a single item. A missing item is returned as nil
	// without error.
	GetItem(context.Context, GetItemRequest) (Item, error)
}

// Item represents a raw DynamoDB item as returned from Get operations.
type Item = map[string]types.AttributeValue
