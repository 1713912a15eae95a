package ddbstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/acksell/assetsync/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

// GetItem retrieves a single item by its primary key. Like DynamoDB, a
// missing item yields an output with a nil Item and no error.
func (s *Store) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	if params.Key == nil {
		return nil, fmt.Errorf("key is required")
	}
	if params.ProjectionExpression != nil {
		return nil, fmt.Errorf("projection expressions are not supported")
	}

	def, err := s.getTable(params.TableName)
	if err != nil {
		return nil, err
	}
	key, err := lookupKey(def, params.Key)
	if err != nil {
		return nil, err
	}

	var item map[string]types.AttributeValue
	err = s.db.View(func(txn *badger.Txn) error {
		item, err = readItem(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

// lookupKey validates that key holds exactly the table's key attributes
// and encodes it.
func lookupKey(def table.TableDefinition, key map[string]types.AttributeValue) ([]byte, error) {
	pk, err := def.ExtractPrimaryKey(key)
	if err != nil {
		return nil, fmt.Errorf("extract primary key: %w", err)
	}
	want := 1
	if def.KeyDefinitions.SortKey.Name != "" {
		want = 2
	}
	if len(key) != want {
		return nil, fmt.Errorf("the provided key element does not match the schema of table %q", def.Name)
	}
	return encodeItemKey(def, pk)
}

// readItem returns nil when the key is absent.
func readItem(txn *badger.Txn, key []byte) (map[string]types.AttributeValue, error) {
	it, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var item map[string]types.AttributeValue
	err = it.Value(func(val []byte) error {
		item, err = deserializeItem(val)
		return err
	})
	return item, err
}
