package ddbstore

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/acksell/assetsync/dynamodb/ddbstore/condexpr"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

// Query returns the items matching the key condition, in sort key order.
// The table is scanned and every item is tested against the key condition,
// which is adequate for the local data sets this store is meant for.
// Limit and ExclusiveStartKey paginate like DynamoDB: Limit counts items
// examined before the filter expression is applied.
func (s *Store) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	if params.KeyConditionExpression == nil {
		return nil, fmt.Errorf("key condition expression is required")
	}
	if params.IndexName != nil {
		return nil, fmt.Errorf("secondary indexes are not supported")
	}
	if params.ProjectionExpression != nil {
		return nil, fmt.Errorf("projection expressions are not supported")
	}

	def, err := s.getTable(params.TableName)
	if err != nil {
		return nil, err
	}
	keyCond, err := condexpr.Parse(*params.KeyConditionExpression)
	if err != nil {
		return nil, fmt.Errorf("parse key condition expression: %w", err)
	}
	var filter condexpr.Expr
	if params.FilterExpression != nil {
		filter, err = condexpr.Parse(*params.FilterExpression)
		if err != nil {
			return nil, fmt.Errorf("parse filter expression: %w", err)
		}
	}
	input := condexpr.EvalInput{
		ExpressionNames:  params.ExpressionAttributeNames,
		ExpressionValues: params.ExpressionAttributeValues,
	}

	var startAfter []byte
	if params.ExclusiveStartKey != nil {
		startAfter, err = lookupKey(def, params.ExclusiveStartKey)
		if err != nil {
			return nil, fmt.Errorf("exclusive start key: %w", err)
		}
	}
	forward := params.ScanIndexForward == nil || *params.ScanIndexForward
	limit := int(aws.ToInt32(params.Limit))

	type match struct {
		key  []byte
		item map[string]types.AttributeValue
	}
	var matches []match
	err = s.db.View(func(txn *badger.Txn) error {
		prefix := tablePrefix(def.Name)
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var item map[string]types.AttributeValue
			err := it.Item().Value(func(val []byte) error {
				var err error
				item, err = deserializeItem(val)
				return err
			})
			if err != nil {
				return err
			}
			ok, err := condexpr.Match(keyCond, input, item)
			if err != nil {
				return fmt.Errorf("evaluate key condition: %w", err)
			}
			if ok {
				matches = append(matches, match{key: it.Item().KeyCopy(nil), item: item})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !forward {
		slices.Reverse(matches)
	}
	if startAfter != nil {
		for i, m := range matches {
			if bytes.Equal(m.key, startAfter) {
				matches = matches[i+1:]
				break
			}
		}
	}

	out := &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{}}
	for i, m := range matches {
		if limit > 0 && i == limit {
			out.LastEvaluatedKey = keyAttributes(def, matches[i-1].item)
			break
		}
		out.ScannedCount++
		if filter != nil {
			ok, err := condexpr.Match(filter, input, m.item)
			if err != nil {
				return nil, fmt.Errorf("evaluate filter expression: %w", err)
			}
			if !ok {
				continue
			}
		}
		out.Items = append(out.Items, m.item)
	}
	out.Count = int32(len(out.Items))
	return out, nil
}
