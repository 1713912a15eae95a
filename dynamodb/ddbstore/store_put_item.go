package ddbstore

import (
	"context"
	"fmt"

	"github.com/acksell/assetsync/dynamodb/ddbstore/condexpr"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

// PutItem creates or replaces an item. The condition expression, if any,
// is evaluated against the current item inside the write transaction.
func (s *Store) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	if params.Item == nil {
		return nil, fmt.Errorf("item is required")
	}

	def, err := s.getTable(params.TableName)
	if err != nil {
		return nil, err
	}
	pk, err := def.ExtractPrimaryKey(params.Item)
	if err != nil {
		return nil, fmt.Errorf("extract primary key: %w", err)
	}
	key, err := encodeItemKey(def, pk)
	if err != nil {
		return nil, fmt.Errorf("encode key: %w", err)
	}
	itemBytes, err := serializeItem(params.Item)
	if err != nil {
		return nil, fmt.Errorf("serialize item: %w", err)
	}

	var cond condexpr.Expr
	if params.ConditionExpression != nil {
		cond, err = condexpr.Parse(*params.ConditionExpression)
		if err != nil {
			return nil, fmt.Errorf("parse condition expression: %w", err)
		}
	}
	input := condexpr.EvalInput{
		ExpressionNames:  params.ExpressionAttributeNames,
		ExpressionValues: params.ExpressionAttributeValues,
	}

	var oldItem map[string]types.AttributeValue
	err = s.update(func(txn *badger.Txn) error {
		oldItem, err = readItem(txn, key)
		if err != nil {
			return err
		}
		if cond != nil {
			ok, err := condexpr.Match(cond, input, oldItem)
			if err != nil {
				return fmt.Errorf("evaluate condition: %w", err)
			}
			if !ok {
				out := &types.ConditionalCheckFailedException{
					Message: ptrStr("The conditional request failed"),
				}
				if params.ReturnValuesOnConditionCheckFailure == types.ReturnValuesOnConditionCheckFailureAllOld {
					out.Item = oldItem
				}
				return out
			}
		}
		return txn.Set(key, itemBytes)
	})
	if err != nil {
		return nil, err
	}

	out := &dynamodb.PutItemOutput{}
	if params.ReturnValues == types.ReturnValueAllOld && oldItem != nil {
		out.Attributes = oldItem
	}
	return out, nil
}
