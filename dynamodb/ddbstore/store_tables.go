package ddbstore

import (
	"context"
	"fmt"

	"github.com/acksell/assetsync/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DescribeTable reports registered tables as ACTIVE. Unknown tables fail
// with *types.ResourceNotFoundException.
func (s *Store) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	def, err := s.getTable(params.TableName)
	if err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{Table: def.Description()}, nil
}

// CreateTable registers and persists a table. Tables are usable as soon as
// the call returns. Creating an existing table fails with
// *types.ResourceInUseException.
func (s *Store) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	if len(params.GlobalSecondaryIndexes) > 0 || len(params.LocalSecondaryIndexes) > 0 {
		return nil, fmt.Errorf("secondary indexes are not supported")
	}
	def, err := table.FromCreateTableInput(params)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[def.Name]; exists {
		return nil, &types.ResourceInUseException{
			Message: ptrStr(fmt.Sprintf("Table already exists: %s", def.Name)),
		}
	}
	if err := s.saveTable(def); err != nil {
		return nil, err
	}
	return &dynamodb.CreateTableOutput{TableDescription: def.Description()}, nil
}
