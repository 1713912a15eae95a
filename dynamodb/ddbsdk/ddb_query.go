package ddbsdk

import (
	"context"
	"fmt"

	"github.com/acksell/assetsync/dynamodb/ddbiface"
	"github.com/acksell/assetsync/dynamodb/table"

	expression2 "github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	dynamodbv2 "github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type querier struct {
	awsddb ddbiface.TableAPI

	table   table.TableDefinition
	keyCond KeyCondition

	// built on the first call to Next
	pages *dynamodbv2.QueryPaginator

	opts queryOptions
}

var _ Querier = &querier{}

type queryOptions struct {
	// default to consistent reads
	// because if you don't know what you're doing you may introduce race conditions.
	eventuallyConsistent bool
	pageSize             int32
	descending           bool
	filter               expression2.ConditionBuilder
}

type QueryOption func(*queryOptions)

func WithEventuallyConsistentReads() QueryOption {
	return func(o *queryOptions) { o.eventuallyConsistent = true }
}

func WithDescending() QueryOption {
	return func(o *queryOptions) { o.descending = true }
}

func WithPageSize(n int) QueryOption {
	return func(o *queryOptions) { o.pageSize = int32(n) }
}

// WithFilter drops items after they are read. Filtered items still count
// against the page size.
func WithFilter(c expression2.ConditionBuilder) QueryOption {
	return func(o *queryOptions) { o.filter = c }
}

const defaultPageSize = 100

// KeyCondition selects one partition, optionally narrowed by a condition
// on the sort key.
type KeyCondition struct {
	partition any
	sortKey   func(sortKeyName string) expression2.KeyConditionBuilder
}

func NewKeyCondition(partition any) KeyCondition {
	return KeyCondition{partition: partition}
}

// WithSortKeyPrefix only matches sort keys starting with prefix.
func (kc KeyCondition) WithSortKeyPrefix(prefix string) KeyCondition {
	kc.sortKey = func(name string) expression2.KeyConditionBuilder {
		return expression2.KeyBeginsWith(expression2.Key(name), prefix)
	}
	return kc
}

func NewQuerier(ddb ddbiface.TableAPI, def table.TableDefinition, kc KeyCondition, opts ...QueryOption) *querier {
	q := &querier{
		awsddb:  ddb,
		table:   def,
		keyCond: kc,
		opts: queryOptions{
			pageSize: defaultPageSize,
		},
	}
	for _, opt := range opts {
		opt(&q.opts)
	}
	return q
}

type QueryResult struct {
	Items  []Item
	IsDone bool
}

func (q *querier) input() (*dynamodbv2.QueryInput, error) {
	key := expression2.KeyEqual(expression2.Key(q.table.KeyDefinitions.PartitionKey.Name), expression2.Value(q.keyCond.partition))
	if q.keyCond.sortKey != nil {
		if q.table.KeyDefinitions.SortKey.Name == "" {
			return nil, fmt.Errorf("table %q has no sort key", q.table.Name)
		}
		key = key.And(q.keyCond.sortKey(q.table.KeyDefinitions.SortKey.Name))
	}
	b := expression2.NewBuilder().WithKeyCondition(key)
	if q.opts.filter.IsSet() {
		b = b.WithFilter(q.opts.filter)
	}
	expr, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}
	return &dynamodbv2.QueryInput{
		TableName:                 &q.table.Name,
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeValues: expr.Values(),
		ExpressionAttributeNames:  expr.Names(),
		ConsistentRead:            ptr(!q.opts.eventuallyConsistent),
		ScanIndexForward:          ptr(!q.opts.descending),
	}, nil
}

// Next fetches the following page. Once IsDone is reported further calls
// return an empty, done result.
func (q *querier) Next(ctx context.Context) (*QueryResult, error) {
	if q.pages == nil {
		in, err := q.input()
		if err != nil {
			return nil, err
		}
		q.pages = dynamodbv2.NewQueryPaginator(q.awsddb, in, func(o *dynamodbv2.QueryPaginatorOptions) {
			o.Limit = q.opts.pageSize
		})
	}
	if !q.pages.HasMorePages() {
		return &QueryResult{IsDone: true}, nil
	}
	res, err := q.pages.NextPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return &QueryResult{
		Items:  res.Items,
		IsDone: !q.pages.HasMorePages(),
	}, nil
}

func (q *querier) QueryAll(ctx context.Context) (*QueryResult, error) {
	var allItems []Item
	for {
		res, err := q.Next(ctx)
		if err != nil {
			return nil, err
		}
		allItems = append(allItems, res.Items...)
		if res.IsDone {
			break
		}
	}
	return &QueryResult{
		Items:  allItems,
		IsDone: true,
	}, nil
}
