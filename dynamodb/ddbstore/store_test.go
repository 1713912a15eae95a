package ddbstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/acksell/assetsync/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var singleTableDesign = table.TableDefinition{
	Name: "test-table",
	KeyDefinitions: table.PrimaryKeyDefinition{
		PartitionKey: table.KeyDef{Name: "pk", Kind: table.KeyKindS},
		SortKey:      table.KeyDef{Name: "sk", Kind: table.KeyKindS},
	},
}

var numericSortKeyTable = table.TableDefinition{
	Name: "numeric-sk-table",
	KeyDefinitions: table.PrimaryKeyDefinition{
		PartitionKey: table.KeyDef{Name: "pk", Kind: table.KeyKindS},
		SortKey:      table.KeyDef{Name: "sk", Kind: table.KeyKindN},
	},
}

func newTestStore(t *testing.T, defs ...table.TableDefinition) *Store {
	store, err := New(StoreOptions{InMemory: true}, defs...)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func testKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: pk},
		"sk": &types.AttributeValueMemberS{Value: sk},
	}
}

func testItem(pk, sk, data string) map[string]types.AttributeValue {
	item := testKey(pk, sk)
	item["data"] = &types.AttributeValueMemberS{Value: data}
	return item
}

func putCond(t *testing.T, cond expression.ConditionBuilder, item map[string]types.AttributeValue) *dynamodb.PutItemInput {
	t.Helper()
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	require.NoError(t, err)
	return &dynamodb.PutItemInput{
		TableName:                 &singleTableDesign.Name,
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
}

func TestStore_GetItem(t *testing.T) {
	store := newTestStore(t, singleTableDesign)
	ctx := context.Background()

	t.Run("not found returns nil item", func(t *testing.T) {
		got, err := store.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: &singleTableDesign.Name,
			Key:       testKey("nonexistent", "nonexistent"),
		})
		require.NoError(t, err)
		assert.Nil(t, got.Item)
	})

	t.Run("found after put", func(t *testing.T) {
		item := map[string]types.AttributeValue{
			"pk":    &types.AttributeValueMemberS{Value: "user#123"},
			"sk":    &types.AttributeValueMemberS{Value: "profile"},
			"n":     &types.AttributeValueMemberN{Value: "42"},
			"ok":    &types.AttributeValueMemberBOOL{Value: true},
			"bytes": &types.AttributeValueMemberB{Value: []byte{0, 1, 2}},
			"tags":  &types.AttributeValueMemberSS{Value: []string{"a", "b"}},
			"meta": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
				"list": &types.AttributeValueMemberL{Value: []types.AttributeValue{
					&types.AttributeValueMemberS{Value: "x"},
				}},
			}},
		}
		_, err := store.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: &singleTableDesign.Name,
			Item:      item,
		})
		require.NoError(t, err)

		got, err := store.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: &singleTableDesign.Name,
			Key:       testKey("user#123", "profile"),
		})
		require.NoError(t, err)
		assert.Equal(t, item, got.Item)
	})

	t.Run("key with extra attributes is rejected", func(t *testing.T) {
		_, err := store.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: &singleTableDesign.Name,
			Key:       testItem("user#123", "profile", "extra"),
		})
		require.Error(t, err)
	})

	t.Run("unknown table", func(t *testing.T) {
		_, err := store.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String("nope"),
			Key:       testKey("a", "b"),
		})
		var notFound *types.ResourceNotFoundException
		require.ErrorAs(t, err, &notFound)
	})
}

func TestStore_PutItem(t *testing.T) {
	t.Run("overwrite existing item", func(t *testing.T) {
		store := newTestStore(t, singleTableDesign)
		ctx := context.Background()

		_, err := store.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: &singleTableDesign.Name,
			Item:      testItem("test", "test", "original"),
		})
		require.NoError(t, err)

		out, err := store.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:    &singleTableDesign.Name,
			Item:         testItem("test", "test", "updated"),
			ReturnValues: types.ReturnValueAllOld,
		})
		require.NoError(t, err)
		assert.Equal(t, testItem("test", "test", "original"), out.Attributes)

		got, err := store.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: &singleTableDesign.Name,
			Key:       testKey("test", "test"),
		})
		require.NoError(t, err)
		assert.Equal(t, testItem("test", "test", "updated"), got.Item)
	})

	t.Run("missing key attribute", func(t *testing.T) {
		store := newTestStore(t, singleTableDesign)
		_, err := store.PutItem(context.Background(), &dynamodb.PutItemInput{
			TableName: &singleTableDesign.Name,
			Item: map[string]types.AttributeValue{
				"pk": &types.AttributeValueMemberS{Value: "only-pk"},
			},
		})
		require.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		store := newTestStore(t, singleTableDesign)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := store.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: &singleTableDesign.Name,
			Item:      testItem("a", "b", "c"),
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestStore_PutItem_Conditions(t *testing.T) {
	ctx := context.Background()
	notExists := expression.AttributeNotExists(expression.Name("pk"))

	t.Run("create only once", func(t *testing.T) {
		store := newTestStore(t, singleTableDesign)

		_, err := store.PutItem(ctx, putCond(t, notExists, testItem("a", "b", "first")))
		require.NoError(t, err)

		_, err = store.PutItem(ctx, putCond(t, notExists, testItem("a", "b", "second")))
		var ccf *types.ConditionalCheckFailedException
		require.ErrorAs(t, err, &ccf)

		got, err := store.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: &singleTableDesign.Name,
			Key:       testKey("a", "b"),
		})
		require.NoError(t, err)
		assert.Equal(t, testItem("a", "b", "first"), got.Item)
	})

	t.Run("compare and swap on version", func(t *testing.T) {
		store := newTestStore(t, singleTableDesign)

		v1 := testItem("a", "b", "v1")
		v1["version"] = &types.AttributeValueMemberS{Value: "1"}
		_, err := store.PutItem(ctx, putCond(t, notExists, v1))
		require.NoError(t, err)

		v2 := testItem("a", "b", "v2")
		v2["version"] = &types.AttributeValueMemberS{Value: "2"}
		matchV1 := expression.Equal(expression.Name("version"), expression.Value("1"))
		_, err = store.PutItem(ctx, putCond(t, matchV1, v2))
		require.NoError(t, err)

		stale := testItem("a", "b", "stale")
		stale["version"] = &types.AttributeValueMemberS{Value: "3"}
		in := putCond(t, matchV1, stale)
		in.ReturnValuesOnConditionCheckFailure = types.ReturnValuesOnConditionCheckFailureAllOld
		_, err = store.PutItem(ctx, in)
		var ccf *types.ConditionalCheckFailedException
		require.ErrorAs(t, err, &ccf)
		assert.Equal(t, v2, ccf.Item, "current item is returned on failure")
	})

	t.Run("invalid condition", func(t *testing.T) {
		store := newTestStore(t, singleTableDesign)
		_, err := store.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           &singleTableDesign.Name,
			Item:                testItem("a", "b", "c"),
			ConditionExpression: aws.String("pk ="),
		})
		require.Error(t, err)
		var ccf *types.ConditionalCheckFailedException
		assert.False(t, errors.As(err, &ccf))
	})
}

func TestStore_PutItem_ConcurrentCompareAndSwap(t *testing.T) {
	store := newTestStore(t, singleTableDesign)
	ctx := context.Background()

	base := testItem("race", "item", "base")
	base["version"] = &types.AttributeValueMemberS{Value: "0"}
	_, err := store.PutItem(ctx, &dynamodb.PutItemInput{TableName: &singleTableDesign.Name, Item: base})
	require.NoError(t, err)

	const writers = 16
	matchV0 := expression.Equal(expression.Name("version"), expression.Value("0"))

	var wg sync.WaitGroup
	errs := make([]error, writers)
	start := make(chan struct{})
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item := testItem("race", "item", "writer")
			item["version"] = &types.AttributeValueMemberS{Value: "1"}
			in := putCond(t, matchV0, item)
			<-start
			_, errs[i] = store.PutItem(ctx, in)
		}()
	}
	close(start)
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		var ccf *types.ConditionalCheckFailedException
		switch {
		case err == nil:
			won++
		case errors.As(err, &ccf):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won, "exactly one writer may swap the version")
	assert.Equal(t, writers-1, lost)
}

func TestStore_Query(t *testing.T) {
	store := newTestStore(t, numericSortKeyTable)
	ctx := context.Background()

	values := []string{"-100", "-10", "-1", "0", "1", "10", "100", "1000"}
	// insert out of order to make sure ordering comes from the key encoding
	for _, i := range []int{3, 7, 0, 5, 1, 6, 2, 4} {
		_, err := store.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: &numericSortKeyTable.Name,
			Item: map[string]types.AttributeValue{
				"pk": &types.AttributeValueMemberS{Value: "test"},
				"sk": &types.AttributeValueMemberN{Value: values[i]},
			},
		})
		require.NoError(t, err)
	}
	_, err := store.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &numericSortKeyTable.Name,
		Item: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: "other"},
			"sk": &types.AttributeValueMemberN{Value: "5"},
		},
	})
	require.NoError(t, err)

	query := func(mod func(*dynamodb.QueryInput)) *dynamodb.QueryOutput {
		in := &dynamodb.QueryInput{
			TableName:              &numericSortKeyTable.Name,
			KeyConditionExpression: aws.String("pk = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: "test"},
			},
		}
		if mod != nil {
			mod(in)
		}
		out, err := store.Query(ctx, in)
		require.NoError(t, err)
		return out
	}
	sortKeys := func(items []map[string]types.AttributeValue) []string {
		var out []string
		for _, item := range items {
			out = append(out, item["sk"].(*types.AttributeValueMemberN).Value)
		}
		return out
	}

	t.Run("ascending", func(t *testing.T) {
		out := query(nil)
		assert.Equal(t, values, sortKeys(out.Items))
		assert.Nil(t, out.LastEvaluatedKey)
	})

	t.Run("descending", func(t *testing.T) {
		out := query(func(in *dynamodb.QueryInput) { in.ScanIndexForward = aws.Bool(false) })
		assert.Equal(t, []string{"1000", "100", "10", "1", "0", "-1", "-10", "-100"}, sortKeys(out.Items))
	})

	t.Run("paginated", func(t *testing.T) {
		var got []string
		var start map[string]types.AttributeValue
		pages := 0
		for {
			out := query(func(in *dynamodb.QueryInput) {
				in.Limit = aws.Int32(3)
				in.ExclusiveStartKey = start
			})
			got = append(got, sortKeys(out.Items)...)
			pages++
			if out.LastEvaluatedKey == nil {
				break
			}
			start = out.LastEvaluatedKey
		}
		assert.Equal(t, values, got)
		assert.Equal(t, 3, pages)
	})

	t.Run("filter", func(t *testing.T) {
		out := query(func(in *dynamodb.QueryInput) {
			in.FilterExpression = aws.String("sk >= :min")
			in.ExpressionAttributeValues[":min"] = &types.AttributeValueMemberN{Value: "10"}
		})
		assert.Equal(t, []string{"10", "100", "1000"}, sortKeys(out.Items))
		assert.Equal(t, int32(3), out.Count)
		assert.Equal(t, int32(len(values)), out.ScannedCount)
	})
}

func TestStore_Tables(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &singleTableDesign.Name})
	var notFound *types.ResourceNotFoundException
	require.ErrorAs(t, err, &notFound)

	created, err := store.CreateTable(ctx, singleTableDesign.CreateTableInput())
	require.NoError(t, err)
	assert.Equal(t, types.TableStatusActive, created.TableDescription.TableStatus)

	_, err = store.CreateTable(ctx, singleTableDesign.CreateTableInput())
	var inUse *types.ResourceInUseException
	require.ErrorAs(t, err, &inUse)

	desc, err := store.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &singleTableDesign.Name})
	require.NoError(t, err)
	assert.Equal(t, singleTableDesign.Name, *desc.Table.TableName)

	_, err = store.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &singleTableDesign.Name,
		Item:      testItem("a", "b", "c"),
	})
	require.NoError(t, err)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := New(StoreOptions{Path: dir})
	require.NoError(t, err)
	_, err = store.CreateTable(ctx, singleTableDesign.CreateTableInput())
	require.NoError(t, err)
	_, err = store.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &singleTableDesign.Name,
		Item:      testItem("a", "b", "kept"),
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := New(StoreOptions{Path: dir})
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	got, err := reopened.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &singleTableDesign.Name,
		Key:       testKey("a", "b"),
	})
	require.NoError(t, err)
	assert.Equal(t, testItem("a", "b", "kept"), got.Item)
}
