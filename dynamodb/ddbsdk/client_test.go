package ddbsdk

import (
	"testing"

	"github.com/acksell/assetsync/dynamodb/ddbstore"
	"github.com/acksell/assetsync/dynamodb/table"
)

// testEntity is a shared test entity used across client operation tests
type testEntity struct {
	PK      string `dynamodbav:"pk"`
	SK      string `dynamodbav:"sk"`
	Name    string `dynamodbav:"name"`
	Version string `dynamodbav:"version"`
}

// clientTestTable is a shared table definition used across client operation tests
var clientTestTable = table.TableDefinition{
	Name: "test-table",
	KeyDefinitions: table.PrimaryKeyDefinition{
		PartitionKey: table.KeyDef{Name: "pk", Kind: table.KeyKindS},
		SortKey:      table.KeyDef{Name: "sk", Kind: table.KeyKindS},
	},
}

// testKey is a helper function to create a primary key for tests
func testKey(pk, sk string) table.PrimaryKey {
	return table.PrimaryKey{
		Definition: clientTestTable.KeyDefinitions,
		Values:     table.PrimaryKeyValues{PartitionKey: pk, SortKey: sk},
	}
}

func newTestStore(t *testing.T, defs ...table.TableDefinition) *ddbstore.Store {
	t.Helper()
	store, err := ddbstore.New(ddbstore.StoreOptions{InMemory: true}, defs...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestClient(t *testing.T) *Client {
	return New(newTestStore(t, clientTestTable))
}
