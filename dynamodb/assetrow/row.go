// Package assetrow maps assets to DynamoDB items and back.
//
// An item carries the table keys, four fixed fields and one prop_<name>
// attribute per property. Kinds that DynamoDB cannot express natively are
// recorded in the _types map so every property value round-trips with its
// kind intact:
//
//	PartitionKey  S   decimal account id
//	RowKey        S   asset id
//	AssetId       S   asset id
//	AssetName     S
//	AccountId     N
//	EventTime     S   RFC 3339 with offset
//	prop_<name>   S | N | BOOL
//	_types        M   <name> -> Int64 | Double | DateTime | Guid
//	ETag          S   concurrency token, owned by the repository
package assetrow

import (
	"strconv"

	"github.com/acksell/assetsync/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

const (
	FieldPartitionKey = "PartitionKey"
	FieldRowKey       = "RowKey"
	FieldAssetID      = "AssetId"
	FieldAssetName    = "AssetName"
	FieldAccountID    = "AccountId"
	FieldEventTime    = "EventTime"
	FieldTypes        = "_types"
	FieldETag         = "ETag"

	// PropertyPrefix namespaces property attributes so they never collide
	// with fixed fields.
	PropertyPrefix = "prop_"
)

// DefaultTableName is used when no table name is configured.
const DefaultTableName = "assets"

// Item is a raw DynamoDB item.
type Item = map[string]types.AttributeValue

func TableDefinition(name string) table.TableDefinition {
	return table.TableDefinition{
		Name: name,
		KeyDefinitions: table.PrimaryKeyDefinition{
			PartitionKey: table.KeyDef{Name: FieldPartitionKey, Kind: table.KeyKindS},
			SortKey:      table.KeyDef{Name: FieldRowKey, Kind: table.KeyKindS},
		},
	}
}

// PrimaryKey addresses the row of one asset. Accounts are partitions.
func PrimaryKey(accountID int32, assetID uuid.UUID) table.PrimaryKey {
	return table.PrimaryKey{
		Definition: TableDefinition("").KeyDefinitions,
		Values: table.PrimaryKeyValues{
			PartitionKey: PartitionValue(accountID),
			SortKey:      assetID.String(),
		},
	}
}

// PartitionValue is the partition key value of an account.
func PartitionValue(accountID int32) string {
	return strconv.FormatInt(int64(accountID), 10)
}
