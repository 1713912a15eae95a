package ddbstore

import (
	"github.com/acksell/assetsync/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func keyAttributes(def table.TableDefinition, item map[string]types.AttributeValue) map[string]types.AttributeValue {
	keyDef := def.KeyDefinitions
	result := make(map[string]types.AttributeValue)
	if pk, ok := item[keyDef.PartitionKey.Name]; ok {
		result[keyDef.PartitionKey.Name] = pk
	}
	if keyDef.SortKey.Name != "" {
		if sk, ok := item[keyDef.SortKey.Name]; ok {
			result[keyDef.SortKey.Name] = sk
		}
	}
	return result
}
