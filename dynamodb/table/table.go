// Package table describes DynamoDB tables by their primary key layout and
// converts between key values and attribute values.
package table

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type TableDefinition struct {
	Name           string
	KeyDefinitions PrimaryKeyDefinition
}

func (t TableDefinition) ExtractPrimaryKey(doc map[string]types.AttributeValue) (PrimaryKey, error) {
	return t.KeyDefinitions.ExtractPrimaryKey(doc)
}

// CreateTableInput builds an on-demand CreateTable request for the table.
func (t TableDefinition) CreateTableInput() *dynamodb.CreateTableInput {
	attrs := []types.AttributeDefinition{{
		AttributeName: aws.String(t.KeyDefinitions.PartitionKey.Name),
		AttributeType: types.ScalarAttributeType(t.KeyDefinitions.PartitionKey.Kind),
	}}
	schema := []types.KeySchemaElement{{
		AttributeName: aws.String(t.KeyDefinitions.PartitionKey.Name),
		KeyType:       types.KeyTypeHash,
	}}
	if t.KeyDefinitions.SortKey.Name != "" {
		attrs = append(attrs, types.AttributeDefinition{
			AttributeName: aws.String(t.KeyDefinitions.SortKey.Name),
			AttributeType: types.ScalarAttributeType(t.KeyDefinitions.SortKey.Kind),
		})
		schema = append(schema, types.KeySchemaElement{
			AttributeName: aws.String(t.KeyDefinitions.SortKey.Name),
			KeyType:       types.KeyTypeRange,
		})
	}
	return &dynamodb.CreateTableInput{
		TableName:            aws.String(t.Name),
		AttributeDefinitions: attrs,
		KeySchema:            schema,
		BillingMode:          types.BillingModePayPerRequest,
	}
}

// FromCreateTableInput is the inverse of CreateTableInput.
func FromCreateTableInput(in *dynamodb.CreateTableInput) (TableDefinition, error) {
	if in == nil || in.TableName == nil || *in.TableName == "" {
		return TableDefinition{}, fmt.Errorf("table name is required")
	}
	kinds := make(map[string]KeyKind, len(in.AttributeDefinitions))
	for _, a := range in.AttributeDefinitions {
		kinds[aws.ToString(a.AttributeName)] = KeyKind(a.AttributeType)
	}
	def := TableDefinition{Name: *in.TableName}
	for _, k := range in.KeySchema {
		name := aws.ToString(k.AttributeName)
		kind, ok := kinds[name]
		if !ok {
			return TableDefinition{}, fmt.Errorf("key attribute %q has no attribute definition", name)
		}
		switch k.KeyType {
		case types.KeyTypeHash:
			def.KeyDefinitions.PartitionKey = KeyDef{Name: name, Kind: kind}
		case types.KeyTypeRange:
			def.KeyDefinitions.SortKey = KeyDef{Name: name, Kind: kind}
		default:
			return TableDefinition{}, fmt.Errorf("unknown key type %q for %q", k.KeyType, name)
		}
	}
	if def.KeyDefinitions.PartitionKey.Name == "" {
		return TableDefinition{}, fmt.Errorf("table %q has no partition key", def.Name)
	}
	return def, nil
}

// Description renders the definition the way DescribeTable reports an active table.
func (t TableDefinition) Description() *types.TableDescription {
	in := t.CreateTableInput()
	return &types.TableDescription{
		TableName:            in.TableName,
		AttributeDefinitions: in.AttributeDefinitions,
		KeySchema:            in.KeySchema,
		TableStatus:          types.TableStatusActive,
		BillingModeSummary: &types.BillingModeSummary{
			BillingMode: types.BillingModePayPerRequest,
		},
	}
}

func (k PrimaryKeyDefinition) ExtractPrimaryKey(doc map[string]types.AttributeValue) (PrimaryKey, error) {
	part, ok := doc[k.PartitionKey.Name]
	if !ok {
		return PrimaryKey{}, fmt.Errorf("partition key %q not found", k.PartitionKey.Name)
	}
	if err := attributeMatchesDefinition(k.PartitionKey.Kind, part); err != nil {
		return PrimaryKey{}, fmt.Errorf("document key %q kind does not match definition: %w", k.PartitionKey.Name, err)
	}
	pk := PrimaryKey{
		Definition: k,
		Values: PrimaryKeyValues{
			PartitionKey: keyValueFromAV(part),
		},
	}
	if k.SortKey.Name == "" {
		return pk, nil
	}
	sort, ok := doc[k.SortKey.Name]
	if !ok {
		return PrimaryKey{}, fmt.Errorf("sort key %q not found on document", k.SortKey.Name)
	}
	if err := attributeMatchesDefinition(k.SortKey.Kind, sort); err != nil {
		return PrimaryKey{}, fmt.Errorf("sort key %q kind does not match definition: %w", k.SortKey.Name, err)
	}
	pk.Values.SortKey = keyValueFromAV(sort)
	return pk, nil
}

// Key values are kept in their wire form: strings for S and N, bytes for B.
func keyValueFromAV(av types.AttributeValue) any {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	case *types.AttributeValueMemberB:
		return v.Value
	default:
		panic(fmt.Sprintf("unsupported attribute value %T for dynamodb keys", v))
	}
}
