package table

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type PrimaryKeyDefinition struct {
	PartitionKey KeyDef
	SortKey      KeyDef // zero value for tables without a sort key
}

type KeyDef struct {
	Name string
	Kind KeyKind
}

type KeyKind string

const (
	KeyKindS KeyKind = "S"
	KeyKindN KeyKind = "N"
	KeyKindB KeyKind = "B"
)

type PrimaryKeyValues struct {
	PartitionKey any
	SortKey      any
}

type PrimaryKey struct {
	Definition PrimaryKeyDefinition
	Values     PrimaryKeyValues
}

// DDB renders the key as attribute values. It panics when a value does not
// match its key definition; keys are built by code, not from user input.
func (k PrimaryKey) DDB() map[string]types.AttributeValue {
	pk := mustKeyAV(k.Definition.PartitionKey, k.Values.PartitionKey)
	if k.Definition.SortKey.Name == "" {
		return map[string]types.AttributeValue{
			k.Definition.PartitionKey.Name: pk,
		}
	}
	if k.Values.SortKey == nil {
		panic(fmt.Errorf("sort key %q is required but got nil", k.Definition.SortKey.Name))
	}
	return map[string]types.AttributeValue{
		k.Definition.PartitionKey.Name: pk,
		k.Definition.SortKey.Name:      mustKeyAV(k.Definition.SortKey, k.Values.SortKey),
	}
}

func mustKeyAV(def KeyDef, v any) types.AttributeValue {
	// N keys arrive as their string form after ExtractPrimaryKey.
	if s, ok := v.(string); ok && def.Kind == KeyKindN {
		return &types.AttributeValueMemberN{Value: s}
	}
	av, err := attributevalue.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("failed to marshal key %q of type %T with value %v: %w", def.Name, v, v, err))
	}
	if err := attributeMatchesDefinition(def.Kind, av); err != nil {
		panic(fmt.Errorf("key %q kind does not match dynamo value: %w", def.Name, err))
	}
	return av
}

func attributeMatchesDefinition(want KeyKind, v types.AttributeValue) error {
	var got KeyKind
	switch v.(type) {
	case *types.AttributeValueMemberS:
		got = KeyKindS
	case *types.AttributeValueMemberN:
		got = KeyKindN
	case *types.AttributeValueMemberB:
		got = KeyKindB
	default:
		return fmt.Errorf("unexpected key attribute type %T", v)
	}
	if got != want {
		return fmt.Errorf("got KeyKind %q want %q", got, want)
	}
	return nil
}
