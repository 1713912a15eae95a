package ddbsdk

import (
	"fmt"
	"maps"

	"github.com/acksell/assetsync/dynamodb/table"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	expression2 "github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	dynamodbv2 "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Put writes a whole item. Entity is either an Item, used as is, or a
// struct marshalled with attributevalue.MarshalMap. The key attributes are
// always taken from Key.
type Put struct {
	Table  table.TableDefinition
	Key    table.PrimaryKey
	Entity any

	c expression2.ConditionBuilder
}

// See NewUnsafePut, NewCreate and NewSafePut for the public API.
func newPut(def table.TableDefinition, key table.PrimaryKey, e any) *Put {
	return &Put{
		Table:  def,
		Key:    key,
		Entity: e,
	}
}

// NewUnsafePut overwrites whatever is stored under the key.
func NewUnsafePut(def table.TableDefinition, key table.PrimaryKey, e any) *Put {
	return newPut(def, key, e)
}

// NewCreate only succeeds if no item exists under the key.
func NewCreate(def table.TableDefinition, key table.PrimaryKey, e any) *Put {
	return newPut(def, key, e).WithCondition(
		expression2.AttributeNotExists(expression2.Name(def.KeyDefinitions.PartitionKey.Name)))
}

// NewSafePut replaces the item only if versionField currently holds
// expected. A missing item fails the condition too.
func NewSafePut(def table.TableDefinition, key table.PrimaryKey, e any, versionField string, expected any) *Put {
	return newPut(def, key, e).WithCondition(
		expression2.Equal(expression2.Name(versionField), expression2.Value(expected)))
}

func (p *Put) TableName() *string {
	return &p.Table.Name
}

func (p *Put) PrimaryKey() table.PrimaryKey {
	return p.Key
}

// WithCondition adds a condition expression, combined with AND when one is
// already set.
func (p *Put) WithCondition(c expression2.ConditionBuilder) *Put {
	if p.c.IsSet() {
		p.c = p.c.And(c)
	} else {
		p.c = c
	}
	return p
}

func (p *Put) Build() (expression2.Expression, map[string]types.AttributeValue, error) {
	var entity map[string]types.AttributeValue
	switch e := p.Entity.(type) {
	case Item:
		entity = maps.Clone(e)
	default:
		var err error
		entity, err = attributevalue.MarshalMap(p.Entity)
		if err != nil {
			return expression2.Expression{}, nil, fmt.Errorf("failed to marshal entity to dynamodb map: %w", err)
		}
	}
	if entity == nil {
		entity = make(map[string]types.AttributeValue)
	}
	maps.Copy(entity, p.Key.DDB())

	if !p.c.IsSet() {
		return expression2.Expression{}, entity, nil
	}
	exp, err := expression2.NewBuilder().WithCondition(p.c).Build()
	if err != nil {
		return expression2.Expression{}, nil, fmt.Errorf("build: %w", err)
	}
	return exp, entity, nil
}

func (p *Put) ToPutItem() (*dynamodbv2.PutItemInput, error) {
	e, entity, err := p.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build put: %w", err)
	}
	return &dynamodbv2.PutItemInput{
		TableName:                 p.TableName(),
		Item:                      entity,
		ConditionExpression:       e.Condition(),
		ExpressionAttributeValues: e.Values(),
		ExpressionAttributeNames:  e.Names(),
	}, nil
}
