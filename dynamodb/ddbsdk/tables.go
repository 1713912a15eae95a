package ddbsdk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acksell/assetsync/dynamodb/ddbiface"
	"github.com/acksell/assetsync/dynamodb/table"

	dynamodbv2 "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DefaultTableWait bounds how long EnsureTable waits for a new table.
const DefaultTableWait = 2 * time.Minute

// EnsureTable creates the table if it does not exist and waits until it is
// ACTIVE. It reports whether the table was created by this call.
func EnsureTable(ctx context.Context, api ddbiface.TableAPI, def table.TableDefinition, maxWait time.Duration) (bool, error) {
	_, err := api.DescribeTable(ctx, &dynamodbv2.DescribeTableInput{TableName: &def.Name})
	if err == nil {
		return false, nil
	}
	if !IsTableNotFound(err) {
		return false, fmt.Errorf("describe table %q: %w", def.Name, err)
	}

	created := true
	_, err = api.CreateTable(ctx, def.CreateTableInput())
	var inUse *types.ResourceInUseException
	switch {
	case errors.As(err, &inUse):
		// someone else created it between describe and create
		created = false
	case err != nil:
		return false, fmt.Errorf("create table %q: %w", def.Name, err)
	}

	if maxWait <= 0 {
		maxWait = DefaultTableWait
	}
	waiter := dynamodbv2.NewTableExistsWaiter(api, func(o *dynamodbv2.TableExistsWaiterOptions) {
		o.MinDelay = time.Second
		o.MaxDelay = 10 * time.Second
	})
	if err := waiter.Wait(ctx, &dynamodbv2.DescribeTableInput{TableName: &def.Name}, maxWait); err != nil {
		return created, fmt.Errorf("wait for table %q: %w", def.Name, err)
	}
	return created, nil
}
