// Package ddbstore is a local, BadgerDB-backed implementation of the
// DynamoDB table operations in ddbiface.TableAPI. It is used for
// development without AWS and as the store behind tests.
//
// Supported: GetItem, PutItem with condition expressions and return
// values, Query with key condition, filter, Limit, ExclusiveStartKey and
// ScanIndexForward, DescribeTable and CreateTable. Table definitions are
// persisted next to the data, so a store reopened on the same path keeps
// its tables.
package ddbstore

import "github.com/acksell/assetsync/dynamodb/ddbiface"

var _ ddbiface.TableAPI = (*Store)(nil)
