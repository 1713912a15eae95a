package ddbsdk

import (
	"github.com/acksell/assetsync/dynamodb/ddbiface"
	"github.com/acksell/assetsync/dynamodb/table"
)

// New wraps a DynamoDB client or a local ddbstore.Store.
func New(api ddbiface.TableAPI) *Client {
	return &Client{
		awsddb: api,
	}
}

type Client struct {
	awsddb ddbiface.TableAPI
}

var _ IO = &Client{}

// API returns the underlying table client.
func (c *Client) API() ddbiface.TableAPI {
	return c.awsddb
}

// NewQuery creates a new querier over one partition.
//
// Options: [WithDescending], [WithPageSize], [WithFilter], [WithEventuallyConsistentReads].
func (c *Client) NewQuery(def table.TableDefinition, kc KeyCondition, opts ...QueryOption) Querier {
	return NewQuerier(c.awsddb, def, kc, opts...)
}

// NewLookup creates a new getter for direct lookups by primary key.
//
// Options: [WithEventualConsistency]
func (c *Client) NewLookup(opts ...GetOption) Getter {
	return NewGetter(c.awsddb, opts...)
}
