package asset

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Asset is one observed version of a tracked asset.
type Asset struct {
	AssetID   uuid.UUID `json:"assetId" yaml:"assetId"`
	AssetName string    `json:"assetName" yaml:"assetName"`
	AccountID int32     `json:"accountId" yaml:"accountId"`
	// EventTime is when the observation that produced this version was made.
	EventTime  time.Time  `json:"eventTime" yaml:"eventTime"`
	Properties Properties `json:"properties" yaml:"properties"`
}

// Key identifies the logical asset independently of its version.
type Key struct {
	AccountID int32
	AssetID   uuid.UUID
}

func (a Asset) Key() Key {
	return Key{AccountID: a.AccountID, AssetID: a.AssetID}
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%s", k.AccountID, k.AssetID)
}

// Equal compares all fields. Event times are compared as instants.
func (a Asset) Equal(o Asset) bool {
	return a.AssetID == o.AssetID &&
		a.AssetName == o.AssetName &&
		a.AccountID == o.AccountID &&
		a.EventTime.Equal(o.EventTime) &&
		a.Properties.Equal(o.Properties)
}

// NewerThan reports whether a was observed strictly after o.
func (a Asset) NewerThan(o Asset) bool {
	return a.EventTime.After(o.EventTime)
}

// Properties is the open, caller-defined property bag of an asset.
type Properties map[string]Value

func (p Properties) Equal(o Properties) bool {
	if len(p) != len(o) {
		return false
	}
	for k, v := range p {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Keys returns the property names in sorted order.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ETag is the opaque concurrency token the store assigns on every write.
type ETag string
