// Package asset holds the domain model for tracked assets: the identity
// fields, the observation timestamp and an open set of typed properties.
//
// Properties are keyed by caller-defined names and hold a [Value], a closed
// set of scalar kinds. The package knows nothing about storage; see
// dynamodb/assetrow for the row mapping and reconcile for the write policy.
package asset
