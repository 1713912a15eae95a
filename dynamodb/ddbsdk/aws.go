package ddbsdk

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	dynamodbv2 "github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// AWSOptions selects the DynamoDB endpoint. Credentials come from the
// default AWS provider chain.
type AWSOptions struct {
	Region string
	// Profile is a shared config profile. Empty uses the default profile.
	Profile string
	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string
}

// NewAWSClient loads the default AWS configuration and returns a DynamoDB client.
func NewAWSClient(ctx context.Context, opts AWSOptions) (*dynamodbv2.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodbv2.NewFromConfig(cfg, func(o *dynamodbv2.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}
