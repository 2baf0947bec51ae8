package client

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Static credentials accepted by DynamoDB Local.
const (
	localAccessKeyID     = "local"
	localSecretAccessKey = "local"
)

// NewAWSConfig loads the default credential chain for the region. When an
// endpoint URL is given the chain is replaced with static credentials, as a
// local endpoint does not verify them.
func NewAWSConfig(ctx context.Context, endpointURL, awsRegion string) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(awsRegion),
	}
	if endpointURL != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(localAccessKeyID, localSecretAccessKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load aws config: %w", err)
	}
	return cfg, nil
}

func NewDynamoDBClient(cfg aws.Config, endpointURL string) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = aws.String(endpointURL)
		}
	})
}

func NewSTSClient(cfg aws.Config) *sts.Client {
	return sts.NewFromConfig(cfg)
}
