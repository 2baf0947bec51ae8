package client

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAWSConfigWithLocalEndpoint(t *testing.T) {
	ctx := context.Background()
	cfg, err := NewAWSConfig(ctx, "http://localhost:8000", "eu-central-1")
	require.NoError(t, err)
	assert.Equal(t, "eu-central-1", cfg.Region)

	creds, err := cfg.Credentials.Retrieve(ctx)
	require.NoError(t, err)
	assert.Equal(t, localAccessKeyID, creds.AccessKeyID)

	assert.NotNil(t, NewDynamoDBClient(cfg, "http://localhost:8000"))
}

func TestNewDynamoDBClientWithoutEndpoint(t *testing.T) {
	assert.NotNil(t, NewDynamoDBClient(aws.Config{Region: "us-east-1"}, ""))
	assert.NotNil(t, NewSTSClient(aws.Config{Region: "us-east-1"}))
}
