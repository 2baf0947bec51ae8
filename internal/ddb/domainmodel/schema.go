package domainmodel

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/constants"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/models"
)

func (d *DomainModel) CreateTableKeySchema(ctx context.Context, tableName string) (models.TableKeySchema, error) {
	schema := models.TableKeySchema{
		TableName: tableName,
	}

	tableOutput, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		var notFoundEx *types.ResourceNotFoundException
		if errors.As(err, &notFoundEx) {
			d.log.LogError(ctx, "Table does not exist", err, constants.LogTableNameKey, tableName)
			return schema, fmt.Errorf("%w: table %s does not exist: %w", ErrSchemaUnavailable, tableName, err)
		}
		d.log.LogError(ctx, "Couldn't describe the table", err, constants.LogTableNameKey, tableName)
		return schema, fmt.Errorf("%w: table %s: %w", ErrSchemaUnavailable, tableName, err)
	}
	if tableOutput == nil || tableOutput.Table == nil {
		return schema, fmt.Errorf("%w: table %s: empty description", ErrSchemaUnavailable, tableName)
	}

	for _, keySchemaElement := range tableOutput.Table.KeySchema {
		switch keySchemaElement.KeyType {
		case types.KeyTypeHash:
			schema.PartitionKey = aws.ToString(keySchemaElement.AttributeName)
		case types.KeyTypeRange:
			schema.RangeKey = aws.ToString(keySchemaElement.AttributeName)
		}
	}
	if schema.PartitionKey == "" {
		return schema, fmt.Errorf("%w: table %s", ErrInvalidKeySchema, tableName)
	}

	d.log.LogDebug(ctx, "Resolved table key schema",
		constants.LogTableNameKey, tableName,
		"partition-key", schema.PartitionKey,
		"range-key", schema.RangeKey)
	return schema, nil
}
