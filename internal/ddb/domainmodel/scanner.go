package domainmodel

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/models"
)

// CreateScanPaginator returns a paginator over key-only pages of the table.
// The paginator follows LastEvaluatedKey and stops once the store omits it.
func (d *DomainModel) CreateScanPaginator(schema models.TableKeySchema, pageSize int32) (*dynamodb.ScanPaginator, error) {
	scanInput, err := CreateScanInput(schema)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewScanPaginator(d.client, scanInput, func(o *dynamodb.ScanPaginatorOptions) {
		// the paginator overwrites ScanInput.Limit with this value
		o.Limit = pageSize
	}), nil
}

// CreateScanInput builds a scan that projects only the key attributes.
func CreateScanInput(schema models.TableKeySchema) (*dynamodb.ScanInput, error) {
	projection := expression.NamesList(expression.Name(schema.PartitionKey))
	if schema.HasRangeKey() {
		projection = projection.AddNames(expression.Name(schema.RangeKey))
	}

	expr, err := expression.NewBuilder().WithProjection(projection).Build()
	if err != nil {
		return nil, fmt.Errorf("building key projection for %s: %w", schema.TableName, err)
	}

	return &dynamodb.ScanInput{
		TableName:                aws.String(schema.TableName),
		Select:                   types.SelectSpecificAttributes,
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	}, nil
}
