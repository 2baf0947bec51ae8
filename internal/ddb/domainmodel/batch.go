package domainmodel

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/constants"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/models"
)

type batchDeleteOutcome struct {
	deleted     int
	unprocessed int
	capacity    float64
}

func (o *batchDeleteOutcome) add(other batchDeleteOutcome) {
	o.deleted += other.deleted
	o.unprocessed += other.unprocessed
	o.capacity += other.capacity
}

// prepareDeleteRequests builds one delete request per scanned item. Only the
// key attributes of the schema are copied into the request key.
func prepareDeleteRequests(schema models.TableKeySchema, items []map[string]types.AttributeValue) []types.WriteRequest {
	deleteRequests := make([]types.WriteRequest, 0, len(items))
	for _, item := range items {
		key := map[string]types.AttributeValue{
			schema.PartitionKey: item[schema.PartitionKey],
		}
		if schema.HasRangeKey() {
			key[schema.RangeKey] = item[schema.RangeKey]
		}
		deleteRequests = append(deleteRequests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: key,
			},
		})
	}
	return deleteRequests
}

// prepareBatchWriteItemInputs splits delete requests into batches of at most
// BatchWriteItemSize.
func prepareBatchWriteItemInputs(tableName string, deleteRequests []types.WriteRequest) []dynamodb.BatchWriteItemInput {
	var batches []dynamodb.BatchWriteItemInput
	deleteRequestLen := len(deleteRequests)
	for i := 0; i < deleteRequestLen; i += constants.BatchWriteItemSize {
		end := min(i+constants.BatchWriteItemSize, deleteRequestLen)
		batches = append(batches, dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				tableName: deleteRequests[i:end],
			},
			ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
		})
	}
	return batches
}

// batchDeleteItems deletes one scanned page. Batches are submitted in order and
// the first failing batch stops the page; the outcome then covers only the
// batches submitted before it.
func (d *DomainModel) batchDeleteItems(ctx context.Context, schema models.TableKeySchema,
	items []map[string]types.AttributeValue) (batchDeleteOutcome, error) {

	var outcome batchDeleteOutcome
	batches := prepareBatchWriteItemInputs(schema.TableName, prepareDeleteRequests(schema, items))
	d.log.LogDebug(ctx, "Total number of batches for scanned page",
		constants.LogTableNameKey, schema.TableName,
		"items", len(items),
		"batches", len(batches))

	for i := range batches {
		requests := batches[i].RequestItems[schema.TableName]
		batchWriteItemOutput, err := d.client.BatchWriteItem(ctx, &batches[i])
		if err != nil {
			d.log.LogError(ctx, "Failed to delete items batch", err,
				constants.LogTableNameKey, schema.TableName,
				"batch", i,
				"batch-size", len(requests),
				"first-key", renderKey(requests[0].DeleteRequest.Key),
				"skipped-batches", len(batches)-i-1)
			return outcome, fmt.Errorf("%w: table %s: batch %d of %d: %w",
				ErrBatchDeleteFailure, schema.TableName, i+1, len(batches), err)
		}
		outcome.add(summarizeBatchWriteItemOutput(schema.TableName, len(requests), batchWriteItemOutput))
	}
	return outcome, nil
}

func summarizeBatchWriteItemOutput(tableName string, submitted int, output *dynamodb.BatchWriteItemOutput) batchDeleteOutcome {
	outcome := batchDeleteOutcome{deleted: submitted}
	if output == nil {
		return outcome
	}
	outcome.unprocessed = len(output.UnprocessedItems[tableName])
	outcome.deleted -= outcome.unprocessed
	for _, consumedCapacity := range output.ConsumedCapacity {
		outcome.capacity += aws.ToFloat64(consumedCapacity.CapacityUnits)
	}
	return outcome
}

func renderKey(key map[string]types.AttributeValue) map[string]interface{} {
	rendered := make(map[string]interface{}, len(key))
	if err := attributevalue.UnmarshalMap(key, &rendered); err != nil {
		return nil
	}
	return rendered
}
