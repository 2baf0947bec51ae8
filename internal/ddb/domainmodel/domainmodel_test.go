package domainmodel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/fakeddb"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logFileRecord struct {
	InstanceID string `dynamodbav:"instance_id"`
	LogFile    string `dynamodbav:"log_file"`
	Size       int    `dynamodbav:"size"`
	Status     string `dynamodbav:"status"`
}

type metadataRecord struct {
	InstanceID string `dynamodbav:"instance_id"`
	Engine     string `dynamodbav:"engine"`
}

type recordingReporter struct {
	mu       sync.Mutex
	started  []models.TableKeySchema
	progress []int
}

func (r *recordingReporter) Warning(string, []string) {}
func (r *recordingReporter) Cancelled()               {}
func (r *recordingReporter) TableStarted(schema models.TableKeySchema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, schema)
}
func (r *recordingReporter) TableProgress(_ string, deleted int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, deleted)
}
func (r *recordingReporter) TableDone(models.EmptyTableResult)   {}
func (r *recordingReporter) TableFailed(models.EmptyTableResult) {}
func (r *recordingReporter) Summary(models.RunSummary)           {}

func seedHashOnly(t *testing.T, store *fakeddb.Store, table string, n int) {
	t.Helper()
	store.CreateTable(table, "instance_id", "")
	for i := 0; i < n; i++ {
		item, err := attributevalue.MarshalMap(metadataRecord{
			InstanceID: fmt.Sprintf("db-%05d", i),
			Engine:     "aurora-postgresql",
		})
		require.NoError(t, err)
		require.NoError(t, store.Put(table, item))
	}
}

func seedHashRange(t *testing.T, store *fakeddb.Store, table string, n int) {
	t.Helper()
	store.CreateTable(table, "instance_id", "log_file")
	for i := 0; i < n; i++ {
		item, err := attributevalue.MarshalMap(logFileRecord{
			InstanceID: fmt.Sprintf("db-%02d", i%10),
			LogFile:    fmt.Sprintf("error/postgresql.log.%05d", i),
			Size:       i * 10,
			Status:     "processed",
		})
		require.NoError(t, err)
		require.NoError(t, store.Put(table, item))
	}
}

func TestCreateTableKeySchema(t *testing.T) {
	store := fakeddb.New()
	store.CreateTable("hash-only", "id", "")
	store.CreateTable("composite", "pk", "sk")
	d := NewTableEmptierService(store, nil, nil)
	ctx := context.Background()

	schema, err := d.CreateTableKeySchema(ctx, "hash-only")
	require.NoError(t, err)
	assert.Equal(t, models.TableKeySchema{TableName: "hash-only", PartitionKey: "id"}, schema)
	assert.False(t, schema.HasRangeKey())

	schema, err = d.CreateTableKeySchema(ctx, "composite")
	require.NoError(t, err)
	assert.Equal(t, "pk", schema.PartitionKey)
	assert.Equal(t, "sk", schema.RangeKey)
}

func TestCreateTableKeySchemaUnavailable(t *testing.T) {
	store := fakeddb.New()
	store.CreateTable("denied", "id", "")
	store.FailDescribe("denied", errors.New("AccessDeniedException"))
	d := NewTableEmptierService(store, nil, nil)

	_, err := d.CreateTableKeySchema(context.Background(), "missing")
	require.ErrorIs(t, err, ErrSchemaUnavailable)
	var notFound *types.ResourceNotFoundException
	assert.ErrorAs(t, err, &notFound)

	_, err = d.CreateTableKeySchema(context.Background(), "denied")
	require.ErrorIs(t, err, ErrSchemaUnavailable)
}

func TestCreateScanInputProjectsOnlyKeys(t *testing.T) {
	input, err := CreateScanInput(models.TableKeySchema{TableName: "t", PartitionKey: "pk", RangeKey: "status"})
	require.NoError(t, err)
	assert.Equal(t, "t", aws.ToString(input.TableName))
	assert.Equal(t, types.SelectSpecificAttributes, input.Select)

	names := make([]string, 0, len(input.ExpressionAttributeNames))
	for _, name := range input.ExpressionAttributeNames {
		names = append(names, name)
	}
	assert.ElementsMatch(t, []string{"pk", "status"}, names)
	assert.NotContains(t, aws.ToString(input.ProjectionExpression), "status")
}

func TestPrepareBatchWriteItemInputs(t *testing.T) {
	schema := models.TableKeySchema{TableName: "t", PartitionKey: "id"}
	items := make([]map[string]types.AttributeValue, 60)
	for i := range items {
		items[i] = map[string]types.AttributeValue{"id": &types.AttributeValueMemberN{Value: fmt.Sprint(i)}}
	}

	batches := prepareBatchWriteItemInputs("t", prepareDeleteRequests(schema, items))
	require.Len(t, batches, 3)
	assert.Len(t, batches[0].RequestItems["t"], 25)
	assert.Len(t, batches[1].RequestItems["t"], 25)
	assert.Len(t, batches[2].RequestItems["t"], 10)
	assert.Empty(t, prepareBatchWriteItemInputs("t", nil))
}

func TestPrepareDeleteRequestsKeepsOnlyKeyAttributes(t *testing.T) {
	schema := models.TableKeySchema{TableName: "t", PartitionKey: "pk", RangeKey: "sk"}
	items := []map[string]types.AttributeValue{{
		"pk":    &types.AttributeValueMemberS{Value: "a"},
		"sk":    &types.AttributeValueMemberN{Value: "7"},
		"extra": &types.AttributeValueMemberS{Value: "ignored"},
	}}

	reqs := prepareDeleteRequests(schema, items)
	require.Len(t, reqs, 1)
	assert.Equal(t, map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: "a"},
		"sk": &types.AttributeValueMemberN{Value: "7"},
	}, reqs[0].DeleteRequest.Key)
}

func TestEmptyTableWithNoItems(t *testing.T) {
	store := fakeddb.New()
	store.CreateTable("empty", "id", "")
	d := NewTableEmptierService(store, nil, nil)

	for run := 0; run < 2; run++ {
		result := d.EmptyTable(context.Background(), models.EmptyTableInput{TableName: "empty"})
		require.NoError(t, result.Err)
		assert.Zero(t, result.DeletedItems)
	}
	assert.Zero(t, store.Calls("empty").BatchWriteItem)
}

func TestEmptyTableHashOnly(t *testing.T) {
	store := fakeddb.New()
	seedHashOnly(t, store, "aurora-instance-metadata", 30)
	reporter := &recordingReporter{}
	d := NewTableEmptierService(store, reporter, nil)

	result := d.EmptyTable(context.Background(), models.EmptyTableInput{TableName: "aurora-instance-metadata"})
	require.NoError(t, result.Err)
	assert.Equal(t, 30, result.DeletedItems)
	assert.Equal(t, 30.0, result.ConsumedCapacityUnits)
	assert.Equal(t, 2, store.Calls("aurora-instance-metadata").BatchWriteItem)
	assert.Zero(t, store.Count("aurora-instance-metadata"))

	require.Len(t, reporter.started, 1)
	assert.Empty(t, reporter.started[0].RangeKey)
	assert.Empty(t, reporter.progress)
}

func TestEmptyTableHashRangePaginated(t *testing.T) {
	store := fakeddb.New()
	seedHashRange(t, store, "aurora-log-file-tracking", 5000)
	reporter := &recordingReporter{}
	d := NewTableEmptierService(store, reporter, nil)

	result := d.EmptyTable(context.Background(), models.EmptyTableInput{TableName: "aurora-log-file-tracking"})
	require.NoError(t, result.Err)
	assert.Equal(t, 5000, result.DeletedItems)

	calls := store.Calls("aurora-log-file-tracking")
	assert.Equal(t, 5, calls.Scan)
	assert.Equal(t, 200, calls.BatchWriteItem)
	assert.Zero(t, store.Count("aurora-log-file-tracking"))
	assert.Equal(t, []int{1000, 2000, 3000, 4000, 5000}, reporter.progress)

	deleted := store.DeletedKeys("aurora-log-file-tracking")
	require.Len(t, deleted, 5000)
	for _, key := range deleted {
		assert.Len(t, key, 2)
		assert.Contains(t, key, "instance_id")
		assert.Contains(t, key, "log_file")
	}
}

func TestEmptyTableHonoursPageSize(t *testing.T) {
	store := fakeddb.New()
	seedHashOnly(t, store, "t", 250)
	reporter := &recordingReporter{}
	d := NewTableEmptierService(store, reporter, nil)

	result := d.EmptyTable(context.Background(), models.EmptyTableInput{TableName: "t", PageSize: 60})
	require.NoError(t, result.Err)
	assert.Equal(t, 250, result.DeletedItems)
	// 60, 60, 60, 60, 10 items per page; each page of 60 needs three batches
	assert.Equal(t, 5, store.Calls("t").Scan)
	assert.Equal(t, 13, store.Calls("t").BatchWriteItem)
	assert.Equal(t, []int{120, 240}, reporter.progress)
	for _, in := range store.ScanInputs() {
		assert.Equal(t, int32(60), aws.ToInt32(in.Limit))
	}
}

func TestEmptyTableScanFailure(t *testing.T) {
	store := fakeddb.New()
	seedHashOnly(t, store, "t", 150)
	store.PageSize = 50
	store.ScanErr = func(_ string, call int) error {
		if call == 2 {
			return errors.New("RequestLimitExceeded")
		}
		return nil
	}
	d := NewTableEmptierService(store, nil, nil)

	result := d.EmptyTable(context.Background(), models.EmptyTableInput{TableName: "t"})
	require.ErrorIs(t, result.Err, ErrScanFailure)
	assert.Equal(t, 50, result.DeletedItems)
	assert.Equal(t, 100, store.Count("t"))
}

func TestEmptyTableBatchDeleteFailureStopsTable(t *testing.T) {
	store := fakeddb.New()
	seedHashOnly(t, store, "t", 200)
	store.PageSize = 100
	store.BatchWriteErr = func(_ string, call int) error {
		if call == 3 {
			return errors.New("InternalServerError")
		}
		return nil
	}
	d := NewTableEmptierService(store, nil, nil)

	result := d.EmptyTable(context.Background(), models.EmptyTableInput{TableName: "t"})
	require.ErrorIs(t, result.Err, ErrBatchDeleteFailure)
	assert.True(t, result.Failed())
	assert.Equal(t, 50, result.DeletedItems)
	assert.Equal(t, 150, store.Count("t"))
	// the rest of the page and the second page are not attempted
	assert.Equal(t, 3, store.Calls("t").BatchWriteItem)
	assert.Equal(t, 1, store.Calls("t").Scan)
}

func TestEmptyTableUnprocessedItemsAreNotCounted(t *testing.T) {
	store := fakeddb.New()
	seedHashOnly(t, store, "t", 25)
	store.Unprocessed = func(string, int) int { return 5 }
	d := NewTableEmptierService(store, nil, nil)

	result := d.EmptyTable(context.Background(), models.EmptyTableInput{TableName: "t"})
	require.NoError(t, result.Err)
	assert.Equal(t, 20, result.DeletedItems)
	assert.Equal(t, 5, result.UnprocessedItems)
	assert.Equal(t, 5, store.Count("t"))
}

func TestEmptyTableMissingTable(t *testing.T) {
	store := fakeddb.New()
	reporter := &recordingReporter{}
	d := NewTableEmptierService(store, reporter, nil)

	result := d.EmptyTable(context.Background(), models.EmptyTableInput{TableName: "ghost"})
	require.ErrorIs(t, result.Err, ErrSchemaUnavailable)
	assert.Empty(t, reporter.started)
	assert.Zero(t, store.Calls("ghost").Scan)
}
