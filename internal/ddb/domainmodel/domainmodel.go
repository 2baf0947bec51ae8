package domainmodel

import (
	"context"
	"fmt"

	"github.com/sanjiv-madhavan/dynamodb-empty-tables/interfaces"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/constants"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/middleware"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/models"
)

type DomainModel struct {
	client   interfaces.DynamoDBAPI
	reporter interfaces.ProgressReporter
	log      *middleware.Middleware
}

var _ interfaces.TableEmptier = (*DomainModel)(nil)

func NewTableEmptierService(client interfaces.DynamoDBAPI, reporter interfaces.ProgressReporter,
	log *middleware.Middleware) *DomainModel {
	if log == nil {
		log = middleware.NewMiddleware(nil)
	}
	return &DomainModel{
		client:   client,
		reporter: reporter,
		log:      log.With(constants.LogLayerKey, "domainmodel"),
	}
}

// EmptyTable deletes every item of one table, page by page. Scanning and
// deleting alternate; the next page is requested only after the current one
// has been deleted. The first error stops the table and is returned in the
// result together with the items deleted so far.
func (d *DomainModel) EmptyTable(ctx context.Context, eti models.EmptyTableInput) models.EmptyTableResult {
	result := models.EmptyTableResult{TableName: eti.TableName}
	d.log.LogHandler(ctx, "Empty table request received",
		constants.LogTableNameKey, eti.TableName,
		"page-size", eti.PageSize)

	schema, err := d.CreateTableKeySchema(ctx, eti.TableName)
	if err != nil {
		result.Err = err
		return result
	}
	if d.reporter != nil {
		d.reporter.TableStarted(schema)
	}

	paginator, err := d.CreateScanPaginator(schema, eti.PageSize)
	if err != nil {
		result.Err = err
		return result
	}

	pages := 0
	for paginator.HasMorePages() {
		scanOutput, err := paginator.NextPage(ctx)
		if err != nil {
			d.log.LogError(ctx, "Failed to scan table page", err,
				constants.LogTableNameKey, eti.TableName,
				"page", pages+1,
				"deleted-so-far", result.DeletedItems)
			result.Err = fmt.Errorf("%w: table %s: page %d: %w", ErrScanFailure, eti.TableName, pages+1, err)
			return result
		}
		pages++
		if len(scanOutput.Items) == 0 {
			continue
		}

		before := result.DeletedItems
		outcome, err := d.batchDeleteItems(ctx, schema, scanOutput.Items)
		result.DeletedItems += outcome.deleted
		result.UnprocessedItems += outcome.unprocessed
		result.ConsumedCapacityUnits += outcome.capacity
		if outcome.unprocessed > 0 {
			d.log.LogWarn(ctx, "Items left unprocessed by batch write",
				constants.LogTableNameKey, eti.TableName,
				"unprocessed", outcome.unprocessed)
		}
		if err != nil {
			result.Err = err
			return result
		}

		if d.reporter != nil && result.DeletedItems/constants.ProgressInterval > before/constants.ProgressInterval {
			d.reporter.TableProgress(eti.TableName, result.DeletedItems)
		}
	}

	d.log.LogHandler(ctx, "Empty table summary report",
		constants.LogTableNameKey, eti.TableName,
		"pages", pages,
		"deleted-items", result.DeletedItems,
		"unprocessed-items", result.UnprocessedItems,
		"consumed-capacity-units", result.ConsumedCapacityUnits)
	return result
}
