package interfaces

import (
	"context"

	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/models"
)

type TableEmptier interface {
	EmptyTable(ctx context.Context, eti models.EmptyTableInput) models.EmptyTableResult
}
