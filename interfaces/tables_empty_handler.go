package interfaces

import (
	"context"

	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/models"
)

type TablesEmptyHandler interface {
	HandleEmptyTables(ctx context.Context) (models.RunSummary, error)
}

// Confirmer asks the operator whether the destructive run may proceed.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// ProgressReporter receives the operator-facing lines of a run. Implementations
// must be safe for use by several table workers at once.
type ProgressReporter interface {
	Warning(account string, tables []string)
	Cancelled()
	TableStarted(schema models.TableKeySchema)
	TableProgress(tableName string, deleted int)
	TableDone(result models.EmptyTableResult)
	TableFailed(result models.EmptyTableResult)
	Summary(summary models.RunSummary)
}
