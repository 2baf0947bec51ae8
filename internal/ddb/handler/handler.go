package handler

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/interfaces"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/client"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/config"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/console"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/constants"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/domainmodel"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/middleware"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/models"
)

const confirmQuestion = "Are you sure you want to continue?"

// TablesHandler confirms with the operator and then empties every configured
// table on a bounded pool of workers.
type TablesHandler struct {
	cfg       config.Config
	emptier   interfaces.TableEmptier
	confirmer interfaces.Confirmer
	reporter  interfaces.ProgressReporter
	// identity is optional; without it the prompt shows no account.
	identity interfaces.CallerIdentifier
	log      *middleware.Middleware
}

var _ interfaces.TablesEmptyHandler = (*TablesHandler)(nil)

func NewTablesHandler(cfg config.Config, emptier interfaces.TableEmptier, confirmer interfaces.Confirmer,
	reporter interfaces.ProgressReporter, identity interfaces.CallerIdentifier, log *middleware.Middleware) *TablesHandler {
	if log == nil {
		log = middleware.NewMiddleware(nil)
	}
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &TablesHandler{
		cfg:       cfg,
		emptier:   emptier,
		confirmer: confirmer,
		reporter:  reporter,
		identity:  identity,
		log:       log.With(constants.LogLayerKey, "handler"),
	}
}

// NewTablesHandlerFromConfig wires the AWS clients, the console and the
// table emptier for a real run.
func NewTablesHandlerFromConfig(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer,
	log *middleware.Middleware) (*TablesHandler, error) {

	awsCfg, err := client.NewAWSConfig(ctx, cfg.EndpointUrl, cfg.AwsRegion)
	if err != nil {
		return nil, err
	}

	printer := console.NewPrinter(out)
	var confirmer interfaces.Confirmer = console.NewLineConfirmer(in, out)
	if cfg.AssumeYes {
		confirmer = console.AutoConfirmer{}
	}
	var identity interfaces.CallerIdentifier
	if cfg.EndpointUrl == "" {
		identity = client.NewSTSClient(awsCfg)
	}

	emptier := domainmodel.NewTableEmptierService(client.NewDynamoDBClient(awsCfg, cfg.EndpointUrl), printer, log)
	return NewTablesHandler(cfg, emptier, confirmer, printer, identity, log), nil
}

func (h *TablesHandler) HandleEmptyTables(ctx context.Context) (models.RunSummary, error) {
	h.reporter.Warning(h.callerAccount(ctx), h.cfg.Tables)

	confirmed, err := h.confirmer.Confirm(ctx, confirmQuestion)
	if err != nil {
		return models.RunSummary{}, fmt.Errorf("confirmation failed: %w", err)
	}
	if !confirmed {
		h.log.LogHandler(ctx, "Operation cancelled by operator")
		h.reporter.Cancelled()
		return models.RunSummary{Cancelled: true}, nil
	}

	summary := models.RunSummary{}
	for result := range h.dispatch(ctx) {
		summary.Results = append(summary.Results, result)
		summary.TotalDeletedItems += result.DeletedItems
		if result.Failed() {
			h.log.LogError(ctx, "Table was not fully emptied", result.Err,
				constants.LogTableNameKey, result.TableName,
				"deleted-items", result.DeletedItems)
			h.reporter.TableFailed(result)
			continue
		}
		h.reporter.TableDone(result)
	}

	h.log.LogHandler(ctx, "Empty tables summary report",
		"tables", len(summary.Results),
		"failed-tables", len(summary.FailedTables()),
		"total-deleted-items", summary.TotalDeletedItems)
	h.reporter.Summary(summary)
	return summary, nil
}

// dispatch starts the workers and returns a channel carrying one result per
// table in completion order. The channel is closed after the last result.
func (h *TablesHandler) dispatch(ctx context.Context) <-chan models.EmptyTableResult {
	tables := h.cfg.Tables
	workers := min(max(h.cfg.Workers, 1), len(tables))

	tableStream := make(chan string)
	resultStream := make(chan models.EmptyTableResult, len(tables))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(worker int) {
			defer wg.Done()
			for tableName := range tableStream {
				h.log.LogDebug(ctx, "Worker picked table",
					"worker", worker,
					constants.LogTableNameKey, tableName)
				resultStream <- h.emptyTable(ctx, tableName)
			}
		}(i)
	}

	go func() {
		for _, tableName := range tables {
			tableStream <- tableName
		}
		close(tableStream)
		wg.Wait()
		close(resultStream)
	}()

	return resultStream
}

// emptyTable runs one table task. A panic is reported as a failed result.
func (h *TablesHandler) emptyTable(ctx context.Context, tableName string) (result models.EmptyTableResult) {
	defer func() {
		if r := recover(); r != nil {
			result = models.EmptyTableResult{
				TableName: tableName,
				Err:       fmt.Errorf("table %s: panic: %v", tableName, r),
			}
		}
	}()
	return h.emptier.EmptyTable(ctx, models.EmptyTableInput{
		TableName: tableName,
		PageSize:  h.cfg.PageSize,
	})
}

func (h *TablesHandler) callerAccount(ctx context.Context) string {
	if h.identity == nil {
		return ""
	}
	out, err := h.identity.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		h.log.LogWarn(ctx, "Couldn't resolve caller identity", constants.LogErrorKey, err.Error())
		return ""
	}
	return fmt.Sprintf("%s (%s)", aws.ToString(out.Account), aws.ToString(out.Arn))
}

type nopReporter struct{}

func (nopReporter) Warning(string, []string) {}
func (nopReporter) Cancelled() {}
func (nopReporter) TableStarted(models.TableKeySchema) {}
func (nopReporter) TableProgress(string, int) {}
func (nopReporter) TableDone(models.EmptyTableResult) {}
func (nopReporter) TableFailed(models.EmptyTableResult) {}
func (nopReporter) Summary(models.RunSummary) {}
