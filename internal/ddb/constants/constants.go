package constants

import "github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/models"

const (
	CliRequestId    models.RequestId = "request-id"
	LogRequestIdKey                  = "request-id"
	LogErrorKey                      = "error"
	LogTableNameKey                  = "table-name"
	LogLayerKey                      = "layer"
)

const BatchWriteItemSize = 25

// ProgressInterval is the number of deleted items between progress lines.
const ProgressInterval = 100

const (
	DefaultAwsRegion = "us-east-1"
	DefaultWorkers   = 3
	DefaultLogLevel  = "info"
)

// DefaultTables are emptied when no table list is configured.
var DefaultTables = []string{
	"aurora-instance-metadata",
	"aurora-log-file-tracking",
	"aurora-log-processing-jobs",
}

const AffirmativeToken = "yes"
