package models

type RequestId string

type TableKeySchema struct {
	TableName    string
	PartitionKey string
	RangeKey     string
}

// HasRangeKey reports whether the table has a sort key.
func (s TableKeySchema) HasRangeKey() bool {
	return s.RangeKey != ""
}

type EmptyTableInput struct {
	TableName string
	// PageSize caps items per scan page; zero leaves it to the store.
	PageSize int32
}

type EmptyTableResult struct {
	TableName             string
	DeletedItems          int
	UnprocessedItems      int
	ConsumedCapacityUnits float64
	Err                   error
}

// Failed reports whether the table task ended with an error.
func (r EmptyTableResult) Failed() bool {
	return r.Err != nil
}

type RunSummary struct {
	Cancelled         bool
	TotalDeletedItems int
	Results           []EmptyTableResult
}

// FailedTables returns the results whose task ended with an error, in
// completion order.
func (s RunSummary) FailedTables() []EmptyTableResult {
	var failed []EmptyTableResult
	for _, r := range s.Results {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}
