package domainmodel

import "errors"

var (
	// ErrSchemaUnavailable is returned when the table description could not be read.
	ErrSchemaUnavailable = errors.New("table key schema unavailable")

	// ErrInvalidKeySchema is returned when the description names no partition key.
	ErrInvalidKeySchema = errors.New("table key schema has no partition key")

	// ErrScanFailure is returned when a scan page request fails.
	ErrScanFailure = errors.New("table scan failed")

	// ErrBatchDeleteFailure is returned when a batch write of delete requests fails.
	ErrBatchDeleteFailure = errors.New("batch delete failed")
)
