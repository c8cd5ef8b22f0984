// Package importer implements the bulk-import pipeline for property
// listings: a streaming row decoder, a per-row schema validator, and a
// coordinator that batches validated rows into persistence calls.
// The package has no HTTP dependencies and can be driven by any intake.
package importer

import (
	"errors"
	"fmt"
)

// RawRecord is one decoded, not-yet-validated row as a header→value
// mapping. The header set is whatever the input file declares; unknown
// columns are carried here but never survive validation.
type RawRecord map[string]string

// RowError describes a single rejected data row. Row numbers are 1-based
// and count data rows only; the header line is never row 1.
type RowError struct {
	Row     int       `json:"row"`
	Data    RawRecord `json:"data"`
	Message string    `json:"error"`
}

// Summary is the outcome of one import invocation. It is assembled once,
// after the row stream is exhausted, and never mutated afterwards.
type Summary struct {
	// TotalProcessed is always ValidCount + Failed.
	TotalProcessed int
	// Successful counts records acknowledged by the persistence gateway.
	Successful int
	// Failed counts rows rejected by validation.
	Failed int
	// ProcessingTimeMs is wall-clock duration of the decode-validate-persist
	// loop, measured from just after intake validation.
	ProcessingTimeMs int64
	// ValidationErrors holds one entry per failed row, in file order.
	ValidationErrors []RowError
}

// ErrEmptyFile is returned when the input contains no bytes at all, before
// any decoding is attempted.
var ErrEmptyFile = errors.New("empty CSV file provided")

// ErrTooManyImports is returned by the Limiter when every slot is occupied
// and the wait timeout expires. Clients should retry after a short delay.
var ErrTooManyImports = errors.New("too many concurrent imports, please try again later")

// DecodeError marks a structural failure of the input framing (bad quoting,
// broken encoding). Once framing is lost the position of subsequent rows
// cannot be trusted, so the whole import aborts.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed input file: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NoValidRecordsError is returned when every data row failed validation
// (or the file had no data rows at all). The persistence gateway is never
// invoked in this case; Summary carries the full error report.
type NoValidRecordsError struct {
	Summary *Summary
}

func (e *NoValidRecordsError) Error() string {
	return "no valid records found in file"
}

// GatewayError marks a persistence failure on a specific batch. Batches
// submitted before the failing one remain persisted; the import reports an
// internal-error condition rather than a partial summary.
type GatewayError struct {
	Batch int
	Err   error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("persist batch %d: %v", e.Batch, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
