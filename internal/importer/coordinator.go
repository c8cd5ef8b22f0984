package importer

import (
	"context"
	"io"
	"time"

	"github.com/proplist/importer/internal/listing"
)

// DefaultBatchSize is the number of validated rows buffered before one
// persistence call. Submitting per batch bounds peak memory independent of
// file size and gives partial progress if a later batch fails.
const DefaultBatchSize = 1000

// Gateway is the persistence boundary. InsertMany durably stores one
// bounded batch and returns the stored records with generated identifiers.
type Gateway interface {
	InsertMany(ctx context.Context, records []listing.Record) ([]listing.Stored, error)
}

// Coordinator drives the decode-validate-persist loop for one import
// request. It owns no state across invocations; concurrent imports each
// carry their own buffers.
type Coordinator struct {
	gateway   Gateway
	batchSize int
	now       func() time.Time
}

// NewCoordinator creates a coordinator submitting batches of batchSize
// rows to gw. A non-positive batchSize falls back to DefaultBatchSize.
func NewCoordinator(gw Gateway, batchSize int) *Coordinator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Coordinator{
		gateway:   gw,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Import pulls rows from the reader one at a time, validates each, buffers
// valid records and accumulates row errors, submitting a batch to the
// gateway whenever the buffer fills. callerID is attached to every valid
// record before submission.
//
// Import fails only on decode-fatal errors (DecodeError), persistence
// failures (GatewayError), context cancellation, or total absence of valid
// records (NoValidRecordsError). Validation failures never abort the
// import; they populate the summary's error report.
func (c *Coordinator) Import(ctx context.Context, rows RowReader, callerID string) (*Summary, error) {
	start := time.Now()

	var (
		buffer    []listing.Record
		rowErrors []RowError
		rowNum    int
		valid     int
		stored    int
		batchNum  int
	)

	for {
		raw, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		// Counts every data row, valid or not; never renumbered.
		rowNum++

		rec, verr := ValidateRow(raw)
		if verr != nil {
			rowErrors = append(rowErrors, RowError{
				Row:     rowNum,
				Data:    raw,
				Message: verr.Error(),
			})
			continue
		}

		rec.CreatedBy = callerID
		rec.CreatedAt = c.now()
		buffer = append(buffer, rec)
		valid++

		if len(buffer) >= c.batchSize {
			batchNum++
			n, err := c.submit(ctx, buffer, batchNum)
			if err != nil {
				return nil, err
			}
			stored += n
			buffer = buffer[:0]
		}
	}

	if len(buffer) > 0 {
		batchNum++
		n, err := c.submit(ctx, buffer, batchNum)
		if err != nil {
			return nil, err
		}
		stored += n
	}

	summary := &Summary{
		TotalProcessed:   valid + len(rowErrors),
		Successful:       stored,
		Failed:           len(rowErrors),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		ValidationErrors: rowErrors,
	}

	if valid == 0 {
		return nil, &NoValidRecordsError{Summary: summary}
	}
	return summary, nil
}

// submit sends one batch to the gateway. Batches are never empty; the
// caller guarantees that. A gateway failure is fatal to the remainder of
// the import — already-persisted batches are kept, not compensated.
func (c *Coordinator) submit(ctx context.Context, batch []listing.Record, batchNum int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	accepted, err := c.gateway.InsertMany(ctx, batch)
	if err != nil {
		return 0, &GatewayError{Batch: batchNum, Err: err}
	}
	return len(accepted), nil
}
