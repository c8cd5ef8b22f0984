// Package listing defines the property listing domain model shared by the
// import pipeline and the persistence layer.
package listing

import (
	"time"

	"github.com/google/uuid"
)

// Record is a fully validated property listing ready for persistence.
// A Record is only ever produced by the import validator; there is no
// partially populated state.
type Record struct {
	Title     string
	Price     float64
	ProjectID string

	// CreatedBy is the opaque caller identity attached by the import
	// coordinator before the record is submitted for persistence.
	CreatedBy string
	CreatedAt time.Time
}

// Stored is a Record after persistence, carrying its generated identifier.
type Stored struct {
	ID uuid.UUID
	Record
}
