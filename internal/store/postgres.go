// Package store implements the persistence gateway over PostgreSQL.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/proplist/importer/internal/listing"
)

// DB is the subset of pgxpool.Pool the store needs. Narrowing the
// dependency keeps the store testable without a live database.
type DB interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Ping(ctx context.Context) error
}

// listingColumns must match the order of values built in InsertMany.
var listingColumns = []string{"id", "title", "price", "project_id", "created_by", "created_at"}

// ListingStore persists validated property listings.
type ListingStore struct {
	db DB
}

// NewListingStore creates a store backed by db (typically *pgxpool.Pool).
func NewListingStore(db DB) *ListingStore {
	return &ListingStore{db: db}
}

// InsertMany durably stores one batch of validated listings using the
// PostgreSQL COPY protocol and returns them with their generated
// identifiers. Identifiers are assigned client-side so the stored records
// can be returned without a round trip per row.
func (s *ListingStore) InsertMany(ctx context.Context, records []listing.Record) ([]listing.Stored, error) {
	stored := make([]listing.Stored, len(records))
	rows := make([][]any, len(records))

	for i, rec := range records {
		id := uuid.New()
		stored[i] = listing.Stored{ID: id, Record: rec}
		rows[i] = []any{
			pgtype.UUID{Bytes: id, Valid: true},
			rec.Title,
			rec.Price,
			rec.ProjectID,
			rec.CreatedBy,
			rec.CreatedAt,
		}
	}

	n, err := s.db.CopyFrom(ctx,
		pgx.Identifier{"property_listings"},
		listingColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return nil, fmt.Errorf("copy listings: %w", err)
	}
	if n != int64(len(records)) {
		return nil, fmt.Errorf("copy listings: stored %d of %d rows", n, len(records))
	}

	return stored, nil
}

// Ping verifies database connectivity, used by the health endpoint.
func (s *ListingStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
