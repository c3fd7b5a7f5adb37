// Package store persists pipeline results and reference document collections
// behind a driver-agnostic interface with SQLite and Postgres backends.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/underwriting-cli/internal/model"
)

// ErrNotFound is returned when a quote ID has no stored result.
var ErrNotFound = eris.New("store: not found")

// ResultFilter specifies criteria for listing stored results.
type ResultFilter struct {
	ClientName string `json:"client_name,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the underwriting pipeline.
type Store interface {
	// Results. SaveResult upserts by quote ID and attaches the saved_at
	// timestamp; re-saving the same quote replaces the previous record.
	SaveResult(ctx context.Context, result *model.PipelineResult) (*model.StoredResult, error)
	GetResult(ctx context.Context, quoteID string) (*model.StoredResult, error)
	ListResults(ctx context.Context, filter ResultFilter) ([]model.StoredResult, error)

	// Reference documents. ReplaceCollection atomically swaps the named
	// collection's contents; ListDocuments returns documents with embeddings.
	ReplaceCollection(ctx context.Context, collection string, docs []model.Document) error
	ListDocuments(ctx context.Context, collection string) ([]model.Document, error)
	CountDocuments(ctx context.Context, collection string) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
