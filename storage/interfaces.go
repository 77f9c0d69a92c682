package storage

import (
	"context"

	"github.com/poiesic/aisearch/core"
)

// Counts reports how many vectors an index holds at each granularity.
type Counts struct {
	Documents int
	Passages  int
}

// VectorIndex answers nearest-neighbor queries over document and passage vectors.
// Implementations must be thread-safe and support concurrent access.
type VectorIndex interface {
	// QueryNearest returns up to k hits ranked by cosine similarity to vector,
	// highest first, equal scores ordered by document id.
	// Passage hits carry the matched passage without its vector.
	// An empty index yields an empty slice and no error.
	QueryNearest(ctx context.Context, vector []float32, k int, granularity core.Granularity) ([]core.Hit, error)

	// GetVector returns the document-level vector of a document.
	// Returns ErrNotFound if the document is unknown or has no vector.
	GetVector(ctx context.Context, documentID string) ([]float32, error)

	// Counts returns the number of indexed documents and passages.
	Counts(ctx context.Context) (Counts, error)

	// Name identifies the backend for status reporting.
	Name() string
}

// MetadataSource resolves descriptive metadata for documents.
type MetadataSource interface {
	// GetMetadata returns the metadata of a document.
	// Returns ErrNotFound if the document is unknown.
	GetMetadata(ctx context.Context, documentID string) (*core.Metadata, error)
}

// DocumentWriter populates an index. Only the indexing pipeline writes.
type DocumentWriter interface {
	// PutDocument stores a document and replaces all of its passages.
	PutDocument(ctx context.Context, doc *core.Document, passages []*core.Passage) error

	// DeleteDocument removes a document and its passages.
	// Returns ErrNotFound if the document is unknown.
	DeleteDocument(ctx context.Context, documentID string) error
}

// Index is the full contract of a storage backend.
type Index interface {
	VectorIndex
	MetadataSource
	DocumentWriter

	// Close releases resources held by the backend.
	Close() error
}

// SummaryCache stores generated summaries keyed by the fingerprint of their source text.
type SummaryCache interface {
	// GetSummary returns a cached summary and whether it was present.
	GetSummary(ctx context.Context, key core.Fingerprint) (string, bool, error)

	// PutSummary stores a summary.
	PutSummary(ctx context.Context, key core.Fingerprint, summary string) error
}
