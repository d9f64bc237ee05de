// Package searchindex loads a paragraph corpus into a full-text search
// backend and queries it. The local backend keeps the index in process; the
// Meilisearch backend targets an external server.
package searchindex

import (
	"context"

	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/internal/corpus"
)

// Hit is one paragraph returned by a backend search.
type Hit struct {
	ID        int     `json:"id"`
	Paragraph string  `json:"paragraph"`
	Score     float64 `json:"score"`
}

// Backend is a full-text index that paragraphs can be bulk loaded into.
type Backend interface {
	// Recreate drops any index named settings.Name and creates an empty one.
	Recreate(ctx context.Context, settings config.IndexSettings) error
	// BulkIndex adds one batch of paragraphs to the named index.
	BulkIndex(ctx context.Context, name string, batch []corpus.Entry) error
	// Flush makes everything indexed so far durable and searchable.
	Flush(ctx context.Context, name string) error
	Search(ctx context.Context, name, query string, limit int) ([]Hit, error)
}
