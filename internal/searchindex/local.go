package searchindex

import (
	"context"

	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/internal/corpus"
	"github.com/gcbaptista/go-mrc-prep/services"
)

// LocalBackend indexes paragraphs in process and persists them under the
// manager's data directory.
type LocalBackend struct {
	manager services.IndexManager
}

// NewLocalBackend wraps an index manager, usually an *engine.Engine.
func NewLocalBackend(manager services.IndexManager) *LocalBackend {
	return &LocalBackend{manager: manager}
}

func (b *LocalBackend) Recreate(ctx context.Context, settings config.IndexSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.manager.CreateIndex(settings)
}

func (b *LocalBackend) BulkIndex(ctx context.Context, name string, batch []corpus.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	idx, err := b.manager.GetIndex(name)
	if err != nil {
		return err
	}
	return idx.AddParagraphs(batch)
}

func (b *LocalBackend) Flush(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.manager.PersistIndexData(name)
}

func (b *LocalBackend) Search(ctx context.Context, name, query string, limit int) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, err := b.manager.GetIndex(name)
	if err != nil {
		return nil, err
	}
	result, err := idx.Search(services.SearchQuery{QueryString: query, Limit: limit})
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, Hit{ID: h.ParagraphID, Paragraph: h.Paragraph, Score: h.Score})
	}
	return hits, nil
}
