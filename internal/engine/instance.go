package engine

import (
	"fmt"

	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/index"
	"github.com/gcbaptista/go-mrc-prep/internal/corpus"
	"github.com/gcbaptista/go-mrc-prep/internal/indexing"
	"github.com/gcbaptista/go-mrc-prep/internal/search"
	"github.com/gcbaptista/go-mrc-prep/internal/tokenizer"
	"github.com/gcbaptista/go-mrc-prep/services"
	"github.com/gcbaptista/go-mrc-prep/store"
)

// IndexInstance holds all components and services for a single paragraph index.
// It implements the services.IndexAccessor interface.
type IndexInstance struct {
	settings       *config.IndexSettings
	InvertedIndex  *index.InvertedIndex
	ParagraphStore *store.ParagraphStore
	indexer        *indexing.Service
	searcher       *search.Service
}

// NewIndexInstance creates an empty index.
func NewIndexInstance(settings config.IndexSettings, segmenter tokenizer.Segmenter) (*IndexInstance, error) {
	return newIndexInstance(&settings, index.NewInvertedIndex(&settings), store.NewParagraphStore(), segmenter)
}

func newIndexInstance(settings *config.IndexSettings, invIndex *index.InvertedIndex, paragraphStore *store.ParagraphStore, segmenter tokenizer.Segmenter) (*IndexInstance, error) {
	if settings.Name == "" {
		return nil, fmt.Errorf("index name cannot be empty in settings")
	}
	invIndex.Mu.Lock()
	invIndex.Settings = settings
	invIndex.Mu.Unlock()

	indexerService, err := indexing.NewService(invIndex, paragraphStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer service: %w", err)
	}
	searchService, err := search.NewService(invIndex, paragraphStore, settings, segmenter)
	if err != nil {
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}

	return &IndexInstance{
		settings:       settings,
		InvertedIndex:  invIndex,
		ParagraphStore: paragraphStore,
		indexer:        indexerService,
		searcher:       searchService,
	}, nil
}

// AddParagraphs delegates to the underlying Indexer service.
func (i *IndexInstance) AddParagraphs(entries []corpus.Entry) error {
	return i.indexer.AddParagraphs(entries)
}

// DeleteAllParagraphs delegates to the underlying Indexer service.
func (i *IndexInstance) DeleteAllParagraphs() error {
	return i.indexer.DeleteAllParagraphs()
}

// DeleteParagraph delegates to the underlying Indexer service.
func (i *IndexInstance) DeleteParagraph(paraID int) error {
	return i.indexer.DeleteParagraph(paraID)
}

// Search delegates to the underlying Searcher service.
func (i *IndexInstance) Search(query services.SearchQuery) (services.SearchResult, error) {
	return i.searcher.Search(query)
}

// Settings returns the configuration settings for this index.
func (i *IndexInstance) Settings() config.IndexSettings {
	return *i.settings
}

// Stats reports the size of the index.
func (i *IndexInstance) Stats() services.IndexStats {
	i.ParagraphStore.Mu.RLock()
	i.InvertedIndex.Mu.RLock()
	defer i.ParagraphStore.Mu.RUnlock()
	defer i.InvertedIndex.Mu.RUnlock()

	return services.IndexStats{
		Paragraphs:  i.ParagraphStore.Len(),
		Terms:       len(i.InvertedIndex.Index),
		TotalTokens: i.InvertedIndex.TotalTokens,
	}
}
