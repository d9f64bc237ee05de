package services

import (
	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/internal/corpus"
	"github.com/gcbaptista/go-mrc-prep/model"
)

// HitResult represents a single paragraph in the search results.
type HitResult struct {
	ParagraphID  int      `json:"paragraph_id"`
	Paragraph    string   `json:"paragraph"`
	Score        float64  `json:"score"`
	MatchedTerms []string `json:"matched_terms"` // Query terms found in the paragraph, in query order
}

type SearchResult struct {
	Hits    []HitResult `json:"hits"`
	Total   int         `json:"total"` // Paragraphs matching at least one term, before Limit is applied
	Took    int64       `json:"took"`  // milliseconds
	QueryId string      `json:"query_id"`
}

// SearchQuery is either a raw query string, which is segmented before
// matching, or a pre-segmented token list. Tokens wins when both are set.
type SearchQuery struct {
	QueryString string   `json:"query"`
	Tokens      []string `json:"tokens,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

// Indexer defines operations for adding paragraphs to an index
type Indexer interface {
	AddParagraphs(entries []corpus.Entry) error
	DeleteAllParagraphs() error
	DeleteParagraph(paraID int) error
}

// Searcher defines operations for querying an index
type Searcher interface {
	Search(query SearchQuery) (SearchResult, error)
}

// IndexStats summarises the contents of an index.
type IndexStats struct {
	Paragraphs  int `json:"paragraphs"`
	Terms       int `json:"terms"`
	TotalTokens int `json:"total_tokens"`
}

type IndexAccessor interface {
	Indexer
	Searcher
	Settings() config.IndexSettings
	Stats() IndexStats
}

// IndexManager manages the lifecycle of indices
type IndexManager interface {
	// CreateIndex creates the index, replacing any index with the same name.
	CreateIndex(settings config.IndexSettings) error
	GetIndex(name string) (IndexAccessor, error)
	GetIndexSettings(name string) (config.IndexSettings, error)
	DeleteIndex(name string) error
	ListIndexes() []string
	PersistIndexData(indexName string) error
}

// JobManager defines operations for managing background jobs
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(target string, status *model.JobStatus) []*model.Job
}
