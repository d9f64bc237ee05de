package search

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/index"
	"github.com/gcbaptista/go-mrc-prep/internal/tokenizer"
	"github.com/gcbaptista/go-mrc-prep/services"
	"github.com/gcbaptista/go-mrc-prep/store"
)

const defaultLimit = 10

// termScorer scores one query term against one paragraph.
type termScorer interface {
	score(term string, paraID uint32, termFreq int) float64
}

// Service implements the search logic for a single paragraph index.
// It fulfills the services.Searcher interface.
type Service struct {
	invertedIndex  *index.InvertedIndex
	paragraphStore *store.ParagraphStore
	settings       *config.IndexSettings
	segmenter      tokenizer.Segmenter
}

// NewService creates a new search Service. A nil segmenter treats query
// strings as already segmented and space-joined.
func NewService(invIndex *index.InvertedIndex, paragraphStore *store.ParagraphStore, settings *config.IndexSettings, segmenter tokenizer.Segmenter) (*Service, error) {
	if invIndex == nil {
		return nil, fmt.Errorf("inverted index cannot be nil")
	}
	if paragraphStore == nil {
		return nil, fmt.Errorf("paragraph store cannot be nil")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}
	if problems := settings.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid settings for index '%s': %s", settings.Name, strings.Join(problems, "; "))
	}
	if segmenter == nil {
		segmenter = tokenizer.WhitespaceSegmenter{}
	}

	return &Service{
		invertedIndex:  invIndex,
		paragraphStore: paragraphStore,
		settings:       settings,
		segmenter:      segmenter,
	}, nil
}

// QueryTerms returns the analyzed terms a query is matched with.
func (s *Service) QueryTerms(query services.SearchQuery) []string {
	tokens := query.Tokens
	if len(tokens) == 0 {
		tokens = s.segmenter.Cut(query.QueryString)
	}
	return tokenizer.Analyze(strings.Join(tokens, " "))
}

func (s *Service) scorerUnsafe() termScorer {
	if s.settings.Similarity.Type == config.SimilarityBM25 {
		return NewBM25Calculator(s.invertedIndex, s.paragraphStore)
	}
	return NewLMJelinekMercerCalculator(s.invertedIndex, s.paragraphStore, s.settings.Similarity.Lambda)
}

// Search scores every paragraph containing at least one query term and
// returns the best Limit of them. Each occurrence of a term in the query
// contributes once. Hits are ordered by score, then by paragraph id.
func (s *Service) Search(query services.SearchQuery) (services.SearchResult, error) {
	startTime := time.Now()

	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	terms := s.QueryTerms(query)

	s.paragraphStore.Mu.RLock()
	s.invertedIndex.Mu.RLock()
	defer s.paragraphStore.Mu.RUnlock()
	defer s.invertedIndex.Mu.RUnlock()

	scorer := s.scorerUnsafe()
	candidates := make(map[uint32]*candidateHit)
	for _, term := range terms {
		for _, posting := range s.invertedIndex.Index[term] {
			candidate, ok := candidates[posting.ParaID]
			if !ok {
				candidate = &candidateHit{paraID: posting.ParaID, matchedSet: make(map[string]struct{})}
				candidates[posting.ParaID] = candidate
			}
			candidate.score += scorer.score(term, posting.ParaID, posting.TF)
			if _, seen := candidate.matchedSet[term]; !seen {
				candidate.matchedSet[term] = struct{}{}
				candidate.matchedTerms = append(candidate.matchedTerms, term)
			}
		}
	}

	ranked := make([]*candidateHit, 0, len(candidates))
	for _, candidate := range candidates {
		ranked = append(ranked, candidate)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].paraID < ranked[j].paraID
	})

	total := len(ranked)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	hits := make([]services.HitResult, 0, len(ranked))
	for _, candidate := range ranked {
		text, _ := s.paragraphStore.Get(candidate.paraID)
		hits = append(hits, services.HitResult{
			ParagraphID:  int(candidate.paraID),
			Paragraph:    text,
			Score:        candidate.score,
			MatchedTerms: candidate.matchedTerms,
		})
	}

	return services.SearchResult{
		Hits:    hits,
		Total:   total,
		Took:    time.Since(startTime).Milliseconds(),
		QueryId: uuid.New().String(),
	}, nil
}
