package indexing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gcbaptista/go-mrc-prep/index"
	"github.com/gcbaptista/go-mrc-prep/internal/corpus"
	"github.com/gcbaptista/go-mrc-prep/internal/errors"
	"github.com/gcbaptista/go-mrc-prep/internal/tokenizer"
	"github.com/gcbaptista/go-mrc-prep/store"
)

// microBatchSize bounds how many paragraphs are added per lock acquisition.
const microBatchSize = 500

// Service implements the indexing logic for a single paragraph index.
// It fulfills the services.Indexer interface.
type Service struct {
	invertedIndex  *index.InvertedIndex
	paragraphStore *store.ParagraphStore
}

// NewService creates a new indexing Service.
func NewService(invertedIndex *index.InvertedIndex, paragraphStore *store.ParagraphStore) (*Service, error) {
	if invertedIndex == nil {
		return nil, fmt.Errorf("inverted index cannot be nil")
	}
	if paragraphStore == nil {
		return nil, fmt.Errorf("paragraph store cannot be nil")
	}
	if invertedIndex.Settings == nil {
		return nil, fmt.Errorf("inverted index settings cannot be nil")
	}
	if invertedIndex.Index == nil || invertedIndex.CollectionFreq == nil {
		invertedIndex.Reset()
	}
	if paragraphStore.Paragraphs == nil || paragraphStore.Lengths == nil {
		paragraphStore.Reset()
	}
	return &Service{
		invertedIndex:  invertedIndex,
		paragraphStore: paragraphStore,
	}, nil
}

// AddParagraphs indexes a batch of corpus entries. An entry whose id is
// already indexed replaces the previous paragraph.
// This satisfies the services.Indexer interface.
func (s *Service) AddParagraphs(entries []corpus.Entry) error {
	for _, entry := range entries {
		if entry.ID < 0 || int64(entry.ID) > math.MaxUint32 {
			return fmt.Errorf("paragraph id %d is out of range", entry.ID)
		}
	}

	for i := 0; i < len(entries); i += microBatchSize {
		end := min(i+microBatchSize, len(entries))
		s.addMicroBatch(entries[i:end])

		// Let pending searches acquire the read locks between micro-batches
		if end < len(entries) {
			time.Sleep(time.Millisecond)
		}
	}
	return nil
}

func (s *Service) addMicroBatch(entries []corpus.Entry) {
	s.paragraphStore.Mu.Lock()
	s.invertedIndex.Mu.Lock()
	defer s.paragraphStore.Mu.Unlock()
	defer s.invertedIndex.Mu.Unlock()

	for _, entry := range entries {
		s.addParagraphUnsafe(uint32(entry.ID), entry.Paragraph) // #nosec G115 -- range checked in AddParagraphs
	}
}

// addParagraphUnsafe assumes the caller holds both write locks.
func (s *Service) addParagraphUnsafe(paraID uint32, text string) {
	if _, exists := s.paragraphStore.Paragraphs[paraID]; exists {
		s.removeParagraphUnsafe(paraID)
	}

	terms := tokenizer.Analyze(text)
	tf := make(map[string]int, len(terms))
	for _, term := range terms {
		tf[term]++
	}
	for term, freq := range tf {
		s.invertedIndex.Index[term] = append(s.invertedIndex.Index[term], index.Posting{ParaID: paraID, TF: freq})
		s.invertedIndex.CollectionFreq[term] += freq
	}
	s.invertedIndex.TotalTokens += len(terms)

	s.paragraphStore.Paragraphs[paraID] = strings.Join(terms, " ")
	s.paragraphStore.Lengths[paraID] = len(terms)
}

// removeParagraphUnsafe assumes the caller holds both write locks.
func (s *Service) removeParagraphUnsafe(paraID uint32) {
	text := s.paragraphStore.Paragraphs[paraID]
	terms := tokenizer.Analyze(text)
	tf := make(map[string]int, len(terms))
	for _, term := range terms {
		tf[term]++
	}
	for term, freq := range tf {
		remaining := s.invertedIndex.Index[term].Without(paraID)
		if len(remaining) == 0 {
			delete(s.invertedIndex.Index, term)
			delete(s.invertedIndex.CollectionFreq, term)
			continue
		}
		s.invertedIndex.Index[term] = remaining
		s.invertedIndex.CollectionFreq[term] -= freq
	}
	s.invertedIndex.TotalTokens -= len(terms)

	delete(s.paragraphStore.Paragraphs, paraID)
	delete(s.paragraphStore.Lengths, paraID)
}

// DeleteAllParagraphs empties the index and the paragraph store.
// This satisfies the services.Indexer interface.
func (s *Service) DeleteAllParagraphs() error {
	s.paragraphStore.Mu.Lock()
	s.invertedIndex.Mu.Lock()
	defer s.paragraphStore.Mu.Unlock()
	defer s.invertedIndex.Mu.Unlock()

	s.paragraphStore.Reset()
	s.invertedIndex.Reset()
	return nil
}

// DeleteParagraph removes one paragraph by id.
// This satisfies the services.Indexer interface.
func (s *Service) DeleteParagraph(paraID int) error {
	if paraID < 0 || int64(paraID) > math.MaxUint32 {
		return &errors.ParagraphNotFoundError{ParagraphID: paraID}
	}
	id := uint32(paraID) // #nosec G115 -- range checked above

	s.paragraphStore.Mu.Lock()
	s.invertedIndex.Mu.Lock()
	defer s.paragraphStore.Mu.Unlock()
	defer s.invertedIndex.Mu.Unlock()

	if _, exists := s.paragraphStore.Paragraphs[id]; !exists {
		return &errors.ParagraphNotFoundError{ParagraphID: paraID}
	}
	s.removeParagraphUnsafe(id)
	return nil
}
