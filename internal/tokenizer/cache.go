package tokenizer

import (
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedSegmenter remembers the cuts of recently seen texts. Questions repeat
// across best-match and search requests and jieba cuts are comparatively slow.
// It is safe for concurrent use when the wrapped segmenter is.
type CachedSegmenter struct {
	next  Segmenter
	cache *lru.Cache[string, []string]
}

// NewCachedSegmenter wraps next with a cache of at most size texts.
func NewCachedSegmenter(next Segmenter, size int) (*CachedSegmenter, error) {
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("creating segmenter cache: %w", err)
	}
	return &CachedSegmenter{next: next, cache: cache}, nil
}

// Cut implements Segmenter. The returned slice is owned by the caller.
func (s *CachedSegmenter) Cut(text string) []string {
	if tokens, ok := s.cache.Get(text); ok {
		return slices.Clone(tokens)
	}
	tokens := s.next.Cut(text)
	s.cache.Add(text, slices.Clone(tokens))
	return tokens
}

// Len returns the number of cached texts.
func (s *CachedSegmenter) Len() int {
	return s.cache.Len()
}
