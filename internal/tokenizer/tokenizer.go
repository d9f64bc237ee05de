package tokenizer

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/yanyiwu/gojieba"
)

// nonWordRegex matches sequences of characters that are neither letters nor digits, in any script.
var nonWordRegex = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Tokenize converts a string into normalized index terms.
// It lowercases the text and splits it on anything that is not a letter or a digit.
// CJK runs are kept whole; segment them first when word-level terms are wanted.
func Tokenize(text string) []string {
	lowerText := strings.ToLower(text)
	split := nonWordRegex.Split(lowerText, -1)

	tokens := make([]string, 0) // Initialize as empty slice, not nil
	for _, s := range split {
		if s != "" {
			tokens = append(tokens, s)
		}
	}
	return tokens
}

// Analyze splits space-joined segmented text into lowercased index terms.
// Punctuation tokens produced by the segmenter are kept as terms.
func Analyze(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Segmenter turns raw text into a token sequence.
type Segmenter interface {
	Cut(text string) []string
}

// Segmenter names accepted by NewSegmenter.
const (
	SegmenterWhitespace = "whitespace"
	SegmenterWords      = "words"
	SegmenterJieba      = "jieba"
)

// NewSegmenter returns the named segmenter and a function releasing it.
func NewSegmenter(name string) (Segmenter, func(), error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SegmenterWhitespace:
		return WhitespaceSegmenter{}, func() {}, nil
	case SegmenterWords:
		return WordSegmenter{}, func() {}, nil
	case SegmenterJieba:
		s := NewJiebaSegmenter(true)
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown segmenter %q (must be %s, %s or %s)", name, SegmenterWhitespace, SegmenterWords, SegmenterJieba)
	}
}

// WordSegmenter cuts raw alphabetic text into normalized words with Tokenize.
type WordSegmenter struct{}

// Cut implements Segmenter.
func (WordSegmenter) Cut(text string) []string {
	return Tokenize(text)
}

// WhitespaceSegmenter splits text that was already segmented and space-joined.
type WhitespaceSegmenter struct{}

// Cut implements Segmenter.
func (WhitespaceSegmenter) Cut(text string) []string {
	return strings.Fields(text)
}

// JiebaSegmenter segments Chinese text with jieba.
// It is safe for concurrent use.
type JiebaSegmenter struct {
	mu     sync.Mutex
	jieba  *gojieba.Jieba
	search bool
}

// NewJiebaSegmenter loads the jieba dictionaries. With search set, long words
// are additionally cut into their shorter constituents, which suits query terms.
// dictPaths may override the bundled dictionaries in gojieba's order.
func NewJiebaSegmenter(search bool, dictPaths ...string) *JiebaSegmenter {
	return &JiebaSegmenter{
		jieba:  gojieba.NewJieba(dictPaths...),
		search: search,
	}
}

// Cut implements Segmenter. Whitespace-only tokens are dropped.
func (s *JiebaSegmenter) Cut(text string) []string {
	s.mu.Lock()
	var words []string
	if s.search {
		words = s.jieba.CutForSearch(text, true)
	} else {
		words = s.jieba.Cut(text, true)
	}
	s.mu.Unlock()

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if strings.TrimSpace(word) == "" {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Close releases the native dictionaries.
func (s *JiebaSegmenter) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jieba != nil {
		s.jieba.Free()
		s.jieba = nil
	}
}
