package search

import (
	"math"

	"github.com/gcbaptista/go-mrc-prep/index"
	"github.com/gcbaptista/go-mrc-prep/store"
)

// BM25 parameters
const (
	bm25K1 = 1.2  // Controls term frequency saturation
	bm25B  = 0.75 // Controls how much effect paragraph length has
)

// BM25Calculator handles BM25 score calculations.
// Callers must hold the read locks of the index and the store.
type BM25Calculator struct {
	invertedIndex  *index.InvertedIndex
	paragraphStore *store.ParagraphStore
}

// NewBM25Calculator creates a new BM25 calculator
func NewBM25Calculator(invIndex *index.InvertedIndex, paragraphStore *store.ParagraphStore) *BM25Calculator {
	return &BM25Calculator{
		invertedIndex:  invIndex,
		paragraphStore: paragraphStore,
	}
}

// calculateIDF calculates the inverse document frequency
// IDF = log(1 + (N - df + 0.5) / (df + 0.5)) where N = total paragraphs, df = paragraphs containing term
func (calc *BM25Calculator) calculateIDF(term string) float64 {
	totalParas := float64(calc.paragraphStore.Len())
	if totalParas == 0 {
		return 0.0
	}

	docFreq := float64(calc.invertedIndex.DocFreq(term))
	if docFreq == 0 {
		return 0.0
	}

	return math.Log(1 + (totalParas-docFreq+0.5)/(docFreq+0.5))
}

// getAverageParagraphLength returns the mean number of terms per paragraph.
func (calc *BM25Calculator) getAverageParagraphLength() float64 {
	n := calc.paragraphStore.Len()
	if n == 0 {
		return 0.0
	}
	return float64(calc.invertedIndex.TotalTokens) / float64(n)
}

// CalculateBM25 calculates BM25 score with paragraph length normalization
// BM25 = IDF * (tf * (k1 + 1)) / (tf + k1 * (1 - b + b * (|d| / avgdl)))
func (calc *BM25Calculator) CalculateBM25(term string, paraID uint32, termFreq int) float64 {
	paraLength, exists := calc.paragraphStore.Lengths[paraID]
	if !exists {
		return 0.0
	}
	avgParaLength := calc.getAverageParagraphLength()
	if avgParaLength == 0 {
		return 0.0
	}

	tf := float64(termFreq)
	bm25TF := (tf * (bm25K1 + 1)) / (tf + bm25K1*(1-bm25B+bm25B*(float64(paraLength)/avgParaLength)))

	return calc.calculateIDF(term) * bm25TF
}

func (calc *BM25Calculator) score(term string, paraID uint32, termFreq int) float64 {
	return calc.CalculateBM25(term, paraID, termFreq)
}
