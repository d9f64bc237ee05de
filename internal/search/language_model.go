package search

import (
	"math"

	"github.com/gcbaptista/go-mrc-prep/index"
	"github.com/gcbaptista/go-mrc-prep/store"
)

// LMJelinekMercerCalculator scores paragraphs with a unigram language model
// smoothed against the whole collection, as Lucene's LMJelinekMercerSimilarity does.
// Callers must hold the read locks of the index and the store.
type LMJelinekMercerCalculator struct {
	invertedIndex  *index.InvertedIndex
	paragraphStore *store.ParagraphStore
	lambda         float64
}

// NewLMJelinekMercerCalculator creates a calculator with smoothing weight lambda in (0, 1].
func NewLMJelinekMercerCalculator(invIndex *index.InvertedIndex, paragraphStore *store.ParagraphStore, lambda float64) *LMJelinekMercerCalculator {
	return &LMJelinekMercerCalculator{
		invertedIndex:  invIndex,
		paragraphStore: paragraphStore,
		lambda:         lambda,
	}
}

// collectionProbability = (ctf + 1) / (|C| + 1)
func (calc *LMJelinekMercerCalculator) collectionProbability(term string) float64 {
	return float64(calc.invertedIndex.CollectionFreq[term]+1) / float64(calc.invertedIndex.TotalTokens+1)
}

// CalculateLM returns log(1 + ((1-λ)·tf/|d|) / (λ·P(t|C))).
func (calc *LMJelinekMercerCalculator) CalculateLM(term string, paraID uint32, termFreq int) float64 {
	paraLength := calc.paragraphStore.Lengths[paraID]
	if paraLength == 0 || termFreq == 0 {
		return 0.0
	}
	docProb := (1 - calc.lambda) * float64(termFreq) / float64(paraLength)
	return math.Log(1 + docProb/(calc.lambda*calc.collectionProbability(term)))
}

func (calc *LMJelinekMercerCalculator) score(term string, paraID uint32, termFreq int) float64 {
	return calc.CalculateLM(term, paraID, termFreq)
}
