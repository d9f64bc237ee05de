// Package overlap computes bag-of-tokens similarity between a prediction
// and one or more ground-truth token sequences.
package overlap

import (
	"strings"

	"github.com/gcbaptista/go-mrc-prep/internal/errors"
)

// Tokens is an ordered sequence of segmented tokens. Overlap between two
// sequences is computed over their multisets, order is ignored.
type Tokens []string

// Metric scores a prediction against a single ground truth.
type Metric func(prediction, groundTruth Tokens) float64

// FromText splits whitespace-delimited text into tokens.
func FromText(text string) Tokens {
	return Tokens(strings.Fields(text))
}

// Join concatenates the tokens with the given separator.
func (t Tokens) Join(sep string) string {
	return strings.Join(t, sep)
}

// Counts returns the multiplicity of every distinct token.
func (t Tokens) Counts() map[string]int {
	counts := make(map[string]int, len(t))
	for _, token := range t {
		counts[token]++
	}
	return counts
}

// PrecisionRecallF1 returns precision, recall and F1 of prediction against groundTruth.
// The number of shared tokens is the size of the multiset intersection. When nothing
// is shared all three scores are 0.
func PrecisionRecallF1(prediction, groundTruth Tokens) (p, r, f1 float64) {
	numSame := intersectionSize(prediction.Counts(), groundTruth)
	return scoresFromCounts(numSame, len(prediction), len(groundTruth))
}

// Recall returns the fraction of groundTruth tokens covered by prediction.
func Recall(prediction, groundTruth Tokens) float64 {
	_, r, _ := PrecisionRecallF1(prediction, groundTruth)
	return r
}

// F1 returns the harmonic mean of precision and recall.
func F1(prediction, groundTruth Tokens) float64 {
	_, _, f1 := PrecisionRecallF1(prediction, groundTruth)
	return f1
}

// MaxOverGroundTruths applies metric to prediction and every ground truth and
// returns the best score. It fails with errors.ErrEmptyGroundTruths when
// groundTruths is empty.
func MaxOverGroundTruths(metric Metric, prediction Tokens, groundTruths []Tokens) (float64, error) {
	if len(groundTruths) == 0 {
		return 0, errors.ErrEmptyGroundTruths
	}
	best := metric(prediction, groundTruths[0])
	for _, groundTruth := range groundTruths[1:] {
		if score := metric(prediction, groundTruth); score > best {
			best = score
		}
	}
	return best, nil
}

// F1FromCounts computes F1 from the size of the intersection and the two
// sequence lengths. It yields exactly the value F1 would for the same inputs.
func F1FromCounts(numSame, predictionLen, groundTruthLen int) float64 {
	_, _, f1 := scoresFromCounts(numSame, predictionLen, groundTruthLen)
	return f1
}

func scoresFromCounts(numSame, predictionLen, groundTruthLen int) (p, r, f1 float64) {
	if numSame == 0 {
		return 0, 0, 0
	}
	p = 1.0 * float64(numSame) / float64(predictionLen)
	r = 1.0 * float64(numSame) / float64(groundTruthLen)
	f1 = (2 * p * r) / (p + r)
	return p, r, f1
}

func intersectionSize(predictionCounts map[string]int, groundTruth Tokens) int {
	remaining := make(map[string]int, len(predictionCounts))
	for token, count := range predictionCounts {
		remaining[token] = count
	}
	numSame := 0
	for _, token := range groundTruth {
		if remaining[token] > 0 {
			remaining[token]--
			numSame++
		}
	}
	return numSame
}
