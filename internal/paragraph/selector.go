// Package paragraph picks the paragraph of a document that is most relevant
// to a question or to a set of gold answers, using recall as relevance.
//
// Among paragraphs with equal recall the shorter one wins, so the densest
// matching paragraph is preferred.
package paragraph

import (
	"math"

	"github.com/gcbaptista/go-mrc-prep/internal/overlap"
)

// Selection is the outcome of a paragraph scan. OK is false when no paragraph
// was ever chosen.
type Selection struct {
	Index int
	Score float64
	OK    bool
}

// Resolve returns the selected index, falling back to paragraph 0.
func (s Selection) Resolve() int {
	if !s.OK {
		return 0
	}
	return s.Index
}

// Sentinel returns the selected index, or -1 when nothing was selected.
// It is the value written to the most_related_para field.
func (s Selection) Sentinel() int {
	if !s.OK {
		return -1
	}
	return s.Index
}

// tracker keeps the running best paragraph of a scan.
type tracker struct {
	best    Selection
	bestLen int
}

func newTracker(initialLen int) *tracker {
	return &tracker{bestLen: initialLen}
}

// offer records candidate pIdx if it strictly beats the current best, or ties
// on score with fewer tokens.
func (t *tracker) offer(pIdx int, score float64, paraLen int) {
	if score > t.best.Score || (score == t.best.Score && paraLen < t.bestLen) {
		t.best = Selection{Index: pIdx, Score: score, OK: true}
		t.bestLen = paraLen
	}
}

// FindBestQuestionMatch returns the index of the paragraph that best matches the question.
func FindBestQuestionMatch(paragraphs []overlap.Tokens, question overlap.Tokens) int {
	idx, _ := FindBestQuestionMatchWithScore(paragraphs, question)
	return idx
}

// FindBestQuestionMatchWithScore returns the index of the paragraph that best
// matches the question together with its recall score. The whole question is
// the single reference. When no paragraph scores above 0, paragraph 0 is
// returned with score 0.
func FindBestQuestionMatchWithScore(paragraphs []overlap.Tokens, question overlap.Tokens) (int, float64) {
	t := newTracker(0)
	for pIdx, paraTokens := range paragraphs {
		var relatedScore float64
		if len(question) > 0 {
			// a single reference cannot be empty, so the error is impossible here
			relatedScore, _ = overlap.MaxOverGroundTruths(overlap.Recall, paraTokens, []overlap.Tokens{question})
		}
		t.offer(pIdx, relatedScore, len(paraTokens))
	}
	return t.best.Resolve(), t.best.Score
}

// SelectByAnswers scans the paragraphs using recall against the gold answers.
// The length of the running best starts at a very large value, so the first
// paragraph always becomes a candidate even at score 0 and the shortest
// paragraph wins among equally scored ones. With no answers nothing is scored
// and the selection is left unset.
func SelectByAnswers(paragraphs []overlap.Tokens, answers []overlap.Tokens) Selection {
	if len(answers) == 0 {
		return Selection{}
	}
	t := newTracker(math.MaxInt)
	for pIdx, paraTokens := range paragraphs {
		relatedScore, err := overlap.MaxOverGroundTruths(overlap.Recall, paraTokens, answers)
		if err != nil {
			return Selection{}
		}
		t.offer(pIdx, relatedScore, len(paraTokens))
	}
	return t.best
}
