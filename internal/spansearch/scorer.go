package spansearch

import (
	"github.com/gcbaptista/go-mrc-prep/internal/overlap"
)

// spanScorer tracks the multiset intersection between a shrinking span and
// every gold answer, so the span's best F1 is available without recounting.
// score always equals overlap.MaxOverGroundTruths(overlap.F1, span, answers)
// and is 0 when there are no answers.
type spanScorer struct {
	answers      []map[string]int
	answerLens   []int
	spanCounts   map[string]int
	spanLen      int
	intersection []int
}

func newSpanScorer(answers []overlap.Tokens) *spanScorer {
	s := &spanScorer{
		answers:      make([]map[string]int, len(answers)),
		answerLens:   make([]int, len(answers)),
		spanCounts:   make(map[string]int),
		intersection: make([]int, len(answers)),
	}
	for i, answer := range answers {
		s.answers[i] = answer.Counts()
		s.answerLens[i] = len(answer)
	}
	return s
}

// reset makes span the current candidate.
func (s *spanScorer) reset(span overlap.Tokens) {
	clear(s.spanCounts)
	for _, token := range span {
		s.spanCounts[token]++
	}
	s.spanLen = len(span)
	for i, answerCounts := range s.answers {
		numSame := 0
		for token, answerCount := range answerCounts {
			numSame += min(answerCount, s.spanCounts[token])
		}
		s.intersection[i] = numSame
	}
}

// dropLast removes the final token of the current span.
func (s *spanScorer) dropLast(token string) {
	spanCount := s.spanCounts[token]
	for i, answerCounts := range s.answers {
		if spanCount <= answerCounts[token] {
			s.intersection[i]--
		}
	}
	s.spanCounts[token] = spanCount - 1
	s.spanLen--
}

// score returns the best F1 of the current span over all answers.
func (s *spanScorer) score() float64 {
	if len(s.answers) == 0 {
		return 0
	}
	best := overlap.F1FromCounts(s.intersection[0], s.spanLen, s.answerLens[0])
	for i := 1; i < len(s.answers); i++ {
		if f1 := overlap.F1FromCounts(s.intersection[i], s.spanLen, s.answerLens[i]); f1 > best {
			best = f1
		}
	}
	return best
}
