// Package spansearch derives weak answer-span supervision for a sample: it
// locates the paragraph and token span whose F1 overlap with the gold answers
// is highest across all selected documents.
package spansearch

import (
	"github.com/gcbaptista/go-mrc-prep/internal/overlap"
	"github.com/gcbaptista/go-mrc-prep/internal/paragraph"
	"github.com/gcbaptista/go-mrc-prep/model"
)

// MaxParagraphTokens bounds the part of a paragraph that is searched for spans.
const MaxParagraphTokens = 1000

// Result holds everything the search derives for one sample.
// MostRelatedParas has one entry per document of the sample.
// The four answer slices are either all empty or all hold exactly one element.
type Result struct {
	MostRelatedParas []paragraph.Selection
	AnswerDocs       []int
	AnswerSpans      []model.Span
	FakeAnswers      []string
	MatchScores      []float64
}

// Found reports whether a span with a positive score was found.
func (r Result) Found() bool {
	return len(r.AnswerSpans) > 0
}

// Apply writes the result into the sample's output fields and into each
// document's most_related_para. Selected documents never keep -1.
func (r Result) Apply(sample *model.Sample) {
	for dIdx := range sample.Documents {
		if dIdx >= len(r.MostRelatedParas) {
			break
		}
		doc := &sample.Documents[dIdx]
		sel := r.MostRelatedParas[dIdx]
		value := sel.Sentinel()
		if doc.IsSelected {
			value = sel.Resolve()
		}
		doc.MostRelatedPara = &value
	}
	sample.AnswerDocs = append(make([]int, 0, len(r.AnswerDocs)), r.AnswerDocs...)
	sample.AnswerSpans = append(make([]model.Span, 0, len(r.AnswerSpans)), r.AnswerSpans...)
	sample.FakeAnswers = append(make([]string, 0, len(r.FakeAnswers)), r.FakeAnswers...)
	sample.MatchScores = append(make([]float64, 0, len(r.MatchScores)), r.MatchScores...)
}

type bestMatch struct {
	score      float64
	docIdx     int
	span       model.Span
	fakeAnswer string
}

// FindFakeAnswer runs the paragraph selection and the span search for a sample.
// The sample is not modified; use Result.Apply to store the outcome.
//
// Every document's paragraph is chosen by recall against the gold answers.
// Then, for each selected document, every span of the chosen paragraph that
// starts on a token occurring in some gold answer is scored by its best F1
// against the answers, longest span first. Once a span from a given start
// scores 0 the shorter spans from that start are not tried. The first span to
// reach the highest score across the whole sample is kept.
func FindFakeAnswer(sample *model.Sample) Result {
	answers := sample.SegmentedAnswers

	selections := make([]paragraph.Selection, len(sample.Documents))
	for dIdx, doc := range sample.Documents {
		selections[dIdx] = paragraph.SelectByAnswers(doc.SegmentedParagraphs, answers)
	}

	result := Result{
		MostRelatedParas: selections,
		AnswerDocs:       []int{},
		AnswerSpans:      []model.Span{},
		FakeAnswers:      []string{},
		MatchScores:      []float64{},
	}

	answerTokens := make(map[string]struct{})
	for _, answer := range answers {
		for _, token := range answer {
			answerTokens[token] = struct{}{}
		}
	}

	scorer := newSpanScorer(answers)
	best := bestMatch{docIdx: -1, span: model.Span{-1, -1}}
	for dIdx, doc := range sample.Documents {
		if !doc.IsSelected {
			continue
		}
		pIdx := selections[dIdx].Resolve()
		if pIdx >= len(doc.SegmentedParagraphs) {
			continue
		}
		paraTokens := doc.SegmentedParagraphs[pIdx]
		if len(paraTokens) > MaxParagraphTokens {
			paraTokens = paraTokens[:MaxParagraphTokens]
		}
		searchParagraph(dIdx, paraTokens, answerTokens, scorer, &best)
	}

	if best.score > 0 {
		result.AnswerDocs = append(result.AnswerDocs, best.docIdx)
		result.AnswerSpans = append(result.AnswerSpans, best.span)
		result.FakeAnswers = append(result.FakeAnswers, best.fakeAnswer)
		result.MatchScores = append(result.MatchScores, best.score)
	}
	return result
}

func searchParagraph(dIdx int, paraTokens overlap.Tokens, answerTokens map[string]struct{}, scorer *spanScorer, best *bestMatch) {
	for startTIdx := range paraTokens {
		if _, ok := answerTokens[paraTokens[startTIdx]]; !ok {
			continue
		}
		scorer.reset(paraTokens[startTIdx:])
		for endTIdx := len(paraTokens) - 1; endTIdx >= startTIdx; endTIdx-- {
			matchScore := scorer.score()
			if matchScore == 0 {
				break
			}
			if matchScore > best.score {
				spanTokens := paraTokens[startTIdx : endTIdx+1]
				best.score = matchScore
				best.docIdx = dIdx
				best.span = model.Span{startTIdx, endTIdx}
				best.fakeAnswer = spanTokens.Join("")
			}
			scorer.dropLast(paraTokens[endTIdx])
		}
	}
}
