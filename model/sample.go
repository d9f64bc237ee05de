package model

import (
	"bytes"

	"github.com/goccy/go-json"

	"github.com/gcbaptista/go-mrc-prep/internal/overlap"
)

// Span is an inclusive [start, end] token range inside a paragraph.
type Span [2]int

// Start returns the index of the first token of the span.
func (s Span) Start() int { return s[0] }

// End returns the index of the last token of the span (inclusive).
func (s Span) End() int { return s[1] }

// Document is one retrieved document of a sample, already segmented upstream.
// Keys not modelled here are kept in Extra and written back unchanged.
type Document struct {
	IsSelected          bool             `json:"is_selected"`
	Title               string           `json:"title,omitempty"`
	SegmentedTitle      overlap.Tokens   `json:"segmented_title,omitempty"`
	Paragraphs          []string         `json:"paragraphs,omitempty"`
	SegmentedParagraphs []overlap.Tokens `json:"segmented_paragraphs"`
	// MostRelatedPara is nil until the span search has run. -1 means no paragraph matched.
	MostRelatedPara *int `json:"most_related_para,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Sample is one question with its documents, gold answers and derived
// weak-supervision fields, as stored in one dataset line.
type Sample struct {
	Question          string           `json:"question,omitempty"`
	SegmentedQuestion overlap.Tokens   `json:"segmented_question,omitempty"`
	Documents         []Document       `json:"documents"`
	SegmentedAnswers  []overlap.Tokens `json:"segmented_answers"`

	AnswerDocs  []int     `json:"answer_docs"`
	AnswerSpans []Span    `json:"answer_spans"`
	FakeAnswers []string  `json:"fake_answers"`
	MatchScores []float64 `json:"match_scores"`

	Extra map[string]json.RawMessage `json:"-"`
}

// QuestionID returns the raw question_id value, if the sample carries one.
func (s *Sample) QuestionID() string {
	raw, ok := s.Extra["question_id"]
	if !ok {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return string(raw)
}

// HasAnswerSpan reports whether a fake answer was found for the sample.
func (s *Sample) HasAnswerSpan() bool {
	return len(s.AnswerSpans) > 0
}

type documentFields Document

type sampleFields Sample

// UnmarshalJSON decodes the modelled keys and keeps every other key in Extra.
func (d *Document) UnmarshalJSON(data []byte) error {
	var fields documentFields
	extra, err := unmarshalKnown(data, &fields)
	if err != nil {
		return err
	}
	*d = Document(fields)
	d.Extra = extra
	return nil
}

// MarshalJSON encodes the modelled keys merged with Extra.
func (d Document) MarshalJSON() ([]byte, error) {
	return marshalKnown(documentFields(d), d.Extra)
}

// UnmarshalJSON decodes the modelled keys and keeps every other key in Extra.
func (s *Sample) UnmarshalJSON(data []byte) error {
	var fields sampleFields
	extra, err := unmarshalKnown(data, &fields)
	if err != nil {
		return err
	}
	*s = Sample(fields)
	s.Extra = extra
	return nil
}

// MarshalJSON encodes the modelled keys merged with Extra.
func (s Sample) MarshalJSON() ([]byte, error) {
	return marshalKnown(sampleFields(s), s.Extra)
}

func unmarshalKnown(data []byte, fields any) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, fields); err != nil {
		return nil, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	known, err := keysOf(fields)
	if err != nil {
		return nil, err
	}
	for key := range known {
		delete(all, key)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// marshalKnown writes the struct keys over Extra. Keys whose value is null are dropped.
func marshalKnown(fields any, extra map[string]json.RawMessage) ([]byte, error) {
	known, err := keysOf(fields)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]json.RawMessage, len(known)+len(extra))
	for key, value := range extra {
		merged[key] = value
	}
	for key, value := range known {
		if bytes.Equal(value, []byte("null")) {
			delete(merged, key)
			continue
		}
		merged[key] = value
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(merged); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func keysOf(fields any) (map[string]json.RawMessage, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(fields); err != nil {
		return nil, err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &keys); err != nil {
		return nil, err
	}
	return keys, nil
}
