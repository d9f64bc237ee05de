package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-mrc-prep/internal/dataset"
	"github.com/gcbaptista/go-mrc-prep/internal/overlap"
	"github.com/gcbaptista/go-mrc-prep/model"
)

type sliceReader struct {
	samples []*model.Sample
	pos     int
}

func (r *sliceReader) Next() (*model.Sample, error) {
	if r.pos >= len(r.samples) {
		return nil, io.EOF
	}
	s := r.samples[r.pos]
	r.pos++
	return s, nil
}

type sliceWriter struct {
	samples []*model.Sample
}

func (w *sliceWriter) Write(v any) error {
	w.samples = append(w.samples, v.(*model.Sample))
	return nil
}

func matchable(i int) *model.Sample {
	word := fmt.Sprintf("w%d", i)
	return &model.Sample{
		Question: word,
		Documents: []model.Document{{
			IsSelected:          true,
			SegmentedParagraphs: []overlap.Tokens{{"x", word, "y"}},
		}},
		SegmentedAnswers: []overlap.Tokens{{word}},
	}
}

func unmatchable(i int) *model.Sample {
	return &model.Sample{
		Question: fmt.Sprintf("u%d", i),
		Documents: []model.Document{{
			IsSelected:          true,
			SegmentedParagraphs: []overlap.Tokens{{"x", "y"}},
		}},
		SegmentedAnswers: []overlap.Tokens{{"z"}},
	}
}

func TestRunPreservesOrderAndDropsUnmatched(t *testing.T) {
	var samples []*model.Sample
	for i := 0; i < 100; i++ {
		if i%10 == 3 {
			samples = append(samples, unmatchable(i))
		} else {
			samples = append(samples, matchable(i))
		}
	}

	var progress []int
	out := &sliceWriter{}
	stats, err := Run(context.Background(), &sliceReader{samples: samples}, out, Options{
		Workers:   4,
		BatchSize: 7,
		Progress:  func(n int) { progress = append(progress, n) },
	})
	require.NoError(t, err)

	assert.Equal(t, 100, stats.Read)
	assert.Equal(t, 90, stats.Written)
	assert.Equal(t, 10, stats.Dropped)
	require.Len(t, out.samples, 90)

	prev := -1
	for _, s := range out.samples {
		var idx int
		_, err := fmt.Sscanf(s.Question, "w%d", &idx)
		require.NoError(t, err)
		assert.Greater(t, idx, prev)
		prev = idx

		assert.Equal(t, []model.Span{{1, 1}}, s.AnswerSpans)
		assert.Equal(t, []string{s.Question}, s.FakeAnswers)
		assert.Equal(t, []float64{1}, s.MatchScores)
		assert.Equal(t, []int{0}, s.AnswerDocs)
	}

	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
}

func TestRunKeepUnmatched(t *testing.T) {
	out := &sliceWriter{}
	stats, err := Run(context.Background(), &sliceReader{samples: []*model.Sample{unmatchable(0), matchable(1)}}, out, Options{
		Workers:       1,
		KeepUnmatched: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Written)
	assert.Equal(t, 0, stats.Dropped)
	require.Len(t, out.samples, 2)
	assert.Empty(t, out.samples[0].AnswerSpans)
	assert.NotNil(t, out.samples[0].AnswerSpans)
	assert.Equal(t, 0, *out.samples[0].Documents[0].MostRelatedPara)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := &sliceWriter{}
	_, err := Run(ctx, &sliceReader{samples: []*model.Sample{matchable(0)}}, out, Options{})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, out.samples)
}

func TestRunReportsReadErrors(t *testing.T) {
	input := `{"question": "ok", "segmented_answers": []}` + "\n" + "{broken\n"
	var buf bytes.Buffer
	w := dataset.NewWriter(&buf)

	stats, err := Run(context.Background(), dataset.NewReader(strings.NewReader(input)), w, Options{Workers: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample 2")
	assert.Equal(t, 0, stats.Written)
}

func TestRunOverDatasetCodec(t *testing.T) {
	input := `{"question_id": 7, "documents": [{"is_selected": true, "segmented_paragraphs": [["the", "cat", "sat"]]}], "segmented_answers": [["cat", "sat"]]}` + "\n"
	var buf bytes.Buffer
	w := dataset.NewWriter(&buf)

	stats, err := Run(context.Background(), dataset.NewReader(strings.NewReader(input)), w, Options{})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, 1, stats.Written)
	line := buf.String()
	assert.Contains(t, line, `"fake_answers":["catsat"]`)
	assert.Contains(t, line, `"answer_spans":[[1,2]]`)
	assert.Contains(t, line, `"question_id":7`)
}

func TestRunFilesCompressed(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "train.json.gz")
	outPath := filepath.Join(dir, "out", "train.json.zst")

	w, err := dataset.Create(inPath)
	require.NoError(t, err)
	require.NoError(t, w.Write(matchable(0)))
	require.NoError(t, w.Write(unmatchable(1)))
	require.NoError(t, w.Close())

	stats, err := RunFiles(context.Background(), inPath, outPath, Options{Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Read)
	assert.Equal(t, 1, stats.Written)

	r, err := dataset.Open(outPath)
	require.NoError(t, err)
	defer r.Close()
	sample, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"w0"}, sample.FakeAnswers)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRunFilesMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := RunFiles(context.Background(), filepath.Join(dir, "missing.json"), filepath.Join(dir, "out.json"), Options{})
	assert.Error(t, err)
}
