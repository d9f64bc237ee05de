package corpus

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-mrc-prep/internal/dataset"
)

const twoSamples = `{"documents": [{"is_selected": true, "segmented_paragraphs": [["北京", "是", "首都"], ["上海"]]}, {"is_selected": false, "segmented_paragraphs": [["天津", "港"]]}], "segmented_answers": []}
{"documents": [{"is_selected": true, "segmented_paragraphs": [["a", "b"]]}], "segmented_answers": [["a"]]}
`

func TestConvert(t *testing.T) {
	c, err := Convert(dataset.NewReader(strings.NewReader(twoSamples)), nil)
	require.NoError(t, err)

	require.Equal(t, 4, c.Len())
	want := []Entry{
		{ID: 0, Paragraph: "北京 是 首都"},
		{ID: 1, Paragraph: "上海"},
		{ID: 2, Paragraph: "天津 港"},
		{ID: 3, Paragraph: "a b"},
	}
	assert.Equal(t, want, c.Entries())

	assert.Equal(t, []int{0, 1, 2, 3}, c.IDs())

	entry, ok := c.Get(2)
	assert.True(t, ok)
	assert.Equal(t, "天津 港", entry.Paragraph)

	_, ok = c.Get(4)
	assert.False(t, ok)
}

func TestConvertPropagatesDecodeErrors(t *testing.T) {
	_, err := Convert(dataset.NewReader(strings.NewReader("{oops\n")), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestBatches(t *testing.T) {
	c := New([]string{"a", "b", "c", "d", "e"})

	batches := c.Batches(2)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[2], 1)
	assert.Equal(t, 4, batches[2][0].ID)

	assert.Len(t, c.Batches(0), 1)
	assert.Empty(t, New(nil).Batches(3))
}

func TestFromEntries(t *testing.T) {
	c := FromEntries([]Entry{{ID: 7, Paragraph: "x"}, {ID: 3, Paragraph: "y"}})

	assert.Equal(t, []int{7, 3}, c.IDs())
	entry, ok := c.Get(3)
	assert.True(t, ok)
	assert.Equal(t, "y", entry.Paragraph)
	_, ok = c.Get(0)
	assert.False(t, ok)
}

func TestMarshalJSON(t *testing.T) {
	c := New([]string{"北京 是 首都", "a <b>"})

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "北京 是 首都", decoded["0"]["paragraph"])
	assert.Equal(t, "a <b>", decoded["1"]["paragraph"])
}

func TestWriteJSONL(t *testing.T) {
	c := New([]string{"x y", "z"})

	var out bytes.Buffer
	w := dataset.NewWriter(&out)
	require.NoError(t, c.WriteJSONL(w))
	require.NoError(t, w.Close())

	assert.Equal(t, "{\"id\":0,\"paragraph\":\"x y\"}\n{\"id\":1,\"paragraph\":\"z\"}\n", out.String())
}

func TestFormatFor(t *testing.T) {
	tests := map[string]string{
		"corpus.json":      FormatJSON,
		"corpus.jsonl":     FormatJSONL,
		"corpus.jsonl.gz":  FormatJSONL,
		"corpus.jsonl.zst": FormatJSONL,
		"corpus.json.gz":   FormatJSON,
		"corpus":           FormatJSON,
	}
	for path, want := range tests {
		assert.Equal(t, want, FormatFor(path), path)
	}
}

func TestWriteAndReadFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "train.json.gz")

	w, err := dataset.Create(in)
	require.NoError(t, err)
	r := dataset.NewReader(strings.NewReader(twoSamples))
	for {
		sample, err := r.Next()
		if err != nil {
			break
		}
		require.NoError(t, w.Write(sample))
	}
	require.NoError(t, w.Close())

	c, err := ReadFile(in, nil)
	require.NoError(t, err)
	require.Equal(t, 4, c.Len())

	out := filepath.Join(dir, "corpus.jsonl")
	require.NoError(t, c.WriteFile(out, ""))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `{"id":0,"paragraph":"北京 是 首都"}`, lines[0])
}

func TestWriteFileUnknownFormat(t *testing.T) {
	err := New([]string{"a"}).WriteFile(filepath.Join(t.TempDir(), "c.csv"), "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv")
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}
