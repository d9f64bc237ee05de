// Package corpus flattens a dataset into the paragraph corpus that is loaded
// into a full-text index. Paragraph ids are assigned sequentially from 0 in
// sample, document, paragraph order.
package corpus

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/gcbaptista/go-mrc-prep/internal/dataset"
	"github.com/gcbaptista/go-mrc-prep/model"
)

// DefaultBulkSize is the number of paragraphs sent per bulk request.
const DefaultBulkSize = 10000

// Entry is one paragraph of the corpus. Paragraph holds the segmented tokens joined by spaces.
type Entry struct {
	ID        int    `json:"id"`
	Paragraph string `json:"paragraph"`
}

// Corpus is an enumerable set of paragraphs keyed by their integer id.
type Corpus struct {
	entries []Entry
}

// New builds a corpus from entries whose ids are 0..n-1 in order.
func New(paragraphs []string) *Corpus {
	c := &Corpus{entries: make([]Entry, 0, len(paragraphs))}
	for _, p := range paragraphs {
		c.add(p)
	}
	return c
}

// FromEntries wraps entries that already carry their ids, keeping their order.
func FromEntries(entries []Entry) *Corpus {
	return &Corpus{entries: entries}
}

func (c *Corpus) add(paragraph string) {
	c.entries = append(c.entries, Entry{ID: len(c.entries), Paragraph: paragraph})
}

// AddSample appends every segmented paragraph of every document of the sample.
func (c *Corpus) AddSample(sample *model.Sample) {
	for _, doc := range sample.Documents {
		for _, paraTokens := range doc.SegmentedParagraphs {
			c.add(paraTokens.Join(" "))
		}
	}
}

// Convert reads all samples from r and collects their paragraphs.
func Convert(r *dataset.Reader, logger *slog.Logger) (*Corpus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("converting dataset into paragraph corpus")

	c := &Corpus{}
	for {
		sample, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to convert dataset: %w", err)
		}
		c.AddSample(sample)
	}
	logger.Info("paragraphs loaded", "count", c.Len())
	return c, nil
}

// Len returns the number of paragraphs.
func (c *Corpus) Len() int {
	return len(c.entries)
}

// Get returns the paragraph with the given id.
func (c *Corpus) Get(id int) (Entry, bool) {
	if id >= 0 && id < len(c.entries) && c.entries[id].ID == id {
		return c.entries[id], true
	}
	for _, e := range c.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns all paragraphs in corpus order.
func (c *Corpus) Entries() []Entry {
	return c.entries
}

// IDs returns the paragraph ids in corpus order.
func (c *Corpus) IDs() []int {
	ids := make([]int, len(c.entries))
	for i, e := range c.entries {
		ids[i] = e.ID
	}
	return ids
}

// Batches splits the corpus into consecutive batches of at most size entries.
func (c *Corpus) Batches(size int) [][]Entry {
	if size <= 0 {
		size = DefaultBulkSize
	}
	batches := make([][]Entry, 0, (len(c.entries)+size-1)/size)
	for i := 0; i < len(c.entries); i += size {
		end := min(i+size, len(c.entries))
		batches = append(batches, c.entries[i:end])
	}
	return batches
}

type paragraphBody struct {
	Paragraph string `json:"paragraph"`
}

// MarshalJSON encodes the corpus as {"<id>": {"paragraph": "..."}}.
func (c *Corpus) MarshalJSON() ([]byte, error) {
	m := make(map[string]paragraphBody, len(c.entries))
	for _, e := range c.entries {
		m[strconv.Itoa(e.ID)] = paragraphBody{Paragraph: e.Paragraph}
	}
	return json.MarshalWithOption(m, json.DisableHTMLEscape())
}

// WriteJSONL writes one entry per line.
func (c *Corpus) WriteJSONL(w *dataset.Writer) error {
	for _, e := range c.entries {
		if err := w.Write(e); err != nil {
			return fmt.Errorf("failed to write paragraph %d: %w", e.ID, err)
		}
	}
	return nil
}
