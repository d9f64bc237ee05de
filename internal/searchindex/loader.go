package searchindex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/internal/corpus"
	"github.com/gcbaptista/go-mrc-prep/internal/metrics"
)

// LoadStats summarises a bulk load.
type LoadStats struct {
	Index      string        `json:"index"`
	Paragraphs int           `json:"paragraphs"`
	Batches    int           `json:"batches"`
	Duration   time.Duration `json:"duration"`
}

// Loader recreates an index and bulk loads a corpus into it.
type Loader struct {
	Logger *slog.Logger
	// Progress, when set, is called after each batch with the paragraphs indexed so far.
	Progress func(indexed, total int)
}

// NewLoader returns a loader logging to logger, or slog.Default when nil.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{Logger: logger}
}

// Load drops and recreates settings.Name on backend, then indexes the corpus
// in batches of settings.BulkSize.
func (l *Loader) Load(ctx context.Context, backend Backend, c *corpus.Corpus, settings config.IndexSettings) (LoadStats, error) {
	settings.ApplyDefaults()
	if problems := settings.Validate(); len(problems) > 0 {
		return LoadStats{}, fmt.Errorf("invalid index settings: %v", problems)
	}

	started := time.Now()
	stats := LoadStats{Index: settings.Name}

	if err := backend.Recreate(ctx, settings); err != nil {
		return stats, fmt.Errorf("failed to recreate index %s: %w", settings.Name, err)
	}

	batches := c.Batches(settings.BulkSize)
	for i, batch := range batches {
		if err := backend.BulkIndex(ctx, settings.Name, batch); err != nil {
			stats.Duration = time.Since(started)
			return stats, fmt.Errorf("failed to index batch %d of %d: %w", i+1, len(batches), err)
		}
		stats.Paragraphs += len(batch)
		stats.Batches++
		metrics.RecordParagraphsIndexed(settings.Name, len(batch))
		l.Logger.Info("indexed batch",
			slog.String("index", settings.Name),
			slog.Int("batch", i+1),
			slog.Int("batches", len(batches)),
			slog.Int("paragraphs", stats.Paragraphs))
		if l.Progress != nil {
			l.Progress(stats.Paragraphs, c.Len())
		}
	}

	if err := backend.Flush(ctx, settings.Name); err != nil {
		stats.Duration = time.Since(started)
		return stats, fmt.Errorf("failed to flush index %s: %w", settings.Name, err)
	}
	stats.Duration = time.Since(started)
	l.Logger.Info("corpus loaded",
		slog.String("index", settings.Name),
		slog.Int("paragraphs", stats.Paragraphs),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}
