package corpus

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gcbaptista/go-mrc-prep/internal/dataset"
)

// Output formats accepted by WriteFile.
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

// FormatFor picks jsonl for .jsonl paths, compressed or not, and json otherwise.
func FormatFor(path string) string {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(path, ".gz"), ".zst")
	if strings.HasSuffix(trimmed, ".jsonl") {
		return FormatJSONL
	}
	return FormatJSON
}

// ReadFile flattens every paragraph of the dataset at path.
func ReadFile(path string, logger *slog.Logger) (*Corpus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r, err := dataset.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := r.Close(); closeErr != nil {
			logger.Warn("failed to close dataset", slog.String("path", path), slog.String("error", closeErr.Error()))
		}
	}()
	return Convert(r, logger)
}

// WriteFile writes the corpus to path in the given format. An empty format is
// derived from the path.
func (c *Corpus) WriteFile(path, format string) error {
	if format == "" {
		format = FormatFor(path)
	}
	if format != FormatJSON && format != FormatJSONL {
		return fmt.Errorf("unknown format %q (must be %s or %s)", format, FormatJSON, FormatJSONL)
	}

	w, err := dataset.Create(path)
	if err != nil {
		return err
	}
	if format == FormatJSONL {
		err = c.WriteJSONL(w)
	} else {
		err = w.Write(c)
	}
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write corpus to %s: %w", path, err)
	}
	return nil
}
