package engine

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/internal/errors"
)

// CreateIndex creates an empty index and persists it. An index with the same
// name is deleted first, in memory and on disk.
func (e *Engine) CreateIndex(settings config.IndexSettings) error {
	settings.ApplyDefaults()
	if problems := settings.Validate(); len(problems) > 0 {
		return errors.NewValidationError("settings", strings.Join(problems, "; "))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.indexes[settings.Name]; exists {
		e.logger.Info("replacing existing index", slog.String("index", settings.Name))
	}
	delete(e.indexes, settings.Name)
	if err := os.RemoveAll(e.indexPath(settings.Name)); err != nil {
		return fmt.Errorf("failed to delete previous data for index %s: %w", settings.Name, err)
	}

	instance, err := NewIndexInstance(settings, e.segmenter)
	if err != nil {
		return fmt.Errorf("failed to create new index instance for '%s': %w", settings.Name, err)
	}
	if err := e.persistIndexUnsafe(instance); err != nil {
		return fmt.Errorf("failed to persist new index '%s': %w", settings.Name, err)
	}

	e.indexes[settings.Name] = instance
	e.logger.Info("index created",
		slog.String("index", settings.Name),
		slog.String("similarity", settings.Similarity.Type))
	return nil
}

// DeleteIndex removes an index by its name from memory and disk.
func (e *Engine) DeleteIndex(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	indexPath := e.indexPath(name)
	if _, exists := e.indexes[name]; !exists {
		if _, err := os.Stat(indexPath); os.IsNotExist(err) {
			return errors.NewIndexNotFoundError(name)
		}
	}
	delete(e.indexes, name)

	if err := os.RemoveAll(indexPath); err != nil {
		return fmt.Errorf("failed to delete index data directory %s: %w", indexPath, err)
	}
	e.logger.Info("index deleted", slog.String("index", name))
	return nil
}
