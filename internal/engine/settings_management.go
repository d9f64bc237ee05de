package engine

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/internal/errors"
	"github.com/gcbaptista/go-mrc-prep/internal/persistence"
)

// UpdateIndexSettings replaces the settings of an existing index.
// Similarity and bulk size are applied at search or load time, so the
// paragraphs already indexed are kept as they are.
func (e *Engine) UpdateIndexSettings(name string, newSettings config.IndexSettings) error {
	if newSettings.Name != "" && newSettings.Name != name {
		return errors.NewValidationError("name", fmt.Sprintf("cannot change index name from '%s' to '%s' during settings update", name, newSettings.Name))
	}
	newSettings.Name = name
	newSettings.ApplyDefaults()
	if problems := newSettings.Validate(); len(problems) > 0 {
		return errors.NewValidationError("settings", strings.Join(problems, "; "))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	instance, exists := e.indexes[name]
	if !exists {
		return errors.NewIndexNotFoundError(name)
	}
	if newSettings.Field != instance.settings.Field {
		return errors.NewValidationError("field", "changing the text field requires recreating the index")
	}

	updated, err := newIndexInstance(&newSettings, instance.InvertedIndex, instance.ParagraphStore, e.segmenter)
	if err != nil {
		return fmt.Errorf("failed to rebuild services for index '%s': %w", name, err)
	}

	if err := persistence.SaveGob(filepath.Join(e.indexPath(name), settingsFile), newSettings); err != nil {
		return fmt.Errorf("failed to save updated settings for index '%s': %w", name, err)
	}
	e.indexes[name] = updated

	e.logger.Info("index settings updated",
		slog.String("index", name),
		slog.String("similarity", newSettings.Similarity.Type))
	return nil
}
