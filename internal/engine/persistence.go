package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/index"
	"github.com/gcbaptista/go-mrc-prep/internal/persistence"
	"github.com/gcbaptista/go-mrc-prep/store"
)

const (
	settingsFile       = "settings.gob.zst"
	invertedIndexFile  = "inverted_index.gob.zst"
	paragraphStoreFile = "paragraph_store.gob.zst"
)

// loadIndexesFromDisk loads all indexes from the data directory.
func (e *Engine) loadIndexesFromDisk() {
	e.logger.Info("loading indexes from disk", slog.String("data_dir", e.dataDir))

	items, err := os.ReadDir(e.dataDir)
	if err != nil {
		e.logger.Warn("failed to read data directory, no indexes loaded",
			slog.String("data_dir", e.dataDir), slog.String("error", err.Error()))
		return
	}

	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		indexName := item.Name()
		indexPath := e.indexPath(indexName)
		log := e.logger.With(slog.String("index", indexName))

		var settings config.IndexSettings
		if err := persistence.LoadGob(filepath.Join(indexPath, settingsFile), &settings); err != nil {
			log.Warn("failed to load settings, skipping index", slog.String("error", err.Error()))
			continue
		}
		if settings.Name != indexName {
			log.Warn("index name in settings does not match directory name, skipping index",
				slog.String("settings_name", settings.Name))
			continue
		}

		paragraphStore := store.NewParagraphStore()
		if err := persistence.LoadGob(filepath.Join(indexPath, paragraphStoreFile), paragraphStore); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				log.Warn("failed to load paragraph store, skipping index", slog.String("error", err.Error()))
				continue
			}
			log.Info("paragraph store not found, starting empty")
		}

		invIndex := index.NewInvertedIndex(&settings)
		if err := persistence.LoadGob(filepath.Join(indexPath, invertedIndexFile), invIndex); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				log.Warn("failed to load inverted index, skipping index", slog.String("error", err.Error()))
				continue
			}
			log.Info("inverted index not found, starting empty")
		}

		instance, err := newIndexInstance(&settings, invIndex, paragraphStore, e.segmenter)
		if err != nil {
			log.Error("failed to create loaded index", slog.String("error", err.Error()))
			continue
		}
		e.indexes[indexName] = instance
		log.Info("index loaded", slog.Int("paragraphs", paragraphStore.Len()))
	}
}

// PersistIndexData saves the current state of an index.
// This should be called after modifications (e.g., AddParagraphs).
func (e *Engine) PersistIndexData(indexName string) error {
	e.mu.RLock()
	instance, exists := e.indexes[indexName]
	e.mu.RUnlock()

	if !exists {
		return fmt.Errorf("cannot persist: index '%s' not found", indexName)
	}
	return e.persistIndexUnsafe(instance)
}

// persistIndexUnsafe writes settings, inverted index and paragraph store.
// The instance's own locks are taken by the gob encoders.
func (e *Engine) persistIndexUnsafe(instance *IndexInstance) error {
	name := instance.settings.Name
	indexPath := e.indexPath(name)

	if err := persistence.SaveGob(filepath.Join(indexPath, settingsFile), *instance.settings); err != nil {
		return fmt.Errorf("failed to save settings for index %s: %w", name, err)
	}
	if err := persistence.SaveGob(filepath.Join(indexPath, invertedIndexFile), instance.InvertedIndex); err != nil {
		return fmt.Errorf("failed to save inverted index for %s: %w", name, err)
	}
	if err := persistence.SaveGob(filepath.Join(indexPath, paragraphStoreFile), instance.ParagraphStore); err != nil {
		return fmt.Errorf("failed to save paragraph store for %s: %w", name, err)
	}
	e.logger.Debug("index persisted", slog.String("index", name))
	return nil
}
