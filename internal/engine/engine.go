package engine

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/internal/errors"
	"github.com/gcbaptista/go-mrc-prep/internal/jobs"
	"github.com/gcbaptista/go-mrc-prep/internal/tokenizer"
	"github.com/gcbaptista/go-mrc-prep/services"
)

const dataDirPerm = 0750

// Engine manages multiple paragraph indexes stored under one data directory.
// It implements the services.IndexManager interface.
type Engine struct {
	mu         sync.RWMutex
	indexes    map[string]*IndexInstance
	dataDir    string
	segmenter  tokenizer.Segmenter
	jobManager *jobs.Manager
	logger     *slog.Logger
}

var _ services.IndexManager = (*Engine)(nil)

// Option customises an Engine.
type Option func(*Engine)

// WithSegmenter sets the segmenter applied to raw query strings.
func WithSegmenter(segmenter tokenizer.Segmenter) Option {
	return func(e *Engine) { e.segmenter = segmenter }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithJobManager shares an existing job manager instead of starting a private one.
func WithJobManager(manager *jobs.Manager) Option {
	return func(e *Engine) { e.jobManager = manager }
}

// NewEngine creates the engine and loads every index persisted in dataDir.
func NewEngine(dataDir string, opts ...Option) *Engine {
	eng := &Engine{
		indexes:   make(map[string]*IndexInstance),
		dataDir:   dataDir,
		segmenter: tokenizer.WhitespaceSegmenter{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.jobManager == nil {
		eng.jobManager = jobs.NewManager(2, eng.logger)
		eng.jobManager.Start()
	}

	if err := os.MkdirAll(dataDir, dataDirPerm); err != nil {
		eng.logger.Warn("could not create data directory, persistence disabled for new indexes",
			slog.String("data_dir", dataDir), slog.String("error", err.Error()))
	}
	eng.loadIndexesFromDisk()
	return eng
}

// GetIndex retrieves an index by its name.
func (e *Engine) GetIndex(name string) (services.IndexAccessor, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.indexes[name]
	if !exists {
		return nil, errors.NewIndexNotFoundError(name)
	}
	return instance, nil
}

// GetIndexSettings retrieves the settings for a specific index.
func (e *Engine) GetIndexSettings(name string) (config.IndexSettings, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.indexes[name]
	if !exists {
		return config.IndexSettings{}, errors.NewIndexNotFoundError(name)
	}
	return instance.Settings(), nil
}

// ListIndexes returns the names of all loaded indexes in ascending order.
func (e *Engine) ListIndexes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.indexes))
	for name := range e.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetJobManager returns the job manager running the engine's background work.
func (e *Engine) GetJobManager() *jobs.Manager {
	return e.jobManager
}

func (e *Engine) indexPath(name string) string {
	return filepath.Join(e.dataDir, name)
}
