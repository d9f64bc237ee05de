package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gcbaptista/go-mrc-prep/internal/corpus"
	"github.com/gcbaptista/go-mrc-prep/internal/errors"
	"github.com/gcbaptista/go-mrc-prep/model"
)

// AddParagraphsAsync indexes entries in the background, batch by batch, and
// persists the index when done. It returns the job ID.
func (e *Engine) AddParagraphsAsync(indexName string, entries []corpus.Entry) (string, error) {
	e.mu.RLock()
	_, exists := e.indexes[indexName]
	e.mu.RUnlock()
	if !exists {
		return "", errors.NewIndexNotFoundError(indexName)
	}

	jobID := e.jobManager.CreateJob(model.JobTypeIndexParas, indexName, map[string]string{
		"operation":  "add_paragraphs",
		"paragraphs": strconv.Itoa(len(entries)),
	})

	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return e.executeAddParagraphsJob(ctx, indexName, entries, jobID)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start add paragraphs job: %w", err)
	}
	return jobID, nil
}

func (e *Engine) executeAddParagraphsJob(ctx context.Context, indexName string, entries []corpus.Entry, jobID string) error {
	e.mu.RLock()
	instance, exists := e.indexes[indexName]
	e.mu.RUnlock()
	if !exists {
		return errors.NewIndexNotFoundError(indexName)
	}

	c := corpus.FromEntries(entries)
	batches := c.Batches(instance.Settings().BulkSize)
	done := 0
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := instance.AddParagraphs(batch); err != nil {
			return fmt.Errorf("failed to index batch %d of %d: %w", i+1, len(batches), err)
		}
		done += len(batch)
		e.jobManager.UpdateJobProgress(jobID, done, len(entries), fmt.Sprintf("indexed batch %d of %d", i+1, len(batches)))
	}

	if err := e.PersistIndexData(indexName); err != nil {
		return err
	}
	e.logger.Info("paragraphs indexed",
		slog.String("index", indexName),
		slog.Int("paragraphs", len(entries)),
		slog.String("job_id", jobID))
	return nil
}
