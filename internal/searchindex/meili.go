package searchindex

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/meilisearch/meilisearch-go"

	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/internal/corpus"
)

const (
	primaryKey          = "id"
	rankingScoreKey     = "_rankingScore"
	defaultPollInterval = 50 * time.Millisecond
)

// MeiliError reports a failed Meilisearch operation.
type MeiliError struct {
	Op    string
	Index string
	Err   error
}

func (e *MeiliError) Error() string {
	return fmt.Sprintf("meilisearch %s on index %q: %v", e.Op, e.Index, e.Err)
}

func (e *MeiliError) Unwrap() error {
	return e.Err
}

// MeiliBackend loads paragraphs into an external Meilisearch server.
// Similarity and shard settings have no Meilisearch equivalent and are ignored.
type MeiliBackend struct {
	client       meilisearch.ServiceManager
	pollInterval time.Duration

	mu     sync.RWMutex
	fields map[string]string
}

// NewMeiliBackend connects to the server at host.
func NewMeiliBackend(host, apiKey string) *MeiliBackend {
	return NewMeiliBackendWithClient(meilisearch.New(host,
		meilisearch.WithAPIKey(apiKey),
		meilisearch.WithCustomJsonMarshaler(json.Marshal),
		meilisearch.WithCustomJsonUnmarshaler(json.Unmarshal),
	))
}

// NewMeiliBackendWithClient uses an existing client.
func NewMeiliBackendWithClient(client meilisearch.ServiceManager) *MeiliBackend {
	return &MeiliBackend{
		client:       client,
		pollInterval: defaultPollInterval,
		fields:       make(map[string]string),
	}
}

func (b *MeiliBackend) Recreate(ctx context.Context, settings config.IndexSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	settings.ApplyDefaults()
	name := settings.Name

	// Deleting a missing index fails inside the task, not in the request.
	if task, err := b.client.DeleteIndexWithContext(ctx, name); err == nil {
		_, _ = b.client.WaitForTaskWithContext(ctx, task.TaskUID, b.pollInterval)
	}

	task, err := b.client.CreateIndexWithContext(ctx, &meilisearch.IndexConfig{Uid: name, PrimaryKey: primaryKey})
	if err != nil {
		return &MeiliError{Op: "create", Index: name, Err: err}
	}
	if err := b.wait(ctx, name, "create", task.TaskUID); err != nil {
		return err
	}

	task, err = b.client.Index(name).UpdateSearchableAttributesWithContext(ctx, &[]string{settings.Field})
	if err != nil {
		return &MeiliError{Op: "update searchable attributes", Index: name, Err: err}
	}
	if err := b.wait(ctx, name, "update searchable attributes", task.TaskUID); err != nil {
		return err
	}
	b.mu.Lock()
	b.fields[name] = settings.Field
	b.mu.Unlock()
	return nil
}

func (b *MeiliBackend) BulkIndex(ctx context.Context, name string, batch []corpus.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	docs := toDocuments(batch, b.field(name))
	task, err := b.client.Index(name).AddDocumentsWithContext(ctx, docs, &meilisearch.DocumentOptions{PrimaryKey: ptr(primaryKey)})
	if err != nil {
		return &MeiliError{Op: "add documents", Index: name, Err: err}
	}
	return b.wait(ctx, name, "add documents", task.TaskUID)
}

// Flush is a no-op: every BulkIndex call already waits for its task.
func (b *MeiliBackend) Flush(ctx context.Context, name string) error {
	return ctx.Err()
}

func (b *MeiliBackend) Search(ctx context.Context, name, query string, limit int) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	result, err := b.client.Index(name).SearchWithContext(ctx, query, &meilisearch.SearchRequest{
		Query:            query,
		Limit:            int64(limit),
		ShowRankingScore: true,
	})
	if err != nil {
		return nil, &MeiliError{Op: "search", Index: name, Err: err}
	}

	hits := make([]Hit, 0, len(result.Hits))
	field := b.field(name)
	for _, raw := range result.Hits {
		if hit, ok := fromDocument(raw, field); ok {
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

func (b *MeiliBackend) field(name string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if f, ok := b.fields[name]; ok {
		return f
	}
	return config.DefaultField
}

func (b *MeiliBackend) wait(ctx context.Context, name, op string, taskUID int64) error {
	task, err := b.client.WaitForTaskWithContext(ctx, taskUID, b.pollInterval)
	if err != nil {
		return &MeiliError{Op: op, Index: name, Err: fmt.Errorf("failed to wait for task %d: %w", taskUID, err)}
	}
	if task.Status == meilisearch.TaskStatusFailed {
		return &MeiliError{Op: op, Index: name, Err: fmt.Errorf("task %d failed", taskUID)}
	}
	return nil
}

func toDocuments(batch []corpus.Entry, field string) []map[string]interface{} {
	docs := make([]map[string]interface{}, 0, len(batch))
	for _, entry := range batch {
		docs = append(docs, map[string]interface{}{
			primaryKey: entry.ID,
			field:      entry.Paragraph,
		})
	}
	return docs
}

// fromDocument decodes a search hit. Ids may come back as numbers or numeric
// strings; hits without a usable id are skipped.
func fromDocument(doc meilisearch.Hit, field string) (Hit, bool) {
	rawID, ok := doc[primaryKey]
	if !ok {
		return Hit{}, false
	}

	var hit Hit
	if err := json.Unmarshal(rawID, &hit.ID); err != nil {
		var s string
		if err := json.Unmarshal(rawID, &s); err != nil {
			return Hit{}, false
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return Hit{}, false
		}
		hit.ID = n
	}
	if raw, ok := doc[field]; ok {
		_ = json.Unmarshal(raw, &hit.Paragraph)
	}
	if raw, ok := doc[rankingScoreKey]; ok {
		_ = json.Unmarshal(raw, &hit.Score)
	}
	return hit, true
}

func ptr[T any](v T) *T {
	return &v
}
