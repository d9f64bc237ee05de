// Package config provides configuration structures for mrcprep.
// It defines paragraph index settings and the process-wide configuration.
package config

import (
	"fmt"
	"strings"
)

// Similarity types understood by the index backends.
const (
	SimilarityLMJelinekMercer = "LMJelinekMercer"
	SimilarityBM25            = "BM25"
)

// Defaults for a paragraph index.
const (
	DefaultShards   = 1
	DefaultReplicas = 0
	DefaultLambda   = 0.4
	DefaultField    = "paragraph"
	DefaultBulkSize = 10000
)

// Similarity configures how paragraphs are scored against a query.
// Lambda is only used by LMJelinekMercer.
type Similarity struct {
	Type   string  `json:"type" mapstructure:"type"`
	Lambda float64 `json:"lambda" mapstructure:"lambda"`
}

// IndexSettings contains all configuration options for a paragraph index.
//
// An index holds one document per paragraph with a single text field (Field)
// containing the space-joined segmented tokens. Creating an index with a
// name that already exists replaces it.
type IndexSettings struct {
	Name             string     `json:"name" mapstructure:"name"`                             // Unique name for the index
	NumberOfShards   int        `json:"number_of_shards" mapstructure:"number_of_shards"`     // Kept for external backends, the local index is a single shard
	NumberOfReplicas int        `json:"number_of_replicas" mapstructure:"number_of_replicas"` // Kept for external backends
	Similarity       Similarity `json:"similarity" mapstructure:"similarity"`
	Field            string     `json:"field" mapstructure:"field"`         // Name of the text field
	BulkSize         int        `json:"bulk_size" mapstructure:"bulk_size"` // Paragraphs per bulk request
}

// DefaultIndexSettings returns settings with every default applied.
func DefaultIndexSettings(name string) IndexSettings {
	settings := IndexSettings{Name: name}
	settings.ApplyDefaults()
	return settings
}

// ApplyDefaults applies default values to the index settings
func (settings *IndexSettings) ApplyDefaults() {
	settings.Name = strings.TrimSpace(settings.Name)
	if settings.NumberOfShards == 0 {
		settings.NumberOfShards = DefaultShards
	}
	if settings.Similarity.Type == "" {
		settings.Similarity.Type = SimilarityLMJelinekMercer
	}
	if settings.Similarity.Type == SimilarityLMJelinekMercer && settings.Similarity.Lambda == 0 {
		settings.Similarity.Lambda = DefaultLambda
	}
	if settings.Field == "" {
		settings.Field = DefaultField
	}
	if settings.BulkSize == 0 {
		settings.BulkSize = DefaultBulkSize
	}
}

// Validate returns one message per problem found. An empty result means the
// settings are usable.
func (settings *IndexSettings) Validate() []string {
	var problems []string

	if strings.TrimSpace(settings.Name) == "" {
		problems = append(problems, "Index name cannot be empty or whitespace-only")
	}
	if strings.ContainsAny(settings.Name, "/\\ ") {
		problems = append(problems, "Index name '"+settings.Name+"' cannot contain slashes or spaces")
	}
	if settings.NumberOfShards < 1 {
		problems = append(problems, fmt.Sprintf("number_of_shards must be at least 1, got %d", settings.NumberOfShards))
	}
	if settings.NumberOfReplicas < 0 {
		problems = append(problems, fmt.Sprintf("number_of_replicas cannot be negative, got %d", settings.NumberOfReplicas))
	}
	switch settings.Similarity.Type {
	case SimilarityLMJelinekMercer:
		if settings.Similarity.Lambda <= 0 || settings.Similarity.Lambda > 1 {
			problems = append(problems, fmt.Sprintf("similarity lambda must be in (0, 1], got %g", settings.Similarity.Lambda))
		}
	case SimilarityBM25:
	default:
		problems = append(problems, "Unknown similarity type '"+settings.Similarity.Type+"' (must be 'LMJelinekMercer' or 'BM25')")
	}
	if strings.TrimSpace(settings.Field) == "" {
		problems = append(problems, "Field name cannot be empty or whitespace-only")
	}
	if settings.BulkSize < 1 {
		problems = append(problems, fmt.Sprintf("bulk_size must be positive, got %d", settings.BulkSize))
	}

	return problems
}
