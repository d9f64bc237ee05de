package config

import (
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	settings := IndexSettings{Name: "  dureader  "}
	settings.ApplyDefaults()

	if settings.Name != "dureader" {
		t.Errorf("Expected trimmed name, got %q", settings.Name)
	}
	if settings.NumberOfShards != 1 || settings.NumberOfReplicas != 0 {
		t.Errorf("Expected 1 shard and 0 replicas, got %d/%d", settings.NumberOfShards, settings.NumberOfReplicas)
	}
	if settings.Similarity.Type != SimilarityLMJelinekMercer || settings.Similarity.Lambda != 0.4 {
		t.Errorf("Expected LMJelinekMercer with lambda 0.4, got %+v", settings.Similarity)
	}
	if settings.Field != "paragraph" {
		t.Errorf("Expected field 'paragraph', got %q", settings.Field)
	}
	if settings.BulkSize != 10000 {
		t.Errorf("Expected bulk size 10000, got %d", settings.BulkSize)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	settings := IndexSettings{
		Name:       "idx",
		Similarity: Similarity{Type: SimilarityBM25},
		BulkSize:   50,
	}
	settings.ApplyDefaults()

	if settings.Similarity.Lambda != 0 {
		t.Errorf("BM25 should not receive a lambda, got %g", settings.Similarity.Lambda)
	}
	if settings.BulkSize != 50 {
		t.Errorf("Expected bulk size 50, got %d", settings.BulkSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name           string
		settings       IndexSettings
		expectedErrors int
	}{
		{
			name:           "defaults are valid",
			settings:       DefaultIndexSettings("test_index"),
			expectedErrors: 0,
		},
		{
			name:           "bm25 is valid",
			settings:       IndexSettings{Name: "bm", NumberOfShards: 1, Similarity: Similarity{Type: SimilarityBM25}, Field: "paragraph", BulkSize: 1},
			expectedErrors: 0,
		},
		{
			name:           "empty name",
			settings:       DefaultIndexSettings("   "),
			expectedErrors: 1,
		},
		{
			name:           "name with slash",
			settings:       DefaultIndexSettings("a/b"),
			expectedErrors: 1,
		},
		{
			name: "lambda out of range",
			settings: IndexSettings{
				Name: "idx", NumberOfShards: 1, Field: "paragraph", BulkSize: 1,
				Similarity: Similarity{Type: SimilarityLMJelinekMercer, Lambda: 1.5},
			},
			expectedErrors: 1,
		},
		{
			name: "unknown similarity",
			settings: IndexSettings{
				Name: "idx", NumberOfShards: 1, Field: "paragraph", BulkSize: 1,
				Similarity: Similarity{Type: "DFR"},
			},
			expectedErrors: 1,
		},
		{
			name: "several problems",
			settings: IndexSettings{
				Name: "idx", NumberOfShards: 0, NumberOfReplicas: -1, Field: " ", BulkSize: 0,
				Similarity: Similarity{Type: SimilarityBM25},
			},
			expectedErrors: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := tt.settings.Validate()
			if len(problems) != tt.expectedErrors {
				t.Errorf("Expected %d errors, got %d: %v", tt.expectedErrors, len(problems), problems)
			}
		})
	}
}
