package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/go-mrc-prep/internal/corpus"
	"github.com/gcbaptista/go-mrc-prep/internal/engine"
	"github.com/gcbaptista/go-mrc-prep/internal/searchindex"
)

const (
	backendLocal       = "local"
	backendMeilisearch = "meilisearch"
)

// openBackend builds the named search backend and a function releasing it.
func (c *cli) openBackend(name string) (searchindex.Backend, func(), error) {
	switch name {
	case backendLocal:
		seg, releaseSeg, err := c.newSegmenter()
		if err != nil {
			return nil, nil, err
		}
		eng := engine.NewEngine(c.cfg.DataDir, engine.WithLogger(c.logger), engine.WithSegmenter(seg))
		release := func() {
			eng.GetJobManager().Stop()
			releaseSeg()
		}
		return searchindex.NewLocalBackend(eng), release, nil
	case backendMeilisearch:
		return searchindex.NewMeiliBackend(c.cfg.Meilisearch.Host, c.cfg.Meilisearch.APIKey), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (must be %s or %s)", name, backendLocal, backendMeilisearch)
	}
}

func newIndexCmd(c *cli) *cobra.Command {
	var (
		in, backendName, indexName, similarity string
		bulkSize                               int
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Recreate an index and bulk load the paragraph corpus of a dataset",
		Long: `Deletes the index if it exists, creates it with the configured
similarity and loads every paragraph of the dataset in bulk batches.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := c.cfg.Index
			if indexName != "" {
				settings.Name = indexName
			}
			if similarity != "" {
				settings.Similarity.Type = similarity
				settings.Similarity.Lambda = 0
			}
			if bulkSize > 0 {
				settings.BulkSize = bulkSize
			}

			paragraphs, err := corpus.ReadFile(in, c.logger)
			if err != nil {
				return err
			}

			backend, release, err := c.openBackend(backendName)
			if err != nil {
				return err
			}
			defer release()

			stats, err := searchindex.NewLoader(c.logger).Load(cmd.Context(), backend, paragraphs, settings)
			if err != nil {
				return err
			}
			c.out.Success("indexed %d paragraphs into %s in %d batches (%s)",
				stats.Paragraphs, stats.Index, stats.Batches, stats.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "input dataset")
	cmd.Flags().StringVar(&backendName, "backend", backendLocal, "local or meilisearch")
	cmd.Flags().StringVar(&indexName, "index", "", "index name (default from config)")
	cmd.Flags().StringVar(&similarity, "similarity", "", "LMJelinekMercer or BM25 (default from config)")
	cmd.Flags().IntVar(&bulkSize, "bulk-size", 0, "paragraphs per bulk request (default from config)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
