package main

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newSearchCmd(c *cli) *cobra.Command {
	var (
		query, backendName, indexName string
		limit                         int
		jsonOutput, tableOutput       bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Query an index for the most relevant paragraphs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if indexName == "" {
				indexName = c.cfg.Index.Name
			}

			backend, release, err := c.openBackend(backendName)
			if err != nil {
				return err
			}
			defer release()

			hits, err := backend.Search(cmd.Context(), indexName, query, limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(hits)
			}
			if len(hits) == 0 {
				c.out.Info("no matching paragraphs")
				return nil
			}
			if tableOutput {
				rows := make([][]string, 0, len(hits))
				for _, hit := range hits {
					rows = append(rows, []string{strconv.Itoa(hit.ID), strconv.FormatFloat(hit.Score, 'f', 4, 64), hit.Paragraph})
				}
				return renderTable(w, []string{"ID", "SCORE", "PARAGRAPH"}, rows)
			}
			for _, hit := range hits {
				fmt.Fprintf(w, "%d\t%.4f\t%s\n", hit.ID, hit.Score, hit.Paragraph)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "query text")
	cmd.Flags().StringVar(&backendName, "backend", backendLocal, "local or meilisearch")
	cmd.Flags().StringVar(&indexName, "index", "", "index name (default from config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of paragraphs returned")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&tableOutput, "table", false, "output as an aligned table")
	cmd.MarkFlagsMutuallyExclusive("json", "table")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}
