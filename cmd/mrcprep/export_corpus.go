package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/go-mrc-prep/internal/corpus"
)

func newExportCorpusCmd(c *cli) *cobra.Command {
	var in, out, format string

	cmd := &cobra.Command{
		Use:   "export-corpus",
		Short: "Export every paragraph of a dataset with a sequential id",
		Long: `Flattens the segmented paragraphs of every document of every sample
into a corpus keyed by paragraph id, numbered from 0 in file order.

The json format writes one object {"<id>": {"paragraph": "..."}}; the jsonl
format writes one {"id": ..., "paragraph": "..."} line per paragraph.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = corpus.FormatFor(out)
			}
			if format != corpus.FormatJSON && format != corpus.FormatJSONL {
				return fmt.Errorf("unknown format %q (must be %s or %s)", format, corpus.FormatJSON, corpus.FormatJSONL)
			}

			paragraphs, err := corpus.ReadFile(in, c.logger)
			if err != nil {
				return err
			}
			if err := paragraphs.WriteFile(out, format); err != nil {
				return err
			}

			c.out.Success("exported %d paragraphs to %s", paragraphs.Len(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "input dataset")
	cmd.Flags().StringVar(&out, "out", "", "output corpus file")
	cmd.Flags().StringVar(&format, "format", "", "json or jsonl (default from the output extension)")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
