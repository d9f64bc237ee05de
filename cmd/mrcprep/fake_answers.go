package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/go-mrc-prep/internal/pipeline"
)

func newFakeAnswersCmd(c *cli) *cobra.Command {
	var (
		in, out       string
		workers       int
		keepUnmatched bool
	)

	cmd := &cobra.Command{
		Use:   "fake-answers",
		Short: "Annotate a dataset with the best matching answer spans",
		Long: `Reads a JSON Lines dataset, finds for every sample the span whose F1
against the gold answers is highest and writes the annotated samples.
Samples without any matching span are dropped unless --keep-unmatched is set.
Files ending in .gz or .zst are compressed transparently.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == out {
				return fmt.Errorf("--out must differ from --in")
			}
			opts := pipeline.Options{
				Workers:       c.cfg.Pipeline.Workers,
				KeepUnmatched: c.cfg.Pipeline.KeepUnmatched,
				Logger:        c.logger,
				Progress: func(processed int) {
					c.logger.Debug("samples processed", slog.Int("count", processed))
				},
			}
			if cmd.Flags().Changed("workers") {
				opts.Workers = workers
			}
			if cmd.Flags().Changed("keep-unmatched") {
				opts.KeepUnmatched = keepUnmatched
			}

			stats, err := pipeline.RunFiles(cmd.Context(), in, out, opts)
			if err != nil {
				return err
			}
			c.out.Success("read %d, wrote %d, dropped %d samples in %s",
				stats.Read, stats.Written, stats.Dropped, stats.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "input dataset")
	cmd.Flags().StringVar(&out, "out", "", "output dataset")
	cmd.Flags().IntVar(&workers, "workers", 0, "samples processed concurrently (default from config)")
	cmd.Flags().BoolVar(&keepUnmatched, "keep-unmatched", false, "write samples without an answer span")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
