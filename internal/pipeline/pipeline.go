// Package pipeline annotates a stream of samples with fake answers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/go-mrc-prep/internal/metrics"
	"github.com/gcbaptista/go-mrc-prep/internal/spansearch"
	"github.com/gcbaptista/go-mrc-prep/model"
)

const defaultBatchPerWorker = 64

// SampleReader yields samples until io.EOF.
type SampleReader interface {
	Next() (*model.Sample, error)
}

// SampleWriter receives the annotated samples in input order.
type SampleWriter interface {
	Write(v any) error
}

// Options controls a pipeline run.
type Options struct {
	// Workers is the number of samples processed concurrently. Defaults to NumCPU.
	Workers int
	// BatchSize is the number of samples read before a batch is processed.
	BatchSize int
	// KeepUnmatched writes samples without an answer span instead of dropping them.
	KeepUnmatched bool
	// Progress, when set, is called after each batch with the number of samples read so far.
	Progress func(processed int)
	Logger   *slog.Logger
}

// Stats summarises a run.
type Stats struct {
	Read     int           `json:"read"`
	Written  int           `json:"written"`
	Dropped  int           `json:"dropped"`
	Duration time.Duration `json:"duration"`
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.BatchSize <= 0 {
		o.BatchSize = o.Workers * defaultBatchPerWorker
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Run reads every sample from in, computes its fake answer and writes it to
// out. Output order matches input order. Samples with no answer span are
// dropped unless opts.KeepUnmatched is set.
func Run(ctx context.Context, in SampleReader, out SampleWriter, opts Options) (Stats, error) {
	opts = opts.withDefaults()
	started := time.Now()
	var stats Stats

	batch := make([]*model.Sample, 0, opts.BatchSize)
	for {
		if err := ctx.Err(); err != nil {
			stats.Duration = time.Since(started)
			return stats, err
		}

		batch = batch[:0]
		eof := false
		for len(batch) < opts.BatchSize {
			sample, err := in.Next()
			if errors.Is(err, io.EOF) {
				eof = true
				break
			}
			if err != nil {
				stats.Duration = time.Since(started)
				return stats, fmt.Errorf("failed to read sample %d: %w", stats.Read+len(batch)+1, err)
			}
			batch = append(batch, sample)
		}

		if err := processBatch(ctx, batch, opts.Workers); err != nil {
			stats.Duration = time.Since(started)
			return stats, err
		}

		for _, sample := range batch {
			stats.Read++
			if !opts.KeepUnmatched && !sample.HasAnswerSpan() {
				stats.Dropped++
				continue
			}
			if err := out.Write(sample); err != nil {
				stats.Duration = time.Since(started)
				return stats, fmt.Errorf("failed to write sample %d: %w", stats.Read, err)
			}
			stats.Written++
		}

		if opts.Progress != nil && len(batch) > 0 {
			opts.Progress(stats.Read)
		}
		if eof {
			break
		}
	}

	stats.Duration = time.Since(started)
	metrics.RecordSamples(stats.Written, stats.Dropped)
	opts.Logger.Info("fake answer pipeline finished",
		slog.Int("read", stats.Read),
		slog.Int("written", stats.Written),
		slog.Int("dropped", stats.Dropped),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

func processBatch(ctx context.Context, batch []*model.Sample, workers int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, sample := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			spansearch.FindFakeAnswer(sample).Apply(sample)
			return nil
		})
	}
	return g.Wait()
}
