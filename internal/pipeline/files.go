package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gcbaptista/go-mrc-prep/internal/dataset"
)

// RunFiles runs the pipeline from the dataset at inPath to a new dataset at
// outPath. Compression of either side follows the file extension.
func RunFiles(ctx context.Context, inPath, outPath string, opts Options) (stats Stats, err error) {
	in, err := dataset.Open(inPath)
	if err != nil {
		return Stats{}, err
	}
	defer func() {
		if closeErr := in.Close(); closeErr != nil && opts.Logger != nil {
			opts.Logger.Warn("failed to close input dataset", slog.String("path", inPath), slog.String("error", closeErr.Error()))
		}
	}()

	out, err := dataset.Create(outPath)
	if err != nil {
		return Stats{}, err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to finish %s: %w", outPath, closeErr)
		}
	}()

	return Run(ctx, in, out, opts)
}
