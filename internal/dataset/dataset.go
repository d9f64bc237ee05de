// Package dataset reads and writes samples stored as JSON Lines, one sample per
// line. Files ending in .gz or .zst are transparently (de)compressed.
package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/gcbaptista/go-mrc-prep/internal/errors"
	"github.com/gcbaptista/go-mrc-prep/model"
)

const filePerm = 0640

// Compression identifies how a dataset file is encoded on disk.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// CompressionFor infers the compression from a file name.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// Reader streams samples from a JSON Lines source.
type Reader struct {
	r       *bufio.Reader
	closers []io.Closer
	line    int
}

// NewReader reads uncompressed JSON Lines from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 1<<20)}
}

// Open opens a dataset file, decompressing according to its extension.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path) // #nosec G304 -- dataset paths are supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}

	var src io.Reader = file
	closers := []io.Closer{file}
	switch CompressionFor(path) {
	case CompressionGzip:
		gz, err := gzip.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to read gzip header of %s: %w", path, err)
		}
		src = gz
		closers = append([]io.Closer{gz}, closers...)
	case CompressionZstd:
		dec, err := zstd.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to create zstd decoder for %s: %w", path, err)
		}
		rc := dec.IOReadCloser()
		src = rc
		closers = append([]io.Closer{rc}, closers...)
	}

	reader := NewReader(src)
	reader.closers = closers
	return reader, nil
}

// Next decodes the next sample. Blank lines are skipped. It returns io.EOF
// after the last sample and an *errors.DecodeError for malformed lines.
func (r *Reader) Next() (*model.Sample, error) {
	for {
		raw, err := r.r.ReadBytes('\n')
		if len(raw) == 0 && err != nil {
			return nil, err
		}
		r.line++
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			if err != nil {
				return nil, err
			}
			continue
		}
		var sample model.Sample
		if decodeErr := json.Unmarshal(raw, &sample); decodeErr != nil {
			return nil, errors.NewDecodeError(r.line, decodeErr)
		}
		return &sample, nil
	}
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// Close releases the underlying file and decompressor.
func (r *Reader) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}

// Writer writes one JSON object per line. Non-ASCII text and HTML characters
// are written as-is.
type Writer struct {
	buf     *bufio.Writer
	enc     *json.Encoder
	closers []io.Closer
}

// NewWriter writes uncompressed JSON Lines to w.
func NewWriter(w io.Writer) *Writer {
	buf := bufio.NewWriterSize(w, 1<<20)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &Writer{buf: buf, enc: enc}
}

// Create creates or truncates a dataset file, compressing according to its extension.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm) // #nosec G304 -- dataset paths are supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset %s: %w", path, err)
	}

	var dst io.Writer = file
	closers := []io.Closer{file}
	switch CompressionFor(path) {
	case CompressionGzip:
		gz := gzip.NewWriter(file)
		dst = gz
		closers = append([]io.Closer{gz}, closers...)
	case CompressionZstd:
		enc, err := zstd.NewWriter(file)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to create zstd encoder for %s: %w", path, err)
		}
		dst = enc
		closers = append([]io.Closer{enc}, closers...)
	}

	writer := NewWriter(dst)
	writer.closers = closers
	return writer, nil
}

// Write encodes v as one line.
func (w *Writer) Write(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode line: %w", err)
	}
	return nil
}

// Flush writes buffered lines to the underlying writer.
func (w *Writer) Flush() error {
	return w.buf.Flush()
}

// Close flushes pending output and closes the compressor and file, in that order.
func (w *Writer) Close() error {
	firstErr := w.buf.Flush()
	for _, c := range w.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	w.closers = nil
	return firstErr
}
