package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrIndexNotFound is returned when a paragraph index is not found
	ErrIndexNotFound = errors.New("index not found")

	// ErrParagraphNotFound is returned when a paragraph id is not indexed
	ErrParagraphNotFound = errors.New("paragraph not found")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyGroundTruths is returned when a metric is aggregated over no references.
	// It also matches ErrInvalidInput.
	ErrEmptyGroundTruths = &emptyGroundTruthsError{}

	// ErrMalformedSample is returned when a dataset line cannot be decoded
	ErrMalformedSample = errors.New("malformed sample")
)

type emptyGroundTruthsError struct{}

func (e *emptyGroundTruthsError) Error() string {
	return "cannot take the maximum over an empty set of ground truths"
}

func (e *emptyGroundTruthsError) Is(target error) bool {
	return target == ErrInvalidInput
}

// IndexNotFoundError represents an index not found error with context
type IndexNotFoundError struct {
	IndexName string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("index named '%s' not found", e.IndexName)
}

func (e *IndexNotFoundError) Is(target error) bool {
	return target == ErrIndexNotFound
}

// NewIndexNotFoundError creates a new IndexNotFoundError
func NewIndexNotFoundError(indexName string) *IndexNotFoundError {
	return &IndexNotFoundError{IndexName: indexName}
}

// ParagraphNotFoundError reports a paragraph id missing from an index.
type ParagraphNotFoundError struct {
	ParagraphID int
}

func (e *ParagraphNotFoundError) Error() string {
	return fmt.Sprintf("paragraph with ID '%d' not found", e.ParagraphID)
}

func (e *ParagraphNotFoundError) Is(target error) bool {
	return target == ErrParagraphNotFound
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// DecodeError reports a dataset line that could not be decoded into a sample.
type DecodeError struct {
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformedSample
}

// NewDecodeError creates a new DecodeError for the given 1-based line number
func NewDecodeError(line int, err error) *DecodeError {
	return &DecodeError{Line: line, Err: err}
}
