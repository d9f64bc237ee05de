// Package api provides validation utilities for API request handling.
package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/internal/corpus"
	"github.com/gcbaptista/go-mrc-prep/internal/overlap"
)

// MaxParagraphsPerRequest caps the paragraphs accepted by one bulk request.
const MaxParagraphsPerRequest = 100000

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func newValidationResult() *ValidationResult {
	return &ValidationResult{Valid: true}
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateIndexName validates an index name parameter
func ValidateIndexName(indexName string) *ValidationResult {
	result := newValidationResult()

	if indexName == "" {
		result.AddError("indexName", "Index name is required")
		return result
	}

	if strings.TrimSpace(indexName) != indexName {
		result.AddError("indexName", "Index name cannot have leading or trailing whitespace")
		return result
	}

	return result
}

// ValidateIndexSettings applies defaults to settings and reports every problem found.
func ValidateIndexSettings(settings *config.IndexSettings) *ValidationResult {
	result := newValidationResult()

	if settings == nil {
		result.AddError("settings", "Index settings are required")
		return result
	}

	if strings.TrimSpace(settings.Name) == "" {
		result.AddError("name", "Index name is required")
		return result
	}

	settings.ApplyDefaults()
	for _, problem := range settings.Validate() {
		result.AddError("settings", problem)
	}

	return result
}

// ValidateParagraphEntries checks a bulk request for ids that are negative or repeated.
func ValidateParagraphEntries(entries []corpus.Entry) *ValidationResult {
	result := newValidationResult()

	if len(entries) == 0 {
		result.AddError("paragraphs", "No paragraphs provided")
		return result
	}
	if len(entries) > MaxParagraphsPerRequest {
		result.AddError("paragraphs", fmt.Sprintf("At most %d paragraphs per request, got %d", MaxParagraphsPerRequest, len(entries)))
		return result
	}

	seen := make(map[int]struct{}, len(entries))
	for i, entry := range entries {
		field := fmt.Sprintf("paragraphs[%d].id", i)
		if entry.ID < 0 {
			result.AddError(field, "Paragraph id cannot be negative")
			continue
		}
		if _, dup := seen[entry.ID]; dup {
			result.AddError(field, fmt.Sprintf("Paragraph id %d appears more than once", entry.ID))
			continue
		}
		seen[entry.ID] = struct{}{}
	}

	return result
}

// ValidateGroundTruths requires at least one reference answer.
func ValidateGroundTruths(groundTruths []overlap.Tokens) *ValidationResult {
	result := newValidationResult()

	if len(groundTruths) == 0 {
		result.AddError("ground_truths", "At least one ground truth is required")
	}

	return result
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// ValidateJSONBinding validates JSON binding and returns a standardized error
func ValidateJSONBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := newValidationResult()

	if err := c.ShouldBindJSON(target); err != nil {
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}

	return result
}
