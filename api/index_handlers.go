package api

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/internal/corpus"
	"github.com/gcbaptista/go-mrc-prep/services"
)

// CreateIndexHandler creates an index, replacing any index with the same name.
// Request Body: config.IndexSettings
func (api *API) CreateIndexHandler(c *gin.Context) {
	var settings config.IndexSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	if result := ValidateIndexSettings(&settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if err := api.engine.CreateIndex(settings); err != nil {
		sendInputError(c, err, func() { SendInternalError(c, "index creation", err) })
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Index '" + settings.Name + "' created successfully",
		"settings": settings,
	})
}

// ListIndexesHandler lists all available indexes.
func (api *API) ListIndexesHandler(c *gin.Context) {
	names := api.engine.ListIndexes()
	c.JSON(http.StatusOK, gin.H{"indexes": names, "count": len(names)})
}

// GetIndexHandler returns the settings and statistics of an index.
func (api *API) GetIndexHandler(c *gin.Context) {
	indexName := c.Param("indexName")
	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		SendIndexNotFoundError(c, indexName)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"settings": indexAccessor.Settings(),
		"stats":    indexAccessor.Stats(),
	})
}

// DeleteIndexHandler handles deleting an index.
func (api *API) DeleteIndexHandler(c *gin.Context) {
	indexName := c.Param("indexName")
	if result := ValidateIndexName(indexName); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if err := api.engine.DeleteIndex(indexName); err != nil {
		sendInputError(c, err, func() { SendInternalError(c, "index deletion", err) })
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Index '" + indexName + "' deleted successfully"})
}

// UpdateIndexSettingsHandler replaces the settings of an existing index. The
// indexed paragraphs are kept; only search-time settings may change.
// Request Body: config.IndexSettings
func (api *API) UpdateIndexSettingsHandler(c *gin.Context) {
	indexName := c.Param("indexName")

	var settings config.IndexSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	if err := api.engine.UpdateIndexSettings(indexName, settings); err != nil {
		sendInputError(c, err, func() { SendInternalError(c, "settings update", err) })
		return
	}

	updated, err := api.engine.GetIndexSettings(indexName)
	if err != nil {
		sendInputError(c, err, func() { SendInternalError(c, "settings lookup", err) })
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings of index '" + indexName + "' updated successfully",
		"settings": updated,
	})
}

// AddParagraphsHandler starts a background job adding paragraphs to an index.
// The body is either an array of {"id", "paragraph"} objects or the exported
// corpus form {"<id>": {"paragraph": "..."}}.
func (api *API) AddParagraphsHandler(c *gin.Context) {
	indexName := c.Param("indexName")
	if _, err := api.engine.GetIndex(indexName); err != nil {
		SendIndexNotFoundError(c, indexName)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, "Failed to read request body: "+err.Error())
		return
	}
	entries, err := decodeParagraphEntries(body)
	if err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateParagraphEntries(entries); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	jobID, err := api.engine.AddParagraphsAsync(indexName, entries)
	if err != nil {
		SendJobExecutionError(c, "add paragraphs", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":          "accepted",
		"message":         fmt.Sprintf("Paragraph indexing started for index '%s' (%d paragraphs)", indexName, len(entries)),
		"job_id":          jobID,
		"paragraph_count": len(entries),
	})
}

// DeleteParagraphHandler removes one paragraph from an index.
func (api *API) DeleteParagraphHandler(c *gin.Context) {
	indexName := c.Param("indexName")
	paraID, err := strconv.Atoi(c.Param("paragraphId"))
	if err != nil {
		result := newValidationResult()
		result.AddError("paragraphId", "Paragraph id must be an integer")
		SendValidationError(c, result)
		return
	}

	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		SendIndexNotFoundError(c, indexName)
		return
	}
	if err := indexAccessor.DeleteParagraph(paraID); err != nil {
		sendInputError(c, err, func() { SendIndexingError(c, "delete paragraph", err) })
		return
	}
	if err := api.engine.PersistIndexData(indexName); err != nil {
		SendIndexingError(c, "persist index", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Paragraph %d deleted from index '%s'", paraID, indexName)})
}

// ClearParagraphsHandler removes every paragraph from an index and keeps its settings.
func (api *API) ClearParagraphsHandler(c *gin.Context) {
	indexName := c.Param("indexName")
	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		SendIndexNotFoundError(c, indexName)
		return
	}
	if err := indexAccessor.DeleteAllParagraphs(); err != nil {
		SendIndexingError(c, "clear paragraphs", err)
		return
	}
	if err := api.engine.PersistIndexData(indexName); err != nil {
		SendIndexingError(c, "persist index", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All paragraphs deleted from index '" + indexName + "'"})
}

func decodeParagraphEntries(body []byte) ([]corpus.Entry, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	if trimmed[0] == '[' {
		var entries []corpus.Entry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}

	var byID map[string]struct {
		Paragraph string `json:"paragraph"`
	}
	if err := json.Unmarshal(trimmed, &byID); err != nil {
		return nil, err
	}
	entries := make([]corpus.Entry, 0, len(byID))
	for key, p := range byID {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("paragraph key %q is not an integer id", key)
		}
		entries = append(entries, corpus.Entry{ID: id, Paragraph: p.Paragraph})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// SearchHandler handles search requests to an index.
// Request Body: services.SearchQuery
func (api *API) SearchHandler(c *gin.Context) {
	indexName := c.Param("indexName")

	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		SendIndexNotFoundError(c, indexName)
		return
	}

	var query services.SearchQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if query.Limit < 0 {
		result := newValidationResult()
		result.AddError("limit", "Limit cannot be negative")
		SendValidationError(c, result)
		return
	}

	results, err := indexAccessor.Search(query)
	if err != nil {
		sendInputError(c, err, func() { SendSearchError(c, indexName, err) })
		return
	}

	c.JSON(http.StatusOK, results)
}
