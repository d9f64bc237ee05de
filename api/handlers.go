package api

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/internal/engine"
	"github.com/gcbaptista/go-mrc-prep/internal/jobs"
	"github.com/gcbaptista/go-mrc-prep/internal/metrics"
	"github.com/gcbaptista/go-mrc-prep/internal/tokenizer"
)

// API holds dependencies for API handlers: the paragraph index engine, the
// job manager running background work and the segmenter used for raw questions.
type API struct {
	engine    *engine.Engine
	jobs      *jobs.Manager
	segmenter tokenizer.Segmenter
	pipeline  config.PipelineConfig
	jobsRoot  string
	logger    *slog.Logger
}

// Option customises the API.
type Option func(*API)

// WithSegmenter sets the segmenter applied to raw question text.
func WithSegmenter(segmenter tokenizer.Segmenter) Option {
	return func(a *API) { a.segmenter = segmenter }
}

// WithLogger sets the logger used by handlers and background jobs.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) { a.logger = logger }
}

// WithPipelineDefaults sets the worker count and unmatched policy used when a
// fake answer job request leaves them unset.
func WithPipelineDefaults(cfg config.PipelineConfig) Option {
	return func(a *API) { a.pipeline = cfg }
}

// WithJobsRoot confines the dataset files named by job requests to dir.
// Without it job endpoints reject every path.
func WithJobsRoot(dir string) Option {
	return func(a *API) {
		if dir == "" {
			a.jobsRoot = ""
			return
		}
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		a.jobsRoot = filepath.Clean(dir)
	}
}

// NewAPI creates a new API handler structure.
func NewAPI(eng *engine.Engine, opts ...Option) *API {
	a := &API{
		engine:    eng,
		jobs:      eng.GetJobManager(),
		segmenter: tokenizer.WhitespaceSegmenter{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetupRoutes defines all the API routes.
func SetupRoutes(router *gin.Engine, eng *engine.Engine, opts ...Option) *API {
	apiHandler := NewAPI(eng, opts...)

	router.GET("/health", apiHandler.HealthCheckHandler)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Stateless scoring routes
	router.POST("/samples/fake-answer", apiHandler.FakeAnswerHandler)
	router.POST("/paragraphs/best-match", apiHandler.BestMatchHandler)
	router.POST("/scores", apiHandler.ScoresHandler)

	// Job management routes
	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("", apiHandler.ListJobsHandler)                            // List jobs, optionally by target and status
		jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler)               // Get job performance metrics
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)                       // Get job status by ID
		jobRoutes.POST("/fake-answers", apiHandler.StartFakeAnswersJobHandler)   // Annotate a dataset file in the background
		jobRoutes.POST("/export-corpus", apiHandler.StartExportCorpusJobHandler) // Export a dataset corpus in the background
		jobRoutes.POST("/build-index", apiHandler.StartBuildIndexJobHandler)     // Recreate and load an index from a dataset file
	}

	// Index management routes
	indexRoutes := router.Group("/indexes")
	{
		indexRoutes.POST("", apiHandler.CreateIndexHandler)                                          // Create or recreate an index
		indexRoutes.GET("", apiHandler.ListIndexesHandler)                                           // List all indexes
		indexRoutes.GET("/:indexName", apiHandler.GetIndexHandler)                                   // Settings and stats
		indexRoutes.DELETE("/:indexName", apiHandler.DeleteIndexHandler)                             // Delete an index
		indexRoutes.PUT("/:indexName/paragraphs", apiHandler.AddParagraphsHandler)                   // Bulk add paragraphs
		indexRoutes.PATCH("/:indexName/settings", apiHandler.UpdateIndexSettingsHandler)             // Update search-time settings
		indexRoutes.DELETE("/:indexName/paragraphs", apiHandler.ClearParagraphsHandler)              // Remove every paragraph
		indexRoutes.DELETE("/:indexName/paragraphs/:paragraphId", apiHandler.DeleteParagraphHandler) // Remove one paragraph
		indexRoutes.POST("/:indexName/_search", apiHandler.SearchHandler)                            // Search paragraphs
	}

	return apiHandler
}

// HealthCheckHandler reports liveness and the number of loaded indexes.
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"indexes": len(api.engine.ListIndexes()),
	})
}
