package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/internal/corpus"
	mrcerrors "github.com/gcbaptista/go-mrc-prep/internal/errors"
	"github.com/gcbaptista/go-mrc-prep/internal/pipeline"
	"github.com/gcbaptista/go-mrc-prep/internal/searchindex"
	"github.com/gcbaptista/go-mrc-prep/model"
)

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	job, err := api.jobs.GetJob(jobID)
	if err != nil {
		if errors.Is(err, mrcerrors.ErrJobNotFound) {
			SendJobNotFoundError(c, jobID)
			return
		}
		SendInternalError(c, "job lookup", err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobsHandler lists jobs, optionally filtered by ?target= and ?status=
func (api *API) ListJobsHandler(c *gin.Context) {
	target := c.Query("target")
	statusParam := c.Query("status")

	var statusFilter *model.JobStatus
	if statusParam != "" {
		status := model.JobStatus(statusParam)
		statusFilter = &status
	}

	jobs := api.jobs.ListJobs(target, statusFilter)
	c.JSON(http.StatusOK, gin.H{
		"jobs":   jobs,
		"target": target,
		"total":  len(jobs),
	})
}

// GetJobMetricsHandler handles requests to get job performance metrics
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics":          api.jobs.GetMetrics(),
		"success_rate":     api.jobs.GetJobSuccessRate(),
		"current_workload": api.jobs.GetCurrentWorkload(),
	})
}

// FakeAnswersJobRequest names a dataset file under the jobs root and where to
// write the annotated copy. Unset options fall back to the server configuration.
type FakeAnswersJobRequest struct {
	Input         string `json:"input"`
	Output        string `json:"output"`
	Workers       int    `json:"workers"`
	KeepUnmatched *bool  `json:"keep_unmatched"`
}

// StartFakeAnswersJobHandler annotates a dataset file in the background.
func (api *API) StartFakeAnswersJobHandler(c *gin.Context) {
	var req FakeAnswersJobRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	input, output, result := api.resolveJobPaths(req.Input, req.Output)
	if req.Workers < 0 {
		result.AddError("workers", "Workers cannot be negative")
	}
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	opts := pipeline.Options{
		Workers:       api.pipeline.Workers,
		KeepUnmatched: api.pipeline.KeepUnmatched,
		Logger:        api.logger,
	}
	if req.Workers > 0 {
		opts.Workers = req.Workers
	}
	if req.KeepUnmatched != nil {
		opts.KeepUnmatched = *req.KeepUnmatched
	}

	jobID := api.jobs.CreateJob(model.JobTypeFakeAnswers, input, map[string]string{
		"output":         output,
		"keep_unmatched": strconv.FormatBool(opts.KeepUnmatched),
	})
	err := api.jobs.ExecuteJob(jobID, func(ctx context.Context, _ *model.Job) error {
		return api.runFakeAnswersJob(ctx, jobID, input, output, opts)
	})
	if err != nil {
		SendJobExecutionError(c, "fake answers", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": fmt.Sprintf("Fake answer annotation started for '%s'", req.Input),
		"job_id":  jobID,
	})
}

func (api *API) runFakeAnswersJob(ctx context.Context, jobID, input, output string, opts pipeline.Options) error {
	opts.Progress = func(processed int) {
		api.jobs.UpdateJobProgress(jobID, processed, 0, fmt.Sprintf("processed %d samples", processed))
	}

	stats, err := pipeline.RunFiles(ctx, input, output, opts)
	if err != nil {
		return err
	}
	api.jobs.UpdateJobProgress(jobID, stats.Read, stats.Read,
		fmt.Sprintf("wrote %d samples, dropped %d", stats.Written, stats.Dropped))
	api.logger.Info("fake answer job finished",
		slog.String("job_id", jobID),
		slog.String("input", input),
		slog.String("output", output),
		slog.Int("written", stats.Written))
	return nil
}

// ExportCorpusJobRequest names a dataset file under the jobs root and the
// corpus file to write. An empty format is derived from the output extension.
type ExportCorpusJobRequest struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Format string `json:"format"`
}

// StartExportCorpusJobHandler exports the paragraph corpus of a dataset file in the background.
func (api *API) StartExportCorpusJobHandler(c *gin.Context) {
	var req ExportCorpusJobRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	input, output, result := api.resolveJobPaths(req.Input, req.Output)
	if req.Format == "" {
		req.Format = corpus.FormatFor(req.Output)
	}
	if req.Format != corpus.FormatJSON && req.Format != corpus.FormatJSONL {
		result.AddError("format", fmt.Sprintf("Format must be %s or %s", corpus.FormatJSON, corpus.FormatJSONL))
	}
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	jobID := api.jobs.CreateJob(model.JobTypeExportCorpus, input, map[string]string{
		"output": output,
		"format": req.Format,
	})
	err := api.jobs.ExecuteJob(jobID, func(ctx context.Context, _ *model.Job) error {
		paragraphs, err := corpus.ReadFile(input, api.logger)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := paragraphs.WriteFile(output, req.Format); err != nil {
			return err
		}
		api.jobs.UpdateJobProgress(jobID, paragraphs.Len(), paragraphs.Len(),
			fmt.Sprintf("exported %d paragraphs", paragraphs.Len()))
		return nil
	})
	if err != nil {
		SendJobExecutionError(c, "corpus export", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": fmt.Sprintf("Corpus export started for '%s'", req.Input),
		"job_id":  jobID,
	})
}

// BuildIndexJobRequest names a dataset file under the jobs root whose paragraphs
// are loaded into a freshly recreated index.
type BuildIndexJobRequest struct {
	Input    string               `json:"input"`
	Settings config.IndexSettings `json:"settings"`
}

// StartBuildIndexJobHandler recreates an index and bulk loads the corpus of a
// dataset file into it in the background.
func (api *API) StartBuildIndexJobHandler(c *gin.Context) {
	var req BuildIndexJobRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	result := ValidateIndexSettings(&req.Settings)
	input := api.jobPath(result, "input", req.Input, "Input dataset path")
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	settings := req.Settings
	jobID := api.jobs.CreateJob(model.JobTypeBuildIndex, settings.Name, map[string]string{
		"input":      input,
		"similarity": settings.Similarity.Type,
	})
	err := api.jobs.ExecuteJob(jobID, func(ctx context.Context, _ *model.Job) error {
		paragraphs, err := corpus.ReadFile(input, api.logger)
		if err != nil {
			return err
		}
		loader := searchindex.NewLoader(api.logger)
		loader.Progress = func(indexed, total int) {
			api.jobs.UpdateJobProgress(jobID, indexed, total, fmt.Sprintf("indexed %d of %d paragraphs", indexed, total))
		}
		_, err = loader.Load(ctx, searchindex.NewLocalBackend(api.engine), paragraphs, settings)
		return err
	})
	if err != nil {
		SendJobExecutionError(c, "index build", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": fmt.Sprintf("Index build started for '%s'", settings.Name),
		"job_id":  jobID,
	})
}
