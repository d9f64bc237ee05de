package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/go-mrc-prep/internal/errors"
	"github.com/gcbaptista/go-mrc-prep/internal/metrics"
	"github.com/gcbaptista/go-mrc-prep/model"
	"github.com/gcbaptista/go-mrc-prep/services"
)

var _ services.JobManager = (*Manager)(nil)

// Manager handles background job execution and tracking
type Manager struct {
	mu       sync.RWMutex
	jobs     map[string]*model.Job
	queued   map[string]struct{} // Pending jobs waiting for a worker slot
	workers  chan struct{}       // Limits concurrent jobs
	stopChan chan struct{}
	stopOnce sync.Once
	ctx      context.Context // Cancelled on Stop so running jobs can abort
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	metrics  *JobMetrics
	logger   *slog.Logger
}

// NewManager creates a new job manager with specified worker count.
// A nil logger uses slog.Default().
func NewManager(maxWorkers int, logger *slog.Logger) *Manager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		jobs:     make(map[string]*model.Job),
		queued:   make(map[string]struct{}),
		workers:  make(chan struct{}, maxWorkers),
		stopChan: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
		metrics:  NewJobMetrics(),
		logger:   logger,
	}
}

// Start begins the job manager and starts background cleanup
func (m *Manager) Start() {
	m.logger.Info("job manager started", slog.Int("max_workers", cap(m.workers)))

	go m.cleanupRoutine()
}

// Stop cancels running jobs and waits for them to return. It is safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		close(m.stopChan)
		m.mu.Unlock()
		m.cancel()
		m.wg.Wait()
		m.logger.Info("job manager stopped")
	})
}

// CreateJob creates a new job and returns its ID. Target names the dataset
// path or index the job works on.
func (m *Manager) CreateJob(jobType model.JobType, target string, metadata map[string]string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &model.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    model.JobStatusPending,
		Target:    target,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}

	m.jobs[job.ID] = job
	m.metrics.RecordJobCreated(jobType)
	m.logger.Info("job created",
		slog.String("job_id", job.ID),
		slog.String("type", string(job.Type)),
		slog.String("target", job.Target))
	return job.ID
}

// GetJob retrieves a job by ID
func (m *Manager) GetJob(jobID string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return nil, errors.NewJobNotFoundError(jobID)
	}

	// Return a copy to avoid race conditions
	jobCopy := *job
	if job.Progress != nil {
		progressCopy := *job.Progress
		jobCopy.Progress = &progressCopy
	}
	return &jobCopy, nil
}

// ListJobs returns the jobs for a target, oldest first, optionally filtered
// by status. An empty target matches every job.
func (m *Manager) ListJobs(target string, status *model.JobStatus) []*model.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*model.Job, 0)
	for _, job := range m.jobs {
		if target == "" || job.Target == target {
			if status == nil || job.Status == *status {
				// Return a copy
				jobCopy := *job
				if job.Progress != nil {
					progressCopy := *job.Progress
					jobCopy.Progress = &progressCopy
				}
				result = append(result, &jobCopy)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// WaitForJob blocks until the job reaches a terminal status or ctx is done.
func (m *Manager) WaitForJob(ctx context.Context, jobID string) (*model.Job, error) {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		job, err := m.GetJob(jobID)
		if err != nil {
			return nil, err
		}
		switch job.Status {
		case model.JobStatusCompleted, model.JobStatusFailed, model.JobStatusCancelled:
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ExecuteJob schedules a pending job and returns without waiting for a
// worker slot. The job stays pending until a slot frees up.
func (m *Manager) ExecuteJob(jobID string, jobFunc func(ctx context.Context, job *model.Job) error) error {
	m.mu.Lock()
	job, exists := m.jobs[jobID]
	if !exists {
		m.mu.Unlock()
		return errors.NewJobNotFoundError(jobID)
	}

	if job.Status != model.JobStatusPending {
		m.mu.Unlock()
		return fmt.Errorf("job with ID '%s' is not in pending status (current: %s)", jobID, job.Status)
	}
	if _, scheduled := m.queued[jobID]; scheduled {
		m.mu.Unlock()
		return fmt.Errorf("job with ID '%s' is already scheduled", jobID)
	}

	select {
	case <-m.stopChan:
		m.mu.Unlock()
		m.updateJobStatus(jobID, model.JobStatusCancelled, "Job manager shutting down")
		return fmt.Errorf("job manager is shutting down")
	default:
	}

	m.queued[jobID] = struct{}{}
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(job, jobFunc)
	return nil
}

// run waits for a worker slot, then executes the job and records its outcome.
func (m *Manager) run(job *model.Job, jobFunc func(ctx context.Context, job *model.Job) error) {
	defer m.wg.Done()
	jobID := job.ID

	select {
	case m.workers <- struct{}{}:
	case <-m.stopChan:
		m.cancelQueued(job)
		return
	}
	defer func() { <-m.workers }()

	m.mu.Lock()
	// Stop may have raced with the slot becoming free.
	select {
	case <-m.stopChan:
		m.mu.Unlock()
		m.cancelQueued(job)
		return
	default:
	}
	delete(m.queued, jobID)
	oldStatus := job.Status
	job.Status = model.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	m.metrics.RecordJobStatusChange(oldStatus, job.Status)
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(m.ctx)
	defer cancel()

	startTime := time.Now()
	err := jobFunc(ctx, job)
	executionTime := time.Since(startTime)

	var status model.JobStatus
	switch {
	case err != nil && ctx.Err() != nil:
		status = model.JobStatusCancelled
		m.updateJobStatus(jobID, status, err.Error())
		m.metrics.RecordJobCancelled(job.Type)
		m.logger.Warn("job cancelled", slog.String("job_id", jobID), slog.Duration("after", executionTime))
	case err != nil:
		status = model.JobStatusFailed
		m.updateJobStatus(jobID, status, err.Error())
		m.metrics.RecordJobFailed(job.Type)
		m.logger.Error("job failed",
			slog.String("job_id", jobID),
			slog.Duration("after", executionTime),
			slog.String("error", err.Error()))
	default:
		status = model.JobStatusCompleted
		m.updateJobStatus(jobID, status, "")
		m.metrics.RecordJobCompleted(job.Type, executionTime)
		m.logger.Info("job completed", slog.String("job_id", jobID), slog.Duration("took", executionTime))
	}
	metrics.RecordJob(string(job.Type), string(status), executionTime.Seconds())
}

func (m *Manager) cancelQueued(job *model.Job) {
	m.mu.Lock()
	delete(m.queued, job.ID)
	m.mu.Unlock()
	m.updateJobStatus(job.ID, model.JobStatusCancelled, "Job manager shutting down")
	m.metrics.RecordJobCancelled(job.Type)
	metrics.RecordJob(string(job.Type), string(model.JobStatusCancelled), 0)
}

// UpdateJobProgress updates the progress of a running job
func (m *Manager) UpdateJobProgress(jobID string, current, total int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}

	if job.Progress == nil {
		job.Progress = &model.JobProgress{}
	}

	job.Progress.Current = current
	job.Progress.Total = total
	job.Progress.Message = message
}

// updateJobStatus updates the status of a job (internal method)
func (m *Manager) updateJobStatus(jobID string, status model.JobStatus, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}

	oldStatus := job.Status
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}

	if status == model.JobStatusCompleted || status == model.JobStatusFailed || status == model.JobStatusCancelled {
		now := time.Now()
		job.CompletedAt = &now
	}

	m.metrics.RecordJobStatusChange(oldStatus, status)
}

// cleanupRoutine runs periodic job cleanup
func (m *Manager) cleanupRoutine() {
	ticker := time.NewTicker(1 * time.Hour) // Cleanup every hour
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Clean up completed jobs older than 24 hours
			m.CleanupOldJobs(24 * time.Hour)
		case <-m.stopChan:
			return
		}
	}
}

// CleanupOldJobs removes completed jobs older than the specified duration
func (m *Manager) CleanupOldJobs(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	cleaned := 0

	for jobID, job := range m.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		m.logger.Info("cleaned up old jobs", slog.Int("count", cleaned))
	}
}

// GetMetrics returns current job performance metrics
func (m *Manager) GetMetrics() JobMetricsData {
	return m.metrics.GetMetrics()
}

// GetJobSuccessRate returns the overall job success rate
func (m *Manager) GetJobSuccessRate() float64 {
	return m.metrics.GetSuccessRate()
}

// GetCurrentWorkload returns the number of currently active jobs
func (m *Manager) GetCurrentWorkload() int64 {
	return m.metrics.GetCurrentWorkload()
}
