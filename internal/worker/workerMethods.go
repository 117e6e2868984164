package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/domain/jobModel"
	"github.com/akolanti/DocAssist/internal/metrics"
)

func executeJob(job jobModel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, jobTimeout)
	defer cancel()
	log := logger.FromContext(ctx).With("jobId", job.Id)
	log.Debug("Processing job", "type", job.JobType)

	job.Status = jobModel.JobStatusRunning
	saveJobState(ctx, job)

	switch job.JobType {
	case jobModel.JobTypeIngest:
		job.CurrentStep = jobModel.IngestInit
		job = _ingester.IngestDocument(ctx, job)
	default:
		log.Warn("Unknown job type", "type", job.JobType)
		job.Status = jobModel.JobStatusError
		job.CurrentStep = jobModel.Error
		job.Error = jobModel.JobError{Code: 400, Message: "Unknown job type"}
	}

	if job.Status == jobModel.JobStatusRunning {
		job.Status = jobModel.JobStatusComplete
	}
	if job.EndTime.IsZero() {
		job.EndTime = time.Now()
	}
	saveJobState(ctx, job)
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	count := atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker", "reason", reason, "workerCount", count)
	metrics.DecrementActiveWorkerCount()
}

// saveJobState uses a fresh context so a timed-out job still records its outcome.
func saveJobState(ctx context.Context, job jobModel.Job) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := _jobService.JobStore.SaveJob(saveCtx, job); err != nil {
		logger.Error("Failed to update job state", "jobId", job.Id, "err", err)
	}
}
