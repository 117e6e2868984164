package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/domain/jobModel"
	"github.com/akolanti/DocAssist/internal/job"
	"github.com/akolanti/DocAssist/internal/metrics"
	"github.com/akolanti/DocAssist/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           = logger_i.NewLogger("JobHandler")
)

type JobHandler struct {
	service *job.Service
}

func InitJobHandler(jobService *job.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})
}

func CreateNewJob(newJob newJobData) {
	logJH.With("traceId", newJob.traceId, "jobId", newJob.id).Info("Creating ingest job", "file", newJob.documentName)
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {
	_job := jobModel.Job{
		Id:          newJob.id,
		UserId:      newJob.userId,
		SessionId:   newJob.sessionId,
		TraceId:     newJob.traceId,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.IngestInit,
		JobType:     jobModel.JobTypeIngest,
		JobPayload: jobModel.JobPayload{
			IngestFileName: newJob.documentName,
			IngestFileType: newJob.documentType,
			IngestURL:      newJob.documentSource,
		},
	}

	// queued state is visible to status polling before a worker picks the job up
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.traceId)
	if err := h.service.JobStore.SaveJob(ctxC, _job); err != nil {
		logJH.Error("Failed to save queued job", "jobId", _job.Id, "err", err)
	}

	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //blocking send keeps uploads from overwhelming the pool

	// ingestion is slow (extraction plus embedding calls) so every upload asks
	// the dispatcher for another worker; idle workers retire on their own
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || _job.JobType == jobModel.JobTypeIngest {
		metrics.StartDispatcherSignalCount()
		logJH.Debug("Signalling dispatcher", "requestCount", accurateCount)
		select {
		case h.service.DispatcherChannel <- true:
		default:
			// dispatcher already has a pending signal
		}
	}
}
