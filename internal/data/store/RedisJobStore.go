package store

import (
	"context"
	"encoding/json"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/data/redisStore"
	"github.com/akolanti/DocAssist/internal/domain/jobModel"
	"github.com/akolanti/DocAssist/pkg/logger_i"
)

type RedisJobStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

var _ jobModel.JobStore = (*RedisJobStore)(nil)

func GetRedisJobStore(ctx context.Context, settings *config.Settings) (*RedisJobStore, error) {
	s, err := redisStore.GetRedisStore(ctx, settings, config.RedisJobStore)
	if err != nil {
		return nil, err
	}
	return NewRedisJobStore(s), nil
}

func NewRedisJobStore(s *redisStore.Store) *RedisJobStore {
	return &RedisJobStore{
		store:  s,
		logger: logger_i.NewLogger("JobStore"),
	}
}

func jobKey(jobId string) string {
	return "job:" + jobId
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	log := s.logger.FromContext(ctx).With("jobId", job.Id)
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	err = s.store.Set(ctx, jobKey(job.Id), data, config.RedisJobStoreTTL)
	if err != nil {
		log.Error("failed to save job", "error", err)
		return err
	}
	log.Debug("Saved job to Redis", "status", job.Status, "step", job.CurrentStep)
	return nil
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	log := s.logger.FromContext(ctx).With("jobId", jobId)

	val, err := s.store.Get(ctx, jobKey(jobId))
	if s.store.IsNil(err) {
		return job, false
	} else if err != nil {
		log.Error("failed to read job", "error", err)
		return job, false
	}

	if err := json.Unmarshal([]byte(val), &job); err != nil {
		log.Error("failed to decode job", "error", err)
		return job, false
	}
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	if err := s.store.Del(ctx, jobKey(jobID)); err != nil {
		s.logger.FromContext(ctx).Error("Error deleting job from Redis", "jobId", jobID, "error", err)
		return
	}
	s.logger.FromContext(ctx).Debug("Job deleted from Redis", "jobId", jobID)
}
