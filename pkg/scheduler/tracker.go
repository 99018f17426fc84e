package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	r "github.com/fitsync/fitsync/pkg/redis"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	scheduleKeyNamespace = "scheduler:task"
	// Full key pattern: {prefix}:scheduler:task:{taskID}
	// Example: fitsync:scheduler:task:import:tick
)

// scheduleTracker persists execution timestamps for scheduled tasks in Redis
type scheduleTracker interface {
	// GetLastRun retrieves the last execution timestamp for a task.
	// Returns zero time if task has never run.
	GetLastRun(ctx context.Context, taskID string) (time.Time, error)

	// SetLastRun updates the last execution timestamp for a task
	SetLastRun(ctx context.Context, taskID string, timestamp time.Time) error

	// DeleteLastRun removes the execution timestamp for a task
	DeleteLastRun(ctx context.Context, taskID string) error
}

type redisScheduleTracker struct {
	log       logrus.FieldLogger
	redis     *redis.Client
	keyPrefix string
}

func newScheduleTracker(log logrus.FieldLogger, redisClient *redis.Client, cfg *r.Config) scheduleTracker {
	return &redisScheduleTracker{
		log:       log.WithField("component", "schedule_tracker"),
		redis:     redisClient,
		keyPrefix: cfg.PrefixKey(scheduleKeyNamespace) + ":",
	}
}

func (s *redisScheduleTracker) GetLastRun(ctx context.Context, taskID string) (time.Time, error) {
	val, err := s.redis.Get(ctx, s.keyPrefix+taskID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Never ran before
			return time.Time{}, nil
		}

		return time.Time{}, fmt.Errorf("failed to get last run for task %s: %w", taskID, err)
	}

	timestamp, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp for task %s: %w", taskID, err)
	}

	return timestamp, nil
}

func (s *redisScheduleTracker) SetLastRun(ctx context.Context, taskID string, timestamp time.Time) error {
	err := s.redis.Set(ctx, s.keyPrefix+taskID, timestamp.Format(time.RFC3339), 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set last run for task %s: %w", taskID, err)
	}

	s.log.WithFields(logrus.Fields{
		"task_id":   taskID,
		"timestamp": timestamp,
	}).Debug("Updated last run for task")

	return nil
}

func (s *redisScheduleTracker) DeleteLastRun(ctx context.Context, taskID string) error {
	if err := s.redis.Del(ctx, s.keyPrefix+taskID).Err(); err != nil {
		return fmt.Errorf("failed to delete last run for task %s: %w", taskID, err)
	}

	return nil
}

// Verify interface compliance at compile time
var _ scheduleTracker = (*redisScheduleTracker)(nil)
