package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/fitsync/fitsync/pkg/observability"
	r "github.com/fitsync/fitsync/pkg/redis"
	"github.com/fitsync/fitsync/pkg/tasks"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// tickEnqueuer is the slice of the queue manager the scheduler needs.
type tickEnqueuer interface {
	EnqueueTick(payload tasks.TickPayload, opts ...asynq.Option) (bool, error)
	IsTickPendingOrRunning(payload tasks.TickPayload) (bool, error)
}

// Service periodically enqueues import tick tasks.
type Service interface {
	// Start begins the ticker loop in a goroutine
	Start(ctx context.Context) error

	// Stop gracefully shuts down the scheduler
	Stop() error
}

type service struct {
	log      logrus.FieldLogger
	config   *Config
	tracker  scheduleTracker
	queue    tickEnqueuer
	interval time.Duration
	nextRun  time.Time
	done     chan struct{}
}

// NewService creates a scheduler service.
func NewService(log logrus.FieldLogger, cfg *Config, redisClient *redis.Client, redisCfg *r.Config, queue *tasks.QueueManager) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	interval, err := parseScheduleInterval(cfg.Schedule)
	if err != nil {
		return nil, err
	}

	return &service{
		log:      log.WithField("service", "scheduler"),
		config:   cfg,
		tracker:  newScheduleTracker(log, redisClient, redisCfg),
		queue:    queue,
		interval: interval,
		done:     make(chan struct{}),
	}, nil
}

func (s *service) Start(ctx context.Context) error {
	s.log.WithFields(logrus.Fields{
		"schedule": s.config.Schedule,
		"interval": s.interval,
	}).Info("Starting scheduler")

	go s.run(ctx)

	return nil
}

func (s *service) Stop() error {
	s.log.Info("Stopping scheduler")
	close(s.done)

	return nil
}

func (s *service) run(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.checkSchedule(ctx, time.Now().UTC())
		}
	}
}

// checkSchedule enqueues a tick when the schedule interval has elapsed since
// the Redis-tracked last run.
func (s *service) checkSchedule(ctx context.Context, now time.Time) {
	// Fast path: skip the Redis lookup when the task is clearly not due
	if !s.nextRun.IsZero() && now.Before(s.nextRun) {
		return
	}

	payload := tasks.TickPayload{Shop: s.config.Shop, EnqueuedAt: now}

	lastRun, err := s.tracker.GetLastRun(ctx, payload.UniqueID())
	if err != nil {
		s.log.WithError(err).Warn("Failed to get last run, will retry next tick")

		return
	}

	s.nextRun = lastRun.Add(s.interval)
	if now.Before(s.nextRun) {
		return
	}

	// A tick already pending or running keeps the slot; the schedule does not
	// advance, so this retries every second until the queue drains.
	pending, err := s.queue.IsTickPendingOrRunning(payload)
	if err != nil {
		s.log.WithError(err).WithField("task_id", payload.UniqueID()).Error("Failed to check tick status")
		observability.RecordError("scheduler", "task_status_check_error")

		return
	}

	if pending {
		s.log.WithField("task_id", payload.UniqueID()).Debug("Tick already pending or running")

		return
	}

	enqueued, err := s.queue.EnqueueTick(payload)
	if err != nil {
		s.log.WithError(err).Error("Failed to enqueue tick")
		observability.RecordError("scheduler", "enqueue_error")

		return
	}

	if enqueued {
		observability.RecordTickEnqueued("schedule")
		s.log.WithField("enqueued_at", now).Info("Enqueued scheduled tick")
	} else {
		// Previous tick still queued or running; the fixed task ID collapsed
		// this one.
		s.log.Debug("Tick already queued, skipping")
	}

	if err := s.tracker.SetLastRun(ctx, payload.UniqueID(), now); err != nil {
		s.log.WithError(err).Error("Failed to update last run timestamp")
	}

	s.nextRun = now.Add(s.interval)
}

// parseScheduleInterval converts a cron schedule string to a duration.
// Supports @every format (e.g., "@every 30s", "@every 5m") and standard
// cron expressions.
func parseScheduleInterval(schedule string) (time.Duration, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	sched, err := parser.Parse(schedule)
	if err != nil {
		return 0, fmt.Errorf("invalid schedule format: %w", err)
	}

	if len(schedule) > 7 && schedule[:6] == "@every" {
		duration, err := time.ParseDuration(schedule[7:])
		if err != nil {
			return 0, fmt.Errorf("failed to parse @every duration: %w", err)
		}

		return duration, nil
	}

	// For standard cron expressions, take the gap between the next two runs
	now := time.Now()
	next1 := sched.Next(now)
	next2 := sched.Next(next1)

	return next2.Sub(next1), nil
}

// Verify interface compliance at compile time
var _ Service = (*service)(nil)
