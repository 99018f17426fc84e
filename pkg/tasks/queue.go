package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// QueueManager manages task queuing
type QueueManager struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewQueueManager creates a new queue manager
func NewQueueManager(redisOpt *asynq.RedisClientOpt) *QueueManager {
	return &QueueManager{
		client:    asynq.NewClient(*redisOpt),
		inspector: asynq.NewInspector(*redisOpt),
	}
}

// EnqueueTick enqueues an import tick task. Returns false without error when
// an identical task is already queued or running.
func (q *QueueManager) EnqueueTick(payload TickPayload, opts ...asynq.Option) (bool, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to marshal tick payload: %w", err)
	}

	task := asynq.NewTask(TypeImportTick, data)

	defaultOpts := []asynq.Option{
		asynq.TaskID(payload.UniqueID()),
		asynq.Queue(payload.QueueName()),
		asynq.MaxRetry(3),
		asynq.Timeout(10 * time.Minute),
	}

	allOpts := defaultOpts
	allOpts = append(allOpts, opts...)

	_, err = q.client.Enqueue(task, allOpts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return false, nil
		}

		return false, fmt.Errorf("failed to enqueue tick: %w", err)
	}

	return true, nil
}

// IsTickPendingOrRunning checks if a tick task is pending or running
func (q *QueueManager) IsTickPendingOrRunning(payload TickPayload) (bool, error) {
	info, err := q.inspector.GetTaskInfo(payload.QueueName(), payload.UniqueID())
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}

		return false, err
	}

	return info.State == asynq.TaskStatePending ||
		info.State == asynq.TaskStateActive ||
		info.State == asynq.TaskStateRetry, nil
}

// Close closes the queue manager
func (q *QueueManager) Close() error {
	return q.client.Close()
}

func isNotFound(err error) bool {
	return strings.Contains(err.Error(), "NOT FOUND") ||
		strings.Contains(err.Error(), "queue not found") ||
		strings.Contains(err.Error(), "task not found")
}
