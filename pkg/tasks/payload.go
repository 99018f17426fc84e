// Package tasks provides task queue management using Asynq
package tasks

import (
	"time"
)

const (
	// TypeImportTick is the task type for one import tick
	TypeImportTick = "import:tick"

	// QueueImport is the queue tick tasks run on. The worker consumes it
	// with concurrency 1, which serializes ticks.
	QueueImport = "import"
)

// TickPayload represents the payload for an import tick task
type TickPayload struct {
	Shop       string    `json:"shop"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// UniqueID returns a unique identifier for this task. It is stable per shop,
// so duplicate enqueues collapse while a tick is pending or running.
func (p TickPayload) UniqueID() string {
	if p.Shop == "" {
		return TypeImportTick
	}

	return TypeImportTick + ":" + p.Shop
}

// QueueName returns the queue name for this task payload
func (p TickPayload) QueueName() string {
	return QueueImport
}
