// Package worker consumes import tick tasks from the queue.
package worker

import (
	"errors"
)

var (
	// ErrInvalidConcurrency is returned when concurrency is not positive
	ErrInvalidConcurrency = errors.New("concurrency must be positive")
)

// Config contains worker-specific settings
type Config struct {
	// Concurrency is the asynq server's worker pool size. The import queue
	// itself is consumed one task at a time regardless.
	Concurrency int `yaml:"concurrency" default:"1"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	return nil
}
