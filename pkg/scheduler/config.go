// Package scheduler enqueues import ticks on a fixed schedule.
package scheduler

import (
	"fmt"
)

// Config defines scheduler configuration
type Config struct {
	// Schedule is a cron expression or "@every ..." interval
	Schedule string `yaml:"schedule" default:"@every 1m"`
	// Shop restricts scheduling to one shop's pipeline; empty means all shops
	Shop string `yaml:"shop"`
}

// Validate checks if the scheduler configuration is valid
func (c *Config) Validate() error {
	if c.Schedule == "" {
		c.Schedule = "@every 1m"
	}

	if _, err := parseScheduleInterval(c.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
	}

	return nil
}
