package redis

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// New creates a Redis client from the configuration. The address may be a
// redis:// URL or a plain host:port.
func New(cfg *Config) (*redis.Client, *redis.Options, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid redis configuration: %w", err)
	}

	opt, err := redis.ParseURL(cfg.Address)
	if err != nil {
		opt = &redis.Options{Addr: cfg.Address}
	}

	return redis.NewClient(opt), opt, nil
}
