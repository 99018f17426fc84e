// Package server wires all components together and manages their lifecycle.
package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/fitsync/fitsync/pkg/api"
	"github.com/fitsync/fitsync/pkg/catalog"
	"github.com/fitsync/fitsync/pkg/csvsource"
	"github.com/fitsync/fitsync/pkg/pipeline"
	"github.com/fitsync/fitsync/pkg/reconciler"
	"github.com/fitsync/fitsync/pkg/redis"
	"github.com/fitsync/fitsync/pkg/registry"
	"github.com/fitsync/fitsync/pkg/scheduler"
	"github.com/fitsync/fitsync/pkg/worker"
)

// Define static errors
var (
	ErrRedisConfigRequired    = errors.New("redis configuration is required")
	ErrDatabaseConfigRequired = errors.New("database configuration is required")
	ErrCatalogConfigRequired  = errors.New("catalog configuration is required")
)

// Config holds server configuration
type Config struct {
	// MetricsAddr is the address to listen on for metrics.
	MetricsAddr string `yaml:"metricsAddr" default:":9090"`
	// HealthCheckAddr is the address to listen on for healthcheck.
	HealthCheckAddr *string `yaml:"healthCheckAddr"`
	// PProfAddr is the address to listen on for pprof.
	PProfAddr *string `yaml:"pprofAddr"`
	// LoggingLevel is the logging level to use.
	LoggingLevel string `yaml:"logging" default:"info"`
	// ShutdownTimeout is the timeout for shutting down the server.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"10s"`

	// Redis is the redis configuration.
	Redis *redis.Config `yaml:"redis"`
	// Database is the relational store configuration.
	Database *registry.Config `yaml:"database"`
	// Catalog is the remote product catalog configuration.
	Catalog *catalog.Config `yaml:"catalog"`
	// Fetcher configures CSV downloads.
	Fetcher *csvsource.FetcherConfig `yaml:"fetcher"`
	// Pipeline configures the chunked import.
	Pipeline *pipeline.Config `yaml:"pipeline"`
	// Reconciler configures tag reconciliation.
	Reconciler *reconciler.Config `yaml:"reconciler"`
	// Scheduler configures the tick schedule.
	Scheduler *scheduler.Config `yaml:"scheduler"`
	// Worker configures the tick consumer.
	Worker *worker.Config `yaml:"worker"`
	// API configures the HTTP surface.
	API *api.Config `yaml:"api"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Redis == nil {
		return ErrRedisConfigRequired
	}

	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("invalid redis configuration: %w", err)
	}

	if c.Database == nil {
		return ErrDatabaseConfigRequired
	}

	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}

	if c.Catalog == nil {
		return ErrCatalogConfigRequired
	}

	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("invalid catalog configuration: %w", err)
	}

	if c.Fetcher == nil {
		c.Fetcher = &csvsource.FetcherConfig{}
	}

	if c.Pipeline == nil {
		c.Pipeline = &pipeline.Config{}
	}

	if c.Reconciler == nil {
		c.Reconciler = &reconciler.Config{}
	}

	if c.Scheduler == nil {
		c.Scheduler = &scheduler.Config{}
	}

	if c.Worker == nil {
		c.Worker = &worker.Config{Concurrency: 1}
	}

	if c.API == nil {
		c.API = &api.Config{Enabled: true, Addr: ":8080"}
	}

	return nil
}
