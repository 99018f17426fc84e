package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/fitsync/fitsync/pkg/pipeline"
	r "github.com/fitsync/fitsync/pkg/redis"
	"github.com/fitsync/fitsync/pkg/tasks"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Service defines the public interface for the worker service
type Service interface {
	// Start initializes and starts the worker service
	Start(ctx context.Context) error

	// Stop gracefully shuts down the worker service
	Stop() error
}

// service encapsulates the worker application logic
type service struct {
	config *Config
	log    logrus.FieldLogger

	done chan struct{}
	wg   sync.WaitGroup

	driver   pipeline.Driver
	redisOpt *redis.Options

	server *asynq.Server
}

// NewService creates a new worker service
func NewService(log logrus.FieldLogger, cfg *Config, driver pipeline.Driver, redisOpt *redis.Options) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &service{
		log:      log.WithField("service", "worker"),
		config:   cfg,
		done:     make(chan struct{}),
		driver:   driver,
		redisOpt: redisOpt,
	}, nil
}

// Start initializes and starts the worker service
func (s *service) Start(_ context.Context) error {
	handler := newTickHandler(s.log, s.driver)

	// A single consumer on the import queue serializes ticks; two ticks
	// never race on the same checkpoint.
	queues := map[string]int{
		tasks.QueueImport: 1,
	}

	s.log.WithFields(logrus.Fields{
		"concurrency": s.config.Concurrency,
		"queues":      queues,
	}).Info("Starting worker service")

	srv := asynq.NewServer(r.NewAsynqRedisOptions(s.redisOpt), asynq.Config{
		Concurrency: s.config.Concurrency,
		Queues:      queues,
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeImportTick, handler.HandleTick)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		if runErr := srv.Run(mux); runErr != nil {
			s.log.WithError(runErr).Error("Worker server stopped with error")
		}
	}()

	s.server = srv

	s.log.Info("Worker service started successfully")

	return nil
}

// Stop gracefully shuts down the worker service
func (s *service) Stop() error {
	close(s.done)

	if s.server != nil {
		s.server.Shutdown()
	}

	s.wg.Wait()

	s.log.Info("Worker service stopped successfully")

	return nil
}

// Ensure service implements the interface
var _ Service = (*service)(nil)
