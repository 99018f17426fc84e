package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	//nolint:gosec // only exposed if pprofAddr config is set
	_ "net/http/pprof"

	"github.com/fitsync/fitsync/pkg/api"
	"github.com/fitsync/fitsync/pkg/api/handlers"
	"github.com/fitsync/fitsync/pkg/catalog"
	"github.com/fitsync/fitsync/pkg/checkpoint"
	"github.com/fitsync/fitsync/pkg/csvsource"
	"github.com/fitsync/fitsync/pkg/entries"
	"github.com/fitsync/fitsync/pkg/observability"
	"github.com/fitsync/fitsync/pkg/pipeline"
	"github.com/fitsync/fitsync/pkg/reconciler"
	"github.com/fitsync/fitsync/pkg/redis"
	"github.com/fitsync/fitsync/pkg/registry"
	"github.com/fitsync/fitsync/pkg/scheduler"
	"github.com/fitsync/fitsync/pkg/tasks"
	"github.com/fitsync/fitsync/pkg/worker"
	r "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Server represents the main application server
type Server struct {
	log    logrus.FieldLogger
	config *Config

	redis *r.Client

	queue     *tasks.QueueManager
	scheduler scheduler.Service
	worker    worker.Service
	api       api.Service

	pprofServer  *http.Server
	healthServer *http.Server
}

// NewServer creates a new server instance with all components wired.
func NewServer(_ context.Context, log logrus.FieldLogger, config *Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	redisClient, redisOpt, err := redis.New(config.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	db, err := registry.Connect(log, config.Database)
	if err != nil {
		return nil, err
	}

	catalogClient, err := catalog.NewClient(log, config.Catalog)
	if err != nil {
		return nil, err
	}

	files := registry.NewFileStore(log, db)
	rows := registry.NewRowStore(log, db)
	entryStore := registry.NewEntryStore(log, db)
	checkpointStore := checkpoint.NewStore(log, redisClient, config.Redis)
	fetcher := csvsource.NewFetcher(log, config.Fetcher)

	driver := pipeline.NewDriver(log, config.Pipeline, files, rows, checkpointStore, fetcher)
	reconcilerSvc := reconciler.NewService(log, catalogClient, config.Reconciler)
	entriesSvc := entries.NewService(log, entryStore, reconcilerSvc)

	queue := tasks.NewQueueManager(redis.NewAsynqRedisOptions(redisOpt))

	schedulerSvc, err := scheduler.NewService(log, config.Scheduler, redisClient, config.Redis, queue)
	if err != nil {
		return nil, err
	}

	workerSvc, err := worker.NewService(log, config.Worker, driver, redisOpt)
	if err != nil {
		return nil, err
	}

	handlerServer := handlers.NewServer(log, driver, files, entriesSvc, entryStore, catalogClient)
	apiSvc := api.NewService(config.API, handlerServer, log)

	return &Server{
		log:       log,
		config:    config,
		redis:     redisClient,
		queue:     queue,
		scheduler: schedulerSvc,
		worker:    workerSvc,
		api:       apiSvc,
	}, nil
}

// Start starts the server and all its components
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	observability.StartMetricsServer(s.config.MetricsAddr)

	if err := s.api.Start(ctx); err != nil {
		return fmt.Errorf("failed to start API: %w", err)
	}

	if err := s.worker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	if s.config.PProfAddr != nil {
		g.Go(func() error {
			if err := s.startPProf(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			<-ctx.Done()

			return nil
		})
	}

	if s.config.HealthCheckAddr != nil {
		g.Go(func() error {
			if err := s.startHealthCheck(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			<-ctx.Done()

			return nil
		})
	}

	// Wait for shutdown signal
	g.Go(func() error {
		<-ctx.Done()

		// Use a fresh context for cleanup since the current one is canceled
		return s.stop(context.Background())
	})

	s.log.Info("Server started")

	return g.Wait()
}

func (s *Server) stop(ctx context.Context) error {
	cleanupCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.log.Info("Starting graceful shutdown...")

	if err := s.scheduler.Stop(); err != nil {
		s.log.WithError(err).Error("failed to stop scheduler")
	}

	if err := s.worker.Stop(); err != nil {
		s.log.WithError(err).Error("failed to stop worker")
	}

	if err := s.api.Stop(); err != nil {
		s.log.WithError(err).Error("failed to stop API")
	}

	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			s.log.WithError(err).Error("failed to close queue manager")
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.WithError(err).Error("failed to close redis")
		}
	}

	if s.pprofServer != nil {
		if err := s.pprofServer.Shutdown(cleanupCtx); err != nil {
			s.log.WithError(err).Error("failed to shutdown pprof server")
		}
	}

	if s.healthServer != nil {
		if err := s.healthServer.Shutdown(cleanupCtx); err != nil {
			s.log.WithError(err).Error("failed to shutdown health server")
		}
	}

	if err := observability.StopMetricsServer(cleanupCtx); err != nil {
		s.log.WithError(err).Error("failed to stop metrics server")
	}

	s.log.Info("Server stopped gracefully")

	return nil
}

func (s *Server) startPProf() error {
	s.log.WithField("addr", *s.config.PProfAddr).Info("Starting pprof server")

	s.pprofServer = &http.Server{
		Addr:              *s.config.PProfAddr,
		ReadHeaderTimeout: 120 * time.Second,
	}

	return s.pprofServer.ListenAndServe()
}

func (s *Server) startHealthCheck() error {
	s.log.WithField("addr", *s.config.HealthCheckAddr).Info("Starting healthcheck server")

	s.healthServer = &http.Server{
		Addr:              *s.config.HealthCheckAddr,
		ReadHeaderTimeout: 120 * time.Second,
	}

	s.healthServer.Handler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return s.healthServer.ListenAndServe()
}
