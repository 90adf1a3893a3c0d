// Package notificationrelay assembles the relay: the Pub/Sub dispatch
// pipeline, the retention scheduler and the HTTP surface.
package notificationrelay

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tinywideclouds/go-microservice-base/pkg/microservice"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-notification-relay/internal/api"
	"github.com/tinywideclouds/go-notification-relay/internal/metrics"
	"github.com/tinywideclouds/go-notification-relay/internal/pipeline"
	"github.com/tinywideclouds/go-notification-relay/internal/scheduler"
	"github.com/tinywideclouds/go-notification-relay/internal/workflow"
	"github.com/tinywideclouds/go-notification-relay/notificationrelay/config"
	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

type Wrapper struct {
	*microservice.BaseServer
	pipelineService *messagepipeline.StreamingService[notification.CreatedEvent]
	retention       *workflow.Retention
	scheduler       *scheduler.Scheduler
	mu              sync.Mutex
	stopScheduler   context.CancelFunc
	logger          *slog.Logger
}

// New assembles the service.
func New(
	cfg *config.Config,
	consumer messagepipeline.MessageConsumer,
	sender dispatch.Sender,
	records dispatch.RecordStore,
	tokenStore dispatch.TokenStore,
	authMiddleware func(http.Handler) http.Handler,
	registry *prometheus.Registry,
	logger *slog.Logger,
) (*Wrapper, error) {

	// 1. Base Server
	baseServer := microservice.NewBaseServer(logger, cfg.ListenAddr)

	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := metrics.New(registry)

	// 2. Workflows
	dispatcher := workflow.NewDispatcher(records, tokenStore, sender, cfg.PrunePolicy, m, logger)
	retention := workflow.NewRetention(records, cfg.Retention.Window, m, logger)

	// 3. Pipeline
	processor := pipeline.NewProcessor(records, dispatcher, logger)
	streamingService, err := messagepipeline.NewStreamingService(
		messagepipeline.StreamingServiceConfig{NumWorkers: cfg.NumPipelineWorkers},
		consumer,
		pipeline.CreatedEventTransformer,
		processor,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create streaming service: %w", err)
	}

	var sched *scheduler.Scheduler
	if cfg.Retention.Enabled {
		sched = scheduler.New(retention, cfg.Retention.Interval, cfg.Retention.RunOnStart, logger)
	}

	// 4. API
	registerRoutes(baseServer.Mux(), routeDeps{
		tokenAPI:    api.NewTokenAPI(tokenStore, logger),
		retention:   retention,
		httpTrigger: cfg.Retention.HTTPTrigger,
		cors:        middleware.NewCorsMiddleware(cfg.CorsConfig, logger),
		auth:        authMiddleware,
		registry:    registry,
		logger:      logger,
	})

	return &Wrapper{
		BaseServer:      baseServer,
		pipelineService: streamingService,
		retention:       retention,
		scheduler:       sched,
		logger:          logger,
	}, nil
}

// Retention exposes the retention workflow for one-off runs.
func (w *Wrapper) Retention() *workflow.Retention {
	return w.retention
}

func (w *Wrapper) Start(ctx context.Context) error {
	w.logger.Info("Core processing pipeline starting...")
	if err := w.pipelineService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start processing service: %w", err)
	}

	if w.scheduler != nil {
		schedCtx, cancel := context.WithCancel(ctx)
		w.mu.Lock()
		w.stopScheduler = cancel
		w.mu.Unlock()
		go w.scheduler.Start(schedCtx)
	}

	w.SetReady(true)
	w.logger.Info("Service is now ready.")
	return w.BaseServer.Start()
}

func (w *Wrapper) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down service components...")
	var finalErr error
	w.mu.Lock()
	if w.stopScheduler != nil {
		w.stopScheduler()
	}
	w.mu.Unlock()
	if err := w.pipelineService.Stop(ctx); err != nil {
		w.logger.Error("Processing pipeline shutdown failed.", "err", err)
		finalErr = err
	}
	if err := w.BaseServer.Shutdown(ctx); err != nil {
		w.logger.Error("HTTP server shutdown failed.", "err", err)
		finalErr = err
	}
	w.logger.Info("Service shutdown complete.")
	return finalErr
}
