package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cirs/cirs-api/internal/app"
	"github.com/cirs/cirs-api/internal/config"
	"github.com/cirs/cirs-api/pkg/blobstore"
	"github.com/cirs/cirs-api/pkg/logger"
	"github.com/cirs/cirs-api/pkg/messaging"
	"github.com/cirs/cirs-api/pkg/messaging/rabbitmq"
	"github.com/cirs/cirs-api/pkg/messaging/redis"
	"github.com/cirs/cirs-api/pkg/worker"
)

func newBroker(ctx context.Context, cfg config.BrokerConfig, zl zerolog.Logger) (messaging.Broker, error) {
	switch cfg.Driver {
	case config.BrokerRedis:
		return redis.NewRedisBroker(ctx, cfg.ToRedisConfig(), zl)
	case config.BrokerRabbitMQ:
		return rabbitmq.NewBroker(cfg.ToRabbitMQConfig(), zl)
	case config.BrokerMemory, "":
		return messaging.NewMemoryBroker(), nil
	default:
		return nil, fmt.Errorf("unknown broker driver %q", cfg.Driver)
	}
}

func setupHealthCheck(port int, store blobstore.Store, l *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error(err, "Health check server failed")
		}
	}()
	return srv
}

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Initialize logger
	l := logger.New(cfg.ToLoggerConfig()).Component("worker")
	log.Logger = l.Zerolog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, l, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	broker, err := newBroker(ctx, cfg.Broker, l.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Broker.Driver).Msg("Failed to create message broker")
	}
	defer broker.Close()

	processor := worker.NewOutboxProcessor(
		a.Repos.Outbox,
		broker,
		cfg.Outbox.ToWorkerConfig(),
		l,
		a.Metrics,
	)
	cleanup := worker.NewAuditCleanupWorker(a.Repos.Audit, cfg.Audit.RetentionDays, cfg.Audit.CleanupInterval, l, a.Metrics)

	// Setup health check endpoints
	health := setupHealthCheck(cfg.Worker.HealthPort, a.Store, l)

	var wg sync.WaitGroup
	run := func(start func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start(ctx)
		}()
	}

	run(processor.Start)
	run(cleanup.Start)
	if cfg.Reminders.Enabled {
		run(worker.NewReminderWorker(a.Services.Notifications, cfg.Reminders.Interval, l, a.Metrics).Start)
	}

	l.Info("Worker started", "broker", cfg.Broker.Driver, "store", cfg.Store.Driver)
	<-ctx.Done()
	l.Info("Shutting down...")

	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := health.Shutdown(shutdownCtx); err != nil {
		l.Error(err, "Failed to stop health check server")
	}
}
