package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"udyam/internal/events"
	"udyam/internal/platform/config"
	"udyam/internal/platform/httpserver"
	"udyam/internal/platform/logger"
	"udyam/internal/platform/metrics"
	"udyam/internal/platform/redis"
	rlmiddleware "udyam/internal/ratelimit/middleware"
	rlmodels "udyam/internal/ratelimit/models"
	"udyam/internal/ratelimit/store/bucket"
	"udyam/internal/registration/handler"
	"udyam/internal/registration/idgen"
	"udyam/internal/registration/service"
	"udyam/internal/registration/store"
	"udyam/internal/registration/validation"
	httptransport "udyam/internal/transport/http"
	"udyam/pkg/platform/circuit"
)

const sweepInterval = time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "udyam-backend: %v\n", err)
		os.Exit(1)
	}
}

// run wires dependencies, serves HTTP and blocks until a shutdown signal.
func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Env, cfg.LogLevel)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	memoryBuckets := bucket.NewInMemoryBucketStore()
	limiter := buildLimiter(cfg, redisClient, memoryBuckets, m, log)

	publisher, err := buildPublisher(ctx, cfg, m, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("event publisher close failed", "error", err)
		}
	}()

	svc := service.New(
		store.NewInMemorySubmissionStore(idgen.New()),
		validation.New(),
		service.WithLogger(log),
		service.WithPublisher(publisher),
		service.WithMetrics(m),
		service.WithTracer(otel.Tracer("udyam/registration")),
		service.WithProcessingDelay(cfg.ProcessingDelay),
	)
	rule := rlmodels.Rule{Requests: cfg.SubmitRateLimit.Requests, Window: cfg.SubmitRateLimit.Window}
	registration := handler.New(svc, log,
		handler.WithMaxBodyBytes(cfg.MaxBodyBytes),
		handler.WithSubmitMiddleware(limiter.RateLimit("submit", rule)),
	)

	deps := httptransport.Deps{
		Config:       cfg,
		Logger:       log,
		Metrics:      m,
		Registration: registration,
	}
	if redisClient != nil {
		deps.HealthChecks = map[string]httptransport.HealthCheck{"redis": redisClient.Health}
	}
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(deps))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting udyam backend", "addr", cfg.Addr, "env", cfg.Env, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		memoryBuckets.StartSweeper(gctx, sweepInterval, log)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// buildLimiter prefers Redis so limits hold across replicas, and falls back
// to process memory while Redis keeps failing.
func buildLimiter(cfg config.Server, client *redis.Client, memory *bucket.InMemoryBucketStore, m *metrics.Metrics, log *slog.Logger) *rlmiddleware.Middleware {
	if client == nil {
		log.Info("rate limiting with in-memory store")
		return rlmiddleware.New(memory, log, rlmiddleware.WithMetrics(m))
	}
	log.Info("rate limiting with redis store", "fallback", "memory")
	return rlmiddleware.New(
		bucket.NewRedisStore(client.Client),
		log,
		rlmiddleware.WithFallback(memory, circuit.New("ratelimit-redis")),
		rlmiddleware.WithMetrics(m),
	)
}

func buildPublisher(ctx context.Context, cfg config.Server, m *metrics.Metrics, log *slog.Logger) (events.Publisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("submission events logged only", "reason", "no kafka brokers configured")
		return events.NewLogPublisher(log), nil
	}
	p, err := events.NewKafkaPublisher(ctx, cfg.Kafka, log, events.WithErrorRecorder(m))
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}
	log.Info("publishing submission events", "topic", cfg.Kafka.Topic, "brokers", cfg.Kafka.Brokers)
	return p, nil
}
