package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"transflow/internal/app"
	"transflow/internal/config"
	"transflow/internal/domain"
	"transflow/internal/queue"
	internalRedis "transflow/internal/redis"
	"transflow/internal/repository/postgres"
	"transflow/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	// Record store.
	db, err := app.NewDatabase(startCtx, cfg.Database, nil)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Balance store.
	redisClient, err := app.NewRedisClient(startCtx, cfg.Redis, nil)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Event channel.
	mq, err := queue.Connect(startCtx, cfg.RabbitMQ, cfg.Worker.Prefetch)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer mq.Close()
	log.Println("Connected to RabbitMQ")

	// Wire the settlement pipeline.
	rideRepo := postgres.NewRideRepository(db)
	balanceStore := internalRedis.NewBalanceStore(redisClient)

	var guard internalRedis.SettlementGuardInterface
	if cfg.Worker.GuardEnabled {
		guard = internalRedis.NewSettlementGuard(redisClient)
		log.Println("Settlement idempotency guard enabled")
	}

	processor := service.NewSettlementProcessor(rideRepo, balanceStore, guard)
	publisher := queue.NewPublisher(mq)
	consumer := queue.NewConsumer(mq)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Reconciliation sweep for rides whose event publish was lost.
	if cfg.Worker.ReconcileInterval > 0 {
		reconciler := service.NewReconciler(rideRepo, publisher, cfg.Worker.ReconcileAfter, cfg.Worker.ReconcileBatch)
		go reconciler.Run(runCtx, cfg.Worker.ReconcileInterval)
		log.Printf("Reconciliation sweep every %s", cfg.Worker.ReconcileInterval)
	}

	// Metrics and health endpoint.
	metricsServer := newMetricsServer(cfg.Worker.MetricsPort)
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	// Consume until interrupted.
	consumerTag := fmt.Sprintf("settlement-worker-%d", os.Getpid())
	handler := func(ctx context.Context, event domain.RideSettlementEvent) error {
		_, err := processor.Process(ctx, event)
		return err
	}

	if err := consumer.Consume(runCtx, consumerTag, handler); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("consumer stopped: %v", err)
	}

	log.Println("Shutting down worker...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsServer.Shutdown(shutdownCtx)

	log.Println("Worker exited")
}

func newMetricsServer(port string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
}
