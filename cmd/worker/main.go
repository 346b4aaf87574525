// Package main is the entry point for the gasflow background worker.
// It drains the changefeed: every document change recorded by the API server
// is applied to the derived reporting tables and fanned out to child entries.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gasflow/internal/domain/aggregate"
	"gasflow/internal/domain/changefeed"
	"gasflow/internal/infrastructure/storage/postgres"
	"gasflow/internal/infrastructure/storage/postgres/aggregate_repo"
	"gasflow/internal/infrastructure/storage/postgres/entry_repo"
	"gasflow/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting gasflow worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	feed := postgres.NewChangefeedPublisher(txManager)

	aggregateRepo := aggregate_repo.New(txManager)
	entryRepo := entry_repo.New(txManager)

	batchSize := getEnvInt("CHANGEFEED_BATCH_SIZE", 100)
	processor := postgres.NewChangefeedProcessor(txManager, batchSize)
	processor.Register(changefeed.CollectionDataEntries, aggregate.NewMonthlyHandler(aggregateRepo))
	processor.Register(changefeed.CollectionDataEntries, aggregate.NewInventoryHandler(aggregateRepo))
	processor.Register(changefeed.CollectionStockBatches, aggregate.NewInventoryHandler(aggregateRepo))
	processor.Register(changefeed.CollectionDailySummaries, aggregate.NewFanoutHandler(entryRepo, feed))

	worker := &Worker{
		processor:    processor,
		log:          log.WithComponent("worker"),
		pollInterval: getEnvDuration("CHANGEFEED_POLL_INTERVAL", 2*time.Second),
		dlqInterval:  getEnvDuration("CHANGEFEED_DLQ_INTERVAL", 5*time.Minute),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker polls the changefeed and periodically sweeps failed events to the DLQ.
type Worker struct {
	processor    *postgres.ChangefeedProcessor
	log          *logger.Logger
	pollInterval time.Duration
	dlqInterval  time.Duration
}

// Run processes events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	poll := time.NewTicker(w.pollInterval)
	defer poll.Stop()

	dlq := time.NewTicker(w.dlqInterval)
	defer dlq.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-poll.C:
			// Drain: keep going while full batches come back.
			for {
				processed, err := w.processor.ProcessBatch(ctx)
				if err != nil {
					w.log.Errorw("process changefeed batch", "error", err)
					break
				}
				if processed > 0 {
					w.log.Debugw("changefeed batch processed", "events", processed)
				}
				if processed == 0 {
					break
				}
			}

		case <-dlq.C:
			moved, err := w.processor.MoveToDLQ(ctx)
			if err != nil {
				w.log.Errorw("move failed events to dlq", "error", err)
				continue
			}
			if moved > 0 {
				w.log.Warnw("events moved to dead letter queue", "count", moved)
			}
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
