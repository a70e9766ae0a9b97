package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gameportal/portal/internal/guard"
	"github.com/gameportal/portal/internal/infra"
	"github.com/gameportal/portal/internal/repository"
	"github.com/gameportal/portal/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.StoreBackend != infra.BackendPostgres {
		return fmt.Errorf("outbox consumer needs STORE_BACKEND=%s, got %q", infra.BackendPostgres, cfg.StoreBackend)
	}
	if !cfg.KafkaEnabled {
		return fmt.Errorf("outbox consumer needs KAFKA_ENABLED=true")
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	pool, err := infra.NewPostgresPool(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	producer, err := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopicPrefix, logger)
	if err != nil {
		return err
	}
	defer producer.Close()

	breaker := guard.NewCircuitBreaker(5, 30*time.Second)
	breaker.OnStateChange = func(topic string, from, to guard.CircuitState) {
		logger.Warn("publisher circuit changed", "topic", topic, "from", from.String(), "to", to.String())
	}
	publisher := infra.NewBreakerPublisher(producer, breaker)
	outbox := repository.NewOutboxRepository(store.NewPgStore(pool))

	poller := infra.NewOutboxPoller(outbox, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize, logger)
	poller.Run(ctx)
	return nil
}
