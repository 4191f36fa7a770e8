package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tair/goldlink/internal/notification"
	"github.com/tair/goldlink/kafka"
	"github.com/tair/goldlink/pkg/config"
	"github.com/tair/goldlink/pkg/logger"
)

const consumerGroup = "goldlink-notifier"

func main() {
	cfg, err := config.LoadTooling(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Init("goldlink-notifier", true)
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.ServiceName+"-notifier", cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	if len(cfg.Kafka.Brokers) == 0 {
		logger.Logger.Fatal().Msg("kafka.brokers (KAFKA_BROKERS) is required")
	}

	consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, consumerGroup, []string{kafka.TopicLendingEvents})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka consumer")
	}
	defer consumer.Close()

	notification.NewNotifier(notification.LogSink{}).Register(consumer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to start Kafka consumer")
	}

	<-ctx.Done()
	logger.Logger.Info().Msg("Shutting down notifier...")
}
