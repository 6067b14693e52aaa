// Command feed publishes generated water samples and DWLR series to the
// source topic on a fixed interval, standing in for live field telemetry.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	kafkaadapter "github.com/aquawatch/groundwater-etl/internal/adapter/kafka"
	"github.com/aquawatch/groundwater-etl/internal/config"
	"github.com/aquawatch/groundwater-etl/internal/mockfeed"
	"github.com/aquawatch/groundwater-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	writer := kafkaadapter.NewTopicWriter(cfg, cfg.KafkaSourceTopic, logger)
	clock := clockwork.NewRealClock()
	feed := mockfeed.NewFeed(mockfeed.NewGenerator(cfg.FeedSeed, clock), writer, clock, cfg.FeedInterval, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("publishing mock telemetry", "topic", cfg.KafkaSourceTopic, "seed", cfg.FeedSeed, "run_id", feed.RunID())
	if err := feed.Run(ctx); err != nil {
		logger.Error("mock feed error", "error", err)
	}

	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	logger.Info("shutdown complete")
}
