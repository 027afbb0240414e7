package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"golang.org/x/sync/errgroup"

	"github.com/Apurer/aims-commerce/internal/app/api"
	orderskafka "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/kafka"
	orderactivities "github.com/Apurer/aims-commerce/internal/durable/temporal/activities/orders"
	orderworkflows "github.com/Apurer/aims-commerce/internal/durable/temporal/workflows/orders"
	platformkafka "github.com/Apurer/aims-commerce/internal/platform/kafka"
	platformobservability "github.com/Apurer/aims-commerce/internal/platform/observability"
	platformtemporal "github.com/Apurer/aims-commerce/internal/platform/temporal"
)

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	const serviceName = "aims-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	services := api.NewServices(ctx, cfg, instruments)
	defer services.Close()

	temporalClient, err := platformtemporal.Dial(platformtemporal.Options{
		Address:   cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Disabled:  cfg.TemporalDisabled,
		Tracer:    instruments.Tracer("temporal-worker"),
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	activities := orderactivities.NewActivities(services.Orders)
	w := worker.New(temporalClient, orderworkflows.OrdersTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.RejectUnderstockedWorkflow, workflow.RegisterOptions{Name: orderworkflows.RejectUnderstockedWorkflowName})
	w.RegisterActivityWithOptions(activities.PendingOrderIDs, activity.RegisterOptions{Name: orderactivities.PendingOrderIDsActivityName})
	w.RegisterActivityWithOptions(activities.RejectIfUnderstocked, activity.RegisterOptions{Name: orderactivities.RejectIfUnderstockedActivityName})
	if err := w.Start(); err != nil {
		logger.Error("failed to start Temporal worker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer w.Stop()
	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrdersTaskQueue), slog.String("namespace", cfg.TemporalNamespace))

	group, groupCtx := errgroup.WithContext(ctx)
	if len(cfg.KafkaBrokers) > 0 {
		reader := platformkafka.NewReader(cfg.KafkaBrokers, cfg.KafkaOrderTopic, cfg.KafkaConsumerGroup)
		defer reader.Close()
		consumer := orderskafka.NewStockCheckConsumer(reader, services.Orders, logger)
		group.Go(func() error {
			logger.Info("stock check consumer started", slog.String("topic", cfg.KafkaOrderTopic))
			return consumer.Run(groupCtx)
		})
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events are not consumed")
	}
	group.Go(func() error {
		<-groupCtx.Done()
		return nil
	})
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
