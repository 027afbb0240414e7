package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	ordersworkflows "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/workflows"
	ordersports "github.com/Apurer/aims-commerce/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/aims-commerce/internal/platform/observability"
	platformtemporal "github.com/Apurer/aims-commerce/internal/platform/temporal"
	"github.com/Apurer/aims-commerce/server"
)

const shutdownTimeout = 10 * time.Second

// Run boots the AIMS HTTP API with observability, repositories, and workflows wired.
// It serves until ctx is cancelled and then drains in-flight requests.
func Run(ctx context.Context) error {
	const serviceName = "aims-api"
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	services := NewServices(ctx, cfg, instruments)
	defer services.Close()

	var orderWorkflows ordersports.WorkflowOrchestrator = ordersworkflows.NewInlineOrderWorkflows(services.Orders)
	temporalClient, err := platformtemporal.Dial(platformtemporal.Options{
		Address:   cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Disabled:  cfg.TemporalDisabled,
		Tracer:    instruments.Tracer("temporal-client"),
		Logger:    logger,
	})
	if err != nil {
		logger.Warn("Temporal workflows unavailable, running order sweeps inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		orderWorkflows = ordersworkflows.NewTemporalOrderWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	handlers := server.ApiHandleFunctions{
		AuthAPI:      server.NewAuthAPI(services.Users),
		CartAPI:      server.NewCartAPI(services.Carts),
		RecordAPI:    server.NewRecordAPI(services.Orders),
		HealthAPI:    server.NewHealthAPI(readinessChecks(services)),
		OrderAPI:     server.NewOrderAPI(services.Orders, orderWorkflows),
		PaymentAPI:   server.NewPaymentAPI(services.Payments, cfg.CheckoutConfirmURL),
		ProductAPI:   server.NewProductAPI(services.Catalog),
		RushOrderAPI: server.NewRushOrderAPI(services.Orders),
	}

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), otelgin.Middleware(serviceName))
	router := server.NewRouterWithGinEngine(engine, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("AIMS API listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("AIMS API server exited", slog.String("addr", srv.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	logger.Info("AIMS API shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func readinessChecks(services *Services) map[string]server.Check {
	checks := map[string]server.Check{}
	if services.DB != nil {
		checks["postgres"] = func(ctx context.Context) error {
			sqlDB, err := services.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if services.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return services.Redis.Ping(ctx).Err()
		}
	}
	return checks
}
