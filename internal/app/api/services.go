package api

import (
	"context"
	"log/slog"

	goredis "github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"

	cartcatalog "github.com/Apurer/aims-commerce/internal/domains/cart/adapters/catalog"
	cartmemory "github.com/Apurer/aims-commerce/internal/domains/cart/adapters/memory"
	cartobs "github.com/Apurer/aims-commerce/internal/domains/cart/adapters/observability"
	cartpostgres "github.com/Apurer/aims-commerce/internal/domains/cart/adapters/persistence/postgres"
	cartapp "github.com/Apurer/aims-commerce/internal/domains/cart/application"
	cartports "github.com/Apurer/aims-commerce/internal/domains/cart/ports"
	catalogmemory "github.com/Apurer/aims-commerce/internal/domains/catalog/adapters/memory"
	catalogobs "github.com/Apurer/aims-commerce/internal/domains/catalog/adapters/observability"
	catalogpostgres "github.com/Apurer/aims-commerce/internal/domains/catalog/adapters/persistence/postgres"
	catalogredis "github.com/Apurer/aims-commerce/internal/domains/catalog/adapters/redis"
	catalogapp "github.com/Apurer/aims-commerce/internal/domains/catalog/application"
	catalogports "github.com/Apurer/aims-commerce/internal/domains/catalog/ports"
	orderscart "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/cart"
	orderscatalog "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/catalog"
	orderskafka "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/kafka"
	ordersmemory "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/observability"
	orderspayments "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/payments"
	orderspostgres "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/aims-commerce/internal/domains/orders/application"
	ordersports "github.com/Apurer/aims-commerce/internal/domains/orders/ports"
	paymentsmemory "github.com/Apurer/aims-commerce/internal/domains/payments/adapters/memory"
	paymentsobs "github.com/Apurer/aims-commerce/internal/domains/payments/adapters/observability"
	paymentspostgres "github.com/Apurer/aims-commerce/internal/domains/payments/adapters/persistence/postgres"
	"github.com/Apurer/aims-commerce/internal/domains/payments/adapters/vnpay"
	paymentsapp "github.com/Apurer/aims-commerce/internal/domains/payments/application"
	paymentsports "github.com/Apurer/aims-commerce/internal/domains/payments/ports"
	usersmemory "github.com/Apurer/aims-commerce/internal/domains/users/adapters/memory"
	usersobs "github.com/Apurer/aims-commerce/internal/domains/users/adapters/observability"
	userspostgres "github.com/Apurer/aims-commerce/internal/domains/users/adapters/persistence/postgres"
	usersapp "github.com/Apurer/aims-commerce/internal/domains/users/application"
	usersports "github.com/Apurer/aims-commerce/internal/domains/users/ports"
	platformkafka "github.com/Apurer/aims-commerce/internal/platform/kafka"
	"github.com/Apurer/aims-commerce/internal/platform/migrations"
	platformobservability "github.com/Apurer/aims-commerce/internal/platform/observability"
	platformpostgres "github.com/Apurer/aims-commerce/internal/platform/postgres"
	platformredis "github.com/Apurer/aims-commerce/internal/platform/redis"
)

// Services is the wired application layer shared by the API and worker processes.
type Services struct {
	Catalog  catalogports.Service
	Carts    cartports.Service
	Orders   ordersports.Service
	Payments paymentsports.Service
	Users    usersports.Service

	// DB and Redis are nil when the process runs on in-memory adapters.
	DB    *gorm.DB
	Redis *goredis.Client

	cleanups []func()
}

// Close releases connections in reverse order of acquisition.
func (s *Services) Close() {
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
}

// NewServices connects the configured backing stores and builds every bounded context on top
// of them. Postgres and Redis are optional; without them the process keeps state in memory.
func NewServices(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) *Services {
	logger := instruments.EffectiveLogger()
	s := &Services{}

	db, closeDB := platformpostgres.ConnectOptional(ctx, logger, cfg.PostgresDSN)
	s.cleanups = append(s.cleanups, closeDB)
	if db != nil {
		if err := migrations.Run(db); err != nil {
			logger.Warn("schema migration failed", slog.String("error", err.Error()))
		}
		s.DB = db
	}
	rdb, closeRedis := platformredis.ConnectOptional(ctx, logger, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	s.cleanups = append(s.cleanups, closeRedis)
	s.Redis = rdb

	s.Catalog = catalogobs.New(
		s.buildCatalog(logger),
		catalogobs.WithLogger(logger),
		catalogobs.WithTracer(instruments.Tracer("internal.catalog.application")),
		catalogobs.WithMeter(instruments.Meter("internal.catalog.application")),
	)

	var carts cartports.Repository = cartmemory.NewRepository()
	if db != nil {
		carts = cartpostgres.NewRepository(db)
	}
	s.Carts = cartobs.New(
		cartapp.NewService(carts, cartcatalog.NewProductCatalog(s.Catalog)),
		cartobs.WithLogger(logger),
		cartobs.WithTracer(instruments.Tracer("internal.cart.application")),
		cartobs.WithMeter(instruments.Meter("internal.cart.application")),
	)

	var transactions paymentsports.TransactionRepository = paymentsmemory.NewRepository()
	if db != nil {
		transactions = paymentspostgres.NewRepository(db)
	}
	gateway := vnpay.New(vnpay.Config{
		TmnCode:    cfg.VNPay.TmnCode,
		HashSecret: cfg.VNPay.HashSecret,
		PayURL:     cfg.VNPay.PayURL,
		ReturnURL:  cfg.VNPay.ReturnURL,
	}, vnpay.WithLogger(logger))
	s.Payments = paymentsobs.New(
		paymentsapp.NewService(paymentsapp.NewRegistry(gateway), transactions),
		paymentsobs.WithLogger(logger),
		paymentsobs.WithTracer(instruments.Tracer("internal.payments.application")),
		paymentsobs.WithMeter(instruments.Meter("internal.payments.application")),
	)

	s.Orders = ordersobs.New(
		ordersapp.NewService(s.orderDependencies(cfg, db, logger), ordersapp.WithLogger(logger)),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	var (
		users    usersports.Repository     = usersmemory.NewRepository()
		roles    usersports.RoleRepository = usersmemory.NewRoleRepository()
		sessions usersports.SessionStore   = usersmemory.NewSessionStore()
	)
	if db != nil {
		users = userspostgres.NewRepository(db)
		roles = userspostgres.NewRoleRepository(db)
		sessions = userspostgres.NewSessionStore(db)
	}
	s.Users = usersobs.New(
		usersapp.NewService(users, roles, sessions, usersapp.WithSessionTTL(cfg.SessionTTL)),
		usersobs.WithLogger(logger),
		usersobs.WithTracer(instruments.Tracer("internal.users.application")),
		usersobs.WithMeter(instruments.Meter("internal.users.application")),
	)
	return s
}

func (s *Services) buildCatalog(logger *slog.Logger) *catalogapp.Service {
	var (
		products   catalogports.ProductRepository   = catalogmemory.NewProductRepository()
		operations catalogports.OperationRepository = catalogmemory.NewOperationRepository()
		lock       catalogports.OperationLock       = catalogmemory.NewOperationLock()
	)
	if s.DB != nil {
		products = catalogpostgres.NewRepository(s.DB)
		operations = catalogpostgres.NewOperationRepository(s.DB)
		logger.Info("catalog repositories configured with postgres")
	}
	if s.Redis != nil {
		lock = catalogredis.NewOperationLock(s.Redis, catalogredis.WithLogger(logger))
	}
	return catalogapp.NewService(products, operations, lock)
}

func (s *Services) orderDependencies(cfg Config, db *gorm.DB, logger *slog.Logger) ordersapp.Dependencies {
	deps := ordersapp.Dependencies{
		Orders:       ordersmemory.NewRepository(),
		Deliveries:   ordersmemory.NewDeliveryInfoRepository(),
		Invoices:     ordersmemory.NewInvoiceRepository(),
		Carts:        orderscart.NewReader(s.Carts),
		Stock:        orderscatalog.NewStockReader(s.Catalog),
		Transactions: orderspayments.NewTransactions(s.Payments),
		Idempotency:  ordersmemory.NewIdempotencyStore(),
	}
	if db != nil {
		deps.Orders = orderspostgres.NewRepository(db)
		deps.Deliveries = orderspostgres.NewDeliveryInfoRepository(db)
		deps.Invoices = orderspostgres.NewInvoiceRepository(db)
		deps.Idempotency = orderspostgres.NewIdempotencyStore(db)
	}
	if writer := platformkafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaOrderTopic); writer != nil {
		deps.Events = orderskafka.NewPublisher(writer)
		s.cleanups = append(s.cleanups, closeWriter(writer, logger))
		logger.Info("order events published to kafka", slog.String("topic", writer.Topic))
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events are not published")
	}
	return deps
}

func closeWriter(writer *kafka.Writer, logger *slog.Logger) func() {
	return func() {
		if err := writer.Close(); err != nil {
			logger.Warn("failed to close kafka writer", slog.String("error", err.Error()))
		}
	}
}
