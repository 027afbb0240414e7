package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/aims-commerce/internal/domains/catalog/domain"
	"github.com/Apurer/aims-commerce/internal/domains/catalog/ports"
)

const tracerName = "github.com/Apurer/aims-commerce/internal/domains/catalog/adapters/observability/service"

// Service decorates the catalog application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// AddProduct stores a new product with instrumentation.
func (s *Service) AddProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	kind := ""
	if product != nil {
		kind = string(product.Kind)
	}
	ctx, span := s.startSpan(ctx, "CatalogService.AddProduct", attribute.String("product.kind", kind))
	defer span.End()

	s.logInfo(ctx, "adding product", slog.String("product.kind", kind))
	result, err := s.inner.AddProduct(ctx, product)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to add product", slog.String("product.kind", kind))
	}
	s.metrics.recordOperation(ctx, domain.OperationAdd, result.Kind)
	s.logInfo(ctx, "product added", slog.Int64("product.id", result.ID), slog.String("product.kind", string(result.Kind)))
	return result, nil
}

// UpdateProduct replaces a product with instrumentation.
func (s *Service) UpdateProduct(ctx context.Context, id int64, product *domain.Product) (*domain.Product, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.UpdateProduct", attribute.Int64("product.id", id))
	defer span.End()

	s.logInfo(ctx, "updating product", slog.Int64("product.id", id))
	result, err := s.inner.UpdateProduct(ctx, id, product)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update product", slog.Int64("product.id", id))
	}
	s.metrics.recordOperation(ctx, domain.OperationUpdate, result.Kind)
	s.logInfo(ctx, "product updated", slog.Int64("product.id", result.ID), slog.String("price", result.CurrentPrice.String()))
	return result, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := s.startSpan(ctx, "CatalogService.DeleteProduct", attribute.Int64("product.id", id))
	defer span.End()

	s.logInfo(ctx, "deleting product", slog.Int64("product.id", id))
	if err := s.inner.DeleteProduct(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete product", slog.Int64("product.id", id))
	}
	s.metrics.recordOperation(ctx, domain.OperationDelete, "")
	s.logInfo(ctx, "product deleted", slog.Int64("product.id", id))
	return nil
}

func (s *Service) BulkDeleteProducts(ctx context.Context, ids []int64) ([]int64, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.BulkDeleteProducts", attribute.Int("product.count", len(ids)))
	defer span.End()

	s.logInfo(ctx, "bulk deleting products", slog.Any("product.ids", ids))
	deleted, err := s.inner.BulkDeleteProducts(ctx, ids)
	for range deleted {
		s.metrics.recordOperation(ctx, domain.OperationDelete, "")
	}
	if err != nil {
		return deleted, s.handleError(ctx, span, err, "failed to bulk delete products", slog.Any("deleted", deleted))
	}
	s.logInfo(ctx, "products deleted", slog.Int("count", len(deleted)))
	return deleted, nil
}

func (s *Service) HardDeleteProduct(ctx context.Context, id int64) error {
	ctx, span := s.startSpan(ctx, "CatalogService.HardDeleteProduct", attribute.Int64("product.id", id))
	defer span.End()

	s.logInfo(ctx, "hard deleting product", slog.Int64("product.id", id))
	if err := s.inner.HardDeleteProduct(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to hard delete product", slog.Int64("product.id", id))
	}
	return nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.GetProduct", attribute.Int64("product.id", id))
	defer span.End()

	result, err := s.inner.GetProduct(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load product", slog.Int64("product.id", id))
	}
	return result, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	result, err := s.inner.ListProducts(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list products")
	}
	span.SetAttributes(attribute.Int("product.count", len(result)))
	return result, nil
}

func (s *Service) SearchProducts(ctx context.Context, filter ports.SearchFilter) (ports.ProductPage, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.SearchProducts",
		attribute.String("search.title", filter.Title),
		attribute.String("search.kind", string(filter.Kind)),
		attribute.Int("search.page", filter.Page))
	defer span.End()

	result, err := s.inner.SearchProducts(ctx, filter)
	if err != nil {
		return result, s.handleError(ctx, span, err, "failed to search products", slog.String("title", filter.Title))
	}
	span.SetAttributes(attribute.Int64("search.total", result.Total))
	return result, nil
}

func (s *Service) RandomPage(ctx context.Context, size int) ([]*domain.Product, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.RandomPage", attribute.Int("page.size", size))
	defer span.End()

	result, err := s.inner.RandomPage(ctx, size)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load random page")
	}
	return result, nil
}

func (s *Service) RandomProducts(ctx context.Context, page, size int) (ports.ProductPage, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.RandomProducts", attribute.Int("page", page), attribute.Int("page.size", size))
	defer span.End()

	result, err := s.inner.RandomProducts(ctx, page, size)
	if err != nil {
		return result, s.handleError(ctx, span, err, "failed to load random products")
	}
	return result, nil
}

func (s *Service) UpdateStock(ctx context.Context, id int64, quantity int, op domain.StockOperation) (*domain.Product, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.UpdateStock",
		attribute.Int64("product.id", id), attribute.Int("stock.quantity", quantity), attribute.String("stock.operation", string(op)))
	defer span.End()

	s.logInfo(ctx, "updating stock", slog.Int64("product.id", id), slog.Int("quantity", quantity), slog.String("operation", string(op)))
	result, err := s.inner.UpdateStock(ctx, id, quantity, op)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update stock", slog.Int64("product.id", id))
	}
	s.metrics.recordStock(ctx, op)
	s.logInfo(ctx, "stock updated", slog.Int64("product.id", id), slog.Int("quantity", result.Quantity))
	return result, nil
}

func (s *Service) CheckInventory(ctx context.Context, lines []ports.StockLine) ([]ports.OutOfStock, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.CheckInventory", attribute.Int("lines", len(lines)))
	defer span.End()

	result, err := s.inner.CheckInventory(ctx, lines)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to check inventory")
	}
	span.SetAttributes(attribute.Int("out_of_stock", len(result)))
	return result, nil
}

func (s *Service) Operations(ctx context.Context, filter ports.OperationFilter) ([]*domain.Operation, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.Operations")
	defer span.End()

	result, err := s.inner.Operations(ctx, filter)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list operations")
	}
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	operations metric.Int64Counter
	stock      metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	operations, _ := m.Int64Counter("catalog.service.operations", metric.WithDescription("Number of audited catalog mutations"))
	stock, _ := m.Int64Counter("catalog.service.stock_adjustments", metric.WithDescription("Number of manual stock adjustments"))
	return serviceMetrics{operations: operations, stock: stock}
}

func (m serviceMetrics) recordOperation(ctx context.Context, op domain.OperationType, kind domain.Kind) {
	addCounter(ctx, m.operations, 1, attribute.String("operation.type", string(op)), attribute.String("product.kind", string(kind)))
}

func (m serviceMetrics) recordStock(ctx context.Context, op domain.StockOperation) {
	addCounter(ctx, m.stock, 1, attribute.String("stock.operation", string(op)))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
