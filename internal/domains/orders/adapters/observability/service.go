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

	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
	"github.com/Apurer/aims-commerce/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core orders service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
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
	return s
}

func (s *Service) CreateOrder(ctx context.Context, input ports.CreateOrderInput) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder", trace.WithAttributes(
		attribute.Int64("transaction.id", input.TransactionID),
		attribute.Int64("invoice.id", input.InvoiceID),
		attribute.Int64("delivery_info.id", input.DeliveryInfoID),
		attribute.Bool("order.rush", input.Rush != nil),
	))
	defer span.End()

	result, err := s.inner.CreateOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order")
	}
	s.metrics.recordPlaced(ctx, "create", result.IsRush())
	s.logInfo(ctx, "order created", slog.Int64("order.id", result.ID), slog.String("order.status", string(result.Status)))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", id))
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrders")
	defer span.End()

	result, err := s.inner.ListOrders(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) ListRushOrders(ctx context.Context) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListRushOrders")
	defer span.End()

	result, err := s.inner.ListRushOrders(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list rush orders")
	}
	return result, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.DeleteOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := s.inner.DeleteOrder(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete order", slog.Int64("order.id", id))
	}
	s.logInfo(ctx, "order deleted", slog.Int64("order.id", id))
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id), attribute.String("order.status", status)))
	defer span.End()

	result, err := s.inner.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order status", slog.Int64("order.id", id), slog.String("order.status", status))
	}
	s.metrics.recordTransition(ctx, result.Status)
	s.logInfo(ctx, "order status updated", slog.Int64("order.id", id), slog.String("order.status", string(result.Status)))
	return result, nil
}

func (s *Service) UpdateRushDetails(ctx context.Context, id int64, rush domain.RushDetails) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateRushDetails", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	result, err := s.inner.UpdateRushDetails(ctx, id, rush)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update rush details", slog.Int64("order.id", id))
	}
	s.logInfo(ctx, "rush details updated", slog.Int64("order.id", id), slog.Time("rush.delivery_time", rush.DeliveryTime))
	return result, nil
}

func (s *Service) PendingOrderIDs(ctx context.Context) ([]int64, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PendingOrderIDs")
	defer span.End()

	result, err := s.inner.PendingOrderIDs(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list pending orders")
	}
	span.SetAttributes(attribute.Int("orders.pending", len(result)))
	return result, nil
}

func (s *Service) RejectIfUnderstocked(ctx context.Context, id int64) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.RejectIfUnderstocked", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	rejected, err := s.inner.RejectIfUnderstocked(ctx, id)
	if err != nil {
		return false, s.handleError(ctx, span, err, "failed to check order stock", slog.Int64("order.id", id))
	}
	span.SetAttributes(attribute.Bool("order.rejected", rejected))
	if rejected {
		s.metrics.recordTransition(ctx, domain.StatusRejected)
		s.logInfo(ctx, "order rejected for insufficient stock", slog.Int64("order.id", id))
	}
	return rejected, nil
}

func (s *Service) RejectUnderstocked(ctx context.Context) ([]int64, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.RejectUnderstocked")
	defer span.End()

	result, err := s.inner.RejectUnderstocked(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to reject understocked orders", slog.Int("rejected", len(result)))
	}
	span.SetAttributes(attribute.Int("orders.rejected", len(result)))
	s.logInfo(ctx, "understocked orders rejected", slog.Int("rejected", len(result)))
	return result, nil
}

func (s *Service) Checkout(ctx context.Context, input ports.CheckoutInput) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Checkout", trace.WithAttributes(
		attribute.Int("invoice.lines", len(input.Invoice.Lines)),
		attribute.Bool("order.rush", input.Rush != nil),
		attribute.Bool("idempotency.key_present", input.IdempotencyKey != ""),
	))
	defer span.End()

	s.logInfo(ctx, "checkout started", slog.Int("lines", len(input.Invoice.Lines)), slog.String("total", input.Invoice.TotalAmount.String()))
	result, err := s.inner.Checkout(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "checkout failed")
	}
	s.metrics.recordPlaced(ctx, "checkout", result.IsRush())
	s.logInfo(ctx, "checkout completed", slog.Int64("order.id", result.ID), slog.Int64("invoice.id", result.InvoiceID))
	return result, nil
}

func (s *Service) CheckRushEligibility(ctx context.Context, delivery domain.DeliveryInfo, productIDs []int64) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.CheckRushEligibility", trace.WithAttributes(
		attribute.String("delivery.province", delivery.Province), attribute.Int("products", len(productIDs))))
	defer span.End()

	if err := s.inner.CheckRushEligibility(ctx, delivery, productIDs); err != nil {
		span.SetAttributes(attribute.Bool("rush.eligible", false))
		s.logInfo(ctx, "rush delivery refused", slog.String("reason", err.Error()))
		return err
	}
	span.SetAttributes(attribute.Bool("rush.eligible", true))
	return nil
}

func (s *Service) SaveDeliveryInfo(ctx context.Context, info *domain.DeliveryInfo) (*domain.DeliveryInfo, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.SaveDeliveryInfo")
	defer span.End()

	result, err := s.inner.SaveDeliveryInfo(ctx, info)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to save delivery info")
	}
	s.logInfo(ctx, "delivery info saved", slog.Int64("delivery_info.id", result.ID))
	return result, nil
}

func (s *Service) GetDeliveryInfo(ctx context.Context, id int64) (*domain.DeliveryInfo, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetDeliveryInfo", trace.WithAttributes(attribute.Int64("delivery_info.id", id)))
	defer span.End()

	result, err := s.inner.GetDeliveryInfo(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load delivery info", slog.Int64("delivery_info.id", id))
	}
	return result, nil
}

func (s *Service) ListDeliveryInfos(ctx context.Context) ([]*domain.DeliveryInfo, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListDeliveryInfos")
	defer span.End()

	result, err := s.inner.ListDeliveryInfos(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list delivery infos")
	}
	return result, nil
}

func (s *Service) DeleteDeliveryInfo(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.DeleteDeliveryInfo", trace.WithAttributes(attribute.Int64("delivery_info.id", id)))
	defer span.End()

	if err := s.inner.DeleteDeliveryInfo(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete delivery info", slog.Int64("delivery_info.id", id))
	}
	return nil
}

func (s *Service) CreateInvoice(ctx context.Context, input ports.InvoiceInput) (*domain.Invoice, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateInvoice", trace.WithAttributes(attribute.Int("invoice.lines", len(input.Lines))))
	defer span.End()

	result, err := s.inner.CreateInvoice(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create invoice")
	}
	s.logInfo(ctx, "invoice created", slog.Int64("invoice.id", result.ID), slog.Int64("cart.id", result.CartID),
		slog.String("total", result.TotalAmount.String()))
	return result, nil
}

func (s *Service) GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetInvoice", trace.WithAttributes(attribute.Int64("invoice.id", id)))
	defer span.End()

	result, err := s.inner.GetInvoice(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load invoice", slog.Int64("invoice.id", id))
	}
	return result, nil
}

func (s *Service) ListInvoices(ctx context.Context) ([]*domain.Invoice, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListInvoices")
	defer span.End()

	result, err := s.inner.ListInvoices(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list invoices")
	}
	return result, nil
}

func (s *Service) DeleteInvoice(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.DeleteInvoice", trace.WithAttributes(attribute.Int64("invoice.id", id)))
	defer span.End()

	if err := s.inner.DeleteInvoice(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete invoice", slog.Int64("invoice.id", id))
	}
	return nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

type serviceMetrics struct {
	placed      metric.Int64Counter
	transitions metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	placed, _ := m.Int64Counter("orders.service.placed", metric.WithDescription("Number of orders placed"))
	transitions, _ := m.Int64Counter("orders.service.transitions", metric.WithDescription("Number of order status transitions by target status"))
	return serviceMetrics{placed: placed, transitions: transitions}
}

func (m serviceMetrics) recordPlaced(ctx context.Context, source string, rush bool) {
	if m.placed != nil {
		m.placed.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source), attribute.Bool("rush", rush)))
	}
}

func (m serviceMetrics) recordTransition(ctx context.Context, status domain.Status) {
	if m.transitions != nil {
		m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
	}
}

var _ ports.Service = (*Service)(nil)
