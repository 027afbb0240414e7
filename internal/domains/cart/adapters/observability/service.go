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

	"github.com/Apurer/aims-commerce/internal/domains/cart/domain"
	"github.com/Apurer/aims-commerce/internal/domains/cart/ports"
)

const tracerName = "github.com/Apurer/aims-commerce/internal/domains/cart/adapters/observability/service"

// Service decorates the cart service with tracing, logging, and metrics.
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

// New wraps the core cart service.
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

func (s *Service) CreateCart(ctx context.Context) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.CreateCart")
	defer span.End()

	result, err := s.inner.CreateCart(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create cart")
	}
	s.metrics.recordCreated(ctx)
	s.logInfo(ctx, "cart created", slog.Int64("cart.id", result.ID))
	return result, nil
}

func (s *Service) GetCart(ctx context.Context, id int64) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.GetCart", trace.WithAttributes(attribute.Int64("cart.id", id)))
	defer span.End()

	result, err := s.inner.GetCart(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load cart", slog.Int64("cart.id", id))
	}
	return result, nil
}

func (s *Service) ListCarts(ctx context.Context) ([]*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.ListCarts")
	defer span.End()

	result, err := s.inner.ListCarts(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list carts")
	}
	return result, nil
}

func (s *Service) DeleteCart(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "CartService.DeleteCart", trace.WithAttributes(attribute.Int64("cart.id", id)))
	defer span.End()

	if err := s.inner.DeleteCart(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete cart", slog.Int64("cart.id", id))
	}
	s.logInfo(ctx, "cart deleted", slog.Int64("cart.id", id))
	return nil
}

func (s *Service) AddItem(ctx context.Context, cartID, productID int64, quantity int) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.AddItem", trace.WithAttributes(
		attribute.Int64("cart.id", cartID), attribute.Int64("product.id", productID), attribute.Int("quantity", quantity)))
	defer span.End()

	s.logInfo(ctx, "adding cart item", slog.Int64("cart.id", cartID), slog.Int64("product.id", productID), slog.Int("quantity", quantity))
	result, err := s.inner.AddItem(ctx, cartID, productID, quantity)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to add cart item", slog.Int64("cart.id", cartID), slog.Int64("product.id", productID))
	}
	s.metrics.recordMutation(ctx, "add")
	s.logInfo(ctx, "cart item added", slog.Int64("cart.id", cartID), slog.String("total", result.TotalBeforeVAT.String()))
	return result, nil
}

func (s *Service) UpdateItemQuantity(ctx context.Context, cartID, productID int64, quantity int) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.UpdateItemQuantity", trace.WithAttributes(
		attribute.Int64("cart.id", cartID), attribute.Int64("product.id", productID), attribute.Int("quantity", quantity)))
	defer span.End()

	result, err := s.inner.UpdateItemQuantity(ctx, cartID, productID, quantity)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update cart item", slog.Int64("cart.id", cartID), slog.Int64("product.id", productID))
	}
	s.metrics.recordMutation(ctx, "update")
	s.logInfo(ctx, "cart item updated", slog.Int64("cart.id", cartID), slog.String("total", result.TotalBeforeVAT.String()))
	return result, nil
}

func (s *Service) RemoveItem(ctx context.Context, cartID, productID int64) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.RemoveItem", trace.WithAttributes(
		attribute.Int64("cart.id", cartID), attribute.Int64("product.id", productID)))
	defer span.End()

	result, err := s.inner.RemoveItem(ctx, cartID, productID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to remove cart item", slog.Int64("cart.id", cartID), slog.Int64("product.id", productID))
	}
	s.metrics.recordMutation(ctx, "remove")
	return result, nil
}

func (s *Service) EmptyCart(ctx context.Context, cartID int64) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.EmptyCart", trace.WithAttributes(attribute.Int64("cart.id", cartID)))
	defer span.End()

	result, err := s.inner.EmptyCart(ctx, cartID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to empty cart", slog.Int64("cart.id", cartID))
	}
	s.metrics.recordMutation(ctx, "empty")
	return result, nil
}

func (s *Service) CheckInventory(ctx context.Context, cartID int64) (*domain.InventoryReport, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.CheckInventory", trace.WithAttributes(attribute.Int64("cart.id", cartID)))
	defer span.End()

	result, err := s.inner.CheckInventory(ctx, cartID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to check cart inventory", slog.Int64("cart.id", cartID))
	}
	span.SetAttributes(attribute.Bool("inventory.all_available", result.AllAvailable))
	return result, nil
}

func (s *Service) Calculate(ctx context.Context, req ports.QuoteRequest) (*domain.Totals, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.Calculate", trace.WithAttributes(
		attribute.Int("items", len(req.Items)), attribute.String("province", req.Province), attribute.Bool("rush", req.Rush)))
	defer span.End()

	result, err := s.inner.Calculate(ctx, req)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to calculate totals", slog.String("province", req.Province))
	}
	s.logInfo(ctx, "totals calculated", slog.String("subtotal", result.Subtotal.String()), slog.String("delivery_fee", result.DeliveryFee.String()))
	return result, nil
}

func (s *Service) CalculateRush(ctx context.Context, req ports.QuoteRequest) (*domain.RushTotals, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.CalculateRush", trace.WithAttributes(
		attribute.Int("items", len(req.Items)), attribute.String("province", req.Province)))
	defer span.End()

	result, err := s.inner.CalculateRush(ctx, req)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to calculate rush totals", slog.String("province", req.Province))
	}
	s.logInfo(ctx, "rush totals calculated", slog.String("subtotal", result.Subtotal.String()), slog.String("rush_fee", result.RushDeliveryFee.String()),
		slog.Int("out_of_stock", len(result.OutOfStock)))
	return result, nil
}

func (s *Service) Snapshot(ctx context.Context, items []ports.QuoteItem) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.Snapshot", trace.WithAttributes(attribute.Int("items", len(items))))
	defer span.End()

	result, err := s.inner.Snapshot(ctx, items)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to snapshot cart")
	}
	if skipped := len(items) - len(result.Items); skipped > 0 && s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "snapshot skipped unknown products", slog.Int("skipped", skipped))
	}
	s.logInfo(ctx, "cart snapshot created", slog.Int64("cart.id", result.ID))
	return result, nil
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
	created   metric.Int64Counter
	mutations metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("cart.service.created", metric.WithDescription("Number of carts created"))
	mutations, _ := m.Int64Counter("cart.service.mutations", metric.WithDescription("Number of cart line mutations"))
	return serviceMetrics{created: created, mutations: mutations}
}

func (m serviceMetrics) recordCreated(ctx context.Context) {
	if m.created != nil {
		m.created.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordMutation(ctx context.Context, kind string) {
	if m.mutations != nil {
		m.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("mutation", kind)))
	}
}

var _ ports.Service = (*Service)(nil)
