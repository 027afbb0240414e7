package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/aims-commerce/internal/domains/payments/domain"
	"github.com/Apurer/aims-commerce/internal/domains/payments/ports"
)

const tracerName = "github.com/Apurer/aims-commerce/internal/domains/payments/adapters/observability/service"

// Service decorates the payments service with tracing, logging, and metrics.
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

// New wraps the core payments service.
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

func (s *Service) Gateways() []string {
	return s.inner.Gateways()
}

func (s *Service) CreatePaymentURL(ctx context.Context, gateway string, req ports.PaymentRequest) (string, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.CreatePaymentURL", trace.WithAttributes(
		attribute.String("payment.gateway", gateway), attribute.String("order.ref", req.OrderID)))
	defer span.End()

	result, err := s.inner.CreatePaymentURL(ctx, gateway, req)
	if err != nil {
		return "", s.handleError(ctx, span, err, "failed to build payment url", slog.String("payment.gateway", gateway))
	}
	s.logInfo(ctx, "payment redirect issued", slog.String("payment.gateway", gateway), slog.String("order.ref", req.OrderID),
		slog.String("amount", req.Amount.String()))
	return result, nil
}

func (s *Service) HandleCallback(ctx context.Context, gateway string, params map[string]string) (*domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.HandleCallback", trace.WithAttributes(attribute.String("payment.gateway", gateway)))
	defer span.End()

	result, err := s.inner.HandleCallback(ctx, gateway, params)
	if err != nil {
		var declined *domain.PaymentError
		if errors.As(err, &declined) {
			s.metrics.recordCallback(ctx, strings.ToUpper(strings.TrimSpace(gateway)), "declined")
			span.SetAttributes(attribute.String("payment.response_code", declined.Code))
		}
		return nil, s.handleError(ctx, span, err, "payment callback failed", slog.String("payment.gateway", gateway))
	}
	s.metrics.recordCallback(ctx, result.Gateway, "accepted")
	s.logInfo(ctx, "payment recorded", slog.Int64("transaction.id", result.ID), slog.String("amount", result.Amount.String()))
	return result, nil
}

func (s *Service) RecordTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.RecordTransaction")
	defer span.End()

	result, err := s.inner.RecordTransaction(ctx, tx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to record transaction")
	}
	s.logInfo(ctx, "transaction recorded", slog.Int64("transaction.id", result.ID), slog.String("payment.gateway", result.Gateway))
	return result, nil
}

func (s *Service) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.GetTransaction", trace.WithAttributes(attribute.Int64("transaction.id", id)))
	defer span.End()

	result, err := s.inner.GetTransaction(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load transaction", slog.Int64("transaction.id", id))
	}
	return result, nil
}

func (s *Service) ListTransactions(ctx context.Context) ([]*domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.ListTransactions")
	defer span.End()

	result, err := s.inner.ListTransactions(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list transactions")
	}
	return result, nil
}

func (s *Service) DeleteTransaction(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "PaymentService.DeleteTransaction", trace.WithAttributes(attribute.Int64("transaction.id", id)))
	defer span.End()

	if err := s.inner.DeleteTransaction(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete transaction", slog.Int64("transaction.id", id))
	}
	s.logInfo(ctx, "transaction deleted", slog.Int64("transaction.id", id))
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
	callbacks metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	callbacks, _ := m.Int64Counter("payments.service.callbacks", metric.WithDescription("Number of gateway callbacks by outcome"))
	return serviceMetrics{callbacks: callbacks}
}

func (m serviceMetrics) recordCallback(ctx context.Context, gateway, outcome string) {
	if m.callbacks != nil {
		m.callbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("gateway", gateway), attribute.String("outcome", outcome)))
	}
}

var _ ports.Service = (*Service)(nil)
