package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
)

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// StockChecker rejects a single order when stock no longer covers it.
type StockChecker interface {
	RejectIfUnderstocked(ctx context.Context, id int64) (bool, error)
}

// ErrMalformedEvent marks a message that can never be handled.
var ErrMalformedEvent = errors.New("malformed order event")

const (
	initialRetryDelay = 500 * time.Millisecond
	maxRetryDelay     = 30 * time.Second
)

// StockCheckConsumer re-checks stock for every newly created order.
type StockCheckConsumer struct {
	reader     MessageReader
	checker    StockChecker
	logger     *slog.Logger
	retryDelay time.Duration
}

func NewStockCheckConsumer(reader MessageReader, checker StockChecker, logger *slog.Logger) *StockCheckConsumer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &StockCheckConsumer{reader: reader, checker: checker, logger: logger, retryDelay: initialRetryDelay}
}

// Run consumes until ctx is cancelled. Malformed messages are logged and committed. A failed stock
// check is retried with backoff, so the group offset never moves past an unchecked order.
func (c *StockCheckConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("failed to fetch order event", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		if err := c.handleWithRetry(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("skipping malformed order event", slog.String("key", string(msg.Key)), slog.String("error", err.Error()))
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Warn("failed to commit order event", slog.String("error", err.Error()))
		}
	}
}

// handleWithRetry returns nil, ErrMalformedEvent or the context error.
func (c *StockCheckConsumer) handleWithRetry(ctx context.Context, msg kafka.Message) error {
	delay := c.retryDelay
	for {
		err := c.Handle(ctx, msg)
		if err == nil || errors.Is(err, ErrMalformedEvent) {
			return err
		}
		c.logger.Warn("stock check failed, retrying", slog.String("key", string(msg.Key)),
			slog.Duration("delay", delay), slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

// Handle reacts to a single message; events other than a pending order creation are ignored.
func (c *StockCheckConsumer) Handle(ctx context.Context, msg kafka.Message) error {
	var envelope Envelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if envelope.EventType != (domain.OrderCreated{}).EventName() {
		return nil
	}
	var created domain.OrderCreated
	if err := json.Unmarshal(envelope.Payload, &created); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if created.Status != domain.StatusPending {
		return nil
	}
	if envelope.OrderID <= 0 {
		return fmt.Errorf("%w: missing order id", ErrMalformedEvent)
	}
	rejected, err := c.checker.RejectIfUnderstocked(ctx, envelope.OrderID)
	if err != nil {
		return err
	}
	if rejected {
		c.logger.Info("order rejected after stock check", slog.Int64("orderId", envelope.OrderID))
	}
	return nil
}
