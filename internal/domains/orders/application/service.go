package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"

	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
	"github.com/Apurer/aims-commerce/internal/domains/orders/ports"
)

// Dependencies groups the collaborators of the order service.
type Dependencies struct {
	Orders       ports.Repository
	Deliveries   ports.DeliveryInfoRepository
	Invoices     ports.InvoiceRepository
	Carts        ports.CartReader
	Stock        ports.StockReader
	Transactions ports.Transactions
	// Events and Idempotency are optional.
	Events      ports.EventPublisher
	Idempotency ports.IdempotencyStore
}

// Service orchestrates order, invoice and delivery info use cases.
type Service struct {
	orders       ports.Repository
	deliveries   ports.DeliveryInfoRepository
	invoices     ports.InvoiceRepository
	carts        ports.CartReader
	stock        ports.StockReader
	transactions ports.Transactions
	events       ports.EventPublisher
	idempotency  ports.IdempotencyStore
	checkouts    singleflight.Group
	now          func() time.Time
	logger       *slog.Logger
}

type Option func(*Service)

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger receives event publishing failures, which never fail the request.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(deps Dependencies, opts ...Option) *Service {
	s := &Service{
		orders:       deps.Orders,
		deliveries:   deps.Deliveries,
		invoices:     deps.Invoices,
		carts:        deps.Carts,
		stock:        deps.Stock,
		transactions: deps.Transactions,
		events:       deps.Events,
		idempotency:  deps.Idempotency,
		now:          time.Now,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

var errInvalidReferences = errors.New("invalid references to transaction, invoice, or delivery info")

// CreateOrder links existing records; every reference must resolve.
func (s *Service) CreateOrder(ctx context.Context, input ports.CreateOrderInput) (*domain.Order, error) {
	status, err := domain.ParseStatus(input.Status)
	if err != nil {
		return nil, mapError(err)
	}
	if input.Rush != nil {
		if err := input.Rush.Validate(s.now()); err != nil {
			return nil, mapError(err)
		}
	}
	if err := s.checkReferences(ctx, input); err != nil {
		return nil, err
	}
	return s.place(ctx, input.TransactionID, input.InvoiceID, input.DeliveryInfoID, status, input.Rush)
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.orders.List(ctx)
}

func (s *Service) ListRushOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(orders, func(o *domain.Order, _ int) bool { return o.IsRush() }), nil
}

func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, domain.OrderDeleted{BaseEvent: domain.BaseEvent{Timestamp: s.now()}, OrderID: id})
	return nil
}

// UpdateStatus applies one state machine step.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	if strings.TrimSpace(status) == "" {
		return nil, mapError(fmt.Errorf("%w: status is required", domain.ErrUnknownStatus))
	}
	next, err := domain.ParseStatus(status)
	if err != nil {
		return nil, mapError(err)
	}
	order, err := s.orders.Mutate(ctx, id, func(o *domain.Order) error {
		return o.TransitionTo(next, s.now())
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.flush(ctx, order)
	return order, nil
}

func (s *Service) UpdateRushDetails(ctx context.Context, id int64, rush domain.RushDetails) (*domain.Order, error) {
	if err := rush.Validate(s.now()); err != nil {
		return nil, mapError(err)
	}
	order, err := s.orders.Mutate(ctx, id, func(o *domain.Order) error {
		if !o.IsRush() {
			return fmt.Errorf("%w: order %d is not a rush order", domain.ErrInvalidRush, o.ID)
		}
		o.Rush = &rush
		return nil
	})
	return order, mapError(err)
}

func (s *Service) PendingOrderIDs(ctx context.Context) ([]int64, error) {
	pending, err := s.orders.ListByStatus(ctx, domain.StatusPending)
	if err != nil {
		return nil, err
	}
	return lo.Map(pending, func(o *domain.Order, _ int) int64 { return o.ID }), nil
}

var errNoLongerPending = errors.New("order no longer pending")

// RejectIfUnderstocked rejects a pending order when any invoiced line exceeds live stock.
// The whole order is rejected; orders that are not pending are left alone.
func (s *Service) RejectIfUnderstocked(ctx context.Context, id int64) (bool, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if order.Status != domain.StatusPending {
		return false, nil
	}
	lines, err := s.stockLines(ctx, order)
	if err != nil {
		return false, err
	}
	reason, short := domain.ShortageReason(lines)
	if !short {
		return false, nil
	}
	rejected, err := s.orders.Mutate(ctx, id, func(o *domain.Order) error {
		if o.Status != domain.StatusPending {
			return errNoLongerPending
		}
		return o.Reject(reason, s.now())
	})
	if errors.Is(err, errNoLongerPending) {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}
	s.flush(ctx, rejected)
	return true, nil
}

// RejectUnderstocked scans every pending order and returns the ids it rejected.
func (s *Service) RejectUnderstocked(ctx context.Context) ([]int64, error) {
	ids, err := s.PendingOrderIDs(ctx)
	if err != nil {
		return nil, err
	}
	rejected := []int64{}
	for _, id := range ids {
		ok, err := s.RejectIfUnderstocked(ctx, id)
		if err != nil {
			return rejected, fmt.Errorf("order %d: %w", id, err)
		}
		if ok {
			rejected = append(rejected, id)
		}
	}
	return rejected, nil
}

// Checkout stores the delivery info, snapshots the cart into an invoice, resolves the payment
// transaction and places the order. A repeated idempotency key replays the first result.
func (s *Service) Checkout(ctx context.Context, input ports.CheckoutInput) (*domain.Order, error) {
	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" || s.idempotency == nil {
		return s.checkout(ctx, input)
	}
	fingerprint, err := FingerprintCheckout(input)
	if err != nil {
		return nil, err
	}
	// Identical retries in this process share one claim; the store arbitrates across processes.
	v, err, _ := s.checkouts.Do(key+"\x00"+fingerprint, func() (any, error) {
		return s.claimedCheckout(ctx, key, fingerprint, input)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Order).Clone(), nil
}

func (s *Service) claimedCheckout(ctx context.Context, key, fingerprint string, input ports.CheckoutInput) (*domain.Order, error) {
	existing, claimed, err := s.idempotency.Claim(ctx, key, fingerprint)
	if err != nil {
		return nil, err
	}
	if !claimed {
		if existing.RequestHash != fingerprint {
			return nil, mapError(ports.ErrIdempotencyConflict)
		}
		if existing.Pending() {
			return nil, mapError(ports.ErrIdempotencyInProgress)
		}
		return s.orders.GetByID(ctx, existing.OrderID)
	}

	order, err := s.checkout(ctx, input)
	if err != nil {
		if releaseErr := s.idempotency.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to release idempotency key",
				slog.String("key", key), slog.String("error", releaseErr.Error()))
		}
		return nil, err
	}
	if err := s.idempotency.Complete(ctx, key, order.ID); err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

func (s *Service) checkout(ctx context.Context, input ports.CheckoutInput) (*domain.Order, error) {
	status, err := domain.ParseStatus(input.Status)
	if err != nil {
		return nil, mapError(err)
	}
	if input.Rush != nil {
		if err := input.Rush.Validate(s.now()); err != nil {
			return nil, mapError(err)
		}
		productIDs := lo.Map(input.Invoice.Lines, func(l ports.CartLine, _ int) int64 { return l.ProductID })
		if err := s.CheckRushEligibility(ctx, input.Delivery, productIDs); err != nil {
			return nil, err
		}
	}
	if input.TransactionID <= 0 && input.Payment == nil {
		return nil, mapError(fmt.Errorf("%w: payment details are required", domain.ErrInvalidReference))
	}

	delivery, err := s.SaveDeliveryInfo(ctx, &input.Delivery)
	if err != nil {
		return nil, err
	}
	invoice, err := s.CreateInvoice(ctx, input.Invoice)
	if err != nil {
		return nil, err
	}
	transactionID := input.TransactionID
	if transactionID > 0 {
		if err := s.transactions.Exists(ctx, transactionID); err != nil {
			return nil, fmt.Errorf("%w: %w: %w", ErrInvalidInput, errInvalidReferences, err)
		}
	} else if transactionID, err = s.transactions.Record(ctx, *input.Payment); err != nil {
		return nil, err
	}

	return s.place(ctx, transactionID, invoice.ID, delivery.ID, status, input.Rush)
}

// CheckRushEligibility requires an address in the rush zone and at least one rush eligible product.
// Unknown products are ignored.
func (s *Service) CheckRushEligibility(ctx context.Context, delivery domain.DeliveryInfo, productIDs []int64) error {
	if !domain.IsRushAddress(delivery.Province, delivery.District) {
		return mapError(fmt.Errorf("%w: %w", domain.ErrRushIneligible, domain.ErrRushAddressUnsupported))
	}
	for _, id := range lo.Uniq(productIDs) {
		level, err := s.stock.Stock(ctx, id)
		if errors.Is(err, ports.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if level.RushEligible {
			return nil
		}
	}
	return mapError(fmt.Errorf("%w: %w", domain.ErrRushIneligible, domain.ErrRushItemsUnsupported))
}

func (s *Service) SaveDeliveryInfo(ctx context.Context, info *domain.DeliveryInfo) (*domain.DeliveryInfo, error) {
	if err := info.Validate(); err != nil {
		return nil, mapError(err)
	}
	return s.deliveries.Save(ctx, info.Clone())
}

func (s *Service) GetDeliveryInfo(ctx context.Context, id int64) (*domain.DeliveryInfo, error) {
	return s.deliveries.GetByID(ctx, id)
}

func (s *Service) ListDeliveryInfos(ctx context.Context) ([]*domain.DeliveryInfo, error) {
	return s.deliveries.List(ctx)
}

func (s *Service) DeleteDeliveryInfo(ctx context.Context, id int64) error {
	return s.deliveries.Delete(ctx, id)
}

// CreateInvoice snapshots the lines into a new cart so later catalog edits cannot alter the invoice.
func (s *Service) CreateInvoice(ctx context.Context, input ports.InvoiceInput) (*domain.Invoice, error) {
	if len(input.Lines) == 0 {
		return nil, mapError(fmt.Errorf("%w: invoice requires at least one cart line", domain.ErrInvalidInvoice))
	}
	cartID, err := s.carts.Snapshot(ctx, input.Lines)
	if err != nil {
		return nil, err
	}
	invoice := &domain.Invoice{
		CartID:         cartID,
		TotalBeforeVAT: input.TotalBeforeVAT,
		TotalAfterVAT:  input.TotalAfterVAT,
		DeliveryFee:    input.DeliveryFee,
		TotalAmount:    input.TotalAmount,
	}
	if err := invoice.Validate(); err != nil {
		return nil, mapError(err)
	}
	return s.invoices.Save(ctx, invoice)
}

func (s *Service) GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	return s.invoices.GetByID(ctx, id)
}

func (s *Service) ListInvoices(ctx context.Context) ([]*domain.Invoice, error) {
	return s.invoices.List(ctx)
}

func (s *Service) DeleteInvoice(ctx context.Context, id int64) error {
	return s.invoices.Delete(ctx, id)
}

func (s *Service) place(ctx context.Context, transactionID, invoiceID, deliveryID int64, status domain.Status, rush *domain.RushDetails) (*domain.Order, error) {
	order, err := domain.NewOrder(transactionID, invoiceID, deliveryID, status, rush, s.now())
	if err != nil {
		return nil, mapError(err)
	}
	events := order.Events()
	saved, err := s.orders.Save(ctx, order)
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, domain.WithOrderID(events, saved.ID, "")...)
	return saved, nil
}

func (s *Service) checkReferences(ctx context.Context, input ports.CreateOrderInput) error {
	if input.TransactionID <= 0 || input.InvoiceID <= 0 || input.DeliveryInfoID <= 0 {
		return mapError(domain.ErrInvalidReference)
	}
	if err := s.transactions.Exists(ctx, input.TransactionID); err != nil {
		return referenceError(err, ports.ErrTransactionNotFound)
	}
	if _, err := s.invoices.GetByID(ctx, input.InvoiceID); err != nil {
		return referenceError(err, ports.ErrInvoiceNotFound)
	}
	if _, err := s.deliveries.GetByID(ctx, input.DeliveryInfoID); err != nil {
		return referenceError(err, ports.ErrDeliveryInfoNotFound)
	}
	return nil
}

func referenceError(err, missing error) error {
	if errors.Is(err, missing) {
		return fmt.Errorf("%w: %w: %w", ErrInvalidInput, errInvalidReferences, err)
	}
	return err
}

func (s *Service) stockLines(ctx context.Context, order *domain.Order) ([]domain.StockLine, error) {
	invoice, err := s.invoices.GetByID(ctx, order.InvoiceID)
	if err != nil {
		return nil, err
	}
	cartLines, err := s.carts.Lines(ctx, invoice.CartID)
	if err != nil {
		return nil, err
	}
	lines := make([]domain.StockLine, 0, len(cartLines))
	for _, line := range cartLines {
		level, err := s.stock.Stock(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, err)
		}
		lines = append(lines, domain.StockLine{
			ProductID: line.ProductID,
			Title:     level.Title,
			Requested: line.Quantity,
			Available: level.Available,
		})
	}
	return lines, nil
}

func (s *Service) flush(ctx context.Context, order *domain.Order) {
	events := domain.WithOrderID(order.Events(), order.ID, order.RejectionReason)
	order.ClearEvents()
	s.publish(ctx, events...)
}

func (s *Service) publish(ctx context.Context, events ...domain.Event) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to publish order events",
			slog.Int("events", len(events)), slog.String("error", err.Error()))
	}
}

var _ ports.Service = (*Service)(nil)
