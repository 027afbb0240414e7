package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/aims-commerce/internal/domains/orders/adapters/memory"
	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
	"github.com/Apurer/aims-commerce/internal/domains/orders/ports"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeCarts struct {
	mu     sync.Mutex
	carts  map[int64][]ports.CartLine
	nextID int64
	delay  time.Duration
}

func (f *fakeCarts) Snapshot(_ context.Context, lines []ports.CartLine) (int64, error) {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.carts[f.nextID] = append([]ports.CartLine(nil), lines...)
	return f.nextID, nil
}

func (f *fakeCarts) Lines(_ context.Context, cartID int64) ([]ports.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines, ok := f.carts[cartID]
	if !ok {
		return nil, ports.ErrCartNotFound
	}
	return lines, nil
}

type fakeStock struct {
	mu     sync.Mutex
	levels map[int64]ports.StockLevel
}

func (f *fakeStock) Stock(_ context.Context, id int64) (*ports.StockLevel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	level, ok := f.levels[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ports.ErrProductNotFound, id)
	}
	return &level, nil
}

func (f *fakeStock) set(id int64, title string, available int, rush bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[id] = ports.StockLevel{ProductID: id, Title: title, Available: available, RushEligible: rush}
}

type fakeTransactions struct {
	mu       sync.Mutex
	ids      map[int64]bool
	recorded []ports.PaymentRecord
	nextID   int64
}

func (f *fakeTransactions) Exists(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ids[id] {
		return ports.ErrTransactionNotFound
	}
	return nil
}

func (f *fakeTransactions) Record(_ context.Context, payment ports.PaymentRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.ids[f.nextID] = true
	f.recorded = append(f.recorded, payment)
	return f.nextID, nil
}

type fixture struct {
	svc          *Service
	orders       *memory.Repository
	stock        *fakeStock
	transactions *fakeTransactions
	events       *memory.EventRecorder
	carts        *fakeCarts
	idempotency  *memory.IdempotencyStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		orders:       memory.NewRepository(),
		stock:        &fakeStock{levels: map[int64]ports.StockLevel{}},
		transactions: &fakeTransactions{ids: map[int64]bool{}},
		events:       memory.NewEventRecorder(),
		carts:        &fakeCarts{carts: map[int64][]ports.CartLine{}},
		idempotency:  memory.NewIdempotencyStore(),
	}
	f.svc = NewService(Dependencies{
		Orders:       f.orders,
		Deliveries:   memory.NewDeliveryInfoRepository(),
		Invoices:     memory.NewInvoiceRepository(),
		Carts:        f.carts,
		Stock:        f.stock,
		Transactions: f.transactions,
		Events:       f.events,
		Idempotency:  f.idempotency,
	}, WithClock(func() time.Time { return fixedNow }))
	f.stock.set(1, "Clean Code", 10, true)
	f.stock.set(2, "Abbey Road", 1, false)
	return f
}

func hanoiDelivery() domain.DeliveryInfo {
	return domain.DeliveryInfo{
		RecipientName: "Tran Thi B",
		Email:         "b@example.vn",
		Phone:         "0987654321",
		Address:       "12 Hang Bai",
		Province:      "Hà Nội",
		District:      "Hoàn Kiếm",
	}
}

func checkoutInput(lines ...ports.CartLine) ports.CheckoutInput {
	return ports.CheckoutInput{
		Delivery: hanoiDelivery(),
		Invoice: ports.InvoiceInput{
			Lines:          lines,
			TotalBeforeVAT: decimal.NewFromInt(100000),
			TotalAfterVAT:  decimal.NewFromInt(110000),
			DeliveryFee:    decimal.NewFromInt(22000),
			TotalAmount:    decimal.NewFromInt(132000),
		},
		Payment: &ports.PaymentRecord{Gateway: "VNPAY", TransactionNo: "1400", Amount: decimal.NewFromInt(132000), Status: "PENDING"},
	}
}

func TestCheckoutPlacesPendingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.svc.Checkout(ctx, checkoutInput(ports.CartLine{ProductID: 1, Quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.False(t, order.IsRush())

	invoice, err := f.svc.GetInvoice(ctx, order.InvoiceID)
	require.NoError(t, err)
	assert.True(t, invoice.TotalAmount.Equal(decimal.NewFromInt(132000)))
	delivery, err := f.svc.GetDeliveryInfo(ctx, order.DeliveryInfoID)
	require.NoError(t, err)
	assert.Equal(t, "Tran Thi B", delivery.RecipientName)
	require.Len(t, f.transactions.recorded, 1)

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, order.ID, events[0].AggregateID())
}

func TestCheckoutReusesExistingTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.transactions.ids[77] = true

	input := checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1})
	input.Payment = nil
	input.TransactionID = 77
	order, err := f.svc.Checkout(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, int64(77), order.TransactionID)

	input.TransactionID = 78
	_, err = f.svc.Checkout(ctx, input)
	require.ErrorIs(t, err, ErrInvalidInput)

	input.TransactionID = 0
	_, err = f.svc.Checkout(ctx, input)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCheckoutValidatesDelivery(t *testing.T) {
	f := newFixture(t)
	input := checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1})
	input.Delivery.Phone = "12"
	_, err := f.svc.Checkout(context.Background(), input)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidDeliveryInfo)
	assert.Empty(t, f.transactions.recorded)
}

func TestCheckoutIdempotency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	input := checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1})
	input.IdempotencyKey = "key-1"

	first, err := f.svc.Checkout(ctx, input)
	require.NoError(t, err)
	replay, err := f.svc.Checkout(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, first.ID, replay.ID)
	assert.Len(t, f.transactions.recorded, 1)

	input.Invoice.TotalAmount = decimal.NewFromInt(1)
	_, err = f.svc.Checkout(ctx, input)
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}

func TestCheckoutConcurrentRetriesPlaceOneOrder(t *testing.T) {
	f := newFixture(t)
	f.carts.delay = 20 * time.Millisecond
	input := checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1})
	input.IdempotencyKey = "key-burst"

	const callers = 4
	ids := make([]int64, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order, err := f.svc.Checkout(context.Background(), input)
			errs[i] = err
			if order != nil {
				ids[i] = order.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	require.NotZero(t, ids[0])

	orders, err := f.orders.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Len(t, f.transactions.recorded, 1)
}

func TestCheckoutRejectsKeyClaimedElsewhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	input := checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1})
	input.IdempotencyKey = "key-held"
	fingerprint, err := FingerprintCheckout(input)
	require.NoError(t, err)

	_, claimed, err := f.idempotency.Claim(ctx, input.IdempotencyKey, fingerprint)
	require.NoError(t, err)
	require.True(t, claimed)

	_, err = f.svc.Checkout(ctx, input)
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, ports.ErrIdempotencyInProgress)
	assert.Empty(t, f.transactions.recorded)
}

func TestCheckoutReleasesKeyAfterFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	input := checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1})
	input.IdempotencyKey = "key-retry"
	input.Payment = nil
	input.TransactionID = 78

	_, err := f.svc.Checkout(ctx, input)
	require.ErrorIs(t, err, ErrInvalidInput)
	record, err := f.idempotency.Get(ctx, input.IdempotencyKey)
	require.NoError(t, err)
	assert.Nil(t, record)

	f.transactions.ids[78] = true
	order, err := f.svc.Checkout(ctx, input)
	require.NoError(t, err)
	record, err = f.idempotency.Get(ctx, input.IdempotencyKey)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, order.ID, record.OrderID)
}

func TestRushCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rush := &domain.RushDetails{DeliveryTime: fixedNow.Add(2 * time.Hour), Instruction: "Call before arriving"}

	input := checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1})
	input.Rush = rush
	order, err := f.svc.Checkout(ctx, input)
	require.NoError(t, err)
	require.True(t, order.IsRush())
	assert.Equal(t, "Call before arriving", order.Rush.Instruction)

	rushOrders, err := f.svc.ListRushOrders(ctx)
	require.NoError(t, err)
	require.Len(t, rushOrders, 1)

	input = checkoutInput(ports.CartLine{ProductID: 2, Quantity: 1})
	input.Rush = rush
	_, err = f.svc.Checkout(ctx, input)
	require.ErrorIs(t, err, domain.ErrRushItemsUnsupported)

	input = checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1})
	input.Rush = &domain.RushDetails{DeliveryTime: fixedNow.Add(-time.Hour), Instruction: "late"}
	_, err = f.svc.Checkout(ctx, input)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidRush)
}

func TestCheckRushEligibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.CheckRushEligibility(ctx, hanoiDelivery(), []int64{2, 1, 99}))

	outside := hanoiDelivery()
	outside.Province = "Da Nang"
	err := f.svc.CheckRushEligibility(ctx, outside, []int64{1})
	require.ErrorIs(t, err, domain.ErrRushAddressUnsupported)
	require.ErrorIs(t, err, ErrInvalidInput)

	err = f.svc.CheckRushEligibility(ctx, hanoiDelivery(), []int64{2, 99})
	require.ErrorIs(t, err, domain.ErrRushItemsUnsupported)
}

func TestCreateOrderChecksReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	delivery := hanoiDelivery()
	savedDelivery, err := f.svc.SaveDeliveryInfo(ctx, &delivery)
	require.NoError(t, err)
	invoice, err := f.svc.CreateInvoice(ctx, checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1}).Invoice)
	require.NoError(t, err)
	f.transactions.ids[5] = true

	_, err = f.svc.CreateOrder(ctx, ports.CreateOrderInput{TransactionID: 6, InvoiceID: invoice.ID, DeliveryInfoID: savedDelivery.ID})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "invalid references to transaction, invoice, or delivery info")

	order, err := f.svc.CreateOrder(ctx, ports.CreateOrderInput{TransactionID: 5, InvoiceID: invoice.ID, DeliveryInfoID: savedDelivery.ID, Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, order.Status)

	_, err = f.svc.CreateOrder(ctx, ports.CreateOrderInput{TransactionID: 5, InvoiceID: invoice.ID, DeliveryInfoID: savedDelivery.ID})
	require.ErrorIs(t, err, ErrConflict)
}

func TestUpdateStatusFollowsStateMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.Checkout(ctx, checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, order.ID, "DELIVERED")
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, domain.ErrIllegalTransition)

	_, err = f.svc.UpdateStatus(ctx, order.ID, "")
	require.ErrorIs(t, err, ErrInvalidInput)

	for _, status := range []string{"APPROVED", "SHIPPED", "DELIVERED"} {
		updated, err := f.svc.UpdateStatus(ctx, order.ID, status)
		require.NoError(t, err)
		assert.Equal(t, domain.Status(status), updated.Status)
	}

	_, err = f.svc.UpdateStatus(ctx, 999, "APPROVED")
	require.ErrorIs(t, err, ports.ErrNotFound)
	// created + three transitions
	assert.Len(t, f.events.Events(), 4)
}

func TestUpdateRushDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plain, err := f.svc.Checkout(ctx, checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	details := domain.RushDetails{DeliveryTime: fixedNow.Add(time.Hour), Instruction: "Ring twice"}
	_, err = f.svc.UpdateRushDetails(ctx, plain.ID, details)
	require.ErrorIs(t, err, domain.ErrInvalidRush)

	input := checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1})
	input.Rush = &domain.RushDetails{DeliveryTime: fixedNow.Add(30 * time.Minute), Instruction: "Door"}
	rush, err := f.svc.Checkout(ctx, input)
	require.NoError(t, err)

	updated, err := f.svc.UpdateRushDetails(ctx, rush.ID, details)
	require.NoError(t, err)
	assert.Equal(t, "Ring twice", updated.Rush.Instruction)
}

func TestRejectUnderstockedRejectsOnlyShortPendingOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	covered, err := f.svc.Checkout(ctx, checkoutInput(ports.CartLine{ProductID: 1, Quantity: 2}))
	require.NoError(t, err)
	short, err := f.svc.Checkout(ctx, checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1}, ports.CartLine{ProductID: 2, Quantity: 3}))
	require.NoError(t, err)
	approvedShort, err := f.svc.Checkout(ctx, checkoutInput(ports.CartLine{ProductID: 2, Quantity: 5}))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, approvedShort.ID, "APPROVED")
	require.NoError(t, err)

	rejected, err := f.svc.RejectUnderstocked(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{short.ID}, rejected)

	got, err := f.svc.GetOrder(ctx, short.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)
	assert.Equal(t, "Order automatically rejected due to insufficient stock: Abbey Road (requested: 3, available: 1)", got.RejectionReason)

	got, err = f.svc.GetOrder(ctx, covered.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	got, err = f.svc.GetOrder(ctx, approvedShort.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)

	again, err := f.svc.RejectUnderstocked(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestRejectUnderstockedSurfacesMissingProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stock.set(3, "Vanishing", 4, false)
	_, err := f.svc.Checkout(ctx, checkoutInput(ports.CartLine{ProductID: 3, Quantity: 1}))
	require.NoError(t, err)

	f.stock.mu.Lock()
	delete(f.stock.levels, 3)
	f.stock.mu.Unlock()

	_, err = f.svc.RejectUnderstocked(ctx)
	require.ErrorIs(t, err, ports.ErrProductNotFound)
}

func TestDeliveryAndInvoiceCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	delivery := hanoiDelivery()
	saved, err := f.svc.SaveDeliveryInfo(ctx, &delivery)
	require.NoError(t, err)
	saved.Address = "99 Ly Thai To"
	updated, err := f.svc.SaveDeliveryInfo(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)
	assert.Equal(t, "99 Ly Thai To", updated.Address)

	infos, err := f.svc.ListDeliveryInfos(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 1)
	require.NoError(t, f.svc.DeleteDeliveryInfo(ctx, saved.ID))
	require.ErrorIs(t, f.svc.DeleteDeliveryInfo(ctx, saved.ID), ports.ErrDeliveryInfoNotFound)

	_, err = f.svc.CreateInvoice(ctx, ports.InvoiceInput{})
	require.ErrorIs(t, err, ErrInvalidInput)

	negative := checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1}).Invoice
	negative.TotalAmount = decimal.NewFromInt(-5)
	_, err = f.svc.CreateInvoice(ctx, negative)
	require.ErrorIs(t, err, domain.ErrInvalidInvoice)

	invoice, err := f.svc.CreateInvoice(ctx, checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1}).Invoice)
	require.NoError(t, err)
	invoices, err := f.svc.ListInvoices(ctx)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
	require.NoError(t, f.svc.DeleteInvoice(ctx, invoice.ID))
	_, err = f.svc.GetInvoice(ctx, invoice.ID)
	require.ErrorIs(t, err, ports.ErrInvoiceNotFound)
}

func TestDeleteOrderPublishesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.Checkout(ctx, checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteOrder(ctx, order.ID))
	require.ErrorIs(t, f.svc.DeleteOrder(ctx, order.ID), ports.ErrNotFound)

	events := f.events.Events()
	assert.Equal(t, "orders.order.deleted", events[len(events)-1].EventName())
}

func TestFingerprintIgnoresKeyButNotPayload(t *testing.T) {
	a := checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1})
	a.IdempotencyKey = "one"
	b := checkoutInput(ports.CartLine{ProductID: 1, Quantity: 1})
	b.IdempotencyKey = "two"

	ha, err := FingerprintCheckout(a)
	require.NoError(t, err)
	hb, err := FingerprintCheckout(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	b.Invoice.Lines[0].Quantity = 2
	hc, err := FingerprintCheckout(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}
