package application

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/aims-commerce/internal/domains/cart/adapters/memory"
	"github.com/Apurer/aims-commerce/internal/domains/cart/domain"
	"github.com/Apurer/aims-commerce/internal/domains/cart/ports"
)

type fakeCatalog struct {
	mu       sync.Mutex
	products map[int64]*domain.ProductView
}

func newFakeCatalog(products ...*domain.ProductView) *fakeCatalog {
	c := &fakeCatalog{products: map[int64]*domain.ProductView{}}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *fakeCatalog) Product(_ context.Context, id int64) (*domain.ProductView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, ports.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (c *fakeCatalog) setPrice(id int64, price int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[id].Price = decimal.NewFromInt(price)
}

func (c *fakeCatalog) remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, id)
}

func product(id int64, price int64, stock int, weight float64, rush bool) *domain.ProductView {
	return &domain.ProductView{ID: id, Title: "Item", Price: decimal.NewFromInt(price), Quantity: stock, Weight: weight, RushEligible: rush}
}

func newTestService(products ...*domain.ProductView) (*Service, *fakeCatalog) {
	catalog := newFakeCatalog(products...)
	return NewService(memory.NewRepository(), catalog), catalog
}

func TestAddItem_RepricesCart(t *testing.T) {
	svc, _ := newTestService(product(1, 20000, 10, 0.5, false), product(2, 35000, 10, 1, false))
	ctx := context.Background()

	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, cart.ID, 1, 2)
	require.NoError(t, err)
	cart, err = svc.AddItem(ctx, cart.ID, 2, 1)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(75000).Equal(cart.TotalBeforeVAT))
	require.Len(t, cart.Items, 2)
	require.NotNil(t, cart.Items[0].Product)
}

func TestAddItem_Errors(t *testing.T) {
	svc, _ := newTestService(product(1, 20000, 1, 0.5, false))
	ctx := context.Background()
	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, cart.ID, 1, 2)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = svc.AddItem(ctx, cart.ID, 1, 0)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddItem(ctx, cart.ID, 99, 1)
	require.ErrorIs(t, err, ports.ErrProductNotFound)

	_, err = svc.AddItem(ctx, 404, 1, 1)
	require.ErrorIs(t, err, ports.ErrNotFound)

	stored, err := svc.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	svc, _ := newTestService(product(1, 10000, 5, 0.5, false))
	ctx := context.Background()
	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cart.ID, 1, 1)
	require.NoError(t, err)

	cart, err = svc.UpdateItemQuantity(ctx, cart.ID, 1, 4)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(40000).Equal(cart.TotalBeforeVAT))

	_, err = svc.UpdateItemQuantity(ctx, cart.ID, 2, 1)
	require.ErrorIs(t, err, domain.ErrItemNotFound)

	cart, err = svc.RemoveItem(ctx, cart.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalBeforeVAT.IsZero())
}

func TestEmptyAndDeleteCart(t *testing.T) {
	svc, _ := newTestService(product(1, 10000, 5, 0.5, false))
	ctx := context.Background()
	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cart.ID, 1, 3)
	require.NoError(t, err)

	cart, err = svc.EmptyCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	require.NoError(t, svc.DeleteCart(ctx, cart.ID))
	require.ErrorIs(t, svc.DeleteCart(ctx, cart.ID), ports.ErrNotFound)

	carts, err := svc.ListCarts(ctx)
	require.NoError(t, err)
	assert.Empty(t, carts)
}

func TestCheckInventory_ReportsShortages(t *testing.T) {
	svc, catalog := newTestService(product(1, 10000, 5, 0.5, false), product(2, 10000, 5, 0.5, false))
	ctx := context.Background()
	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cart.ID, 1, 3)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cart.ID, 2, 1)
	require.NoError(t, err)

	catalog.mu.Lock()
	catalog.products[1].Quantity = 2
	catalog.mu.Unlock()

	report, err := svc.CheckInventory(ctx, cart.ID)
	require.NoError(t, err)
	assert.False(t, report.AllAvailable)
	require.Len(t, report.OutOfStock, 1)
	assert.Equal(t, int64(1), report.OutOfStock[0].ProductID)
	assert.Equal(t, 3, report.OutOfStock[0].Requested)
	assert.Equal(t, 2, report.OutOfStock[0].Available)
}

func TestGetCart_TracksLivePrices(t *testing.T) {
	svc, catalog := newTestService(product(1, 10000, 5, 0.5, false), product(2, 10000, 5, 0.5, false))
	ctx := context.Background()
	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cart.ID, 1, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cart.ID, 2, 1)
	require.NoError(t, err)

	catalog.setPrice(1, 15000)
	catalog.remove(2)

	cart, err = svc.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	require.NotNil(t, cart.Items[0].Product)
	assert.True(t, decimal.NewFromInt(15000).Equal(cart.Items[0].Product.Price))
	assert.Nil(t, cart.Items[1].Product)
}

func TestCalculate(t *testing.T) {
	svc, _ := newTestService(product(1, 60000, 5, 1, false), product(2, 50000, 5, 2, true))
	ctx := context.Background()

	totals, err := svc.Calculate(ctx, ports.QuoteRequest{
		Items:    []ports.QuoteItem{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 1}},
		Province: "Hà Nội",
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(110000).Equal(totals.Subtotal))
	assert.True(t, totals.DeliveryFee.IsZero())
	assert.True(t, decimal.NewFromInt(121000).Equal(totals.Total))

	_, err = svc.Calculate(ctx, ports.QuoteRequest{Items: []ports.QuoteItem{{ProductID: 9, Quantity: 1}}})
	require.ErrorIs(t, err, ports.ErrProductNotFound)

	_, err = svc.Calculate(ctx, ports.QuoteRequest{Items: []ports.QuoteItem{{ProductID: 1, Quantity: 0}}})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCalculateRush_SkipsUnknownProducts(t *testing.T) {
	svc, _ := newTestService(product(2, 50000, 5, 2, true))

	totals, err := svc.CalculateRush(context.Background(), ports.QuoteRequest{
		Items:    []ports.QuoteItem{{ProductID: 2, Quantity: 1}, {ProductID: 9, Quantity: 1}},
		Province: "Hanoi",
		Rush:     true,
	})
	require.NoError(t, err)
	require.Len(t, totals.Items, 1)
	assert.True(t, decimal.NewFromInt(60000).Equal(totals.RushSubtotal))
	assert.True(t, decimal.NewFromInt(22000).Equal(totals.RushDeliveryFee))
}

func TestSnapshot_IsIndependentOfLiveCart(t *testing.T) {
	svc, _ := newTestService(product(1, 10000, 5, 0.5, false))
	ctx := context.Background()

	snapshot, err := svc.Snapshot(ctx, []ports.QuoteItem{{ProductID: 1, Quantity: 2}, {ProductID: 7, Quantity: 1}})
	require.NoError(t, err)
	require.Len(t, snapshot.Items, 1)
	require.NotNil(t, snapshot.Items[0].Product)
	assert.True(t, decimal.NewFromInt(20000).Equal(snapshot.TotalBeforeVAT))

	live, err := svc.CreateCart(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, snapshot.ID, live.ID)
}
