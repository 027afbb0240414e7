package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogmemory "github.com/Apurer/aims-commerce/internal/domains/catalog/adapters/memory"
	"github.com/Apurer/aims-commerce/internal/domains/catalog/domain"
	"github.com/Apurer/aims-commerce/internal/domains/catalog/ports"
)

var fixedNow = time.Date(2025, time.April, 2, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc  *Service
	repo *catalogmemory.ProductRepository
	ops  *catalogmemory.OperationRepository
}

func newFixture(opts ...Option) fixture {
	repo := catalogmemory.NewProductRepository()
	repo.WithClock(func() time.Time { return fixedNow })
	ops := catalogmemory.NewOperationRepository()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return fixture{
		svc:  NewService(repo, ops, catalogmemory.NewOperationLock(), opts...),
		repo: repo,
		ops:  ops,
	}
}

func sampleCD(barcode string) *domain.Product {
	release := time.Date(2001, time.May, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Product{
		Kind:               domain.KindCD,
		Title:              "Album " + barcode,
		Category:           "music",
		Barcode:            barcode,
		ImageURL:           "https://img/" + barcode,
		Dimensions:         "12x12",
		Value:              decimal.NewFromInt(100000),
		CurrentPrice:       decimal.NewFromInt(90000),
		Weight:             0.2,
		Quantity:           4,
		WarehouseEntryDate: fixedNow,
		Disc: &domain.Disc{
			Artist:      "Artist",
			Album:       "Album",
			RecordLabel: "Label",
			ReleaseDate: &release,
		},
	}
}

func (f fixture) seed(t *testing.T, n int) []*domain.Product {
	t.Helper()
	out := make([]*domain.Product, 0, n)
	for i := 0; i < n; i++ {
		p, err := f.svc.AddProduct(context.Background(), sampleCD(fmt.Sprintf("bc-%d", i)))
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func withPrice(p *domain.Product, price int64) *domain.Product {
	clone := p.Clone()
	clone.CurrentPrice = decimal.NewFromInt(price)
	return clone
}

func TestAddProduct_LogsOperation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	saved, err := f.svc.AddProduct(ctx, sampleCD("A1"))
	require.NoError(t, err)
	require.NotZero(t, saved.ID)
	assert.Equal(t, fixedNow, saved.Metadata.CreatedAt)

	ops, err := f.svc.Operations(ctx, ports.OperationFilter{ProductID: &saved.ID})
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, domain.OperationAdd, ops[0].Type)
}

func TestAddProduct_InvalidInput(t *testing.T) {
	f := newFixture()
	invalid := sampleCD("A1")
	invalid.Disc = nil

	_, err := f.svc.AddProduct(context.Background(), invalid)
	require.ErrorIs(t, err, ErrInvalidInput)

	count, err := f.ops.Count(context.Background(), ports.OperationFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAddProduct_DuplicateBarcodeConflicts(t *testing.T) {
	f := newFixture()
	_, err := f.svc.AddProduct(context.Background(), sampleCD("dup"))
	require.NoError(t, err)

	_, err = f.svc.AddProduct(context.Background(), sampleCD("dup"))
	require.ErrorIs(t, err, ErrConflict)
}

type heldLock struct{}

func (heldLock) TryAcquire(context.Context, domain.OperationType) (func(), error) {
	return nil, ports.ErrLockHeld
}

func TestAddProduct_LockHeldFailsFast(t *testing.T) {
	svc := NewService(catalogmemory.NewProductRepository(), catalogmemory.NewOperationRepository(), heldLock{})

	_, err := svc.AddProduct(context.Background(), sampleCD("A1"))
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, ports.ErrLockHeld)
	assert.Contains(t, err.Error(), "Another add product operation is in progress")
}

func TestUpdateProduct_PriceChangesLimitedToTwoPerDay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	product := f.seed(t, 1)[0]

	_, err := f.svc.UpdateProduct(ctx, product.ID, withPrice(product, 95000))
	require.NoError(t, err)
	_, err = f.svc.UpdateProduct(ctx, product.ID, withPrice(product, 100000))
	require.NoError(t, err)

	_, err = f.svc.UpdateProduct(ctx, product.ID, withPrice(product, 110000))
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrPriceUpdateLimit)

	stored, err := f.svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100000).Equal(stored.CurrentPrice))
}

func TestUpdateProduct_PriceOutsideBand(t *testing.T) {
	f := newFixture()
	product := f.seed(t, 1)[0]

	_, err := f.svc.UpdateProduct(context.Background(), product.ID, withPrice(product, 20000))
	require.ErrorIs(t, err, domain.ErrPriceOutOfRange)
}

func TestUpdateProduct_NonPriceUpdatesIgnorePriceLimit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	product := f.seed(t, 1)[0]

	for i := 0; i < 3; i++ {
		update := product.Clone()
		update.Title = fmt.Sprintf("Renamed %d", i)
		_, err := f.svc.UpdateProduct(ctx, product.ID, update)
		require.NoError(t, err)
	}
}

func TestUpdateProduct_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.UpdateProduct(context.Background(), 99, sampleCD("x"))
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestDeleteProduct_GlobalDailyLimit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	product := f.seed(t, 1)[0]

	for i := 0; i < domain.MaxDailyUpdatesDeletes; i++ {
		_, err := f.ops.Append(ctx, &domain.Operation{ProductID: int64(1000 + i), Type: domain.OperationUpdate, Timestamp: fixedNow})
		require.NoError(t, err)
	}

	err := f.svc.DeleteProduct(ctx, product.ID)
	require.ErrorIs(t, err, domain.ErrDailyLimitExceeded)
	assert.Contains(t, err.Error(), "cannot perform more than 30 update/delete operations per day")
}

func TestDeleteProduct_YesterdayDoesNotCount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	product := f.seed(t, 1)[0]

	for i := 0; i < domain.MaxDailyUpdatesDeletes; i++ {
		_, err := f.ops.Append(ctx, &domain.Operation{ProductID: product.ID, Type: domain.OperationDelete, Timestamp: fixedNow.AddDate(0, 0, -1)})
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.DeleteProduct(ctx, product.ID))

	stored, err := f.svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, stored.Deleted)
	require.NotNil(t, stored.DeletedAt)

	list, err := f.svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBulkDeleteProducts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	products := f.seed(t, 3)

	deleted, err := f.svc.BulkDeleteProducts(ctx, []int64{products[0].ID, products[1].ID, products[0].ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{products[0].ID, products[1].ID}, deleted)

	tooMany := make([]int64, domain.MaxBulkDelete+1)
	for i := range tooMany {
		tooMany[i] = int64(i + 1)
	}
	_, err = f.svc.BulkDeleteProducts(ctx, tooMany)
	require.ErrorIs(t, err, domain.ErrBulkLimitExceeded)

	_, err = f.svc.BulkDeleteProducts(ctx, []int64{products[2].ID, 404})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestHardDeleteProduct(t *testing.T) {
	f := newFixture()
	product := f.seed(t, 1)[0]

	require.NoError(t, f.svc.HardDeleteProduct(context.Background(), product.ID))
	_, err := f.svc.GetProduct(context.Background(), product.ID)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSearchProducts_FiltersAndPaginates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seed(t, 5)

	page, err := f.svc.SearchProducts(ctx, ports.SearchFilter{Title: "ALBUM", SortBy: ports.SortByID, SortDesc: true, Page: 1, Size: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages())
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.Items[0].ID)

	_, err = f.svc.SearchProducts(ctx, ports.SearchFilter{SortBy: "weight"})
	require.ErrorIs(t, err, ErrInvalidInput)

	low, high := decimal.NewFromInt(10), decimal.NewFromInt(5)
	_, err = f.svc.SearchProducts(ctx, ports.SearchFilter{MinPrice: &low, MaxPrice: &high})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRandomPage_WrapsAround(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		f := newFixture(WithRandomSeed(func() int64 { return seed }))
		products := f.seed(t, 5)

		page, err := f.svc.RandomPage(context.Background(), 5)
		require.NoError(t, err)

		ids := make([]int64, 0, len(page))
		for _, p := range page {
			ids = append(ids, p.ID)
		}
		want := make([]int64, 0, len(products))
		for _, p := range products {
			want = append(want, p.ID)
		}
		assert.ElementsMatch(t, want, ids, "seed %d", seed)
	}
}

func TestRandomPage_Empty(t *testing.T) {
	f := newFixture()
	page, err := f.svc.RandomPage(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestRandomProducts_StableWithinMinuteAndClamped(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seed(t, 7)

	first, err := f.svc.RandomProducts(ctx, 0, 3)
	require.NoError(t, err)
	second, err := f.svc.RandomProducts(ctx, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, first.Items, second.Items)

	last, err := f.svc.RandomProducts(ctx, 99, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, last.Page)
	assert.Len(t, last.Items, 1)
}

func TestUpdateStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	product := f.seed(t, 1)[0]

	updated, err := f.svc.UpdateStock(ctx, product.ID, 6, domain.StockIncrease)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Quantity)

	_, err = f.svc.UpdateStock(ctx, product.ID, 11, domain.StockDecrease)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.svc.UpdateStock(ctx, product.ID, 1, "swap")
	require.ErrorIs(t, err, domain.ErrInvalidStockOperation)
}

func TestCheckInventory_ReportsShortages(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	products := f.seed(t, 2)

	shortages, err := f.svc.CheckInventory(ctx, []ports.StockLine{
		{ProductID: products[0].ID, Quantity: 2},
		{ProductID: products[1].ID, Quantity: 9},
	})
	require.NoError(t, err)
	require.Len(t, shortages, 1)
	assert.Equal(t, products[1].ID, shortages[0].ProductID)
	assert.Equal(t, 9, shortages[0].Requested)
	assert.Equal(t, 4, shortages[0].Available)
	assert.Equal(t, "Insufficient inventory. Only 4 available.", shortages[0].Message)

	_, err = f.svc.CheckInventory(ctx, []ports.StockLine{{ProductID: 404, Quantity: 1}})
	require.ErrorIs(t, err, ports.ErrNotFound)
}
