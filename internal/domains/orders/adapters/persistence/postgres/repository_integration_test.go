//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
	"github.com/Apurer/aims-commerce/internal/domains/orders/ports"
	"github.com/Apurer/aims-commerce/internal/platform/migrations"
)

func setupOrdersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("aims_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func newOrder(t *testing.T, ref int64, status domain.Status) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(ref, ref, ref, status, nil, time.Now())
	require.NoError(t, err)
	return order
}

func TestOrderRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Save and Get", func(t *testing.T) {
		order := newOrder(t, 101, domain.StatusPending)
		order.Rush = &domain.RushDetails{DeliveryTime: time.Now().Add(time.Hour).UTC().Truncate(time.Second), Instruction: "Call first"}

		saved, err := repo.Save(ctx, order)
		require.NoError(t, err)
		require.NotZero(t, saved.ID)
		assert.False(t, saved.Metadata.CreatedAt.IsZero())

		got, err := repo.GetByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, got.Status)
		require.True(t, got.IsRush())
		assert.Equal(t, "Call first", got.Rush.Instruction)
		assert.True(t, order.Rush.DeliveryTime.Equal(got.Rush.DeliveryTime))
	})

	t.Run("Duplicate references are rejected", func(t *testing.T) {
		_, err := repo.Save(ctx, newOrder(t, 202, domain.StatusPending))
		require.NoError(t, err)

		_, err = repo.Save(ctx, newOrder(t, 202, domain.StatusPending))
		require.ErrorIs(t, err, ports.ErrDuplicateReference)
	})

	t.Run("Mutate persists transitions", func(t *testing.T) {
		saved, err := repo.Save(ctx, newOrder(t, 303, domain.StatusPending))
		require.NoError(t, err)

		updated, err := repo.Mutate(ctx, saved.ID, func(o *domain.Order) error {
			return o.Reject("Order automatically rejected due to insufficient stock: CD (requested: 2, available: 0)", time.Now())
		})
		require.NoError(t, err)
		assert.Len(t, updated.Events(), 1)

		got, err := repo.GetByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRejected, got.Status)
		assert.Contains(t, got.RejectionReason, "requested: 2")

		boom := errors.New("boom")
		_, err = repo.Mutate(ctx, saved.ID, func(o *domain.Order) error {
			o.Status = domain.StatusPending
			return boom
		})
		require.ErrorIs(t, err, boom)
		got, err = repo.GetByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRejected, got.Status)

		_, err = repo.Mutate(ctx, 999999, func(*domain.Order) error { return nil })
		require.ErrorIs(t, err, ports.ErrNotFound)
	})

	t.Run("ListByStatus", func(t *testing.T) {
		_, err := repo.Save(ctx, newOrder(t, 404, domain.StatusApproved))
		require.NoError(t, err)

		approved, err := repo.ListByStatus(ctx, domain.StatusApproved)
		require.NoError(t, err)
		require.Len(t, approved, 1)
		assert.Equal(t, int64(404), approved[0].TransactionID)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 4)
	})

	t.Run("Delete", func(t *testing.T) {
		saved, err := repo.Save(ctx, newOrder(t, 505, domain.StatusPending))
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, saved.ID))
		require.ErrorIs(t, repo.Delete(ctx, saved.ID), ports.ErrNotFound)
	})
}

func TestDeliveryAndInvoiceRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	deliveries := NewDeliveryInfoRepository(db)
	invoices := NewInvoiceRepository(db)
	ctx := context.Background()

	info, err := deliveries.Save(ctx, &domain.DeliveryInfo{
		RecipientName: gofakeit.Name(),
		Email:         gofakeit.Email(),
		Phone:         "0912345678",
		Address:       gofakeit.Street(),
		Province:      "Ha Noi",
		District:      "Ba Dinh",
	})
	require.NoError(t, err)
	info.Address = "2 Hang Khay"
	info, err = deliveries.Save(ctx, info)
	require.NoError(t, err)
	got, err := deliveries.GetByID(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, "2 Hang Khay", got.Address)

	invoice, err := invoices.Save(ctx, &domain.Invoice{
		CartID:         1,
		TotalBeforeVAT: decimal.RequireFromString("100000.50"),
		TotalAfterVAT:  decimal.RequireFromString("110000.55"),
		DeliveryFee:    decimal.NewFromInt(22000),
		TotalAmount:    decimal.RequireFromString("132000.55"),
	})
	require.NoError(t, err)
	stored, err := invoices.GetByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("132000.55")))

	require.NoError(t, invoices.Delete(ctx, invoice.ID))
	_, err = invoices.GetByID(ctx, invoice.ID)
	require.ErrorIs(t, err, ports.ErrInvoiceNotFound)
	require.NoError(t, deliveries.Delete(ctx, info.ID))
	require.ErrorIs(t, deliveries.Delete(ctx, info.ID), ports.ErrDeliveryInfoNotFound)
}

func TestIdempotencyStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	store := NewIdempotencyStore(db)
	ctx := context.Background()

	missing, err := store.Get(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, missing)

	claimed, ok, err := store.Claim(ctx, "k1", "h1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, claimed.Pending())

	held, ok, err := store.Claim(ctx, "k1", "h2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "h1", held.RequestHash)

	require.NoError(t, store.Complete(ctx, "k1", 1))
	require.NoError(t, store.Complete(ctx, "k1", 1))
	require.ErrorIs(t, store.Complete(ctx, "k1", 2), ports.ErrIdempotencyConflict)

	require.NoError(t, store.Release(ctx, "k1"))
	done, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, done)
	assert.Equal(t, int64(1), done.OrderID)

	_, ok, err = store.Claim(ctx, "k2", "h1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.Release(ctx, "k2"))
	_, ok, err = store.Claim(ctx, "k2", "h3")
	require.NoError(t, err)
	assert.True(t, ok)
}
