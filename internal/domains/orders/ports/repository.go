package ports

import (
	"context"
	"errors"

	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
)

var (
	ErrNotFound             = errors.New("order not found")
	ErrDeliveryInfoNotFound = errors.New("delivery info not found")
	ErrInvoiceNotFound      = errors.New("invoice not found")
	// ErrDuplicateReference signals a transaction, invoice or delivery info already bound to another order.
	ErrDuplicateReference = errors.New("reference already used by another order")
)

// MutateFunc edits an order in place. Returning an error discards the edit.
type MutateFunc func(order *domain.Order) error

// Repository persists orders.
type Repository interface {
	Save(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error)
	// Mutate loads the order, applies fn and stores the result atomically.
	Mutate(ctx context.Context, id int64, fn MutateFunc) (*domain.Order, error)
}

// DeliveryInfoRepository persists delivery addresses.
type DeliveryInfoRepository interface {
	Save(ctx context.Context, info *domain.DeliveryInfo) (*domain.DeliveryInfo, error)
	GetByID(ctx context.Context, id int64) (*domain.DeliveryInfo, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.DeliveryInfo, error)
}

// InvoiceRepository persists invoices.
type InvoiceRepository interface {
	Save(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error)
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Invoice, error)
}
