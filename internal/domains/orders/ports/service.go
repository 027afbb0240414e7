package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
)

// CreateOrderInput links previously stored records into an order.
type CreateOrderInput struct {
	TransactionID  int64
	InvoiceID      int64
	DeliveryInfoID int64
	Status         string
	Rush           *domain.RushDetails
}

// InvoiceInput describes the cart to snapshot and the totals the client was quoted.
type InvoiceInput struct {
	Lines          []CartLine
	TotalBeforeVAT decimal.Decimal
	TotalAfterVAT  decimal.Decimal
	DeliveryFee    decimal.Decimal
	TotalAmount    decimal.Decimal
}

// CheckoutInput places an order in one call. TransactionID reuses a transaction recorded by the
// payment callback; otherwise Payment is recorded first.
type CheckoutInput struct {
	IdempotencyKey string
	Delivery       domain.DeliveryInfo
	Invoice        InvoiceInput
	TransactionID  int64
	Payment        *PaymentRecord
	Status         string
	Rush           *domain.RushDetails
}

// Service exposes order, invoice and delivery info use cases to adapters.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	ListRushOrders(ctx context.Context) ([]*domain.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error)
	UpdateRushDetails(ctx context.Context, id int64, rush domain.RushDetails) (*domain.Order, error)

	PendingOrderIDs(ctx context.Context) ([]int64, error)
	RejectIfUnderstocked(ctx context.Context, id int64) (bool, error)
	RejectUnderstocked(ctx context.Context) ([]int64, error)

	Checkout(ctx context.Context, input CheckoutInput) (*domain.Order, error)
	CheckRushEligibility(ctx context.Context, delivery domain.DeliveryInfo, productIDs []int64) error

	SaveDeliveryInfo(ctx context.Context, info *domain.DeliveryInfo) (*domain.DeliveryInfo, error)
	GetDeliveryInfo(ctx context.Context, id int64) (*domain.DeliveryInfo, error)
	ListDeliveryInfos(ctx context.Context) ([]*domain.DeliveryInfo, error)
	DeleteDeliveryInfo(ctx context.Context, id int64) error

	CreateInvoice(ctx context.Context, input InvoiceInput) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error)
	ListInvoices(ctx context.Context) ([]*domain.Invoice, error)
	DeleteInvoice(ctx context.Context, id int64) error
}
