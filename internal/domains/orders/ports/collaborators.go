package ports

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrCartNotFound        = errors.New("cart not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// CartLine is one product quantity of an invoiced cart.
type CartLine struct {
	ProductID int64
	Quantity  int
}

// CartReader creates immutable cart snapshots and reads their lines back.
type CartReader interface {
	Snapshot(ctx context.Context, lines []CartLine) (cartID int64, err error)
	Lines(ctx context.Context, cartID int64) ([]CartLine, error)
}

// StockLevel is the live catalog view of a product.
type StockLevel struct {
	ProductID    int64
	Title        string
	Available    int
	RushEligible bool
}

// StockReader resolves live product stock.
type StockReader interface {
	Stock(ctx context.Context, productID int64) (*StockLevel, error)
}

// PaymentRecord is the payment data captured at checkout.
type PaymentRecord struct {
	Gateway       string
	TransactionNo string
	Amount        decimal.Decimal
	Status        string
	PayDate       *time.Time
	ErrorMessage  string
	Params        map[string]string
}

// Transactions verifies and records payment transactions owned by the payments context.
type Transactions interface {
	Exists(ctx context.Context, id int64) error
	Record(ctx context.Context, payment PaymentRecord) (int64, error)
}

// EventPublisher delivers order events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
}
