package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Apurer/aims-commerce/internal/domains/payments/domain"
)

var (
	ErrNotFound           = errors.New("transaction not found")
	ErrUnsupportedGateway = errors.New("unsupported gateway")
)

// PaymentRequest describes the payment a customer is redirected to the gateway for.
type PaymentRequest struct {
	OrderID  string
	Amount   decimal.Decimal
	IPAddr   string
	Info     string
	BankCode string
	Locale   string
}

// Gateway is one payment provider.
type Gateway interface {
	// Name is the registry key, upper-cased.
	Name() string
	PaymentURL(ctx context.Context, req PaymentRequest) (string, error)
	// ParseCallback turns the gateway return parameters into a transaction.
	// A declined payment returns a *domain.PaymentError.
	ParseCallback(ctx context.Context, params map[string]string) (*domain.Transaction, error)
}

// TransactionRepository persists transactions.
type TransactionRepository interface {
	Save(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Transaction, error)
}

// Service exposes payment use cases to adapters.
type Service interface {
	Gateways() []string
	CreatePaymentURL(ctx context.Context, gateway string, req PaymentRequest) (string, error)
	HandleCallback(ctx context.Context, gateway string, params map[string]string) (*domain.Transaction, error)
	RecordTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
	ListTransactions(ctx context.Context) ([]*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}
