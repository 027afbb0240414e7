package domain

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/aims-commerce/internal/shared/projection"
)

// StatusPending marks a transaction the gateway accepted but the shop has not settled yet.
const StatusPending = "PENDING"

var ErrInvalidTransaction = errors.New("invalid transaction")

// Transaction is a payment reported back by a gateway.
type Transaction struct {
	ID            int64
	Gateway       string
	TransactionNo string
	Amount        decimal.Decimal
	Status        string
	PayDate       *time.Time
	Info          string
	ErrorMessage  string
	Params        map[string]string
	Metadata      projection.Metadata
}

func (t *Transaction) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: transaction is nil", ErrInvalidTransaction)
	}
	if strings.TrimSpace(t.Gateway) == "" {
		return fmt.Errorf("%w: gateway is required", ErrInvalidTransaction)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidTransaction)
	}
	return nil
}

func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	clone := *t
	if t.PayDate != nil {
		payDate := *t.PayDate
		clone.PayDate = &payDate
	}
	clone.Params = maps.Clone(t.Params)
	return &clone
}
