package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Apurer/aims-commerce/internal/shared/projection"
)

var ErrInvalidInvoice = errors.New("invalid invoice")

// Invoice freezes the amounts charged for a cart snapshot.
type Invoice struct {
	ID             int64
	CartID         int64
	TotalBeforeVAT decimal.Decimal
	TotalAfterVAT  decimal.Decimal
	DeliveryFee    decimal.Decimal
	TotalAmount    decimal.Decimal
	Metadata       projection.Metadata
}

func (i *Invoice) Validate() error {
	if i == nil {
		return fmt.Errorf("%w: invoice is nil", ErrInvalidInvoice)
	}
	if i.CartID <= 0 {
		return fmt.Errorf("%w: cart snapshot is required", ErrInvalidInvoice)
	}
	amounts := []struct {
		name  string
		value decimal.Decimal
	}{
		{"total before VAT", i.TotalBeforeVAT},
		{"total after VAT", i.TotalAfterVAT},
		{"delivery fee", i.DeliveryFee},
		{"total amount", i.TotalAmount},
	}
	for _, amount := range amounts {
		if amount.value.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidInvoice, amount.name)
		}
	}
	return nil
}

func (i *Invoice) Clone() *Invoice {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}
