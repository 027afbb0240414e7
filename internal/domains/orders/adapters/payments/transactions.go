package payments

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
	"github.com/Apurer/aims-commerce/internal/domains/orders/ports"
	paymentsdomain "github.com/Apurer/aims-commerce/internal/domains/payments/domain"
	paymentsports "github.com/Apurer/aims-commerce/internal/domains/payments/ports"
)

var _ ports.Transactions = (*Transactions)(nil)

// Transactions verifies and records payments through the payments context.
type Transactions struct {
	payments paymentsports.Service
}

func NewTransactions(payments paymentsports.Service) *Transactions {
	return &Transactions{payments: payments}
}

func (t *Transactions) Exists(ctx context.Context, id int64) error {
	if _, err := t.payments.GetTransaction(ctx, id); err != nil {
		if errors.Is(err, paymentsports.ErrNotFound) {
			return fmt.Errorf("%w: %d", ports.ErrTransactionNotFound, id)
		}
		return err
	}
	return nil
}

func (t *Transactions) Record(ctx context.Context, payment ports.PaymentRecord) (int64, error) {
	tx, err := t.payments.RecordTransaction(ctx, &paymentsdomain.Transaction{
		Gateway:       payment.Gateway,
		TransactionNo: payment.TransactionNo,
		Amount:        payment.Amount,
		Status:        payment.Status,
		PayDate:       payment.PayDate,
		ErrorMessage:  payment.ErrorMessage,
		Params:        maps.Clone(payment.Params),
	})
	if err != nil {
		if errors.Is(err, paymentsdomain.ErrInvalidTransaction) {
			return 0, fmt.Errorf("%w: %w", domain.ErrInvalidReference, err)
		}
		return 0, err
	}
	return tx.ID, nil
}
