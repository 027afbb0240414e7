package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/aims-commerce/internal/domains/payments/domain"
)

// Transaction is the wire form of a payment transaction.
type Transaction struct {
	TransactionID     int64             `json:"transactionId"`
	Gateway           string            `json:"gateway"`
	TransactionNo     string            `json:"transactionNo,omitempty"`
	Amount            float64           `json:"amount"`
	TransactionStatus string            `json:"transactionStatus,omitempty"`
	PayDate           *time.Time        `json:"payDate,omitempty"`
	Info              string            `json:"info,omitempty"`
	ErrorMessage      string            `json:"errorMessage,omitempty"`
	AdditionalParams  map[string]string `json:"additionalParams,omitempty"`
}

func FromDomainTransaction(tx *domain.Transaction) Transaction {
	if tx == nil {
		return Transaction{}
	}
	return Transaction{
		TransactionID:     tx.ID,
		Gateway:           tx.Gateway,
		TransactionNo:     tx.TransactionNo,
		Amount:            tx.Amount.InexactFloat64(),
		TransactionStatus: tx.Status,
		PayDate:           tx.PayDate,
		Info:              tx.Info,
		ErrorMessage:      tx.ErrorMessage,
		AdditionalParams:  tx.Params,
	}
}

func FromDomainTransactions(txs []*domain.Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, FromDomainTransaction(tx))
	}
	return out
}

func ToDomainTransaction(dto Transaction) *domain.Transaction {
	return &domain.Transaction{
		ID:            dto.TransactionID,
		Gateway:       dto.Gateway,
		TransactionNo: dto.TransactionNo,
		Amount:        decimal.NewFromFloat(dto.Amount),
		Status:        dto.TransactionStatus,
		PayDate:       dto.PayDate,
		Info:          dto.Info,
		ErrorMessage:  dto.ErrorMessage,
		Params:        dto.AdditionalParams,
	}
}
