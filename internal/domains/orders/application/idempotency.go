package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/Apurer/aims-commerce/internal/domains/orders/ports"
)

type normalizedCheckout struct {
	Delivery      normalizedDelivery `json:"delivery"`
	Lines         []ports.CartLine   `json:"lines"`
	Totals        [4]string          `json:"totals"`
	TransactionID int64              `json:"transactionId"`
	Payment       *normalizedPayment `json:"payment"`
	Status        string             `json:"status"`
	RushTime      string             `json:"rushTime,omitempty"`
	RushNote      string             `json:"rushNote,omitempty"`
}

type normalizedDelivery struct {
	RecipientName string `json:"recipientName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Province      string `json:"province"`
	District      string `json:"district"`
}

type normalizedPayment struct {
	Gateway       string             `json:"gateway"`
	TransactionNo string             `json:"transactionNo"`
	Amount        string             `json:"amount"`
	Status        string             `json:"status"`
	PayDate       string             `json:"payDate,omitempty"`
	Params        []normalizedAttrKV `json:"params,omitempty"`
}

type normalizedAttrKV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FingerprintCheckout builds a deterministic hash of the checkout request (excluding the idempotency key).
func FingerprintCheckout(input ports.CheckoutInput) (string, error) {
	payload, err := json.Marshal(normalizeCheckout(input))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizeCheckout(input ports.CheckoutInput) normalizedCheckout {
	d := input.Delivery
	normalized := normalizedCheckout{
		Delivery: normalizedDelivery{
			RecipientName: d.RecipientName,
			Email:         d.Email,
			Phone:         d.Phone,
			Address:       d.Address,
			Province:      d.Province,
			District:      d.District,
		},
		Lines: append([]ports.CartLine{}, input.Invoice.Lines...),
		Totals: [4]string{
			input.Invoice.TotalBeforeVAT.String(),
			input.Invoice.TotalAfterVAT.String(),
			input.Invoice.DeliveryFee.String(),
			input.Invoice.TotalAmount.String(),
		},
		TransactionID: input.TransactionID,
		Payment:       normalizePayment(input.Payment),
		Status:        input.Status,
	}
	if input.Rush != nil {
		normalized.RushTime = input.Rush.DeliveryTime.UTC().Format(time.RFC3339)
		normalized.RushNote = input.Rush.Instruction
	}
	return normalized
}

func normalizePayment(p *ports.PaymentRecord) *normalizedPayment {
	if p == nil {
		return nil
	}
	normalized := &normalizedPayment{
		Gateway:       p.Gateway,
		TransactionNo: p.TransactionNo,
		Amount:        p.Amount.String(),
		Status:        p.Status,
	}
	if p.PayDate != nil {
		normalized.PayDate = p.PayDate.UTC().Format(time.RFC3339)
	}
	for k, v := range p.Params {
		normalized.Params = append(normalized.Params, normalizedAttrKV{Key: k, Value: v})
	}
	sort.Slice(normalized.Params, func(i, j int) bool { return normalized.Params[i].Key < normalized.Params[j].Key })
	return normalized
}
