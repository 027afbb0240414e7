package mapper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
	"github.com/Apurer/aims-commerce/internal/domains/orders/ports"
)

// DateTime accepts RFC 3339 timestamps and zone-less local timestamps, read in Vietnam time.
type DateTime struct {
	time.Time
}

var localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "20060102150405"}

var vietnam = func() *time.Location {
	if loc, err := time.LoadLocation("Asia/Ho_Chi_Minh"); err == nil {
		return loc
	}
	return time.FixedZone("ICT", 7*60*60)
}()

func ParseDateTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, vietnam); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date time %q", raw)
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		return nil
	}
	t, err := ParseDateTime(raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.RFC3339))
}

// DeliveryInfo is the wire form of a delivery address.
type DeliveryInfo struct {
	ID              int64  `json:"id,omitempty"`
	RecipientName   string `json:"recipientName"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phoneNumber"`
	DeliveryAddress string `json:"deliveryAddress"`
	Province        string `json:"province"`
	District        string `json:"district,omitempty"`
}

type CartLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type CartRequest struct {
	CartID                     int64      `json:"cartId,omitempty"`
	TotalProductPriceBeforeVAT float64    `json:"totalProductPriceBeforeVAT"`
	Items                      []CartLine `json:"items"`
}

type InvoiceRequest struct {
	Cart                       CartRequest `json:"cart"`
	TotalProductPriceBeforeVAT float64     `json:"totalProductPriceBeforeVAT"`
	TotalProductPriceAfterVAT  float64     `json:"totalProductPriceAfterVAT"`
	DeliveryFee                float64     `json:"deliveryFee"`
	TotalAmount                float64     `json:"totalAmount"`
}

type Invoice struct {
	ID                         int64     `json:"id"`
	CartID                     int64     `json:"cartId"`
	TotalProductPriceBeforeVAT float64   `json:"totalProductPriceBeforeVAT"`
	TotalProductPriceAfterVAT  float64   `json:"totalProductPriceAfterVAT"`
	DeliveryFee                float64   `json:"deliveryFee"`
	TotalAmount                float64   `json:"totalAmount"`
	CreatedAt                  time.Time `json:"createdAt"`
}

// TransactionRequest is the payment captured by the storefront. TransactionID is the gateway's number.
type TransactionRequest struct {
	TransactionID string  `json:"transactionId"`
	Gateway       string  `json:"gateway,omitempty"`
	BankCode      string  `json:"bankCode,omitempty"`
	Amount        float64 `json:"amount"`
	CardType      string  `json:"cardType,omitempty"`
	PayDate       string  `json:"payDate,omitempty"`
	ErrorMessage  string  `json:"errorMessage,omitempty"`
}

type CheckoutRequest struct {
	DeliveryInfo    DeliveryInfo        `json:"deliveryInfo"`
	InvoiceData     InvoiceRequest      `json:"invoiceData"`
	TransactionData *TransactionRequest `json:"transactionData,omitempty"`
	// TransactionRef reuses a transaction stored by the payment callback.
	TransactionRef int64  `json:"transactionRef,omitempty"`
	Status         string `json:"status,omitempty"`
}

type RushCheckoutRequest struct {
	DeliveryInfo        DeliveryInfo        `json:"deliveryInfo"`
	InvoiceRequest      InvoiceRequest      `json:"invoiceRequest"`
	TransactionRequest  *TransactionRequest `json:"transactionRequest,omitempty"`
	TransactionRef      int64               `json:"transactionRef,omitempty"`
	Status              string              `json:"status,omitempty"`
	DeliveryTime        *DateTime           `json:"deliveryTime"`
	DeliveryInstruction string              `json:"deliveryInstruction"`
}

type OrderRequest struct {
	TransactionID       int64     `json:"transactionId"`
	InvoiceID           int64     `json:"invoiceId"`
	DeliveryID          int64     `json:"deliveryId"`
	Status              string    `json:"status"`
	DeliveryTime        *DateTime `json:"deliveryTime,omitempty"`
	DeliveryInstruction string    `json:"deliveryInstruction,omitempty"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

type RushDetailsRequest struct {
	DeliveryTime        *DateTime `json:"deliveryTime"`
	DeliveryInstruction string    `json:"deliveryInstruction"`
}

type EligibilityRequest struct {
	DeliveryInfo DeliveryInfo `json:"deliveryInfoDTO"`
	Cart         CartRequest  `json:"cartRequestDTO"`
}

type Order struct {
	ID                  int64      `json:"id"`
	TransactionID       int64      `json:"transactionId"`
	InvoiceID           int64      `json:"invoiceId"`
	DeliveryInfoID      int64      `json:"deliveryInfoId"`
	Status              string     `json:"status"`
	Rush                bool       `json:"rush"`
	DeliveryTime        *time.Time `json:"deliveryTime,omitempty"`
	DeliveryInstruction string     `json:"deliveryInstruction,omitempty"`
	RejectionReason     string     `json:"rejectionReason,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

type AutoRejectResponse struct {
	RejectedOrderIDs []int64 `json:"rejectedOrderIds"`
	Count            int     `json:"count"`
}

func FromDomainOrder(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	dto := Order{
		ID:              order.ID,
		TransactionID:   order.TransactionID,
		InvoiceID:       order.InvoiceID,
		DeliveryInfoID:  order.DeliveryInfoID,
		Status:          string(order.Status),
		Rush:            order.IsRush(),
		RejectionReason: order.RejectionReason,
		CreatedAt:       order.Metadata.CreatedAt,
		UpdatedAt:       order.Metadata.UpdatedAt,
	}
	if order.Rush != nil {
		deliveryTime := order.Rush.DeliveryTime
		dto.DeliveryTime = &deliveryTime
		dto.DeliveryInstruction = order.Rush.Instruction
	}
	return dto
}

func FromDomainOrders(orders []*domain.Order) []Order {
	return lo.Map(orders, func(o *domain.Order, _ int) Order { return FromDomainOrder(o) })
}

func FromDomainDeliveryInfo(info *domain.DeliveryInfo) DeliveryInfo {
	if info == nil {
		return DeliveryInfo{}
	}
	return DeliveryInfo{
		ID:              info.ID,
		RecipientName:   info.RecipientName,
		Email:           info.Email,
		PhoneNumber:     info.Phone,
		DeliveryAddress: info.Address,
		Province:        info.Province,
		District:        info.District,
	}
}

func FromDomainDeliveryInfos(infos []*domain.DeliveryInfo) []DeliveryInfo {
	return lo.Map(infos, func(i *domain.DeliveryInfo, _ int) DeliveryInfo { return FromDomainDeliveryInfo(i) })
}

func ToDomainDeliveryInfo(dto DeliveryInfo) domain.DeliveryInfo {
	return domain.DeliveryInfo{
		ID:            dto.ID,
		RecipientName: strings.TrimSpace(dto.RecipientName),
		Email:         strings.TrimSpace(dto.Email),
		Phone:         strings.TrimSpace(dto.PhoneNumber),
		Address:       strings.TrimSpace(dto.DeliveryAddress),
		Province:      strings.TrimSpace(dto.Province),
		District:      strings.TrimSpace(dto.District),
	}
}

func FromDomainInvoice(invoice *domain.Invoice) Invoice {
	if invoice == nil {
		return Invoice{}
	}
	return Invoice{
		ID:                         invoice.ID,
		CartID:                     invoice.CartID,
		TotalProductPriceBeforeVAT: invoice.TotalBeforeVAT.InexactFloat64(),
		TotalProductPriceAfterVAT:  invoice.TotalAfterVAT.InexactFloat64(),
		DeliveryFee:                invoice.DeliveryFee.InexactFloat64(),
		TotalAmount:                invoice.TotalAmount.InexactFloat64(),
		CreatedAt:                  invoice.Metadata.CreatedAt,
	}
}

func FromDomainInvoices(invoices []*domain.Invoice) []Invoice {
	return lo.Map(invoices, func(i *domain.Invoice, _ int) Invoice { return FromDomainInvoice(i) })
}

// ToInvoiceInput prefers the invoice level subtotal and falls back to the cart's.
func ToInvoiceInput(dto InvoiceRequest) ports.InvoiceInput {
	before := dto.TotalProductPriceBeforeVAT
	if before == 0 {
		before = dto.Cart.TotalProductPriceBeforeVAT
	}
	return ports.InvoiceInput{
		Lines:          ToCartLines(dto.Cart.Items),
		TotalBeforeVAT: decimal.NewFromFloat(before),
		TotalAfterVAT:  decimal.NewFromFloat(dto.TotalProductPriceAfterVAT),
		DeliveryFee:    decimal.NewFromFloat(dto.DeliveryFee),
		TotalAmount:    decimal.NewFromFloat(dto.TotalAmount),
	}
}

func ToCartLines(items []CartLine) []ports.CartLine {
	return lo.Map(items, func(item CartLine, _ int) ports.CartLine {
		return ports.CartLine{ProductID: item.ProductID, Quantity: item.Quantity}
	})
}

// ToPaymentRecord defaults the gateway to VNPAY and keeps bank and card details as params.
func ToPaymentRecord(dto *TransactionRequest) (*ports.PaymentRecord, error) {
	if dto == nil {
		return nil, nil
	}
	record := &ports.PaymentRecord{
		Gateway:       strings.ToUpper(lo.Ternary(strings.TrimSpace(dto.Gateway) == "", "VNPAY", dto.Gateway)),
		TransactionNo: dto.TransactionID,
		Amount:        decimal.NewFromFloat(dto.Amount),
		Status:        "PENDING",
		ErrorMessage:  dto.ErrorMessage,
		Params:        map[string]string{},
	}
	if dto.BankCode != "" {
		record.Params["bankCode"] = dto.BankCode
	}
	if dto.CardType != "" {
		record.Params["cardType"] = dto.CardType
	}
	if strings.TrimSpace(dto.PayDate) != "" {
		payDate, err := ParseDateTime(dto.PayDate)
		if err != nil {
			return nil, err
		}
		record.PayDate = &payDate
	}
	return record, nil
}

func ToCheckoutInput(dto CheckoutRequest, idempotencyKey string) (ports.CheckoutInput, error) {
	payment, err := ToPaymentRecord(dto.TransactionData)
	if err != nil {
		return ports.CheckoutInput{}, err
	}
	return ports.CheckoutInput{
		IdempotencyKey: idempotencyKey,
		Delivery:       ToDomainDeliveryInfo(dto.DeliveryInfo),
		Invoice:        ToInvoiceInput(dto.InvoiceData),
		TransactionID:  dto.TransactionRef,
		Payment:        payment,
		Status:         dto.Status,
	}, nil
}

// ToRushCheckoutInput always yields rush details; an absent delivery time fails validation downstream.
func ToRushCheckoutInput(dto RushCheckoutRequest, idempotencyKey string) (ports.CheckoutInput, error) {
	payment, err := ToPaymentRecord(dto.TransactionRequest)
	if err != nil {
		return ports.CheckoutInput{}, err
	}
	return ports.CheckoutInput{
		IdempotencyKey: idempotencyKey,
		Delivery:       ToDomainDeliveryInfo(dto.DeliveryInfo),
		Invoice:        ToInvoiceInput(dto.InvoiceRequest),
		TransactionID:  dto.TransactionRef,
		Payment:        payment,
		Status:         dto.Status,
		Rush:           toRushDetails(dto.DeliveryTime, dto.DeliveryInstruction),
	}, nil
}

func ToCreateOrderInput(dto OrderRequest) ports.CreateOrderInput {
	input := ports.CreateOrderInput{
		TransactionID:  dto.TransactionID,
		InvoiceID:      dto.InvoiceID,
		DeliveryInfoID: dto.DeliveryID,
		Status:         dto.Status,
	}
	if dto.DeliveryTime != nil || dto.DeliveryInstruction != "" {
		input.Rush = toRushDetails(dto.DeliveryTime, dto.DeliveryInstruction)
	}
	return input
}

func ToRushDetails(dto RushDetailsRequest) domain.RushDetails {
	return *toRushDetails(dto.DeliveryTime, dto.DeliveryInstruction)
}

func toRushDetails(deliveryTime *DateTime, instruction string) *domain.RushDetails {
	rush := &domain.RushDetails{Instruction: strings.TrimSpace(instruction)}
	if deliveryTime != nil {
		rush.DeliveryTime = deliveryTime.Time
	}
	return rush
}
