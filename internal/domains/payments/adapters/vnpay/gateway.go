// Package vnpay implements the VNPay redirect payment gateway.
package vnpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/aims-commerce/internal/domains/payments/domain"
	"github.com/Apurer/aims-commerce/internal/domains/payments/ports"
)

// Name is the registry key of the gateway.
const Name = "VNPAY"

const (
	dateLayout      = "20060102150405"
	orderInfoLayout = "2006-01-02 15:04:05"
	expireAfter     = 15 * time.Minute
	successCode     = "00"
	signatureCode   = "97"
)

// Config holds merchant credentials and request defaults.
type Config struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
	Version    string
	CurrCode   string
	Locale     string
	OrderType  string
}

func (c Config) withDefaults() Config {
	if c.Version == "" {
		c.Version = "2.1.0"
	}
	if c.CurrCode == "" {
		c.CurrCode = "VND"
	}
	if c.Locale == "" {
		c.Locale = "vn"
	}
	if c.OrderType == "" {
		c.OrderType = "other"
	}
	if c.PayURL == "" {
		c.PayURL = "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"
	}
	return c
}

var _ ports.Gateway = (*Gateway)(nil)

// Gateway signs payment redirects and parses VNPay return parameters.
type Gateway struct {
	cfg      Config
	now      func() time.Time
	location *time.Location
	logger   *slog.Logger
}

type Option func(*Gateway)

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func New(cfg Config, opts ...Option) *Gateway {
	g := &Gateway{
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		location: vietnam(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

func (g *Gateway) Name() string { return Name }

// PaymentURL builds the signed redirect URL for an order.
func (g *Gateway) PaymentURL(_ context.Context, req ports.PaymentRequest) (string, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return "", fmt.Errorf("%w: order id is required", domain.ErrInvalidTransaction)
	}
	if !req.Amount.IsPositive() {
		return "", fmt.Errorf("%w: amount must be positive", domain.ErrInvalidTransaction)
	}
	now := g.now().In(g.location)
	info := req.Info
	if strings.TrimSpace(info) == "" {
		info = fmt.Sprintf("Thanh toan hoa don %s thoi gian %s", req.OrderID, now.Format(orderInfoLayout))
	}
	locale := req.Locale
	if locale == "" {
		locale = g.cfg.Locale
	}
	params := map[string]string{
		"vnp_Version":    g.cfg.Version,
		"vnp_Command":    "pay",
		"vnp_TmnCode":    g.cfg.TmnCode,
		"vnp_Amount":     req.Amount.Shift(2).Round(0).String(),
		"vnp_BankCode":   req.BankCode,
		"vnp_CreateDate": now.Format(dateLayout),
		"vnp_CurrCode":   g.cfg.CurrCode,
		"vnp_IpAddr":     req.IPAddr,
		"vnp_Locale":     locale,
		"vnp_OrderInfo":  info,
		"vnp_OrderType":  g.cfg.OrderType,
		"vnp_ReturnUrl":  g.cfg.ReturnURL,
		"vnp_ExpireDate": now.Add(expireAfter).Format(dateLayout),
		"vnp_TxnRef":     req.OrderID,
	}
	hashData, query := encode(params)
	return g.cfg.PayURL + "?" + query + "&vnp_SecureHash=" + sign(g.cfg.HashSecret, hashData), nil
}

// ParseCallback maps the return parameters onto a transaction. A non-success response code
// yields a *domain.PaymentError carrying the localized message.
func (g *Gateway) ParseCallback(ctx context.Context, params map[string]string) (*domain.Transaction, error) {
	if g.cfg.HashSecret != "" {
		if err := g.verify(params); err != nil {
			return nil, err
		}
	}
	code, ok := params["vnp_ResponseCode"]
	if ok && code != successCode {
		return nil, &domain.PaymentError{Code: code, Message: ResponseMessage(code)}
	}
	tx := &domain.Transaction{Gateway: Name, Params: map[string]string{}}
	if ok {
		tx.Status = domain.StatusPending
	}
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := params[key]
		switch key {
		case "vnp_Amount":
			amount, err := decimal.NewFromString(value)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid vnp_Amount %q", domain.ErrInvalidTransaction, value)
			}
			tx.Amount = amount.Shift(-2)
		case "vnp_BankCode", "vnp_BankTranNo", "vnp_CardType":
			tx.Params[key] = value
		case "vnp_OrderInfo":
			tx.Params[key] = value
			tx.Info = value
		case "vnp_PayDate":
			payDate, err := time.ParseInLocation(dateLayout, value, g.location)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid vnp_PayDate %q", domain.ErrInvalidTransaction, value)
			}
			tx.PayDate = &payDate
		case "vnp_TransactionNo":
			tx.TransactionNo = value
		case "vnp_ResponseCode", "vnp_TransactionStatus", "vnp_TmnCode", "vnp_TxnRef", "vnp_SecureHash", "vnp_SecureHashType":
		default:
			g.logger.LogAttrs(ctx, slog.LevelWarn, "unrecognized payment callback param", slog.String("param", key))
		}
	}
	return tx, nil
}

var errSignature = errors.New("invalid callback signature")

func (g *Gateway) verify(params map[string]string) error {
	got := params["vnp_SecureHash"]
	signed := make(map[string]string, len(params))
	for key, value := range params {
		if strings.HasPrefix(key, "vnp_") && key != "vnp_SecureHash" && key != "vnp_SecureHashType" {
			signed[key] = value
		}
	}
	hashData, _ := encode(signed)
	want := sign(g.cfg.HashSecret, hashData)
	if got == "" || !hmac.Equal([]byte(strings.ToLower(got)), []byte(want)) {
		return &domain.PaymentError{Code: signatureCode, Message: errSignature.Error()}
	}
	return nil
}

// encode sorts keys, skips empty values and returns the hash input and the query string.
func encode(params map[string]string) (hashData, query string) {
	keys := make([]string, 0, len(params))
	for key, value := range params {
		if value != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	hashParts := make([]string, 0, len(keys))
	queryParts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := url.QueryEscape(params[key])
		hashParts = append(hashParts, key+"="+value)
		queryParts = append(queryParts, url.QueryEscape(key)+"="+value)
	}
	return strings.Join(hashParts, "&"), strings.Join(queryParts, "&")
}

func sign(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func vietnam() *time.Location {
	if loc, err := time.LoadLocation("Asia/Ho_Chi_Minh"); err == nil {
		return loc
	}
	return time.FixedZone("ICT", 7*60*60)
}
