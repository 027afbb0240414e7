package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	paymentshttpmapper "github.com/Apurer/aims-commerce/internal/domains/payments/adapters/http/mapper"
	paymentsdomain "github.com/Apurer/aims-commerce/internal/domains/payments/domain"
	paymentsports "github.com/Apurer/aims-commerce/internal/domains/payments/ports"
	"github.com/Apurer/aims-commerce/internal/platform/metrics"
)

// declinedTransactionID is what the storefront receives when the gateway declined the payment.
const declinedTransactionID = "-1"

const unknownGatewayLabel = "unknown"

// PaymentAPI wires gateway redirects and transaction bookkeeping to HTTP.
type PaymentAPI struct {
	service    paymentsports.Service
	confirmURL string
}

// NewPaymentAPI creates a PaymentAPI. confirmURL is the storefront page the gateway result redirects to.
func NewPaymentAPI(service paymentsports.Service, confirmURL string) PaymentAPI {
	return PaymentAPI{service: service, confirmURL: confirmURL}
}

// Get /api/payments
// List the registered payment gateways
func (api *PaymentAPI) ListGateways(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"gateways": api.service.Gateways()})
}

// Get /api/payments/:gateway/pay
// Redirect the customer to the gateway payment page
func (api *PaymentAPI) Pay(c *gin.Context) {
	var amount, orderID, orderInfo, bankCode, language string
	if !bindQuery(c, "amount", &amount) ||
		!bindQuery(c, "orderId", &orderID) ||
		!bindQuery(c, "orderInfo", &orderInfo) ||
		!bindQuery(c, "bankCode", &bankCode) ||
		!bindQuery(c, "language", &language) {
		return
	}
	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("invalid format for parameter amount: %w", err))
		return
	}
	request := paymentsports.PaymentRequest{
		OrderID:  orderID,
		Amount:   value,
		IPAddr:   c.ClientIP(),
		Info:     orderInfo,
		BankCode: bankCode,
		Locale:   language,
	}
	paymentURL, err := api.service.CreatePaymentURL(c.Request.Context(), c.Param("gateway"), request)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Redirect(http.StatusFound, paymentURL)
}

// Get /api/payments/:gateway/result
// Gateway return URL: records the transaction and redirects to the checkout confirmation page
func (api *PaymentAPI) PaymentResult(c *gin.Context) {
	gateway := strings.ToUpper(strings.TrimSpace(c.Param("gateway")))
	params := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	tx, err := api.service.HandleCallback(c.Request.Context(), gateway, params)
	label := api.gatewayLabel(gateway)
	var declined *paymentsdomain.PaymentError
	switch {
	case errors.As(err, &declined):
		metrics.PaymentCallbacksTotal.WithLabelValues(label, "declined").Inc()
		c.Redirect(http.StatusFound, api.confirmationURL(declinedTransactionID))
	case err != nil:
		metrics.PaymentCallbacksTotal.WithLabelValues(label, "error").Inc()
		respondServiceError(c, err)
	default:
		metrics.PaymentCallbacksTotal.WithLabelValues(label, "approved").Inc()
		c.Redirect(http.StatusFound, api.confirmationURL(strconv.FormatInt(tx.ID, 10)))
	}
}

// gatewayLabel bounds the metric label to registered gateway names.
func (api *PaymentAPI) gatewayLabel(gateway string) string {
	if lo.Contains(api.service.Gateways(), gateway) {
		return gateway
	}
	return unknownGatewayLabel
}

func (api *PaymentAPI) confirmationURL(transactionID string) string {
	target, err := url.Parse(api.confirmURL)
	if err != nil {
		return api.confirmURL + "?transactionId=" + url.QueryEscape(transactionID)
	}
	query := target.Query()
	query.Set("transactionId", transactionID)
	target.RawQuery = query.Encode()
	return target.String()
}

// Get /api/transactions
// List transactions
func (api *PaymentAPI) ListTransactions(c *gin.Context) {
	txs, err := api.service.ListTransactions(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentshttpmapper.FromDomainTransactions(txs))
}

// Post /api/transactions
// Record a transaction
func (api *PaymentAPI) CreateTransaction(c *gin.Context) {
	var payload paymentshttpmapper.Transaction
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	payload.TransactionID = 0
	saved, err := api.service.RecordTransaction(c.Request.Context(), paymentshttpmapper.ToDomainTransaction(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentshttpmapper.FromDomainTransaction(saved))
}

// Get /api/transactions/:id
// Find transaction by ID
func (api *PaymentAPI) GetTransaction(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tx, err := api.service.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentshttpmapper.FromDomainTransaction(tx))
}

// Put /api/transactions/:id
// Replace a transaction
func (api *PaymentAPI) UpdateTransaction(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload paymentshttpmapper.Transaction
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if _, err := api.service.GetTransaction(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	payload.TransactionID = id
	saved, err := api.service.RecordTransaction(c.Request.Context(), paymentshttpmapper.ToDomainTransaction(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentshttpmapper.FromDomainTransaction(saved))
}

// Delete /api/transactions/:id
// Deletes a transaction
func (api *PaymentAPI) DeleteTransaction(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteTransaction(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
