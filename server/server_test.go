package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	cartcatalog "github.com/Apurer/aims-commerce/internal/domains/cart/adapters/catalog"
	cartmemory "github.com/Apurer/aims-commerce/internal/domains/cart/adapters/memory"
	cartapp "github.com/Apurer/aims-commerce/internal/domains/cart/application"
	catalogmemory "github.com/Apurer/aims-commerce/internal/domains/catalog/adapters/memory"
	catalogapp "github.com/Apurer/aims-commerce/internal/domains/catalog/application"
	orderscart "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/cart"
	orderscatalog "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/catalog"
	ordersmemory "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/memory"
	orderspayments "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/payments"
	ordersworkflows "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/aims-commerce/internal/domains/orders/application"
	paymentsmemory "github.com/Apurer/aims-commerce/internal/domains/payments/adapters/memory"
	"github.com/Apurer/aims-commerce/internal/domains/payments/adapters/vnpay"
	paymentsapp "github.com/Apurer/aims-commerce/internal/domains/payments/application"
	usersmemory "github.com/Apurer/aims-commerce/internal/domains/users/adapters/memory"
	usersapp "github.com/Apurer/aims-commerce/internal/domains/users/application"
	"github.com/Apurer/aims-commerce/internal/platform/metrics"
	apierrors "github.com/Apurer/aims-commerce/internal/shared/errors"
)

const confirmURL = "http://localhost:5173/checkout/confirmation"

func newTestRouter(t *testing.T, checks map[string]Check) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := catalogapp.NewService(catalogmemory.NewProductRepository(), catalogmemory.NewOperationRepository(), catalogmemory.NewOperationLock())
	carts := cartapp.NewService(cartmemory.NewRepository(), cartcatalog.NewProductCatalog(catalog))
	payments := paymentsapp.NewService(
		paymentsapp.NewRegistry(vnpay.New(vnpay.Config{TmnCode: "DEMO", ReturnURL: "http://localhost:8080/api/payments/vnpay/result"})),
		paymentsmemory.NewRepository(),
	)
	orders := ordersapp.NewService(ordersapp.Dependencies{
		Orders:       ordersmemory.NewRepository(),
		Deliveries:   ordersmemory.NewDeliveryInfoRepository(),
		Invoices:     ordersmemory.NewInvoiceRepository(),
		Carts:        orderscart.NewReader(carts),
		Stock:        orderscatalog.NewStockReader(catalog),
		Transactions: orderspayments.NewTransactions(payments),
		Events:       ordersmemory.NewEventRecorder(),
		Idempotency:  ordersmemory.NewIdempotencyStore(),
	})
	users := usersapp.NewService(usersmemory.NewRepository(), usersmemory.NewRoleRepository(), usersmemory.NewSessionStore(),
		usersapp.WithPasswordCost(bcrypt.MinCost))

	return NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{
		AuthAPI:      NewAuthAPI(users),
		CartAPI:      NewCartAPI(carts),
		RecordAPI:    NewRecordAPI(orders),
		HealthAPI:    NewHealthAPI(checks),
		OrderAPI:     NewOrderAPI(orders, ordersworkflows.NewInlineOrderWorkflows(orders)),
		PaymentAPI:   NewPaymentAPI(payments, confirmURL),
		ProductAPI:   NewProductAPI(catalog),
		RushOrderAPI: NewRushOrderAPI(orders),
	})
}

func do(t *testing.T, router http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func book(title, barcode string, quantity int, rush bool) map[string]any {
	return map[string]any{
		"productType":        "BOOK",
		"title":              title,
		"category":           "books",
		"value":              100000,
		"currentPrice":       90000,
		"barcode":            barcode,
		"weight":             0.5,
		"productDimensions":  "20x14x3",
		"imageURL":           "https://img.example.com/" + barcode + ".png",
		"rushOrderEligible":  rush,
		"quantity":           quantity,
		"warehouseEntryDate": "2024-05-10",
		"author":             "Robert C. Martin",
		"coverType":          "paperback",
		"publisher":          "Prentice Hall",
		"numberOfPage":       464,
		"publicationDate":    "2008-08-01",
		"language":           "English",
	}
}

func addProduct(t *testing.T, router http.Handler, product map[string]any) int64 {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/products", product)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	return int64(created["id"].(float64))
}

func delivery(province, district string) map[string]any {
	return map[string]any{
		"recipientName":   "Nguyen Van A",
		"email":           "a@example.com",
		"phoneNumber":     "0912345678",
		"deliveryAddress": "1 Trang Tien",
		"province":        province,
		"district":        district,
	}
}

func checkout(productID int64, quantity int) map[string]any {
	return map[string]any{
		"deliveryInfo": delivery("Hanoi", "Hoan Kiem"),
		"invoiceData": map[string]any{
			"cart": map[string]any{
				"items": []map[string]any{{"productId": productID, "quantity": quantity}},
			},
			"totalProductPriceBeforeVAT": 90000,
			"totalProductPriceAfterVAT":  99000,
			"deliveryFee":                22000,
			"totalAmount":                121000,
		},
		"transactionData": map[string]any{
			"transactionId": "14422574",
			"bankCode":      "NCB",
			"amount":        121000,
			"payDate":       "20260310091500",
		},
	}
}

func TestHealthAndReadiness(t *testing.T) {
	router := newTestRouter(t, map[string]Check{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	rec := do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, map[string]any{"redis": "connection refused"}, body["checks"])
}

func TestProductEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)
	id := addProduct(t, router, book("Clean Code", "BC-1", 5, true))
	addProduct(t, router, book("Refactoring", "BC-2", 3, false))

	rec := do(t, router, http.MethodGet, "/api/products?title=clean&size=10", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, page["totalElements"])

	rec = do(t, router, http.MethodPatch, "/api/products/"+itoa(id)+"/stock", map[string]any{"quantity": 2, "operation": "decrease"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 3, decode[map[string]any](t, rec)["quantity"])

	rec = do(t, router, http.MethodPatch, "/api/products/"+itoa(id)+"/stock", map[string]any{"quantity": 9, "operation": "decrease"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	assert.Equal(t, apierrors.TypeValidation, decode[apierrors.ProblemDetail](t, rec).Type)

	rec = do(t, router, http.MethodPost, "/api/products/check-inventory", map[string]any{
		"items": []map[string]any{{"productId": id, "quantity": 4}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	check := decode[map[string]any](t, rec)
	assert.Equal(t, false, check["allAvailable"])
	assert.Len(t, check["outOfStockProducts"], 1)

	rec = do(t, router, http.MethodGet, "/api/operations?type=ADD_PRODUCT", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)

	rec = do(t, router, http.MethodDelete, "/api/products/"+itoa(id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/products/all", nil)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
}

func TestProductPathAndLookupErrors(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(t, router, http.MethodGet, "/api/products/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.TypeBadRequest, decode[apierrors.ProblemDetail](t, rec).Type)

	rec = do(t, router, http.MethodGet, "/api/products/99", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	problem := decode[apierrors.ProblemDetail](t, rec)
	assert.Equal(t, "/api/products/99", problem.Instance)

	rec = do(t, router, http.MethodGet, "/api/products?minPrice=cheap", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)
	id := addProduct(t, router, book("Clean Code", "BC-1", 2, true))

	rec := do(t, router, http.MethodPost, "/api/carts/create", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cartID := int64(decode[map[string]any](t, rec)["cartId"].(float64))

	rec = do(t, router, http.MethodPost, "/api/carts/"+itoa(cartID)+"/items", map[string]any{"productId": id, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 180000, decode[map[string]any](t, rec)["totalProductPriceBeforeVAT"])

	rec = do(t, router, http.MethodGet, "/api/carts/"+itoa(cartID)+"/check-inventory", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["allAvailable"])

	rec = do(t, router, http.MethodPost, "/api/carts/"+itoa(cartID)+"/items", map[string]any{"productId": id, "quantity": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Only the requested quantity is checked against stock, so the line may outgrow it.
	rec = do(t, router, http.MethodPost, "/api/carts/"+itoa(cartID)+"/items", map[string]any{"productId": id, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	grown := decode[struct {
		Items []struct {
			Quantity int `json:"quantity"`
		} `json:"items"`
	}](t, rec)
	require.Len(t, grown.Items, 1)
	assert.Equal(t, 3, grown.Items[0].Quantity)

	rec = do(t, router, http.MethodGet, "/api/carts/"+itoa(cartID)+"/check-inventory", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	report := decode[struct {
		AllAvailable       bool `json:"allAvailable"`
		OutOfStockProducts []struct {
			ProductID int64 `json:"productId"`
			Requested int   `json:"requested"`
			Available int   `json:"available"`
		} `json:"outOfStockProducts"`
	}](t, rec)
	assert.False(t, report.AllAvailable)
	require.Len(t, report.OutOfStockProducts, 1)
	assert.Equal(t, id, report.OutOfStockProducts[0].ProductID)
	assert.Equal(t, 3, report.OutOfStockProducts[0].Requested)
	assert.Equal(t, 2, report.OutOfStockProducts[0].Available)

	rec = do(t, router, http.MethodPost, "/api/carts/calculate", map[string]any{
		"items":    []map[string]any{{"productId": id, "quantity": 1}},
		"province": "Hanoi",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quote := decode[map[string]any](t, rec)
	assert.EqualValues(t, 90000, quote["subtotal"])
	assert.Nil(t, quote["rushDeliveryFee"])

	rec = do(t, router, http.MethodDelete, "/api/carts/"+itoa(cartID)+"/items", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[map[string]any](t, rec)["items"])

	rec = do(t, router, http.MethodDelete, "/api/carts/"+itoa(cartID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/carts/"+itoa(cartID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckoutAndStatusTransitions(t *testing.T) {
	router := newTestRouter(t, nil)
	id := addProduct(t, router, book("Clean Code", "BC-1", 5, true))

	rec := do(t, router, http.MethodPost, "/api/orders/checkout/create-order", checkout(id, 1), IdempotencyKeyHeader, "checkout-1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	order := decode[map[string]any](t, rec)
	assert.Equal(t, "PENDING", order["status"])
	orderID := int64(order["id"].(float64))

	replay := do(t, router, http.MethodPost, "/api/orders/checkout/create-order", checkout(id, 1), IdempotencyKeyHeader, "checkout-1")
	require.Equal(t, http.StatusOK, replay.Code)
	assert.Equal(t, order["id"], decode[map[string]any](t, replay)["id"])

	rec = do(t, router, http.MethodPost, "/api/orders/checkout/create-order", checkout(id, 2), IdempotencyKeyHeader, "checkout-1")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPatch, "/api/orders/"+itoa(orderID)+"/status", map[string]any{"status": "DELIVERED"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	for _, status := range []string{"approved", "SHIPPED", "DELIVERED"} {
		rec = do(t, router, http.MethodPatch, "/api/orders/"+itoa(orderID)+"/status", map[string]any{"status": status})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	assert.Equal(t, "DELIVERED", decode[map[string]any](t, rec)["status"])

	rec = do(t, router, http.MethodPost, "/api/orders", map[string]any{"transactionId": 404, "invoiceId": 1, "deliveryId": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAutoRejectUnderstockedOrders(t *testing.T) {
	router := newTestRouter(t, nil)
	scarce := addProduct(t, router, book("Clean Code", "BC-1", 1, true))
	plenty := addProduct(t, router, book("Refactoring", "BC-2", 10, true))

	rec := do(t, router, http.MethodPost, "/api/orders/checkout/create-order", checkout(scarce, 1))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rejected := int64(decode[map[string]any](t, rec)["id"].(float64))
	rec = do(t, router, http.MethodPost, "/api/orders/checkout/create-order", checkout(plenty, 1))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPatch, "/api/products/"+itoa(scarce)+"/stock", map[string]any{"quantity": 1, "operation": "decrease"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/orders/auto-reject", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, result["count"])
	assert.Equal(t, []any{float64(rejected)}, result["rejectedOrderIds"])

	rec = do(t, router, http.MethodGet, "/api/orders/"+itoa(rejected), nil)
	order := decode[map[string]any](t, rec)
	assert.Equal(t, "REJECTED", order["status"])
	assert.Contains(t, order["rejectionReason"], "Clean Code (requested: 1, available: 0)")
}

func TestRushOrderEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)
	rush := addProduct(t, router, book("Clean Code", "BC-1", 5, true))
	regular := addProduct(t, router, book("Refactoring", "BC-2", 5, false))

	eligibility := func(province, district string, productID int64) *httptest.ResponseRecorder {
		return do(t, router, http.MethodPost, "/api/rush-orders/check-eligibility", map[string]any{
			"deliveryInfoDTO": delivery(province, district),
			"cartRequestDTO":  map[string]any{"items": []map[string]any{{"productId": productID, "quantity": 1}}},
		})
	}
	rec := eligibility("Da Nang", "Hai Chau", rush)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Not supported address"}`, rec.Body.String())

	rec = eligibility("Hà Nội", "Hoàn Kiếm", regular)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Not supported items"}`, rec.Body.String())

	rec = eligibility("Hanoi", "Ba Dinh", rush)
	assert.Equal(t, http.StatusOK, rec.Code)

	deliveryTime := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	request := checkout(rush, 1)
	request["invoiceRequest"] = request["invoiceData"]
	request["transactionRequest"] = request["transactionData"]
	request["deliveryTime"] = deliveryTime
	request["deliveryInstruction"] = "Call before arriving"
	rec = do(t, router, http.MethodPost, "/api/rush-orders", request)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[map[string]any](t, rec)
	assert.Equal(t, true, order["rush"])
	orderID := int64(order["id"].(float64))

	rec = do(t, router, http.MethodPut, "/api/rush-orders/"+itoa(orderID), map[string]any{
		"deliveryTime":        deliveryTime,
		"deliveryInstruction": "Leave at reception",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Leave at reception", decode[map[string]any](t, rec)["deliveryInstruction"])

	rec = do(t, router, http.MethodGet, "/api/rush-orders", nil)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = do(t, router, http.MethodDelete, "/api/rush-orders/"+itoa(orderID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/rush-orders/"+itoa(orderID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeliveryInfoAndInvoiceEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)
	id := addProduct(t, router, book("Clean Code", "BC-1", 5, true))

	invalid := delivery("Hanoi", "Ba Dinh")
	invalid["phoneNumber"] = "12ab"
	rec := do(t, router, http.MethodPost, "/api/delivery-infos", invalid)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[apierrors.ProblemDetail](t, rec).Detail, "Invalid phone number")

	rec = do(t, router, http.MethodPost, "/api/delivery-infos", delivery("Hanoi", "Ba Dinh"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	infoID := int64(decode[map[string]any](t, rec)["id"].(float64))

	updated := delivery("Hanoi", "Tay Ho")
	rec = do(t, router, http.MethodPut, "/api/delivery-infos/"+itoa(infoID), updated)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Tay Ho", decode[map[string]any](t, rec)["district"])

	rec = do(t, router, http.MethodPost, "/api/invoices", checkout(id, 2)["invoiceData"])
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	invoice := decode[map[string]any](t, rec)
	assert.EqualValues(t, 121000, invoice["totalAmount"])

	rec = do(t, router, http.MethodDelete, "/api/invoices/"+itoa(int64(invoice["id"].(float64))), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/invoices/"+itoa(int64(invoice["id"].(float64))), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentRedirects(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(t, router, http.MethodGet, "/api/payments/vnpay/pay?amount=121000&orderId=42&bankCode=NCB", nil)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "sandbox.vnpayment.vn", location.Host)
	assert.Equal(t, "12100000", location.Query().Get("vnp_Amount"))
	assert.Equal(t, "42", location.Query().Get("vnp_TxnRef"))

	rec = do(t, router, http.MethodGet, "/api/payments/momo/pay?amount=1&orderId=42", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/payments/vnpay/result?vnp_ResponseCode=24&vnp_TxnRef=42", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, confirmURL+"?transactionId=-1", rec.Header().Get("Location"))

	rec = do(t, router, http.MethodGet, "/api/payments/vnpay/result?vnp_ResponseCode=00&vnp_TxnRef=42&vnp_Amount=12100000&vnp_TransactionNo=14422574&vnp_BankCode=NCB&vnp_PayDate=20260310091500", nil)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, confirmURL+"?transactionId=1", rec.Header().Get("Location"))

	rec = do(t, router, http.MethodGet, "/api/transactions/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tx := decode[map[string]any](t, rec)
	assert.Equal(t, "VNPAY", tx["gateway"])
	assert.EqualValues(t, 121000, tx["amount"])
	assert.Equal(t, "14422574", tx["transactionNo"])
}

func TestPaymentResultIgnoresClientGateway(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(t, router, http.MethodGet, "/api/payments/vnpay/result?vnp_ResponseCode=00&vnp_Amount=100&gateway=momo", nil)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, confirmURL+"?transactionId=1", rec.Header().Get("Location"))

	rec = do(t, router, http.MethodGet, "/api/transactions/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "VNPAY", decode[map[string]any](t, rec)["gateway"])
}

func TestPaymentCallbackMetricLabelsStayBounded(t *testing.T) {
	router := newTestRouter(t, nil)

	for i := 0; i < 3; i++ {
		rec := do(t, router, http.MethodGet, "/api/payments/junk"+strconv.Itoa(i)+"/result", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
	before := callbackSeries(t)
	for i := 3; i < 50; i++ {
		do(t, router, http.MethodGet, "/api/payments/junk"+strconv.Itoa(i)+"/result", nil)
	}
	assert.Equal(t, before, callbackSeries(t))
	assert.NotContains(t, before, "JUNK0/error")
	assert.Contains(t, before, "unknown/error")
}

// callbackSeries lists the gateway/outcome pairs currently exported by the callback counter.
func callbackSeries(t *testing.T) []string {
	t.Helper()
	ch := make(chan prometheus.Metric, 256)
	metrics.PaymentCallbacksTotal.Collect(ch)
	close(ch)
	var series []string
	for m := range ch {
		var out dto.Metric
		require.NoError(t, m.Write(&out))
		labels := map[string]string{}
		for _, pair := range out.GetLabel() {
			labels[pair.GetName()] = pair.GetValue()
		}
		series = append(series, labels["gateway"]+"/"+labels["outcome"])
	}
	sort.Strings(series)
	return series
}

func TestAuthEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/api/auth/register", map[string]any{
		"username": "lan",
		"name":     "Tran Thi Lan",
		"email":    "lan@example.com",
		"password": "s3cret!",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	registered := decode[map[string]any](t, rec)
	require.NotEmpty(t, registered["token"])

	rec = do(t, router, http.MethodPost, "/api/auth/register", map[string]any{
		"username": "lan", "name": "Lan", "email": "other@example.com", "password": "s3cret!",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/auth/login", map[string]any{"email": "lan@example.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decode[apierrors.ProblemDetail](t, rec).Detail, "Username or password is incorrect")

	rec = do(t, router, http.MethodPost, "/api/auth/login", map[string]any{"email": "lan@example.com", "password": "s3cret!"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := decode[map[string]any](t, rec)["token"].(string)

	rec = do(t, router, http.MethodGet, "/api/auth/me", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "lan", me["username"])
	assert.Equal(t, []any{"CUSTOMER"}, me["roles"])

	rec = do(t, router, http.MethodPost, "/api/auth/create-role", "product_manager")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "PRODUCT_MANAGER", decode[map[string]any](t, rec)["name"])

	rec = do(t, router, http.MethodPost, "/api/auth/create-role", map[string]any{"name": "ROLE_ADMIN"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ADMIN", decode[map[string]any](t, rec)["name"])

	rec = do(t, router, http.MethodPost, "/api/auth/logout", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/auth/me", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
