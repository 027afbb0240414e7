// Package server is the gin transport for the AIMS storefront and back office API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/aims-commerce/internal/platform/metrics"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine add routes to existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	router.Use(metrics.Middleware())
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc answers routes whose handler was not wired.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

type ApiHandleFunctions struct {
	// Routes for the auth part of the API
	AuthAPI AuthAPI
	// Routes for the cart part of the API
	CartAPI CartAPI
	// Routes for the delivery info and invoice part of the API
	RecordAPI RecordAPI
	// Routes for the health part of the API
	HealthAPI HealthAPI
	// Routes for the order part of the API
	OrderAPI OrderAPI
	// Routes for the payment part of the API
	PaymentAPI PaymentAPI
	// Routes for the product part of the API
	ProductAPI ProductAPI
	// Routes for the rush order part of the API
	RushOrderAPI RushOrderAPI
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{"Health", http.MethodGet, "/health", handleFunctions.HealthAPI.Health},
		{"Ready", http.MethodGet, "/ready", handleFunctions.HealthAPI.Ready},
		{"Metrics", http.MethodGet, "/metrics", metrics.Handler()},

		{"AddProduct", http.MethodPost, "/api/products", handleFunctions.ProductAPI.AddProduct},
		{"SearchProducts", http.MethodGet, "/api/products", handleFunctions.ProductAPI.SearchProducts},
		{"ListProducts", http.MethodGet, "/api/products/all", handleFunctions.ProductAPI.ListProducts},
		{"RandomProducts", http.MethodGet, "/api/products/random", handleFunctions.ProductAPI.RandomProducts},
		{"RandomProductPage", http.MethodGet, "/api/products/random-page", handleFunctions.ProductAPI.RandomProductPage},
		{"BulkDeleteProducts", http.MethodPost, "/api/products/bulk-delete", handleFunctions.ProductAPI.BulkDeleteProducts},
		{"CheckProductInventory", http.MethodPost, "/api/products/check-inventory", handleFunctions.ProductAPI.CheckInventory},
		{"GetProduct", http.MethodGet, "/api/products/:id", handleFunctions.ProductAPI.GetProduct},
		{"UpdateProduct", http.MethodPut, "/api/products/:id", handleFunctions.ProductAPI.UpdateProduct},
		{"DeleteProduct", http.MethodDelete, "/api/products/:id", handleFunctions.ProductAPI.DeleteProduct},
		{"HardDeleteProduct", http.MethodDelete, "/api/products/:id/hard", handleFunctions.ProductAPI.HardDeleteProduct},
		{"UpdateStock", http.MethodPatch, "/api/products/:id/stock", handleFunctions.ProductAPI.UpdateStock},
		{"ListOperations", http.MethodGet, "/api/operations", handleFunctions.ProductAPI.ListOperations},

		{"CreateCart", http.MethodPost, "/api/carts/create", handleFunctions.CartAPI.CreateCart},
		{"ListCarts", http.MethodGet, "/api/carts", handleFunctions.CartAPI.ListCarts},
		{"Calculate", http.MethodPost, "/api/carts/calculate", handleFunctions.CartAPI.Calculate},
		{"CalculateRush", http.MethodPost, "/api/carts/calculate-rush", handleFunctions.CartAPI.CalculateRush},
		{"GetCart", http.MethodGet, "/api/carts/:id", handleFunctions.CartAPI.GetCart},
		{"DeleteCart", http.MethodDelete, "/api/carts/:id", handleFunctions.CartAPI.DeleteCart},
		{"AddCartItem", http.MethodPost, "/api/carts/:id/items", handleFunctions.CartAPI.AddItem},
		{"EmptyCart", http.MethodDelete, "/api/carts/:id/items", handleFunctions.CartAPI.EmptyCart},
		{"UpdateCartItem", http.MethodPut, "/api/carts/:id/items/:productId", handleFunctions.CartAPI.UpdateItem},
		{"RemoveCartItem", http.MethodDelete, "/api/carts/:id/items/:productId", handleFunctions.CartAPI.RemoveItem},
		{"CheckCartInventory", http.MethodGet, "/api/carts/:id/check-inventory", handleFunctions.CartAPI.CheckInventory},

		{"ListOrders", http.MethodGet, "/api/orders", handleFunctions.OrderAPI.ListOrders},
		{"CreateOrder", http.MethodPost, "/api/orders", handleFunctions.OrderAPI.CreateOrder},
		{"AutoRejectOrders", http.MethodPost, "/api/orders/auto-reject", handleFunctions.OrderAPI.AutoReject},
		{"Checkout", http.MethodPost, "/api/orders/checkout/create-order", handleFunctions.OrderAPI.Checkout},
		{"GetOrder", http.MethodGet, "/api/orders/:id", handleFunctions.OrderAPI.GetOrder},
		{"DeleteOrder", http.MethodDelete, "/api/orders/:id", handleFunctions.OrderAPI.DeleteOrder},
		{"UpdateOrderStatus", http.MethodPatch, "/api/orders/:id/status", handleFunctions.OrderAPI.UpdateStatus},

		{"ListRushOrders", http.MethodGet, "/api/rush-orders", handleFunctions.RushOrderAPI.ListRushOrders},
		{"RushCheckout", http.MethodPost, "/api/rush-orders", handleFunctions.RushOrderAPI.RushCheckout},
		{"CheckRushEligibility", http.MethodPost, "/api/rush-orders/check-eligibility", handleFunctions.RushOrderAPI.CheckEligibility},
		{"GetRushOrder", http.MethodGet, "/api/rush-orders/:id", handleFunctions.RushOrderAPI.GetRushOrder},
		{"UpdateRushOrder", http.MethodPut, "/api/rush-orders/:id", handleFunctions.RushOrderAPI.UpdateRushOrder},
		{"DeleteRushOrder", http.MethodDelete, "/api/rush-orders/:id", handleFunctions.RushOrderAPI.DeleteRushOrder},

		{"ListDeliveryInfos", http.MethodGet, "/api/delivery-infos", handleFunctions.RecordAPI.ListDeliveryInfos},
		{"CreateDeliveryInfo", http.MethodPost, "/api/delivery-infos", handleFunctions.RecordAPI.CreateDeliveryInfo},
		{"GetDeliveryInfo", http.MethodGet, "/api/delivery-infos/:id", handleFunctions.RecordAPI.GetDeliveryInfo},
		{"UpdateDeliveryInfo", http.MethodPut, "/api/delivery-infos/:id", handleFunctions.RecordAPI.UpdateDeliveryInfo},
		{"DeleteDeliveryInfo", http.MethodDelete, "/api/delivery-infos/:id", handleFunctions.RecordAPI.DeleteDeliveryInfo},
		{"ListInvoices", http.MethodGet, "/api/invoices", handleFunctions.RecordAPI.ListInvoices},
		{"CreateInvoice", http.MethodPost, "/api/invoices", handleFunctions.RecordAPI.CreateInvoice},
		{"GetInvoice", http.MethodGet, "/api/invoices/:id", handleFunctions.RecordAPI.GetInvoice},
		{"DeleteInvoice", http.MethodDelete, "/api/invoices/:id", handleFunctions.RecordAPI.DeleteInvoice},

		{"ListTransactions", http.MethodGet, "/api/transactions", handleFunctions.PaymentAPI.ListTransactions},
		{"CreateTransaction", http.MethodPost, "/api/transactions", handleFunctions.PaymentAPI.CreateTransaction},
		{"GetTransaction", http.MethodGet, "/api/transactions/:id", handleFunctions.PaymentAPI.GetTransaction},
		{"UpdateTransaction", http.MethodPut, "/api/transactions/:id", handleFunctions.PaymentAPI.UpdateTransaction},
		{"DeleteTransaction", http.MethodDelete, "/api/transactions/:id", handleFunctions.PaymentAPI.DeleteTransaction},
		{"ListGateways", http.MethodGet, "/api/payments", handleFunctions.PaymentAPI.ListGateways},
		{"Pay", http.MethodGet, "/api/payments/:gateway/pay", handleFunctions.PaymentAPI.Pay},
		{"PaymentResult", http.MethodGet, "/api/payments/:gateway/result", handleFunctions.PaymentAPI.PaymentResult},

		{"Login", http.MethodPost, "/api/auth/login", handleFunctions.AuthAPI.Login},
		{"Register", http.MethodPost, "/api/auth/register", handleFunctions.AuthAPI.Register},
		{"CreateRole", http.MethodPost, "/api/auth/create-role", handleFunctions.AuthAPI.CreateRole},
		{"Logout", http.MethodPost, "/api/auth/logout", handleFunctions.AuthAPI.Logout},
		{"Me", http.MethodGet, "/api/auth/me", handleFunctions.AuthAPI.Me},
	}
}
