package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	ordershttpmapper "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/http/mapper"
	ordersports "github.com/Apurer/aims-commerce/internal/domains/orders/ports"
	"github.com/Apurer/aims-commerce/internal/platform/metrics"
)

// IdempotencyKeyHeader lets clients retry a checkout without placing a second order.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderAPI wires HTTP transport with the orders bounded context service and workflows.
type OrderAPI struct {
	service   ordersports.Service
	workflows ordersports.WorkflowOrchestrator
}

// NewOrderAPI creates an OrderAPI. workflows may be nil, in which case auto-reject runs inline.
func NewOrderAPI(service ordersports.Service, workflows ordersports.WorkflowOrchestrator) OrderAPI {
	return OrderAPI{service: service, workflows: workflows}
}

// Get /api/orders
// List orders
func (api *OrderAPI) ListOrders(c *gin.Context) {
	orders, err := api.service.ListOrders(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrders(orders))
}

// Get /api/orders/:id
// Find order by ID
func (api *OrderAPI) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrder(order))
}

// Post /api/orders
// Link an existing transaction, invoice and delivery info into an order
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	var payload ordershttpmapper.OrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := api.service.CreateOrder(c.Request.Context(), ordershttpmapper.ToCreateOrderInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrder(order))
}

// Post /api/orders/checkout/create-order
// Place an order from delivery info, invoice data and a payment in one call
func (api *OrderAPI) Checkout(c *gin.Context) {
	var payload ordershttpmapper.CheckoutRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	input, err := ordershttpmapper.ToCheckoutInput(payload, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := api.service.Checkout(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrder(order))
}

// Delete /api/orders/:id
// Deletes an order
func (api *OrderAPI) DeleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteOrder(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Patch /api/orders/:id/status
// Move an order along PENDING, APPROVED, SHIPPED, DELIVERED or to REJECTED
func (api *OrderAPI) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload ordershttpmapper.StatusUpdateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := api.service.UpdateStatus(c.Request.Context(), id, strings.ToUpper(strings.TrimSpace(payload.Status)))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrder(order))
}

// Post /api/orders/auto-reject
// Reject every pending order whose invoiced quantities exceed live stock
func (api *OrderAPI) AutoReject(c *gin.Context) {
	ids, err := api.rejectUnderstocked(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	metrics.OrdersRejectedTotal.Add(float64(len(ids)))
	if ids == nil {
		ids = []int64{}
	}
	c.JSON(http.StatusOK, ordershttpmapper.AutoRejectResponse{RejectedOrderIDs: ids, Count: len(ids)})
}

func (api *OrderAPI) rejectUnderstocked(ctx context.Context) ([]int64, error) {
	if api.workflows != nil {
		return api.workflows.RejectUnderstocked(ctx)
	}
	return api.service.RejectUnderstocked(ctx)
}
