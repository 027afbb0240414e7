package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	ordershttpmapper "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/http/mapper"
	ordersdomain "github.com/Apurer/aims-commerce/internal/domains/orders/domain"
	ordersports "github.com/Apurer/aims-commerce/internal/domains/orders/ports"
)

// RushOrderAPI serves the rush delivery view of the orders bounded context.
type RushOrderAPI struct {
	service ordersports.Service
}

// NewRushOrderAPI creates a RushOrderAPI backed by the provided service.
func NewRushOrderAPI(service ordersports.Service) RushOrderAPI {
	return RushOrderAPI{service: service}
}

// Get /api/rush-orders
// List orders placed with rush delivery
func (api *RushOrderAPI) ListRushOrders(c *gin.Context) {
	orders, err := api.service.ListRushOrders(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrders(orders))
}

// Get /api/rush-orders/:id
// Find rush order by ID
func (api *RushOrderAPI) GetRushOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := api.rushOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrder(order))
}

// Post /api/rush-orders
// Place a rush order; the address and items must qualify for rush delivery
func (api *RushOrderAPI) RushCheckout(c *gin.Context) {
	var payload ordershttpmapper.RushCheckoutRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	input, err := ordershttpmapper.ToRushCheckoutInput(payload, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := api.service.Checkout(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ordershttpmapper.FromDomainOrder(order))
}

// Put /api/rush-orders/:id
// Change the delivery time and instruction of a rush order
func (api *RushOrderAPI) UpdateRushOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload ordershttpmapper.RushDetailsRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if _, err := api.rushOrder(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	order, err := api.service.UpdateRushDetails(c.Request.Context(), id, ordershttpmapper.ToRushDetails(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrder(order))
}

// Delete /api/rush-orders/:id
// Deletes a rush order
func (api *RushOrderAPI) DeleteRushOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := api.rushOrder(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	if err := api.service.DeleteOrder(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Post /api/rush-orders/check-eligibility
// Check whether the address and at least one cart item qualify for rush delivery
func (api *RushOrderAPI) CheckEligibility(c *gin.Context) {
	var payload ordershttpmapper.EligibilityRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	productIDs := lo.Map(payload.Cart.Items, func(item ordershttpmapper.CartLine, _ int) int64 { return item.ProductID })
	err := api.service.CheckRushEligibility(c.Request.Context(), ordershttpmapper.ToDomainDeliveryInfo(payload.DeliveryInfo), productIDs)
	switch {
	case err == nil:
		c.Status(http.StatusOK)
	case errors.Is(err, ordersdomain.ErrRushAddressUnsupported):
		c.JSON(http.StatusBadRequest, gin.H{"error": ordersdomain.ErrRushAddressUnsupported.Error()})
	case errors.Is(err, ordersdomain.ErrRushItemsUnsupported):
		c.JSON(http.StatusBadRequest, gin.H{"error": ordersdomain.ErrRushItemsUnsupported.Error()})
	default:
		respondServiceError(c, err)
	}
}

// rushOrder loads an order and hides non-rush orders behind a not found.
func (api *RushOrderAPI) rushOrder(ctx context.Context, id int64) (*ordersdomain.Order, error) {
	order, err := api.service.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.IsRush() {
		return nil, ordersports.ErrNotFound
	}
	return order, nil
}
