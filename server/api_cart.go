package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	carthttpmapper "github.com/Apurer/aims-commerce/internal/domains/cart/adapters/http/mapper"
	cartports "github.com/Apurer/aims-commerce/internal/domains/cart/ports"
)

// CartAPI wires HTTP transport with the cart bounded context.
type CartAPI struct {
	service cartports.Service
}

// NewCartAPI creates a CartAPI backed by the provided service.
func NewCartAPI(service cartports.Service) CartAPI {
	return CartAPI{service: service}
}

// Post /api/carts/create
// Create an empty cart
func (api *CartAPI) CreateCart(c *gin.Context) {
	cart, err := api.service.CreateCart(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, carthttpmapper.FromDomainCart(cart))
}

// Get /api/carts
// List carts
func (api *CartAPI) ListCarts(c *gin.Context) {
	carts, err := api.service.ListCarts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, carthttpmapper.FromDomainCarts(carts))
}

// Get /api/carts/:id
// Find cart by ID
func (api *CartAPI) GetCart(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	cart, err := api.service.GetCart(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, carthttpmapper.FromDomainCart(cart))
}

// Delete /api/carts/:id
// Deletes a cart
func (api *CartAPI) DeleteCart(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteCart(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Post /api/carts/:id/items
// Add a product to the cart, merging with an existing line
func (api *CartAPI) AddItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload carthttpmapper.CartItemRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	cart, err := api.service.AddItem(c.Request.Context(), id, payload.ProductID, payload.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, carthttpmapper.FromDomainCart(cart))
}

// Put /api/carts/:id/items/:productId
// Set the quantity of a cart line
func (api *CartAPI) UpdateItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	var payload carthttpmapper.CartItemRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	cart, err := api.service.UpdateItemQuantity(c.Request.Context(), id, productID, payload.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, carthttpmapper.FromDomainCart(cart))
}

// Delete /api/carts/:id/items/:productId
// Remove a cart line
func (api *CartAPI) RemoveItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	cart, err := api.service.RemoveItem(c.Request.Context(), id, productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, carthttpmapper.FromDomainCart(cart))
}

// Delete /api/carts/:id/items
// Remove every line of the cart
func (api *CartAPI) EmptyCart(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	cart, err := api.service.EmptyCart(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, carthttpmapper.FromDomainCart(cart))
}

// Get /api/carts/:id/check-inventory
// Compare the cart with live stock; 400 lists the shortages
func (api *CartAPI) CheckInventory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	report, err := api.service.CheckInventory(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	result := carthttpmapper.FromInventoryReport(report)
	status := http.StatusOK
	if !result.AllAvailable {
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}

// Post /api/carts/calculate
// Price a set of lines; isRushDelivery switches to the rush quote
func (api *CartAPI) Calculate(c *gin.Context) {
	var payload carthttpmapper.CalculationRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if payload.IsRushDelivery {
		api.calculateRush(c, payload)
		return
	}
	totals, err := api.service.Calculate(c.Request.Context(), carthttpmapper.ToQuoteRequest(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, carthttpmapper.FromTotals(totals))
}

// Post /api/carts/calculate-rush
// Price a set of lines for rush delivery
func (api *CartAPI) CalculateRush(c *gin.Context) {
	var payload carthttpmapper.CalculationRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	payload.IsRushDelivery = true
	api.calculateRush(c, payload)
}

func (api *CartAPI) calculateRush(c *gin.Context, payload carthttpmapper.CalculationRequest) {
	totals, err := api.service.CalculateRush(c.Request.Context(), carthttpmapper.ToQuoteRequest(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, carthttpmapper.FromRushTotals(totals))
}
