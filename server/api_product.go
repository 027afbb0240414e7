package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	cataloghttpmapper "github.com/Apurer/aims-commerce/internal/domains/catalog/adapters/http/mapper"
	catalogdomain "github.com/Apurer/aims-commerce/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/aims-commerce/internal/domains/catalog/ports"
)

// ProductAPI wires HTTP transport with the catalog bounded context.
type ProductAPI struct {
	service catalogports.Service
}

// NewProductAPI creates a ProductAPI backed by the provided service.
func NewProductAPI(service catalogports.Service) ProductAPI {
	return ProductAPI{service: service}
}

// Post /api/products
// Add a product to the catalog
func (api *ProductAPI) AddProduct(c *gin.Context) {
	var payload cataloghttpmapper.Product
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	product, err := cataloghttpmapper.ToDomainProduct(payload)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	saved, err := api.service.AddProduct(c.Request.Context(), product)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromDomainProduct(saved))
}

// Get /api/products/:id
// Find product by ID, soft deleted products included
func (api *ProductAPI) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := api.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromDomainProduct(product))
}

// Get /api/products/all
// List every live product
func (api *ProductAPI) ListProducts(c *gin.Context) {
	products, err := api.service.ListProducts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromDomainProducts(products))
}

// Get /api/products
// Search live products with filters, sorting and pagination
func (api *ProductAPI) SearchProducts(c *gin.Context) {
	var (
		filter                     catalogports.SearchFilter
		productType, sortDirection string
		minPrice, maxPrice         string
	)
	if !bindQuery(c, "title", &filter.Title) ||
		!bindQuery(c, "category", &filter.Category) ||
		!bindQuery(c, "productType", &productType) ||
		!bindQuery(c, "minPrice", &minPrice) ||
		!bindQuery(c, "maxPrice", &maxPrice) ||
		!bindQuery(c, "sortBy", &filter.SortBy) ||
		!bindQuery(c, "sortDirection", &sortDirection) ||
		!bindQuery(c, "page", &filter.Page) ||
		!bindQuery(c, "size", &filter.Size) {
		return
	}
	if productType != "" {
		kind, err := catalogdomain.ParseKind(productType)
		if err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		filter.Kind = kind
	}
	var err error
	if filter.MinPrice, err = parsePrice("minPrice", minPrice); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if filter.MaxPrice, err = parsePrice("maxPrice", maxPrice); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	filter.SortDesc = strings.EqualFold(sortDirection, "desc")

	page, err := api.service.SearchProducts(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromProductPage(page))
}

// Get /api/products/random
// Products starting from a random id, wrapping to the lowest ids
func (api *ProductAPI) RandomProducts(c *gin.Context) {
	var size int
	if !bindQuery(c, "size", &size) {
		return
	}
	products, err := api.service.RandomPage(c.Request.Context(), size)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromDomainProducts(products))
}

// Get /api/products/random-page
// A page of the catalog in an order that reshuffles every minute
func (api *ProductAPI) RandomProductPage(c *gin.Context) {
	var page, size int
	if !bindQuery(c, "page", &page) || !bindQuery(c, "size", &size) {
		return
	}
	result, err := api.service.RandomProducts(c.Request.Context(), page, size)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromProductPage(result))
}

// Put /api/products/:id
// Update an existing product
func (api *ProductAPI) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload cataloghttpmapper.Product
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	product, err := cataloghttpmapper.ToDomainProduct(payload)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	updated, err := api.service.UpdateProduct(c.Request.Context(), id, product)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromDomainProduct(updated))
}

// Delete /api/products/:id
// Soft delete a product
func (api *ProductAPI) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteProduct(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Delete /api/products/:id/hard
// Remove a product row permanently
func (api *ProductAPI) HardDeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := api.service.HardDeleteProduct(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Post /api/products/bulk-delete
// Soft delete up to ten products at once
func (api *ProductAPI) BulkDeleteProducts(c *gin.Context) {
	var ids []int64
	if err := c.ShouldBindJSON(&ids); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	deleted, err := api.service.BulkDeleteProducts(c.Request.Context(), ids)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// Patch /api/products/:id/stock
// Increase or decrease the quantity on hand
func (api *ProductAPI) UpdateStock(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload cataloghttpmapper.StockUpdate
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	op := catalogdomain.StockOperation(strings.ToLower(strings.TrimSpace(payload.Operation)))
	updated, err := api.service.UpdateStock(c.Request.Context(), id, payload.Quantity, op)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromDomainProduct(updated))
}

// Post /api/products/check-inventory
// Compare requested quantities with live stock; 400 lists the shortages
func (api *ProductAPI) CheckInventory(c *gin.Context) {
	var payload cataloghttpmapper.InventoryRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	shortages, err := api.service.CheckInventory(c.Request.Context(), cataloghttpmapper.ToStockLines(payload.Items))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	result := cataloghttpmapper.FromInventoryCheck(shortages)
	c.JSON(lo.Ternary(result.AllAvailable, http.StatusOK, http.StatusBadRequest), result)
}

// Get /api/operations
// Audit log of catalog changes, filterable by product, type and time window
func (api *ProductAPI) ListOperations(c *gin.Context) {
	var (
		productID    int64
		types        []string
		since, until time.Time
	)
	if !bindQuery(c, "productId", &productID) ||
		!bindQuery(c, "type", &types) ||
		!bindQuery(c, "since", &since) ||
		!bindQuery(c, "until", &until) {
		return
	}
	filter := catalogports.OperationFilter{Since: since, Until: until}
	if productID > 0 {
		filter.ProductID = &productID
	}
	for _, raw := range types {
		opType, err := catalogdomain.ParseOperationType(strings.ToUpper(strings.TrimSpace(raw)))
		if err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		filter.Types = append(filter.Types, opType)
	}
	ops, err := api.service.Operations(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromDomainOperations(ops))
}

func parsePrice(name, raw string) (*decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return &price, nil
}
