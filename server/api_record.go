package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ordershttpmapper "github.com/Apurer/aims-commerce/internal/domains/orders/adapters/http/mapper"
	ordersports "github.com/Apurer/aims-commerce/internal/domains/orders/ports"
)

// RecordAPI exposes the delivery infos and invoices an order links to.
type RecordAPI struct {
	service ordersports.Service
}

// NewRecordAPI creates a RecordAPI backed by the orders service.
func NewRecordAPI(service ordersports.Service) RecordAPI {
	return RecordAPI{service: service}
}

// Get /api/delivery-infos
// List delivery infos
func (api *RecordAPI) ListDeliveryInfos(c *gin.Context) {
	infos, err := api.service.ListDeliveryInfos(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainDeliveryInfos(infos))
}

// Post /api/delivery-infos
// Validate and store a delivery info
func (api *RecordAPI) CreateDeliveryInfo(c *gin.Context) {
	var payload ordershttpmapper.DeliveryInfo
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	info := ordershttpmapper.ToDomainDeliveryInfo(payload)
	info.ID = 0
	saved, err := api.service.SaveDeliveryInfo(c.Request.Context(), &info)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainDeliveryInfo(saved))
}

// Get /api/delivery-infos/:id
// Find delivery info by ID
func (api *RecordAPI) GetDeliveryInfo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	info, err := api.service.GetDeliveryInfo(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainDeliveryInfo(info))
}

// Put /api/delivery-infos/:id
// Replace a delivery info
func (api *RecordAPI) UpdateDeliveryInfo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload ordershttpmapper.DeliveryInfo
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	existing, err := api.service.GetDeliveryInfo(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	info := ordershttpmapper.ToDomainDeliveryInfo(payload)
	info.ID = id
	info.Metadata = existing.Metadata
	saved, err := api.service.SaveDeliveryInfo(c.Request.Context(), &info)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainDeliveryInfo(saved))
}

// Delete /api/delivery-infos/:id
// Deletes a delivery info
func (api *RecordAPI) DeleteDeliveryInfo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteDeliveryInfo(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Get /api/invoices
// List invoices
func (api *RecordAPI) ListInvoices(c *gin.Context) {
	invoices, err := api.service.ListInvoices(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainInvoices(invoices))
}

// Post /api/invoices
// Snapshot the cart lines and store the quoted totals
func (api *RecordAPI) CreateInvoice(c *gin.Context) {
	var payload ordershttpmapper.InvoiceRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	invoice, err := api.service.CreateInvoice(c.Request.Context(), ordershttpmapper.ToInvoiceInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainInvoice(invoice))
}

// Get /api/invoices/:id
// Find invoice by ID
func (api *RecordAPI) GetInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	invoice, err := api.service.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainInvoice(invoice))
}

// Delete /api/invoices/:id
// Deletes an invoice
func (api *RecordAPI) DeleteInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteInvoice(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
