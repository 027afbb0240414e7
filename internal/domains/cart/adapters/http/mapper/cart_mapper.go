package mapper

import (
	"github.com/Apurer/aims-commerce/internal/domains/cart/domain"
	"github.com/Apurer/aims-commerce/internal/domains/cart/ports"
)

// CartProduct is the product summary embedded in cart lines.
type CartProduct struct {
	ID                int64   `json:"id"`
	Title             string  `json:"title"`
	CurrentPrice      float64 `json:"currentPrice"`
	Weight            float64 `json:"weight"`
	ImageURL          string  `json:"imageURL,omitempty"`
	Category          string  `json:"category,omitempty"`
	RushOrderEligible bool    `json:"rushOrderEligible"`
	Quantity          int     `json:"quantity"`
}

type CartItem struct {
	ProductID int64        `json:"productId"`
	Quantity  int          `json:"quantity"`
	Subtotal  float64      `json:"subtotal"`
	Product   *CartProduct `json:"product,omitempty"`
}

type Cart struct {
	CartID                     int64      `json:"cartId"`
	TotalProductPriceBeforeVAT float64    `json:"totalProductPriceBeforeVAT"`
	Items                      []CartItem `json:"items"`
}

// CartItemRequest is the body of add and update line calls.
type CartItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type CalculationRequest struct {
	Items          []CartItemRequest `json:"items" binding:"required"`
	IsRushDelivery bool              `json:"isRushDelivery"`
	Province       string            `json:"province"`
}

type ItemDetail struct {
	ProductID int64   `json:"productId"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
	ImageURL  string  `json:"imageURL,omitempty"`
	Category  string  `json:"category,omitempty"`
	Weight    float64 `json:"weight"`
}

type OutOfStockProduct struct {
	ProductID int64  `json:"productId"`
	Title     string `json:"title"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Message   string `json:"message"`
}

type CalculationResponse struct {
	Subtotal          float64             `json:"subtotal"`
	Tax               float64             `json:"tax"`
	DeliveryFee       float64             `json:"deliveryFee"`
	RushDeliveryFee   *float64            `json:"rushDeliveryFee,omitempty"`
	Total             float64             `json:"total"`
	Items             []ItemDetail        `json:"items"`
	AllItemsAvailable bool                `json:"allItemsAvailable"`
	OutOfStockItems   []OutOfStockProduct `json:"outOfStockItems"`
}

type InventoryCheck struct {
	AllAvailable       bool                `json:"allAvailable"`
	OutOfStockProducts []OutOfStockProduct `json:"outOfStockProducts"`
}

func FromDomainCart(c *domain.Cart) Cart {
	if c == nil {
		return Cart{Items: []CartItem{}}
	}
	out := Cart{
		CartID:                     c.ID,
		TotalProductPriceBeforeVAT: c.TotalBeforeVAT.InexactFloat64(),
		Items:                      make([]CartItem, 0, len(c.Items)),
	}
	for _, item := range c.Items {
		line := CartItem{ProductID: item.ProductID, Quantity: item.Quantity}
		if p := item.Product; p != nil {
			line.Subtotal = p.Price.InexactFloat64() * float64(item.Quantity)
			line.Product = &CartProduct{
				ID:                p.ID,
				Title:             p.Title,
				CurrentPrice:      p.Price.InexactFloat64(),
				Weight:            p.Weight,
				ImageURL:          p.ImageURL,
				Category:          p.Category,
				RushOrderEligible: p.RushEligible,
				Quantity:          p.Quantity,
			}
		}
		out.Items = append(out.Items, line)
	}
	return out
}

func FromDomainCarts(carts []*domain.Cart) []Cart {
	out := make([]Cart, 0, len(carts))
	for _, c := range carts {
		out = append(out, FromDomainCart(c))
	}
	return out
}

func ToQuoteRequest(req CalculationRequest) ports.QuoteRequest {
	return ports.QuoteRequest{
		Items:    ToQuoteItems(req.Items),
		Province: req.Province,
		Rush:     req.IsRushDelivery,
	}
}

func ToQuoteItems(items []CartItemRequest) []ports.QuoteItem {
	out := make([]ports.QuoteItem, 0, len(items))
	for _, item := range items {
		out = append(out, ports.QuoteItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

func FromTotals(t *domain.Totals) CalculationResponse {
	return CalculationResponse{
		Subtotal:          t.Subtotal.InexactFloat64(),
		Tax:               t.Tax.InexactFloat64(),
		DeliveryFee:       t.DeliveryFee.InexactFloat64(),
		Total:             t.Total.InexactFloat64(),
		Items:             fromLineDetails(t.Items),
		AllItemsAvailable: t.AllItemsAvailable,
		OutOfStockItems:   fromShortages(t.OutOfStock),
	}
}

func FromRushTotals(t *domain.RushTotals) CalculationResponse {
	resp := FromTotals(&t.Totals)
	rushFee := t.RushDeliveryFee.InexactFloat64()
	resp.RushDeliveryFee = &rushFee
	return resp
}

func FromInventoryReport(r *domain.InventoryReport) InventoryCheck {
	return InventoryCheck{AllAvailable: r.AllAvailable, OutOfStockProducts: fromShortages(r.OutOfStock)}
}

func fromLineDetails(lines []domain.LineDetail) []ItemDetail {
	out := make([]ItemDetail, 0, len(lines))
	for _, l := range lines {
		out = append(out, ItemDetail{
			ProductID: l.ProductID,
			Title:     l.Title,
			Price:     l.Price.InexactFloat64(),
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal.InexactFloat64(),
			ImageURL:  l.ImageURL,
			Category:  l.Category,
			Weight:    l.Weight,
		})
	}
	return out
}

func fromShortages(items []domain.Shortage) []OutOfStockProduct {
	out := make([]OutOfStockProduct, 0, len(items))
	for _, s := range items {
		out = append(out, OutOfStockProduct{
			ProductID: s.ProductID,
			Title:     s.Title,
			Requested: s.Requested,
			Available: s.Available,
			Message:   s.Message,
		})
	}
	return out
}
