package ports

import (
	"context"

	"github.com/Apurer/aims-commerce/internal/domains/cart/domain"
)

// QuoteItem is a requested product quantity for a checkout calculation.
type QuoteItem struct {
	ProductID int64
	Quantity  int
}

// QuoteRequest describes a checkout calculation.
type QuoteRequest struct {
	Items    []QuoteItem
	Province string
	Rush     bool
}

// Service exposes cart and checkout pricing use cases to adapters.
type Service interface {
	CreateCart(ctx context.Context) (*domain.Cart, error)
	GetCart(ctx context.Context, id int64) (*domain.Cart, error)
	ListCarts(ctx context.Context) ([]*domain.Cart, error)
	DeleteCart(ctx context.Context, id int64) error
	AddItem(ctx context.Context, cartID, productID int64, quantity int) (*domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, cartID, productID int64, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, cartID, productID int64) (*domain.Cart, error)
	EmptyCart(ctx context.Context, cartID int64) (*domain.Cart, error)
	CheckInventory(ctx context.Context, cartID int64) (*domain.InventoryReport, error)
	Calculate(ctx context.Context, req QuoteRequest) (*domain.Totals, error)
	CalculateRush(ctx context.Context, req QuoteRequest) (*domain.RushTotals, error)
	Snapshot(ctx context.Context, items []QuoteItem) (*domain.Cart, error)
}
