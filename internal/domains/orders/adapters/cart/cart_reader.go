package cart

import (
	"context"
	"errors"
	"fmt"

	cartdomain "github.com/Apurer/aims-commerce/internal/domains/cart/domain"
	cartports "github.com/Apurer/aims-commerce/internal/domains/cart/ports"
	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
	"github.com/Apurer/aims-commerce/internal/domains/orders/ports"
)

var _ ports.CartReader = (*Reader)(nil)

// Reader snapshots and reads carts through the cart context.
type Reader struct {
	carts cartports.Service
}

func NewReader(carts cartports.Service) *Reader {
	return &Reader{carts: carts}
}

func (r *Reader) Snapshot(ctx context.Context, lines []ports.CartLine) (int64, error) {
	items := make([]cartports.QuoteItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, cartports.QuoteItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	cart, err := r.carts.Snapshot(ctx, items)
	if err != nil {
		if errors.Is(err, cartdomain.ErrInvalidQuantity) {
			return 0, fmt.Errorf("%w: %w", domain.ErrInvalidInvoice, err)
		}
		return 0, err
	}
	return cart.ID, nil
}

func (r *Reader) Lines(ctx context.Context, cartID int64) ([]ports.CartLine, error) {
	cart, err := r.carts.GetCart(ctx, cartID)
	if err != nil {
		if errors.Is(err, cartports.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ports.ErrCartNotFound, cartID)
		}
		return nil, err
	}
	lines := make([]ports.CartLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, ports.CartLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines, nil
}
