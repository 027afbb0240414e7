package catalog

import (
	"context"
	"errors"
	"fmt"

	catalogports "github.com/Apurer/aims-commerce/internal/domains/catalog/ports"
	"github.com/Apurer/aims-commerce/internal/domains/orders/ports"
)

var _ ports.StockReader = (*StockReader)(nil)

// StockReader resolves live stock through the catalog context.
type StockReader struct {
	catalog catalogports.Service
}

func NewStockReader(catalog catalogports.Service) *StockReader {
	return &StockReader{catalog: catalog}
}

func (r *StockReader) Stock(ctx context.Context, productID int64) (*ports.StockLevel, error) {
	product, err := r.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, catalogports.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ports.ErrProductNotFound, productID)
		}
		return nil, err
	}
	return &ports.StockLevel{
		ProductID:    product.ID,
		Title:        product.Title,
		Available:    product.Quantity,
		RushEligible: product.RushEligible,
	}, nil
}
