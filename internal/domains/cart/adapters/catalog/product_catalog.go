package catalog

import (
	"context"
	"errors"

	"github.com/Apurer/aims-commerce/internal/domains/cart/domain"
	"github.com/Apurer/aims-commerce/internal/domains/cart/ports"
	catalogports "github.com/Apurer/aims-commerce/internal/domains/catalog/ports"
)

var _ ports.ProductCatalog = (*ProductCatalog)(nil)

// ProductCatalog reads live products through the catalog context.
type ProductCatalog struct {
	catalog catalogports.Service
}

func NewProductCatalog(catalog catalogports.Service) *ProductCatalog {
	return &ProductCatalog{catalog: catalog}
}

func (c *ProductCatalog) Product(ctx context.Context, id int64) (*domain.ProductView, error) {
	product, err := c.catalog.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, catalogports.ErrNotFound) {
			return nil, ports.ErrProductNotFound
		}
		return nil, err
	}
	return &domain.ProductView{
		ID:           product.ID,
		Title:        product.Title,
		Price:        product.CurrentPrice,
		Weight:       product.Weight,
		ImageURL:     product.ImageURL,
		Category:     product.Category,
		RushEligible: product.RushEligible,
		Quantity:     product.Quantity,
	}, nil
}
