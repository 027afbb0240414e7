package ports

import (
	"context"
	"errors"

	"github.com/Apurer/aims-commerce/internal/domains/cart/domain"
)

var ErrProductNotFound = errors.New("product not found")

// ProductCatalog resolves live product price and stock.
type ProductCatalog interface {
	Product(ctx context.Context, id int64) (*domain.ProductView, error)
}
