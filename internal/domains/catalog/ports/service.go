package ports

import (
	"context"

	"github.com/Apurer/aims-commerce/internal/domains/catalog/domain"
)

// StockLine is a requested quantity of one product.
type StockLine struct {
	ProductID int64
	Quantity  int
}

// OutOfStock reports a line that live stock cannot serve.
type OutOfStock struct {
	ProductID int64
	Title     string
	Requested int
	Available int
	Message   string
}

// Service exposes catalog use cases to adapters.
type Service interface {
	AddProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	BulkDeleteProducts(ctx context.Context, ids []int64) ([]int64, error)
	HardDeleteProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	SearchProducts(ctx context.Context, filter SearchFilter) (ProductPage, error)
	RandomPage(ctx context.Context, size int) ([]*domain.Product, error)
	RandomProducts(ctx context.Context, page, size int) (ProductPage, error)
	UpdateStock(ctx context.Context, id int64, quantity int, op domain.StockOperation) (*domain.Product, error)
	CheckInventory(ctx context.Context, lines []StockLine) ([]OutOfStock, error)
	Operations(ctx context.Context, filter OperationFilter) ([]*domain.Operation, error)
}
