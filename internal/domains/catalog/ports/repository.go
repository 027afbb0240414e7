package ports

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/aims-commerce/internal/domains/catalog/domain"
	"github.com/Apurer/aims-commerce/internal/shared/projection"
)

var (
	ErrNotFound         = errors.New("product not found")
	ErrDuplicateBarcode = errors.New("product barcode already exists")
)

// Sort keys accepted by Search.
const (
	SortByID        = "id"
	SortByTitle     = "title"
	SortByPrice     = "price"
	SortByCreatedAt = "createdAt"
)

// SearchFilter narrows a product search. Zero values mean "any".
type SearchFilter struct {
	Title    string
	Category string
	Kind     domain.Kind
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	SortBy   string
	SortDesc bool
	Page     int
	Size     int
}

// ProductPage is one page of search results.
type ProductPage = projection.Page[*domain.Product]

// ProductRepository persists catalog products. Reads other than GetByID exclude soft-deleted rows.
type ProductRepository interface {
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Product, error)
	Search(ctx context.Context, filter SearchFilter) (ProductPage, error)
	// IDRange returns the smallest and largest live product ids, zero when empty.
	IDRange(ctx context.Context) (int64, int64, error)
	// ListFrom returns up to limit live products with id >= fromID ordered by id.
	ListFrom(ctx context.Context, fromID int64, limit int) ([]*domain.Product, error)
}

// OperationFilter selects audit log entries. Zero values mean "any".
type OperationFilter struct {
	ProductID *int64
	Types     []domain.OperationType
	Since     time.Time
	Until     time.Time
}

// OperationRepository stores the catalog audit log.
type OperationRepository interface {
	Append(ctx context.Context, op *domain.Operation) (*domain.Operation, error)
	Count(ctx context.Context, filter OperationFilter) (int64, error)
	List(ctx context.Context, filter OperationFilter) ([]*domain.Operation, error)
}
