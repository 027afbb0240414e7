package ports

import (
	"context"
	"errors"

	"github.com/Apurer/aims-commerce/internal/domains/cart/domain"
)

var ErrNotFound = errors.New("cart not found")

// MutateFunc edits a cart in place. Returning an error discards the edit.
type MutateFunc func(cart *domain.Cart) error

// Repository persists carts and their lines.
type Repository interface {
	Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error)
	GetByID(ctx context.Context, id int64) (*domain.Cart, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Cart, error)
	// Mutate loads the cart, applies fn to a copy and stores the result atomically.
	Mutate(ctx context.Context, id int64, fn MutateFunc) (*domain.Cart, error)
}
