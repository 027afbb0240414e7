package ports

import (
	"context"
	"errors"

	"github.com/Apurer/aims-commerce/internal/domains/users/domain"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrDuplicateUser      = errors.New("user with this username or email already exists")
	ErrInvalidCredentials = errors.New("Username or password is incorrect")
)

type Repository interface {
	// Save inserts a user without an ID and updates one with an ID.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Delete(ctx context.Context, username string) error
	List(ctx context.Context) ([]*domain.User, error)
}

// RoleRepository keeps the role catalog. Save is an upsert keyed by name.
type RoleRepository interface {
	Save(ctx context.Context, role *domain.Role) (*domain.Role, error)
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
}
