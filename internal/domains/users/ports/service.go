package ports

import (
	"context"
	"time"

	"github.com/Apurer/aims-commerce/internal/domains/users/domain"
)

type RegisterInput struct {
	Username string
	Name     string
	Email    string
	Password string
	Roles    []string
}

// LoginResult carries the issued bearer token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Service exposes user bounded context use cases to adapters.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, login, password string) (*LoginResult, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
	GetUser(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	DeleteUser(ctx context.Context, username string) error
	CreateRole(ctx context.Context, name string) (*domain.Role, error)
	ListRoles(ctx context.Context) ([]*domain.Role, error)
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}
