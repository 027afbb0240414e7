package ports

import (
	"context"
	"errors"

	"github.com/Apurer/aims-commerce/internal/domains/users/domain"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore abstracts session/token persistence.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByUsername(ctx context.Context, username string) error
	// PurgeExpired removes sessions whose expiry has passed and reports how many went.
	PurgeExpired(ctx context.Context) (int64, error)
}
