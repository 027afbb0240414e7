package ports

import (
	"context"
	"errors"

	"github.com/Apurer/aims-commerce/internal/domains/catalog/domain"
)

// ErrLockHeld is returned by TryAcquire when another caller holds the lock.
var ErrLockHeld = errors.New("operation lock held")

// OperationLock serializes catalog mutations of the same type without waiting.
type OperationLock interface {
	// TryAcquire returns a release func, or ErrLockHeld immediately when the lock is taken.
	// Operation types that are not serialized always succeed.
	TryAcquire(ctx context.Context, op domain.OperationType) (func(), error)
}
