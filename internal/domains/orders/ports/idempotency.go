package ports

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrIdempotencyConflict indicates the same key was used with a different payload or target.
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	// ErrIdempotencyInProgress indicates another checkout holds the key and has not placed its order yet.
	ErrIdempotencyInProgress = errors.New("idempotency key in progress")
)

// IdempotencyRecord captures the association between a client-supplied key and the resulting order.
// OrderID stays zero while the claiming checkout is running.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	OrderID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Pending reports whether the key is claimed but not yet bound to an order.
func (r IdempotencyRecord) Pending() bool {
	return r.OrderID == 0
}

// IdempotencyStore persists checkout keys so retries can be replayed safely.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Claim reserves an unknown key for the request hash. When the key already exists the stored
	// record is returned with claimed set to false.
	Claim(ctx context.Context, key, requestHash string) (record *IdempotencyRecord, claimed bool, err error)
	// Complete binds a claimed key to the placed order. A key bound to another order returns
	// ErrIdempotencyConflict.
	Complete(ctx context.Context, key string, orderID int64) error
	// Release drops a claim that never produced an order. Completed keys are kept.
	Release(ctx context.Context, key string) error
}
