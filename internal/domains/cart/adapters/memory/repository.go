package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/aims-commerce/internal/domains/cart/domain"
	"github.com/Apurer/aims-commerce/internal/domains/cart/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory cart store.
type Repository struct {
	mu     sync.RWMutex
	carts  map[int64]*domain.Cart
	nextID int64
	now    func() time.Time
}

func NewRepository() *Repository {
	return &Repository{carts: map[int64]*domain.Cart{}, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

func (r *Repository) Save(_ context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if cart == nil {
		return nil, errors.New("cart is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store(cart.Clone()), nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cart, ok := r.carts[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cart.Clone(), nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.carts[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.carts, id)
	return nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Cart, 0, len(r.carts))
	for _, cart := range r.carts {
		list = append(list, cart.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// Mutate holds the write lock for the whole edit so concurrent mutations of one cart serialize.
func (r *Repository) Mutate(_ context.Context, id int64, fn ports.MutateFunc) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.carts[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	stored := r.store(working)
	working.Metadata = stored.Metadata
	return working, nil
}

// store persists a copy without attached product views. Caller holds the lock.
func (r *Repository) store(cart *domain.Cart) *domain.Cart {
	clone := cart.Clone()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	if existing, ok := r.carts[clone.ID]; ok {
		clone.Metadata.CreatedAt = existing.Metadata.CreatedAt
	}
	clone.Metadata.Touch(r.now())
	for i := range clone.Items {
		clone.Items[i].Product = nil
	}
	r.carts[clone.ID] = clone
	return clone.Clone()
}
