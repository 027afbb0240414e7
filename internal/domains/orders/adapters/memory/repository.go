package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
	"github.com/Apurer/aims-commerce/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository keeps orders in memory and enforces one order per transaction, invoice and delivery info.
type Repository struct {
	mu     sync.RWMutex
	orders map[int64]*domain.Order
	nextID int64
	now    func() time.Time
}

func NewRepository() *Repository {
	return &Repository{orders: map[int64]*domain.Order{}, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

func (r *Repository) Save(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.referencesTaken(order) {
		return nil, ports.ErrDuplicateReference
	}
	return r.store(order), nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Order, error) {
	return r.filter(func(*domain.Order) bool { return true }), nil
}

func (r *Repository) ListByStatus(_ context.Context, status domain.Status) ([]*domain.Order, error) {
	return r.filter(func(o *domain.Order) bool { return o.Status == status }), nil
}

// Mutate returns the edited order with the events fn recorded.
func (r *Repository) Mutate(_ context.Context, id int64, fn ports.MutateFunc) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.orders[id]
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

func (r *Repository) filter(keep func(*domain.Order) bool) []*domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if keep(order) {
			list = append(list, order.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// referencesTaken reports whether another order already uses one of the references. Caller holds the lock.
func (r *Repository) referencesTaken(order *domain.Order) bool {
	for id, existing := range r.orders {
		if id == order.ID {
			continue
		}
		if existing.TransactionID == order.TransactionID ||
			existing.InvoiceID == order.InvoiceID ||
			existing.DeliveryInfoID == order.DeliveryInfoID {
			return true
		}
	}
	return false
}

// store assigns ids and timestamps. Caller holds the lock.
func (r *Repository) store(order *domain.Order) *domain.Order {
	clone := order.Clone()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	if existing, ok := r.orders[clone.ID]; ok {
		clone.Metadata.CreatedAt = existing.Metadata.CreatedAt
	}
	clone.Metadata.Touch(r.now())
	r.orders[clone.ID] = clone
	return clone.Clone()
}
