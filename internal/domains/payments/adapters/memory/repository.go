package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/aims-commerce/internal/domains/payments/domain"
	"github.com/Apurer/aims-commerce/internal/domains/payments/ports"
)

var _ ports.TransactionRepository = (*Repository)(nil)

// Repository is an in-memory transaction store.
type Repository struct {
	mu     sync.RWMutex
	txs    map[int64]*domain.Transaction
	nextID int64
	now    func() time.Time
}

func NewRepository() *Repository {
	return &Repository{txs: map[int64]*domain.Transaction{}, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

func (r *Repository) Save(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx == nil {
		return nil, errors.New("transaction is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := tx.Clone()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	if existing, ok := r.txs[clone.ID]; ok {
		clone.Metadata.CreatedAt = existing.Metadata.CreatedAt
	}
	clone.Metadata.Touch(r.now())
	r.txs[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.txs[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return tx.Clone(), nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.txs[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.txs, id)
	return nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Transaction, 0, len(r.txs))
	for _, tx := range r.txs {
		list = append(list, tx.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}
