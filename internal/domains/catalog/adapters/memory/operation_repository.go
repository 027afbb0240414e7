package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/samber/lo"

	"github.com/Apurer/aims-commerce/internal/domains/catalog/domain"
	"github.com/Apurer/aims-commerce/internal/domains/catalog/ports"
)

var _ ports.OperationRepository = (*OperationRepository)(nil)

// OperationRepository keeps the catalog audit log in memory.
type OperationRepository struct {
	mu     sync.RWMutex
	ops    []domain.Operation
	nextID int64
}

func NewOperationRepository() *OperationRepository {
	return &OperationRepository{}
}

func (r *OperationRepository) Append(_ context.Context, op *domain.Operation) (*domain.Operation, error) {
	if op == nil {
		return nil, errors.New("operation is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entry := *op
	entry.ID = r.nextID
	r.ops = append(r.ops, entry)
	return &entry, nil
}

func (r *OperationRepository) Count(ctx context.Context, filter ports.OperationFilter) (int64, error) {
	ops, err := r.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(ops)), nil
}

func (r *OperationRepository) List(_ context.Context, filter ports.OperationFilter) ([]*domain.Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.Operation, 0)
	for _, op := range r.ops {
		if filter.ProductID != nil && op.ProductID != *filter.ProductID {
			continue
		}
		if len(filter.Types) > 0 && !lo.Contains(filter.Types, op.Type) {
			continue
		}
		if !filter.Since.IsZero() && op.Timestamp.Before(filter.Since) {
			continue
		}
		if !filter.Until.IsZero() && !op.Timestamp.Before(filter.Until) {
			continue
		}
		entry := op
		result = append(result, &entry)
	}
	return result, nil
}
