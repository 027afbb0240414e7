package memory

import (
	"context"
	"sync"

	"github.com/Apurer/aims-commerce/internal/domains/catalog/domain"
	"github.com/Apurer/aims-commerce/internal/domains/catalog/ports"
)

var _ ports.OperationLock = (*OperationLock)(nil)

// OperationLock serializes ADD and UPDATE operations within one process.
type OperationLock struct {
	add    sync.Mutex
	update sync.Mutex
}

func NewOperationLock() *OperationLock {
	return &OperationLock{}
}

func (l *OperationLock) TryAcquire(_ context.Context, op domain.OperationType) (func(), error) {
	var mu *sync.Mutex
	switch op {
	case domain.OperationAdd:
		mu = &l.add
	case domain.OperationUpdate:
		mu = &l.update
	default:
		return func() {}, nil
	}
	if !mu.TryLock() {
		return nil, ports.ErrLockHeld
	}
	var once sync.Once
	return func() { once.Do(mu.Unlock) }, nil
}
