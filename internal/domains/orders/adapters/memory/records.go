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

var (
	_ ports.DeliveryInfoRepository = (*DeliveryInfoRepository)(nil)
	_ ports.InvoiceRepository      = (*InvoiceRepository)(nil)
)

// DeliveryInfoRepository keeps delivery addresses in memory.
type DeliveryInfoRepository struct {
	mu     sync.RWMutex
	infos  map[int64]*domain.DeliveryInfo
	nextID int64
	now    func() time.Time
}

func NewDeliveryInfoRepository() *DeliveryInfoRepository {
	return &DeliveryInfoRepository{infos: map[int64]*domain.DeliveryInfo{}, now: time.Now}
}

func (r *DeliveryInfoRepository) Save(_ context.Context, info *domain.DeliveryInfo) (*domain.DeliveryInfo, error) {
	if info == nil {
		return nil, errors.New("delivery info is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := info.Clone()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	if existing, ok := r.infos[clone.ID]; ok {
		clone.Metadata.CreatedAt = existing.Metadata.CreatedAt
	}
	clone.Metadata.Touch(r.now())
	r.infos[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *DeliveryInfoRepository) GetByID(_ context.Context, id int64) (*domain.DeliveryInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.infos[id]
	if !ok {
		return nil, ports.ErrDeliveryInfoNotFound
	}
	return info.Clone(), nil
}

func (r *DeliveryInfoRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.infos[id]; !ok {
		return ports.ErrDeliveryInfoNotFound
	}
	delete(r.infos, id)
	return nil
}

func (r *DeliveryInfoRepository) List(_ context.Context) ([]*domain.DeliveryInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.DeliveryInfo, 0, len(r.infos))
	for _, info := range r.infos {
		list = append(list, info.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// InvoiceRepository keeps invoices in memory.
type InvoiceRepository struct {
	mu       sync.RWMutex
	invoices map[int64]*domain.Invoice
	nextID   int64
	now      func() time.Time
}

func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{invoices: map[int64]*domain.Invoice{}, now: time.Now}
}

func (r *InvoiceRepository) Save(_ context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	if invoice == nil {
		return nil, errors.New("invoice is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := invoice.Clone()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	if existing, ok := r.invoices[clone.ID]; ok {
		clone.Metadata.CreatedAt = existing.Metadata.CreatedAt
	}
	clone.Metadata.Touch(r.now())
	r.invoices[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *InvoiceRepository) GetByID(_ context.Context, id int64) (*domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	invoice, ok := r.invoices[id]
	if !ok {
		return nil, ports.ErrInvoiceNotFound
	}
	return invoice.Clone(), nil
}

func (r *InvoiceRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[id]; !ok {
		return ports.ErrInvoiceNotFound
	}
	delete(r.invoices, id)
	return nil
}

func (r *InvoiceRepository) List(_ context.Context) ([]*domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Invoice, 0, len(r.invoices))
	for _, invoice := range r.invoices {
		list = append(list, invoice.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}
