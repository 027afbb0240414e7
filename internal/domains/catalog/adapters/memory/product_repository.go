package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/Apurer/aims-commerce/internal/domains/catalog/domain"
	"github.com/Apurer/aims-commerce/internal/domains/catalog/ports"
)

var _ ports.ProductRepository = (*ProductRepository)(nil)

// ProductRepository is an in-memory catalog store for development and tests.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[int64]*domain.Product
	nextID   int64
	now      func() time.Time
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: map[int64]*domain.Product{}, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (r *ProductRepository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

func (r *ProductRepository) Save(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	clone := product.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.products {
		if id != clone.ID && existing.Barcode == clone.Barcode {
			return nil, ports.ErrDuplicateBarcode
		}
	}
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	if existing, ok := r.products[clone.ID]; ok {
		clone.Metadata.CreatedAt = existing.Metadata.CreatedAt
	}
	clone.Metadata.Touch(r.now())
	r.products[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *ProductRepository) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return product.Clone(), nil
}

func (r *ProductRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *ProductRepository) List(_ context.Context) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.liveSorted(), nil
}

func (r *ProductRepository) Search(_ context.Context, filter ports.SearchFilter) (ports.ProductPage, error) {
	r.mu.RLock()
	matches := lo.Filter(r.liveSorted(), func(p *domain.Product, _ int) bool { return matchesFilter(p, filter) })
	r.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		if filter.SortDesc {
			return compareBy(filter.SortBy, matches[j], matches[i])
		}
		return compareBy(filter.SortBy, matches[i], matches[j])
	})

	page := ports.ProductPage{Page: filter.Page, Size: filter.Size, Total: int64(len(matches))}
	if filter.Size <= 0 {
		page.Items = matches
		return page, nil
	}
	start := min(filter.Page*filter.Size, len(matches))
	end := min(start+filter.Size, len(matches))
	page.Items = matches[start:end]
	return page, nil
}

func (r *ProductRepository) IDRange(_ context.Context) (int64, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	live := r.liveSorted()
	if len(live) == 0 {
		return 0, 0, nil
	}
	return live[0].ID, live[len(live)-1].ID, nil
}

func (r *ProductRepository) ListFrom(_ context.Context, fromID int64, limit int) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := lo.Filter(r.liveSorted(), func(p *domain.Product, _ int) bool { return p.ID >= fromID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// liveSorted returns clones of non-deleted products ordered by id. Caller holds the lock.
func (r *ProductRepository) liveSorted() []*domain.Product {
	list := make([]*domain.Product, 0, len(r.products))
	for _, product := range r.products {
		if product.Deleted {
			continue
		}
		list = append(list, product.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func matchesFilter(p *domain.Product, filter ports.SearchFilter) bool {
	if filter.Title != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(filter.Title)) {
		return false
	}
	if filter.Category != "" && !strings.EqualFold(p.Category, filter.Category) {
		return false
	}
	if filter.Kind != "" && p.Kind != filter.Kind {
		return false
	}
	if filter.MinPrice != nil && p.CurrentPrice.LessThan(*filter.MinPrice) {
		return false
	}
	if filter.MaxPrice != nil && p.CurrentPrice.GreaterThan(*filter.MaxPrice) {
		return false
	}
	return true
}

func compareBy(field string, a, b *domain.Product) bool {
	switch field {
	case ports.SortByTitle:
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	case ports.SortByPrice:
		return a.CurrentPrice.LessThan(b.CurrentPrice)
	case ports.SortByCreatedAt:
		return a.Metadata.CreatedAt.Before(b.Metadata.CreatedAt)
	default:
		return a.ID < b.ID
	}
}
