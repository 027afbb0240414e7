package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/Apurer/aims-commerce/internal/domains/catalog/domain"
	"github.com/Apurer/aims-commerce/internal/domains/catalog/ports"
)

const defaultPageSize = 20

// Service orchestrates the catalog use cases.
type Service struct {
	products   ports.ProductRepository
	operations ports.OperationRepository
	lock       ports.OperationLock
	now        func() time.Time
	randSource func() int64
}

// Option customizes the catalog service.
type Option func(*Service)

// WithClock overrides the time source used for audit timestamps and daily windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRandomSeed overrides the seed source used to pick a random page pivot.
func WithRandomSeed(seed func() int64) Option {
	return func(s *Service) {
		if seed != nil {
			s.randSource = seed
		}
	}
}

// NewService wires the catalog service with its repositories and operation lock.
func NewService(products ports.ProductRepository, operations ports.OperationRepository, lock ports.OperationLock, opts ...Option) *Service {
	s := &Service{
		products:   products,
		operations: operations,
		lock:       lock,
		now:        time.Now,
		randSource: func() int64 { return time.Now().UnixNano() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// AddProduct validates and stores a new product under the ADD lock.
func (s *Service) AddProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	return s.guarded(ctx, domain.OperationAdd, func() (*domain.Product, error) {
		candidate := product.Clone()
		candidate.ID = 0
		candidate.Deleted = false
		candidate.DeletedAt = nil
		if err := candidate.Validate(s.now()); err != nil {
			return nil, err
		}
		saved, err := s.products.Save(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if err := s.record(ctx, saved.ID, domain.OperationAdd); err != nil {
			return nil, err
		}
		return saved, nil
	})
}

// UpdateProduct replaces a product under the UPDATE lock, enforcing daily limits and the price rules.
func (s *Service) UpdateProduct(ctx context.Context, id int64, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	return s.guarded(ctx, domain.OperationUpdate, func() (*domain.Product, error) {
		if err := s.checkDailyLimits(ctx, id, domain.OperationUpdate); err != nil {
			return nil, err
		}
		existing, err := s.products.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		candidate := product.Clone()
		candidate.ID = id
		candidate.Deleted = existing.Deleted
		candidate.DeletedAt = existing.DeletedAt
		candidate.Metadata = existing.Metadata
		if err := candidate.Validate(s.now()); err != nil {
			return nil, err
		}
		if existing.PriceChanged(candidate) {
			if err := candidate.CheckPriceChange(candidate.CurrentPrice); err != nil {
				return nil, err
			}
			updates, err := s.countToday(ctx, &id, domain.OperationUpdate)
			if err != nil {
				return nil, err
			}
			if updates >= domain.MaxDailyPriceUpdates {
				return nil, domain.ErrPriceUpdateLimit
			}
		}
		saved, err := s.products.Save(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if err := s.record(ctx, saved.ID, domain.OperationUpdate); err != nil {
			return nil, err
		}
		return saved, nil
	})
}

// DeleteProduct soft-deletes a product within the daily limits.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.checkDailyLimits(ctx, id, domain.OperationDelete); err != nil {
		return mapError(err)
	}
	return mapError(s.softDelete(ctx, id))
}

// BulkDeleteProducts soft-deletes up to MaxBulkDelete products and returns the deleted ids.
func (s *Service) BulkDeleteProducts(ctx context.Context, ids []int64) ([]int64, error) {
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return nil, mapError(fmt.Errorf("%w: no product ids supplied", domain.ErrInvalidProduct))
	}
	if len(ids) > domain.MaxBulkDelete {
		return nil, mapError(domain.ErrBulkLimitExceeded)
	}
	deleted := make([]int64, 0, len(ids))
	for _, id := range ids {
		if err := s.checkDailyLimits(ctx, id, domain.OperationDelete); err != nil {
			return deleted, mapError(err)
		}
		if err := s.softDelete(ctx, id); err != nil {
			return deleted, mapError(err)
		}
		deleted = append(deleted, id)
	}
	return deleted, nil
}

// HardDeleteProduct removes a product row entirely. Reserved for administrators.
func (s *Service) HardDeleteProduct(ctx context.Context, id int64) error {
	return mapError(s.products.Delete(ctx, id))
}

// GetProduct loads a single product, including soft-deleted ones.
func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return product, nil
}

// ListProducts returns every live product.
func (s *Service) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return products, nil
}

// SearchProducts filters, sorts and paginates live products.
func (s *Service) SearchProducts(ctx context.Context, filter ports.SearchFilter) (ports.ProductPage, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return ports.ProductPage{}, mapError(err)
	}
	page, err := s.products.Search(ctx, filter)
	if err != nil {
		return ports.ProductPage{}, mapError(err)
	}
	return page, nil
}

// RandomPage returns up to size products starting at a random id pivot, wrapping to the lowest ids.
func (s *Service) RandomPage(ctx context.Context, size int) ([]*domain.Product, error) {
	if size <= 0 {
		size = defaultPageSize
	}
	lowest, highest, err := s.products.IDRange(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	if highest == 0 {
		return []*domain.Product{}, nil
	}
	rng := rand.New(rand.NewSource(s.randSource()))
	pivot := lowest + rng.Int63n(highest-lowest+1)
	result, err := s.products.ListFrom(ctx, pivot, size)
	if err != nil {
		return nil, mapError(err)
	}
	if len(result) < size && pivot > lowest {
		head, err := s.products.ListFrom(ctx, lowest, size-len(result))
		if err != nil {
			return nil, mapError(err)
		}
		head = lo.Filter(head, func(p *domain.Product, _ int) bool { return p.ID < pivot })
		result = append(result, head...)
	}
	return result, nil
}

// RandomProducts shuffles live products with a seed that changes every minute and returns one page.
// Out of range pages are clamped to the nearest valid page.
func (s *Service) RandomProducts(ctx context.Context, page, size int) (ports.ProductPage, error) {
	if size <= 0 {
		size = defaultPageSize
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return ports.ProductPage{}, mapError(err)
	}
	seed := s.now().Unix() / 60
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(products), func(i, j int) { products[i], products[j] = products[j], products[i] })

	result := ports.ProductPage{Size: size, Total: int64(len(products))}
	totalPages := result.TotalPages()
	if totalPages == 0 {
		result.Items = []*domain.Product{}
		return result, nil
	}
	page = lo.Clamp(page, 0, totalPages-1)
	result.Page = page
	start := page * size
	end := min(start+size, len(products))
	result.Items = products[start:end]
	return result, nil
}

// UpdateStock increases or decreases the live quantity of a product.
func (s *Service) UpdateStock(ctx context.Context, id int64, quantity int, op domain.StockOperation) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	if err := product.AdjustStock(quantity, op); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.products.Save(ctx, product)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// CheckInventory reports every requested line that exceeds live stock.
func (s *Service) CheckInventory(ctx context.Context, lines []ports.StockLine) ([]ports.OutOfStock, error) {
	var shortages []ports.OutOfStock
	for _, line := range lines {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, mapError(err)
		}
		if !product.HasStock(line.Quantity) {
			shortages = append(shortages, ports.OutOfStock{
				ProductID: product.ID,
				Title:     product.Title,
				Requested: line.Quantity,
				Available: product.Quantity,
				Message:   fmt.Sprintf("Insufficient inventory. Only %d available.", product.Quantity),
			})
		}
	}
	return shortages, nil
}

// Operations reads the audit log.
func (s *Service) Operations(ctx context.Context, filter ports.OperationFilter) ([]*domain.Operation, error) {
	ops, err := s.operations.List(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	return ops, nil
}

func (s *Service) guarded(ctx context.Context, op domain.OperationType, fn func() (*domain.Product, error)) (*domain.Product, error) {
	release, err := s.lock.TryAcquire(ctx, op)
	if err != nil {
		if errors.Is(err, ports.ErrLockHeld) {
			label := strings.ToLower(strings.ReplaceAll(string(op), "_", " "))
			return nil, fmt.Errorf("%w: %w: Another %s operation is in progress. Only one product can be added/edited at a time.", ErrConflict, err, label)
		}
		return nil, err
	}
	defer release()
	product, err := fn()
	if err != nil {
		return nil, mapError(err)
	}
	return product, nil
}

func (s *Service) softDelete(ctx context.Context, id int64) error {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return err
	}
	product.SoftDelete(s.now())
	if _, err := s.products.Save(ctx, product); err != nil {
		return err
	}
	return s.record(ctx, id, domain.OperationDelete)
}

func (s *Service) checkDailyLimits(ctx context.Context, productID int64, op domain.OperationType) error {
	total, err := s.countToday(ctx, nil, domain.OperationUpdate, domain.OperationDelete)
	if err != nil {
		return err
	}
	if total >= domain.MaxDailyUpdatesDeletes {
		return domain.GlobalLimitError()
	}
	perProduct, err := s.countToday(ctx, &productID, op)
	if err != nil {
		return err
	}
	if perProduct >= domain.MaxDailyPerProduct {
		return domain.PerProductLimitError(op)
	}
	return nil
}

func (s *Service) countToday(ctx context.Context, productID *int64, types ...domain.OperationType) (int64, error) {
	since, until := domain.DayWindow(s.now())
	return s.operations.Count(ctx, ports.OperationFilter{
		ProductID: productID,
		Types:     types,
		Since:     since,
		Until:     until,
	})
}

func (s *Service) record(ctx context.Context, productID int64, op domain.OperationType) error {
	_, err := s.operations.Append(ctx, &domain.Operation{
		ProductID: productID,
		Type:      op,
		Timestamp: s.now(),
	})
	return err
}

func normalizeFilter(filter ports.SearchFilter) (ports.SearchFilter, error) {
	filter.Title = strings.TrimSpace(filter.Title)
	filter.Category = strings.TrimSpace(filter.Category)
	if filter.Kind != "" {
		kind, err := domain.ParseKind(string(filter.Kind))
		if err != nil {
			return filter, err
		}
		filter.Kind = kind
	}
	switch filter.SortBy {
	case "":
		filter.SortBy = ports.SortByID
	case ports.SortByID, ports.SortByTitle, ports.SortByPrice, ports.SortByCreatedAt:
	default:
		return filter, fmt.Errorf("%w: unsupported sort field %q", domain.ErrInvalidProduct, filter.SortBy)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return filter, fmt.Errorf("%w: minPrice must not exceed maxPrice", domain.ErrInvalidProduct)
	}
	if filter.Page < 0 {
		filter.Page = 0
	}
	if filter.Size <= 0 {
		filter.Size = defaultPageSize
	}
	return filter, nil
}

var _ ports.Service = (*Service)(nil)
