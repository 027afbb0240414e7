package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/Apurer/aims-commerce/internal/domains/cart/domain"
	"github.com/Apurer/aims-commerce/internal/domains/cart/ports"
)

// Service orchestrates cart mutations and checkout pricing.
type Service struct {
	carts    ports.Repository
	products ports.ProductCatalog
}

// NewService wires the cart service.
func NewService(carts ports.Repository, products ports.ProductCatalog) *Service {
	return &Service{carts: carts, products: products}
}

func (s *Service) CreateCart(ctx context.Context) (*domain.Cart, error) {
	return s.carts.Save(ctx, domain.NewCart())
}

// GetCart loads a cart with product views attached to its lines.
func (s *Service) GetCart(ctx context.Context, id int64) (*domain.Cart, error) {
	cart, err := s.carts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attach(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) ListCarts(ctx context.Context) ([]*domain.Cart, error) {
	carts, err := s.carts.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, cart := range carts {
		if err := s.attach(ctx, cart); err != nil {
			return nil, err
		}
	}
	return carts, nil
}

func (s *Service) DeleteCart(ctx context.Context, id int64) error {
	return s.carts.Delete(ctx, id)
}

// AddItem checks the requested quantity alone against live stock, then merges it into the cart.
func (s *Service) AddItem(ctx context.Context, cartID, productID int64, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, mapError(domain.ErrInvalidQuantity)
	}
	if _, err := s.carts.GetByID(ctx, cartID); err != nil {
		return nil, err
	}
	product, err := s.products.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	cart, err := s.carts.Mutate(ctx, cartID, func(cart *domain.Cart) error {
		if err := cart.Add(product, quantity); err != nil {
			return err
		}
		return s.reprice(ctx, cart)
	})
	return cart, mapError(err)
}

// UpdateItemQuantity sets a line quantity; zero removes the line.
func (s *Service) UpdateItemQuantity(ctx context.Context, cartID, productID int64, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, mapError(fmt.Errorf("%w: got %d", domain.ErrInvalidQuantity, quantity))
	}
	cart, err := s.carts.Mutate(ctx, cartID, func(cart *domain.Cart) error {
		if _, ok := cart.Line(productID); !ok {
			return domain.ErrItemNotFound
		}
		product, err := s.products.Product(ctx, productID)
		if err != nil {
			return err
		}
		if err := cart.SetQuantity(product, quantity); err != nil {
			return err
		}
		return s.reprice(ctx, cart)
	})
	return cart, mapError(err)
}

func (s *Service) RemoveItem(ctx context.Context, cartID, productID int64) (*domain.Cart, error) {
	cart, err := s.carts.Mutate(ctx, cartID, func(cart *domain.Cart) error {
		if err := cart.Remove(productID); err != nil {
			return err
		}
		return s.reprice(ctx, cart)
	})
	return cart, mapError(err)
}

func (s *Service) EmptyCart(ctx context.Context, cartID int64) (*domain.Cart, error) {
	return s.carts.Mutate(ctx, cartID, func(cart *domain.Cart) error {
		cart.Empty()
		return nil
	})
}

// CheckInventory reports every line whose quantity exceeds live stock.
func (s *Service) CheckInventory(ctx context.Context, cartID int64) (*domain.InventoryReport, error) {
	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	report := &domain.InventoryReport{AllAvailable: true, OutOfStock: []domain.Shortage{}}
	for _, item := range cart.Items {
		if item.Product == nil || item.Product.Quantity >= item.Quantity {
			continue
		}
		report.AllAvailable = false
		report.OutOfStock = append(report.OutOfStock, domain.Shortage{
			ProductID: item.ProductID,
			Title:     item.Product.Title,
			Requested: item.Quantity,
			Available: item.Product.Quantity,
			Message:   "Insufficient stock",
		})
	}
	return report, nil
}

// Calculate prices a checkout request; every product must exist.
func (s *Service) Calculate(ctx context.Context, req ports.QuoteRequest) (*domain.Totals, error) {
	lines, err := s.resolve(ctx, req.Items, false)
	if err != nil {
		return nil, err
	}
	totals := domain.Quote(lines, req.Province, req.Rush)
	return &totals, nil
}

// CalculateRush prices a rush checkout request; unknown products are ignored.
func (s *Service) CalculateRush(ctx context.Context, req ports.QuoteRequest) (*domain.RushTotals, error) {
	lines, err := s.resolve(ctx, req.Items, true)
	if err != nil {
		return nil, err
	}
	totals := domain.RushQuote(lines, req.Province)
	return &totals, nil
}

// Snapshot stores a new cart holding the given lines so invoices stay immutable against later
// edits of the live cart. Unknown products are skipped.
func (s *Service) Snapshot(ctx context.Context, items []ports.QuoteItem) (*domain.Cart, error) {
	cart := domain.NewCart()
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, mapError(fmt.Errorf("%w: product %d", domain.ErrInvalidQuantity, item.ProductID))
		}
		product, err := s.products.Product(ctx, item.ProductID)
		if errors.Is(err, ports.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, domain.Item{ProductID: item.ProductID, Quantity: item.Quantity, Product: product})
	}
	cart.Recalculate()
	saved, err := s.carts.Save(ctx, cart)
	if err != nil {
		return nil, err
	}
	for i := range saved.Items {
		saved.Items[i].Product = cart.Items[i].Product
	}
	return saved, nil
}

func (s *Service) resolve(ctx context.Context, items []ports.QuoteItem, skipMissing bool) ([]domain.QuoteLine, error) {
	lines := make([]domain.QuoteLine, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, mapError(fmt.Errorf("%w: product %d", domain.ErrInvalidQuantity, item.ProductID))
		}
		product, err := s.products.Product(ctx, item.ProductID)
		if err != nil {
			if skipMissing && errors.Is(err, ports.ErrProductNotFound) {
				continue
			}
			return nil, err
		}
		lines = append(lines, domain.QuoteLine{Product: *product, Quantity: item.Quantity})
	}
	return lines, nil
}

// reprice attaches live product views to every line and recomputes the total.
func (s *Service) reprice(ctx context.Context, cart *domain.Cart) error {
	if err := s.attach(ctx, cart); err != nil {
		return err
	}
	cart.Recalculate()
	return nil
}

func (s *Service) attach(ctx context.Context, cart *domain.Cart) error {
	for i := range cart.Items {
		product, err := s.products.Product(ctx, cart.Items[i].ProductID)
		if errors.Is(err, ports.ErrProductNotFound) {
			cart.Items[i].Product = nil
			continue
		}
		if err != nil {
			return err
		}
		cart.Items[i].Product = product
	}
	return nil
}

var _ ports.Service = (*Service)(nil)
