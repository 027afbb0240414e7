package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Apurer/aims-commerce/internal/shared/projection"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrItemNotFound      = errors.New("product not found in cart")
)

// ProductView is the slice of a catalog product the cart needs for pricing and reporting.
type ProductView struct {
	ID           int64
	Title        string
	Price        decimal.Decimal
	Weight       float64
	ImageURL     string
	Category     string
	RushEligible bool
	Quantity     int
}

// Item is one cart line. Product is attached by the service when reporting and is never persisted.
type Item struct {
	ProductID int64
	Quantity  int
	Product   *ProductView
}

// Cart is a shopping cart; TotalBeforeVAT is denormalized from the item prices.
type Cart struct {
	ID             int64
	Items          []Item
	TotalBeforeVAT decimal.Decimal
	Metadata       projection.Metadata
}

// NewCart returns an empty cart with a zero total.
func NewCart() *Cart {
	return &Cart{Items: []Item{}, TotalBeforeVAT: decimal.Zero}
}

// Line returns the line for productID.
func (c *Cart) Line(productID int64) (Item, bool) {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return Item{}, false
}

// Add merges quantity into the line for the product, creating it when absent.
func (c *Cart) Add(product *ProductView, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if product.Quantity < quantity {
		return stockError(product, quantity)
	}
	for i := range c.Items {
		if c.Items[i].ProductID == product.ID {
			c.Items[i].Quantity += quantity
			c.Items[i].Product = product
			return nil
		}
	}
	c.Items = append(c.Items, Item{ProductID: product.ID, Quantity: quantity, Product: product})
	return nil
}

// SetQuantity replaces a line quantity; zero removes the line. Only the increase over the
// current quantity is checked against live stock.
func (c *Cart) SetQuantity(product *ProductView, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	idx := c.index(product.ID)
	if idx < 0 {
		return ErrItemNotFound
	}
	delta := quantity - c.Items[idx].Quantity
	if delta > 0 && delta > product.Quantity {
		return stockError(product, quantity)
	}
	if quantity == 0 {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		return nil
	}
	c.Items[idx].Quantity = quantity
	c.Items[idx].Product = product
	return nil
}

// Remove drops the line for productID.
func (c *Cart) Remove(productID int64) error {
	idx := c.index(productID)
	if idx < 0 {
		return ErrItemNotFound
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return nil
}

// Empty drops every line and zeroes the total.
func (c *Cart) Empty() {
	c.Items = []Item{}
	c.TotalBeforeVAT = decimal.Zero
}

// Recalculate sets TotalBeforeVAT to the sum of price x quantity over lines with an attached product.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, item := range c.Items {
		if item.Product == nil {
			continue
		}
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	c.TotalBeforeVAT = total
}

// ProductIDs lists the products referenced by the cart in line order.
func (c *Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// Clone returns a deep copy; attached product views are shared as they are read-only.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Items = make([]Item, len(c.Items))
	copy(clone.Items, c.Items)
	return &clone
}

func (c *Cart) index(productID int64) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func stockError(product *ProductView, requested int) error {
	return fmt.Errorf("%w for product '%s'. Requested: %d, Available: %d", ErrInsufficientStock, product.Title, requested, product.Quantity)
}
