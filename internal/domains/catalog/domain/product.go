package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/aims-commerce/internal/shared/projection"
)

// Kind discriminates the product variants sold by the store.
type Kind string

const (
	KindBook Kind = "BOOK"
	KindCD   Kind = "CD"
	KindLP   Kind = "LP"
	KindDVD  Kind = "DVD"
)

// StockOperation names a manual stock adjustment.
type StockOperation string

const (
	StockIncrease StockOperation = "increase"
	StockDecrease StockOperation = "decrease"
)

var (
	ErrInvalidProduct        = errors.New("invalid product")
	ErrUnknownKind           = errors.New("unknown product type")
	ErrPriceOutOfRange       = errors.New("new price must be between 30% and 150% of the product value")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrInvalidStockOperation = errors.New("stock operation must be 'increase' or 'decrease'")
	ErrInvalidStockQuantity  = errors.New("stock quantity must not be negative")
	minPriceRatio            = decimal.NewFromFloat(0.3)
	maxPriceRatio            = decimal.NewFromFloat(1.5)
)

// Product is the catalog aggregate. Exactly one of Book, Disc or DVD is set, matching Kind;
// CD and LP share the Disc payload.
type Product struct {
	ID                 int64
	Kind               Kind
	Title              string
	Category           string
	Barcode            string
	Description        string
	Dimensions         string
	ImageURL           string
	Value              decimal.Decimal
	CurrentPrice       decimal.Decimal
	Weight             float64
	Quantity           int
	RushEligible       bool
	WarehouseEntryDate time.Time
	Deleted            bool
	DeletedAt          *time.Time
	Metadata           projection.Metadata

	Book *Book
	Disc *Disc
	DVD  *DVD
}

// Book holds the book-specific attributes.
type Book struct {
	Author          string
	CoverType       string
	Publisher       string
	Language        string
	Genre           string
	Pages           int
	PublicationDate *time.Time
}

// Disc holds the attributes shared by CDs and LPs.
type Disc struct {
	Artist      string
	Album       string
	RecordLabel string
	Tracklist   string
	Genre       string
	ReleaseDate *time.Time
}

// DVD holds the DVD-specific attributes.
type DVD struct {
	DiscType    string
	Director    string
	Runtime     string
	Studio      string
	Language    string
	Subtitles   string
	Genre       string
	ReleaseDate *time.Time
}

// ParseKind normalizes the discriminant received over the wire.
func ParseKind(raw string) (Kind, error) {
	kind := Kind(strings.ToUpper(strings.TrimSpace(raw)))
	switch kind {
	case KindBook, KindCD, KindLP, KindDVD:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
}

// Validate runs the base checks and the variant validator registered for Kind.
func (p *Product) Validate(now time.Time) error {
	if p == nil {
		return invalid("product is nil")
	}
	if err := validateBase(p); err != nil {
		return err
	}
	validator, ok := validators[p.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind)
	}
	return validator(p, now)
}

// CheckPriceChange enforces the 30%-150% band around Value for a new selling price.
func (p *Product) CheckPriceChange(newPrice decimal.Decimal) error {
	lower := p.Value.Mul(minPriceRatio)
	upper := p.Value.Mul(maxPriceRatio)
	if newPrice.LessThan(lower) || newPrice.GreaterThan(upper) {
		return ErrPriceOutOfRange
	}
	return nil
}

// PriceChanged reports whether other carries a different selling price.
func (p *Product) PriceChanged(other *Product) bool {
	return !p.CurrentPrice.Equal(other.CurrentPrice)
}

// SoftDelete flags the product as deleted without removing it.
func (p *Product) SoftDelete(now time.Time) {
	p.Deleted = true
	deletedAt := now
	p.DeletedAt = &deletedAt
}

// AdjustStock applies a manual increase or decrease to Quantity.
func (p *Product) AdjustStock(quantity int, op StockOperation) error {
	if quantity < 0 {
		return ErrInvalidStockQuantity
	}
	switch StockOperation(strings.ToLower(string(op))) {
	case StockIncrease:
		p.Quantity += quantity
	case StockDecrease:
		if p.Quantity-quantity < 0 {
			return fmt.Errorf("%w: only %d available", ErrInsufficientStock, p.Quantity)
		}
		p.Quantity -= quantity
	default:
		return ErrInvalidStockOperation
	}
	return nil
}

// HasStock reports whether requested units can be served from live stock.
func (p *Product) HasStock(requested int) bool {
	return requested <= p.Quantity
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	if p.DeletedAt != nil {
		deletedAt := *p.DeletedAt
		clone.DeletedAt = &deletedAt
	}
	if p.Book != nil {
		book := *p.Book
		clone.Book = &book
	}
	if p.Disc != nil {
		disc := *p.Disc
		clone.Disc = &disc
	}
	if p.DVD != nil {
		dvd := *p.DVD
		clone.DVD = &dvd
	}
	return &clone
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidProduct, fmt.Sprintf(format, args...))
}
