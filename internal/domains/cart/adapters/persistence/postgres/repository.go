package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/aims-commerce/internal/domains/cart/domain"
	"github.com/Apurer/aims-commerce/internal/domains/cart/ports"
	"github.com/Apurer/aims-commerce/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists carts in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&CartRecord{}, &CartItemRecord{})
	}
	return repo
}

// CartRecord maps the cart aggregate root.
type CartRecord struct {
	ID             int64            `gorm:"primaryKey;autoIncrement;column:id"`
	TotalBeforeVAT decimal.Decimal  `gorm:"column:total_before_vat;type:numeric(16,2)"`
	Items          []CartItemRecord `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at"`
	UpdatedAt      time.Time        `gorm:"column:updated_at"`
}

func (CartRecord) TableName() string { return "carts" }

// CartItemRecord is one cart line.
type CartItemRecord struct {
	ID        int64 `gorm:"primaryKey;autoIncrement;column:id"`
	CartID    int64 `gorm:"column:cart_id;uniqueIndex:idx_cart_items_cart_product"`
	ProductID int64 `gorm:"column:product_id;uniqueIndex:idx_cart_items_cart_product"`
	Quantity  int   `gorm:"column:quantity"`
	Position  int   `gorm:"column:position"`
}

func (CartItemRecord) TableName() string { return "cart_items" }

// Save inserts or replaces a cart with its lines.
func (r *Repository) Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, errors.New("cart is nil")
	}
	var id int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = write(tx, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByID fetches a cart with its lines.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Cart, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return load(r.db.WithContext(ctx), id)
}

// Delete removes a cart and, through the cascade, its lines.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&CartRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// List returns every cart with its lines.
func (r *Repository) List(ctx context.Context) ([]*domain.Cart, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []CartRecord
	if err := r.db.WithContext(ctx).Preload("Items", orderItems).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	carts := make([]*domain.Cart, 0, len(records))
	for i := range records {
		carts = append(carts, records[i].toDomain())
	}
	return carts, nil
}

// Mutate locks the cart row for the duration of the edit.
func (r *Repository) Mutate(ctx context.Context, id int64, fn ports.MutateFunc) (*domain.Cart, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var working *domain.Cart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked CartRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		cart, err := load(tx, id)
		if err != nil {
			return err
		}
		if err := fn(cart); err != nil {
			return err
		}
		if _, err := write(tx, cart); err != nil {
			return err
		}
		working = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return working, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres cart repository not configured")
	}
	return nil
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("position, id")
}

func load(db *gorm.DB, id int64) (*domain.Cart, error) {
	var record CartRecord
	if err := db.Preload("Items", orderItems).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// write upserts the cart row and replaces its lines inside tx.
func write(tx *gorm.DB, cart *domain.Cart) (int64, error) {
	record := CartRecord{
		ID:             cart.ID,
		TotalBeforeVAT: cart.TotalBeforeVAT,
		CreatedAt:      cart.Metadata.CreatedAt,
	}
	if err := tx.Omit("Items").Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total_before_vat": record.TotalBeforeVAT,
			"updated_at":       gorm.Expr("NOW()"),
		}),
	}).Create(&record).Error; err != nil {
		return 0, err
	}
	if err := tx.Where("cart_id = ?", record.ID).Delete(&CartItemRecord{}).Error; err != nil {
		return 0, err
	}
	if len(cart.Items) == 0 {
		return record.ID, nil
	}
	items := make([]CartItemRecord, 0, len(cart.Items))
	for i, item := range cart.Items {
		items = append(items, CartItemRecord{CartID: record.ID, ProductID: item.ProductID, Quantity: item.Quantity, Position: i})
	}
	if err := tx.Create(&items).Error; err != nil {
		return 0, err
	}
	return record.ID, nil
}

func (r CartRecord) toDomain() *domain.Cart {
	cart := &domain.Cart{
		ID:             r.ID,
		TotalBeforeVAT: r.TotalBeforeVAT,
		Items:          make([]domain.Item, 0, len(r.Items)),
		Metadata:       projection.Metadata{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
	}
	for _, item := range r.Items {
		cart.Items = append(cart.Items, domain.Item{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return cart
}
