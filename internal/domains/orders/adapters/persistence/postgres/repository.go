package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
	"github.com/Apurer/aims-commerce/internal/domains/orders/ports"
	"github.com/Apurer/aims-commerce/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&OrderRecord{})
	}
	return repo
}

// OrderRecord maps an order; each reference can back a single order.
type OrderRecord struct {
	ID               int64      `gorm:"primaryKey;autoIncrement;column:id"`
	TransactionID    int64      `gorm:"column:transaction_id;uniqueIndex;not null"`
	InvoiceID        int64      `gorm:"column:invoice_id;uniqueIndex;not null"`
	DeliveryInfoID   int64      `gorm:"column:delivery_info_id;uniqueIndex;not null"`
	Status           string     `gorm:"column:status;type:varchar(16);index;not null"`
	RushDeliveryTime *time.Time `gorm:"column:rush_delivery_time"`
	RushInstruction  string     `gorm:"column:rush_instruction;type:text"`
	RejectionReason  string     `gorm:"column:rejection_reason;type:text"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (OrderRecord) TableName() string { return "orders" }

// Save inserts or updates an order.
func (r *Repository) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := fromDomain(order)
	if err := upsert(r.db.WithContext(ctx), &record); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record OrderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&OrderRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.find(ctx, r.db)
}

func (r *Repository) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	return r.find(ctx, r.db.Where("status = ?", string(status)))
}

// Mutate locks the order row for the duration of the edit.
func (r *Repository) Mutate(ctx context.Context, id int64, fn ports.MutateFunc) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var working *domain.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked OrderRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		order := locked.toDomain()
		if err := fn(order); err != nil {
			return err
		}
		record := fromDomain(order)
		if err := upsert(tx, &record); err != nil {
			return err
		}
		order.Metadata.UpdatedAt = time.Now()
		working = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return working, nil
}

func (r *Repository) find(ctx context.Context, query *gorm.DB) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []OrderRecord
	if err := query.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func upsert(db *gorm.DB, record *OrderRecord) error {
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":             record.Status,
			"rush_delivery_time": record.RushDeliveryTime,
			"rush_instruction":   record.RushInstruction,
			"rejection_reason":   record.RejectionReason,
			"updated_at":         gorm.Expr("NOW()"),
		}),
	}).Create(record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ports.ErrDuplicateReference
	}
	return err
}

func fromDomain(order *domain.Order) OrderRecord {
	record := OrderRecord{
		ID:              order.ID,
		TransactionID:   order.TransactionID,
		InvoiceID:       order.InvoiceID,
		DeliveryInfoID:  order.DeliveryInfoID,
		Status:          string(order.Status),
		RejectionReason: order.RejectionReason,
		CreatedAt:       order.Metadata.CreatedAt,
	}
	if order.Rush != nil {
		deliveryTime := order.Rush.DeliveryTime
		record.RushDeliveryTime = &deliveryTime
		record.RushInstruction = order.Rush.Instruction
	}
	return record
}

func (r OrderRecord) toDomain() *domain.Order {
	order := &domain.Order{
		ID:              r.ID,
		TransactionID:   r.TransactionID,
		InvoiceID:       r.InvoiceID,
		DeliveryInfoID:  r.DeliveryInfoID,
		Status:          domain.Status(r.Status),
		RejectionReason: r.RejectionReason,
		Metadata:        projection.Metadata{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
	}
	if r.RushDeliveryTime != nil {
		order.Rush = &domain.RushDetails{DeliveryTime: *r.RushDeliveryTime, Instruction: r.RushInstruction}
	}
	return order
}
