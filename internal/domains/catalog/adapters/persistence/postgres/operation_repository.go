package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/aims-commerce/internal/domains/catalog/domain"
	"github.com/Apurer/aims-commerce/internal/domains/catalog/ports"
)

var _ ports.OperationRepository = (*OperationRepository)(nil)

// OperationRepository stores the catalog audit log.
type OperationRepository struct {
	db *gorm.DB
}

func NewOperationRepository(db *gorm.DB) *OperationRepository {
	repo := &OperationRepository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&OperationRecord{})
	}
	return repo
}

// OperationRecord is one audit row.
type OperationRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	ProductID int64     `gorm:"column:product_id;index:idx_product_operations_product_ts"`
	Type      string    `gorm:"column:type;type:varchar(32);index"`
	Timestamp time.Time `gorm:"column:timestamp;index:idx_product_operations_product_ts"`
}

func (OperationRecord) TableName() string { return "product_operations" }

func (r *OperationRepository) Append(ctx context.Context, op *domain.Operation) (*domain.Operation, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if op == nil {
		return nil, errors.New("operation is nil")
	}
	record := OperationRecord{ProductID: op.ProductID, Type: string(op.Type), Timestamp: op.Timestamp}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *OperationRepository) Count(ctx context.Context, filter ports.OperationFilter) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *OperationRepository) List(ctx context.Context, filter ports.OperationFilter) ([]*domain.Operation, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []OperationRecord
	if err := r.filtered(ctx, filter).Order("timestamp, id").Find(&records).Error; err != nil {
		return nil, err
	}
	ops := make([]*domain.Operation, 0, len(records))
	for i := range records {
		ops = append(ops, records[i].toDomain())
	}
	return ops, nil
}

func (r *OperationRepository) filtered(ctx context.Context, filter ports.OperationFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&OperationRecord{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if len(filter.Types) > 0 {
		types := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			types = append(types, string(t))
		}
		query = query.Where("type IN ?", types)
	}
	if !filter.Since.IsZero() {
		query = query.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		query = query.Where("timestamp < ?", filter.Until)
	}
	return query
}

func (r *OperationRepository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres operation repository not configured")
	}
	return nil
}

func (r OperationRecord) toDomain() *domain.Operation {
	return &domain.Operation{
		ID:        r.ID,
		ProductID: r.ProductID,
		Type:      domain.OperationType(r.Type),
		Timestamp: r.Timestamp,
	}
}
