package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
	"github.com/Apurer/aims-commerce/internal/domains/orders/ports"
	"github.com/Apurer/aims-commerce/internal/shared/projection"
)

var (
	_ ports.DeliveryInfoRepository = (*DeliveryInfoRepository)(nil)
	_ ports.InvoiceRepository      = (*InvoiceRepository)(nil)
)

// DeliveryInfoRecord maps a delivery address.
type DeliveryInfoRecord struct {
	ID            int64     `gorm:"primaryKey;autoIncrement;column:id"`
	RecipientName string    `gorm:"column:recipient_name;not null"`
	Email         string    `gorm:"column:email;not null"`
	Phone         string    `gorm:"column:phone;type:varchar(15);not null"`
	Address       string    `gorm:"column:address;type:varchar(255);not null"`
	Province      string    `gorm:"column:province;not null"`
	District      string    `gorm:"column:district"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (DeliveryInfoRecord) TableName() string { return "delivery_infos" }

// InvoiceRecord maps an invoice and the cart snapshot it froze.
type InvoiceRecord struct {
	ID             int64           `gorm:"primaryKey;autoIncrement;column:id"`
	CartID         int64           `gorm:"column:cart_id;index;not null"`
	TotalBeforeVAT decimal.Decimal `gorm:"column:total_before_vat;type:numeric(16,2)"`
	TotalAfterVAT  decimal.Decimal `gorm:"column:total_after_vat;type:numeric(16,2)"`
	DeliveryFee    decimal.Decimal `gorm:"column:delivery_fee;type:numeric(16,2)"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:numeric(16,2)"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (InvoiceRecord) TableName() string { return "invoices" }

// DeliveryInfoRepository persists delivery addresses in PostgreSQL.
type DeliveryInfoRepository struct {
	db *gorm.DB
}

func NewDeliveryInfoRepository(db *gorm.DB) *DeliveryInfoRepository {
	if db != nil {
		_ = db.AutoMigrate(&DeliveryInfoRecord{})
	}
	return &DeliveryInfoRepository{db: db}
}

func (r *DeliveryInfoRepository) Save(ctx context.Context, info *domain.DeliveryInfo) (*domain.DeliveryInfo, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("postgres delivery info repository not configured")
	}
	if info == nil {
		return nil, errors.New("delivery info is nil")
	}
	record := DeliveryInfoRecord{
		ID:            info.ID,
		RecipientName: info.RecipientName,
		Email:         info.Email,
		Phone:         info.Phone,
		Address:       info.Address,
		Province:      info.Province,
		District:      info.District,
		CreatedAt:     info.Metadata.CreatedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"recipient_name": record.RecipientName,
			"email":          record.Email,
			"phone":          record.Phone,
			"address":        record.Address,
			"province":       record.Province,
			"district":       record.District,
			"updated_at":     gorm.Expr("NOW()"),
		}),
	}).Create(&record).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *DeliveryInfoRepository) GetByID(ctx context.Context, id int64) (*domain.DeliveryInfo, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("postgres delivery info repository not configured")
	}
	var record DeliveryInfoRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrDeliveryInfoNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *DeliveryInfoRepository) Delete(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("postgres delivery info repository not configured")
	}
	result := r.db.WithContext(ctx).Delete(&DeliveryInfoRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrDeliveryInfoNotFound
	}
	return nil
}

func (r *DeliveryInfoRepository) List(ctx context.Context) ([]*domain.DeliveryInfo, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("postgres delivery info repository not configured")
	}
	var records []DeliveryInfoRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	infos := make([]*domain.DeliveryInfo, 0, len(records))
	for i := range records {
		infos = append(infos, records[i].toDomain())
	}
	return infos, nil
}

func (r DeliveryInfoRecord) toDomain() *domain.DeliveryInfo {
	return &domain.DeliveryInfo{
		ID:            r.ID,
		RecipientName: r.RecipientName,
		Email:         r.Email,
		Phone:         r.Phone,
		Address:       r.Address,
		Province:      r.Province,
		District:      r.District,
		Metadata:      projection.Metadata{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
	}
}

// InvoiceRepository persists invoices in PostgreSQL.
type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	if db != nil {
		_ = db.AutoMigrate(&InvoiceRecord{})
	}
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Save(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("postgres invoice repository not configured")
	}
	if invoice == nil {
		return nil, errors.New("invoice is nil")
	}
	record := InvoiceRecord{
		ID:             invoice.ID,
		CartID:         invoice.CartID,
		TotalBeforeVAT: invoice.TotalBeforeVAT,
		TotalAfterVAT:  invoice.TotalAfterVAT,
		DeliveryFee:    invoice.DeliveryFee,
		TotalAmount:    invoice.TotalAmount,
		CreatedAt:      invoice.Metadata.CreatedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"cart_id":          record.CartID,
			"total_before_vat": record.TotalBeforeVAT,
			"total_after_vat":  record.TotalAfterVAT,
			"delivery_fee":     record.DeliveryFee,
			"total_amount":     record.TotalAmount,
			"updated_at":       gorm.Expr("NOW()"),
		}),
	}).Create(&record).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("postgres invoice repository not configured")
	}
	var record InvoiceRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrInvoiceNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *InvoiceRepository) Delete(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("postgres invoice repository not configured")
	}
	result := r.db.WithContext(ctx).Delete(&InvoiceRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrInvoiceNotFound
	}
	return nil
}

func (r *InvoiceRepository) List(ctx context.Context) ([]*domain.Invoice, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("postgres invoice repository not configured")
	}
	var records []InvoiceRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	invoices := make([]*domain.Invoice, 0, len(records))
	for i := range records {
		invoices = append(invoices, records[i].toDomain())
	}
	return invoices, nil
}

func (r InvoiceRecord) toDomain() *domain.Invoice {
	return &domain.Invoice{
		ID:             r.ID,
		CartID:         r.CartID,
		TotalBeforeVAT: r.TotalBeforeVAT,
		TotalAfterVAT:  r.TotalAfterVAT,
		DeliveryFee:    r.DeliveryFee,
		TotalAmount:    r.TotalAmount,
		Metadata:       projection.Metadata{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
	}
}
