package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/aims-commerce/internal/domains/payments/domain"
	"github.com/Apurer/aims-commerce/internal/domains/payments/ports"
	"github.com/Apurer/aims-commerce/internal/shared/projection"
)

var _ ports.TransactionRepository = (*Repository)(nil)

// Repository persists payment transactions in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&TransactionRecord{})
	}
	return repo
}

// TransactionRecord maps a transaction; gateway specific parameters live in a JSON column.
type TransactionRecord struct {
	ID            int64             `gorm:"primaryKey;autoIncrement;column:id"`
	Gateway       string            `gorm:"column:gateway;type:varchar(32);index;not null"`
	TransactionNo string            `gorm:"column:transaction_no;index"`
	Amount        decimal.Decimal   `gorm:"column:amount;type:numeric(16,2)"`
	Status        string            `gorm:"column:status;type:varchar(16)"`
	PayDate       *time.Time        `gorm:"column:pay_date"`
	Info          string            `gorm:"column:info;type:text"`
	ErrorMessage  string            `gorm:"column:error_message;type:text"`
	Params        map[string]string `gorm:"column:params;serializer:json"`
	CreatedAt     time.Time         `gorm:"column:created_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at"`
}

func (TransactionRecord) TableName() string { return "transactions" }

func (r *Repository) Save(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, errors.New("transaction is nil")
	}
	record := TransactionRecord{
		ID:            tx.ID,
		Gateway:       tx.Gateway,
		TransactionNo: tx.TransactionNo,
		Amount:        tx.Amount,
		Status:        tx.Status,
		PayDate:       tx.PayDate,
		Info:          tx.Info,
		ErrorMessage:  tx.ErrorMessage,
		Params:        tx.Params,
		CreatedAt:     tx.Metadata.CreatedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		// params goes through the json serializer, so the excluded row values are reused.
		DoUpdates: clause.AssignmentColumns([]string{
			"gateway", "transaction_no", "amount", "status", "pay_date", "info", "error_message", "params", "updated_at",
		}),
	}).Create(&record).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record TransactionRecord
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
	result := r.db.WithContext(ctx).Delete(&TransactionRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context) ([]*domain.Transaction, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []TransactionRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	txs := make([]*domain.Transaction, 0, len(records))
	for i := range records {
		txs = append(txs, records[i].toDomain())
	}
	return txs, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres transaction repository not configured")
	}
	return nil
}

func (r TransactionRecord) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID:            r.ID,
		Gateway:       r.Gateway,
		TransactionNo: r.TransactionNo,
		Amount:        r.Amount,
		Status:        r.Status,
		PayDate:       r.PayDate,
		Info:          r.Info,
		ErrorMessage:  r.ErrorMessage,
		Params:        r.Params,
		Metadata:      projection.Metadata{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
	}
}
