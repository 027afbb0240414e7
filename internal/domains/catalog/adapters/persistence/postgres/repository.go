package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/aims-commerce/internal/domains/catalog/domain"
	"github.com/Apurer/aims-commerce/internal/domains/catalog/ports"
	"github.com/Apurer/aims-commerce/internal/shared/projection"
)

var _ ports.ProductRepository = (*Repository)(nil)

// Repository persists catalog products in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&ProductRecord{})
	}
	return repo
}

// ProductRecord maps the product aggregate to a single table; variant payloads live in JSON columns.
type ProductRecord struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement;column:id"`
	Kind               string          `gorm:"column:kind;type:varchar(8);index"`
	Title              string          `gorm:"column:title;not null"`
	Category           string          `gorm:"column:category;index"`
	Barcode            string          `gorm:"column:barcode;uniqueIndex"`
	Description        string          `gorm:"column:description;type:text"`
	Dimensions         string          `gorm:"column:dimensions"`
	ImageURL           string          `gorm:"column:image_url"`
	Value              decimal.Decimal `gorm:"column:value;type:numeric(14,2)"`
	CurrentPrice       decimal.Decimal `gorm:"column:current_price;type:numeric(14,2);index"`
	Weight             float64         `gorm:"column:weight"`
	Quantity           int             `gorm:"column:quantity"`
	RushEligible       bool            `gorm:"column:rush_eligible"`
	WarehouseEntryDate time.Time       `gorm:"column:warehouse_entry_date"`
	Deleted            bool            `gorm:"column:deleted;index"`
	DeletedAt          *time.Time      `gorm:"column:deleted_at"`
	Book               *bookPayload    `gorm:"column:book;serializer:json"`
	Disc               *discPayload    `gorm:"column:disc;serializer:json"`
	DVD                *dvdPayload     `gorm:"column:dvd;serializer:json"`
	Tracks             pq.StringArray  `gorm:"column:tracks;type:text[]"`
	CreatedAt          time.Time       `gorm:"column:created_at;index"`
	UpdatedAt          time.Time       `gorm:"column:updated_at"`
}

func (ProductRecord) TableName() string { return "products" }

type bookPayload struct {
	Author          string     `json:"author"`
	CoverType       string     `json:"coverType"`
	Publisher       string     `json:"publisher"`
	Language        string     `json:"language"`
	Genre           string     `json:"genre,omitempty"`
	Pages           int        `json:"pages"`
	PublicationDate *time.Time `json:"publicationDate,omitempty"`
}

type discPayload struct {
	Artist      string     `json:"artist"`
	Album       string     `json:"album"`
	RecordLabel string     `json:"recordLabel"`
	Tracklist   string     `json:"tracklist,omitempty"`
	Genre       string     `json:"genre,omitempty"`
	ReleaseDate *time.Time `json:"releaseDate,omitempty"`
}

type dvdPayload struct {
	DiscType    string     `json:"discType"`
	Director    string     `json:"director"`
	Runtime     string     `json:"runtime"`
	Studio      string     `json:"studio"`
	Language    string     `json:"language"`
	Subtitles   string     `json:"subtitles,omitempty"`
	Genre       string     `json:"genre,omitempty"`
	ReleaseDate *time.Time `json:"releaseDate,omitempty"`
}

var sortColumns = map[string]string{
	ports.SortByID:        "id",
	ports.SortByTitle:     "title",
	ports.SortByPrice:     "current_price",
	ports.SortByCreatedAt: "created_at",
}

// Save inserts or updates a product.
func (r *Repository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	record := toRecord(product)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"kind":                 record.Kind,
				"title":                record.Title,
				"category":             record.Category,
				"barcode":              record.Barcode,
				"description":          record.Description,
				"dimensions":           record.Dimensions,
				"image_url":            record.ImageURL,
				"value":                record.Value,
				"current_price":        record.CurrentPrice,
				"weight":               record.Weight,
				"quantity":             record.Quantity,
				"rush_eligible":        record.RushEligible,
				"warehouse_entry_date": record.WarehouseEntryDate,
				"deleted":              record.Deleted,
				"deleted_at":           record.DeletedAt,
				"book":                 gorm.Expr("EXCLUDED.book"),
				"disc":                 gorm.Expr("EXCLUDED.disc"),
				"dvd":                  gorm.Expr("EXCLUDED.dvd"),
				"tracks":               record.Tracks,
				"updated_at":           gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ports.ErrDuplicateBarcode
		}
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches a product by identifier, including soft-deleted rows.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record ProductRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Delete removes a product row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&ProductRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// List returns all live products ordered by id.
func (r *Repository) List(ctx context.Context) ([]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []ProductRecord
	if err := r.live(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	return toDomainList(records), nil
}

// Search filters, sorts and paginates live products.
func (r *Repository) Search(ctx context.Context, filter ports.SearchFilter) (ports.ProductPage, error) {
	if err := r.ensureDB(); err != nil {
		return ports.ProductPage{}, err
	}
	query := r.live(ctx)
	if filter.Title != "" {
		query = query.Where("title ILIKE ?", "%"+escapeLike(filter.Title)+"%")
	}
	if filter.Category != "" {
		query = query.Where("LOWER(category) = LOWER(?)", filter.Category)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", string(filter.Kind))
	}
	if filter.MinPrice != nil {
		query = query.Where("current_price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("current_price <= ?", *filter.MaxPrice)
	}

	page := ports.ProductPage{Page: filter.Page, Size: filter.Size}
	if err := query.Count(&page.Total).Error; err != nil {
		return ports.ProductPage{}, err
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "id"
	}
	query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: filter.SortDesc})
	if column != "id" {
		query = query.Order("id")
	}
	if filter.Size > 0 {
		query = query.Offset(filter.Page * filter.Size).Limit(filter.Size)
	}
	var records []ProductRecord
	if err := query.Find(&records).Error; err != nil {
		return ports.ProductPage{}, err
	}
	page.Items = toDomainList(records)
	return page, nil
}

// IDRange returns the smallest and largest live ids.
func (r *Repository) IDRange(ctx context.Context) (int64, int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, 0, err
	}
	var bounds struct {
		MinID int64
		MaxID int64
	}
	if err := r.live(ctx).
		Select("COALESCE(MIN(id), 0) AS min_id, COALESCE(MAX(id), 0) AS max_id").
		Scan(&bounds).Error; err != nil {
		return 0, 0, err
	}
	return bounds.MinID, bounds.MaxID, nil
}

// ListFrom returns up to limit live products with id >= fromID.
func (r *Repository) ListFrom(ctx context.Context, fromID int64, limit int) ([]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []ProductRecord
	query := r.live(ctx).Where("id >= ?", fromID).Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return toDomainList(records), nil
}

func (r *Repository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&ProductRecord{}).Where("deleted = ?", false)
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres product repository not configured")
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func toRecord(p *domain.Product) ProductRecord {
	rec := ProductRecord{
		ID:                 p.ID,
		Kind:               string(p.Kind),
		Title:              p.Title,
		Category:           p.Category,
		Barcode:            p.Barcode,
		Description:        p.Description,
		Dimensions:         p.Dimensions,
		ImageURL:           p.ImageURL,
		Value:              p.Value,
		CurrentPrice:       p.CurrentPrice,
		Weight:             p.Weight,
		Quantity:           p.Quantity,
		RushEligible:       p.RushEligible,
		WarehouseEntryDate: p.WarehouseEntryDate,
		Deleted:            p.Deleted,
		DeletedAt:          p.DeletedAt,
		CreatedAt:          p.Metadata.CreatedAt,
		UpdatedAt:          p.Metadata.UpdatedAt,
	}
	if b := p.Book; b != nil {
		rec.Book = &bookPayload{
			Author:          b.Author,
			CoverType:       b.CoverType,
			Publisher:       b.Publisher,
			Language:        b.Language,
			Genre:           b.Genre,
			Pages:           b.Pages,
			PublicationDate: b.PublicationDate,
		}
	}
	if d := p.Disc; d != nil {
		rec.Disc = &discPayload{
			Artist:      d.Artist,
			Album:       d.Album,
			RecordLabel: d.RecordLabel,
			Tracklist:   d.Tracklist,
			Genre:       d.Genre,
			ReleaseDate: d.ReleaseDate,
		}
		rec.Tracks = splitTracks(d.Tracklist)
	}
	if v := p.DVD; v != nil {
		rec.DVD = &dvdPayload{
			DiscType:    v.DiscType,
			Director:    v.Director,
			Runtime:     v.Runtime,
			Studio:      v.Studio,
			Language:    v.Language,
			Subtitles:   v.Subtitles,
			Genre:       v.Genre,
			ReleaseDate: v.ReleaseDate,
		}
	}
	return rec
}

func (r ProductRecord) toDomain() *domain.Product {
	p := &domain.Product{
		ID:                 r.ID,
		Kind:               domain.Kind(r.Kind),
		Title:              r.Title,
		Category:           r.Category,
		Barcode:            r.Barcode,
		Description:        r.Description,
		Dimensions:         r.Dimensions,
		ImageURL:           r.ImageURL,
		Value:              r.Value,
		CurrentPrice:       r.CurrentPrice,
		Weight:             r.Weight,
		Quantity:           r.Quantity,
		RushEligible:       r.RushEligible,
		WarehouseEntryDate: r.WarehouseEntryDate,
		Deleted:            r.Deleted,
		DeletedAt:          r.DeletedAt,
		Metadata:           projection.Metadata{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
	}
	if b := r.Book; b != nil {
		p.Book = &domain.Book{
			Author:          b.Author,
			CoverType:       b.CoverType,
			Publisher:       b.Publisher,
			Language:        b.Language,
			Genre:           b.Genre,
			Pages:           b.Pages,
			PublicationDate: b.PublicationDate,
		}
	}
	if d := r.Disc; d != nil {
		p.Disc = &domain.Disc{
			Artist:      d.Artist,
			Album:       d.Album,
			RecordLabel: d.RecordLabel,
			Tracklist:   d.Tracklist,
			Genre:       d.Genre,
			ReleaseDate: d.ReleaseDate,
		}
	}
	if v := r.DVD; v != nil {
		p.DVD = &domain.DVD{
			DiscType:    v.DiscType,
			Director:    v.Director,
			Runtime:     v.Runtime,
			Studio:      v.Studio,
			Language:    v.Language,
			Subtitles:   v.Subtitles,
			Genre:       v.Genre,
			ReleaseDate: v.ReleaseDate,
		}
	}
	return p
}

func toDomainList(records []ProductRecord) []*domain.Product {
	products := make([]*domain.Product, 0, len(records))
	for i := range records {
		products = append(products, records[i].toDomain())
	}
	return products
}

func splitTracks(tracklist string) pq.StringArray {
	if strings.TrimSpace(tracklist) == "" {
		return pq.StringArray{}
	}
	parts := strings.Split(tracklist, ",")
	tracks := make(pq.StringArray, 0, len(parts))
	for _, part := range parts {
		tracks = append(tracks, strings.TrimSpace(part))
	}
	return tracks
}
