package mapper

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"

	"github.com/Apurer/aims-commerce/internal/domains/catalog/domain"
	"github.com/Apurer/aims-commerce/internal/domains/catalog/ports"
)

// Product is the flat HTTP representation of every product variant; productType selects the variant fields.
type Product struct {
	ID                 int64               `json:"id,omitempty"`
	ProductType        string              `json:"productType"`
	Title              string              `json:"title"`
	Category           string              `json:"category"`
	Value              float64             `json:"value"`
	CurrentPrice       float64             `json:"currentPrice"`
	Barcode            string              `json:"barcode"`
	Description        string              `json:"productDescription,omitempty"`
	Weight             float64             `json:"weight"`
	Dimensions         string              `json:"productDimensions"`
	ImageURL           string              `json:"imageURL"`
	RushOrderEligible  bool                `json:"rushOrderEligible"`
	Quantity           int                 `json:"quantity"`
	WarehouseEntryDate *openapi_types.Date `json:"warehouseEntryDate,omitempty"`
	Deleted            bool                `json:"deleted"`
	DeletedAt          *time.Time          `json:"deletedAt,omitempty"`
	CreatedAt          *time.Time          `json:"createdAt,omitempty"`
	UpdatedAt          *time.Time          `json:"updatedAt,omitempty"`

	// BOOK
	Author          string              `json:"author,omitempty"`
	CoverType       string              `json:"coverType,omitempty"`
	Publisher       string              `json:"publisher,omitempty"`
	NumberOfPages   int                 `json:"numberOfPage,omitempty"`
	PublicationDate *openapi_types.Date `json:"publicationDate,omitempty"`

	// CD, LP
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	RecordLabel string `json:"recordLabel,omitempty"`
	Tracklist   string `json:"tracklist,omitempty"`

	// DVD
	DiscType  string `json:"discType,omitempty"`
	Director  string `json:"director,omitempty"`
	Runtime   string `json:"runtime,omitempty"`
	Studio    string `json:"studio,omitempty"`
	Subtitles string `json:"subtitle,omitempty"`

	// shared by several variants
	Language    string              `json:"language,omitempty"`
	Genre       string              `json:"genre,omitempty"`
	ReleaseDate *openapi_types.Date `json:"releaseDate,omitempty"`
}

// ProductPage is the paginated search response.
type ProductPage struct {
	Content       []Product `json:"content"`
	Page          int       `json:"page"`
	Size          int       `json:"size"`
	TotalElements int64     `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
}

// Operation is the HTTP representation of an audit log entry.
type Operation struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"productId"`
	Type      string    `json:"operationType"`
	Timestamp time.Time `json:"timestamp"`
}

// StockUpdate is the body of the stock adjustment endpoint.
type StockUpdate struct {
	Quantity  int    `json:"quantity"`
	Operation string `json:"operation" binding:"required"`
}

// InventoryLine is one requested line of an inventory check.
type InventoryLine struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity"`
}

// InventoryRequest is the body of the inventory check endpoint.
type InventoryRequest struct {
	Items []InventoryLine `json:"items" binding:"required"`
}

// InventoryCheck answers an inventory check; OutOfStockProducts is null when everything is available.
type InventoryCheck struct {
	AllAvailable       bool         `json:"allAvailable"`
	OutOfStockProducts []OutOfStock `json:"outOfStockProducts"`
}

// OutOfStock reports a line that cannot be served.
type OutOfStock struct {
	ProductID int64  `json:"productId"`
	Title     string `json:"title"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Message   string `json:"message"`
}

// ToDomainProduct maps a transport product into the domain aggregate. The variant payload is chosen by productType.
func ToDomainProduct(input Product) (*domain.Product, error) {
	kind, err := domain.ParseKind(input.ProductType)
	if err != nil {
		return nil, err
	}
	p := &domain.Product{
		ID:                 input.ID,
		Kind:               kind,
		Title:              input.Title,
		Category:           input.Category,
		Value:              decimal.NewFromFloat(input.Value),
		CurrentPrice:       decimal.NewFromFloat(input.CurrentPrice),
		Barcode:            input.Barcode,
		Description:        input.Description,
		Weight:             input.Weight,
		Dimensions:         input.Dimensions,
		ImageURL:           input.ImageURL,
		RushEligible:       input.RushOrderEligible,
		Quantity:           input.Quantity,
		WarehouseEntryDate: fromDate(input.WarehouseEntryDate),
	}
	switch kind {
	case domain.KindBook:
		p.Book = &domain.Book{
			Author:          input.Author,
			CoverType:       input.CoverType,
			Publisher:       input.Publisher,
			Language:        input.Language,
			Genre:           input.Genre,
			Pages:           input.NumberOfPages,
			PublicationDate: fromDatePtr(input.PublicationDate),
		}
	case domain.KindCD, domain.KindLP:
		p.Disc = &domain.Disc{
			Artist:      input.Artist,
			Album:       input.Album,
			RecordLabel: input.RecordLabel,
			Tracklist:   input.Tracklist,
			Genre:       input.Genre,
			ReleaseDate: fromDatePtr(input.ReleaseDate),
		}
	case domain.KindDVD:
		p.DVD = &domain.DVD{
			DiscType:    input.DiscType,
			Director:    input.Director,
			Runtime:     input.Runtime,
			Studio:      input.Studio,
			Language:    input.Language,
			Subtitles:   input.Subtitles,
			Genre:       input.Genre,
			ReleaseDate: fromDatePtr(input.ReleaseDate),
		}
	}
	return p, nil
}

// FromDomainProduct maps a domain aggregate into a transport product.
func FromDomainProduct(p *domain.Product) Product {
	out := Product{
		ID:                 p.ID,
		ProductType:        string(p.Kind),
		Title:              p.Title,
		Category:           p.Category,
		Value:              p.Value.InexactFloat64(),
		CurrentPrice:       p.CurrentPrice.InexactFloat64(),
		Barcode:            p.Barcode,
		Description:        p.Description,
		Weight:             p.Weight,
		Dimensions:         p.Dimensions,
		ImageURL:           p.ImageURL,
		RushOrderEligible:  p.RushEligible,
		Quantity:           p.Quantity,
		WarehouseEntryDate: toDatePtr(&p.WarehouseEntryDate),
		Deleted:            p.Deleted,
		DeletedAt:          p.DeletedAt,
	}
	if !p.Metadata.CreatedAt.IsZero() {
		created, updated := p.Metadata.CreatedAt, p.Metadata.UpdatedAt
		out.CreatedAt, out.UpdatedAt = &created, &updated
	}
	if b := p.Book; b != nil {
		out.Author = b.Author
		out.CoverType = b.CoverType
		out.Publisher = b.Publisher
		out.Language = b.Language
		out.Genre = b.Genre
		out.NumberOfPages = b.Pages
		out.PublicationDate = toDatePtr(b.PublicationDate)
	}
	if d := p.Disc; d != nil {
		out.Artist = d.Artist
		out.Album = d.Album
		out.RecordLabel = d.RecordLabel
		out.Tracklist = d.Tracklist
		out.Genre = d.Genre
		out.ReleaseDate = toDatePtr(d.ReleaseDate)
	}
	if v := p.DVD; v != nil {
		out.DiscType = v.DiscType
		out.Director = v.Director
		out.Runtime = v.Runtime
		out.Studio = v.Studio
		out.Language = v.Language
		out.Subtitles = v.Subtitles
		out.Genre = v.Genre
		out.ReleaseDate = toDatePtr(v.ReleaseDate)
	}
	return out
}

// FromDomainProducts maps a slice of aggregates.
func FromDomainProducts(products []*domain.Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		out = append(out, FromDomainProduct(p))
	}
	return out
}

// FromProductPage maps a search result page.
func FromProductPage(page ports.ProductPage) ProductPage {
	return ProductPage{
		Content:       FromDomainProducts(page.Items),
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.Total,
		TotalPages:    page.TotalPages(),
	}
}

// FromDomainOperations maps audit entries.
func FromDomainOperations(ops []*domain.Operation) []Operation {
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		out = append(out, Operation{ID: op.ID, ProductID: op.ProductID, Type: string(op.Type), Timestamp: op.Timestamp})
	}
	return out
}

// ToStockLines maps inventory request lines.
func ToStockLines(lines []InventoryLine) []ports.StockLine {
	out := make([]ports.StockLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, ports.StockLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return out
}

// FromOutOfStock maps inventory shortages.
func FromOutOfStock(items []ports.OutOfStock) []OutOfStock {
	out := make([]OutOfStock, 0, len(items))
	for _, item := range items {
		out = append(out, OutOfStock(item))
	}
	return out
}

// FromInventoryCheck summarises shortages the way the storefront expects.
func FromInventoryCheck(items []ports.OutOfStock) InventoryCheck {
	if len(items) == 0 {
		return InventoryCheck{AllAvailable: true}
	}
	return InventoryCheck{OutOfStockProducts: FromOutOfStock(items)}
}

func fromDate(d *openapi_types.Date) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}

func fromDatePtr(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func toDatePtr(t *time.Time) *openapi_types.Date {
	if t == nil || t.IsZero() {
		return nil
	}
	return &openapi_types.Date{Time: *t}
}
