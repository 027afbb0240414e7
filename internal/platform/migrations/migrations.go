package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&productRecord{},
		&operationRecord{},
		&cartRecord{},
		&cartItemRecord{},
		&deliveryInfoRecord{},
		&invoiceRecord{},
		&orderRecord{},
		&idempotencyRecord{},
		&transactionRecord{},
		&roleRecord{},
		&userRecord{},
		&sessionRecord{},
	)
}

// Product schema mirrors the catalog Postgres adapter.
type productRecord struct {
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
	Book               map[string]any  `gorm:"column:book;serializer:json"`
	Disc               map[string]any  `gorm:"column:disc;serializer:json"`
	DVD                map[string]any  `gorm:"column:dvd;serializer:json"`
	Tracks             pq.StringArray  `gorm:"column:tracks;type:text[]"`
	CreatedAt          time.Time       `gorm:"column:created_at;index"`
	UpdatedAt          time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

// Operation schema mirrors the catalog audit log.
type operationRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	ProductID int64     `gorm:"column:product_id;index:idx_product_operations_product_ts"`
	Type      string    `gorm:"column:type;type:varchar(32);index"`
	Timestamp time.Time `gorm:"column:timestamp;index:idx_product_operations_product_ts"`
}

func (operationRecord) TableName() string { return "product_operations" }

// Cart schema mirrors the cart Postgres adapter.
type cartRecord struct {
	ID             int64            `gorm:"primaryKey;autoIncrement;column:id"`
	TotalBeforeVAT decimal.Decimal  `gorm:"column:total_before_vat;type:numeric(16,2)"`
	Items          []cartItemRecord `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at"`
	UpdatedAt      time.Time        `gorm:"column:updated_at"`
}

func (cartRecord) TableName() string { return "carts" }

type cartItemRecord struct {
	ID        int64 `gorm:"primaryKey;autoIncrement;column:id"`
	CartID    int64 `gorm:"column:cart_id;uniqueIndex:idx_cart_items_cart_product"`
	ProductID int64 `gorm:"column:product_id;uniqueIndex:idx_cart_items_cart_product"`
	Quantity  int   `gorm:"column:quantity"`
	Position  int   `gorm:"column:position"`
}

func (cartItemRecord) TableName() string { return "cart_items" }

// Delivery info, invoice and order schemas mirror the orders Postgres adapter.
type deliveryInfoRecord struct {
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

func (deliveryInfoRecord) TableName() string { return "delivery_infos" }

type invoiceRecord struct {
	ID             int64           `gorm:"primaryKey;autoIncrement;column:id"`
	CartID         int64           `gorm:"column:cart_id;index;not null"`
	TotalBeforeVAT decimal.Decimal `gorm:"column:total_before_vat;type:numeric(16,2)"`
	TotalAfterVAT  decimal.Decimal `gorm:"column:total_after_vat;type:numeric(16,2)"`
	DeliveryFee    decimal.Decimal `gorm:"column:delivery_fee;type:numeric(16,2)"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:numeric(16,2)"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (invoiceRecord) TableName() string { return "invoices" }

type orderRecord struct {
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

func (orderRecord) TableName() string { return "orders" }

type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	OrderID     int64     `gorm:"column:order_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyRecord) TableName() string { return "order_idempotency_keys" }

// Transaction schema mirrors the payments Postgres adapter.
type transactionRecord struct {
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

func (transactionRecord) TableName() string { return "transactions" }

// User, role and session schemas mirror the users Postgres adapter.
type userRecord struct {
	ID           int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Username     string    `gorm:"column:username;uniqueIndex;not null"`
	Name         string    `gorm:"column:name"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Roles        []string  `gorm:"column:roles;serializer:json"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }

type roleRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Name      string    `gorm:"column:name;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (roleRecord) TableName() string { return "roles" }

type sessionRecord struct {
	Token     string    `gorm:"primaryKey;column:token;size:512"`
	Username  string    `gorm:"column:username;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (sessionRecord) TableName() string { return "user_sessions" }
