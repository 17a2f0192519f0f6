package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods accepted at the terminal.
const (
	PayCash        = "cash"
	PayPixTerminal = "pix_terminal"
	PayPixDirect   = "pix_direct"
	PayDebit       = "debit"
	PayCredit      = "credit"
)

// PaymentMethods lists every accepted method, in the order reports show them.
var PaymentMethods = []string{PayCash, PayPixTerminal, PayPixDirect, PayDebit, PayCredit}

// Sale statuses.
const (
	SaleFinalized = "finalized"
	SaleCancelled = "cancelled"
)

// Sale is a finalized checkout. Sales are never deleted: cancellation flips
// Status to "cancelled" and restores stock, keeping the record for audit.
//
// IdempotencyKey is generated client-side before the create call so that a
// retried request is applied at most once.
type Sale struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TicketNumber   int       `gorm:"uniqueIndex;not null"`
	IdempotencyKey string    `gorm:"uniqueIndex;not null"`
	SessionID      uuid.UUID `gorm:"type:uuid;index;not null"`
	UserID         uuid.UUID `gorm:"type:uuid;not null"`
	PaymentMethod  string    `gorm:"type:varchar(20);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountTotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// CostTotal is the frozen sum of unit_cost × qty at sale time, so closure
	// reports do not depend on later catalog price edits.
	CostTotal      decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	AmountReceived *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Change         decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	CouponID       *uuid.UUID       `gorm:"type:uuid"`
	Status         string           `gorm:"type:varchar(20);not null;default:'finalized'"`
	CancelReason   *string
	CancelledAt    *time.Time
	// AuthorizedBy records the elevated user who approved a cancellation.
	AuthorizedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time  `gorm:"index"`

	Items []SaleItem `gorm:"foreignKey:SaleID"`
	User  *User      `gorm:"foreignKey:UserID"`
}

// SaleItem is one product/quantity/price line within a sale. Name, SKU and
// prices are frozen copies taken at checkout time.
type SaleItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"`
	SKU       string    `gorm:"not null"`
	Name      string    `gorm:"not null"`
	Quantity  int       `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// PendingSale is a durable entry in the offline retry queue: a checkout that
// could not be committed is parked here and replayed by the retry cron.
// Status: "pending" | "synced" | "dead"
type PendingSale struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IdempotencyKey string    `gorm:"uniqueIndex;not null"`
	UserID         uuid.UUID `gorm:"type:uuid;not null"`
	Payload        []byte    `gorm:"type:jsonb;not null"`
	LastError      *string
	RetryCount     int        `gorm:"not null;default:0"`
	NextRetryAt    *time.Time `gorm:"index"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
