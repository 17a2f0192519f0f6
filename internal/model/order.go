package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Online-order statuses, in fulfilment order.
const (
	OrderReceived  = "received"
	OrderPacked    = "packed"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
)

// OnlineOrder tracks an order placed through the store's online channel.
// Orders are entered and updated via the API; the storefront itself is not
// integrated here.
type OnlineOrder struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Reference string    `gorm:"uniqueIndex;not null"`
	Customer  string    `gorm:"not null"`
	Address   string    `gorm:"not null"`
	City      string    `gorm:"not null"`
	ZipCode   string
	Phone     string
	// ItemsJSON is a frozen snapshot of the ordered lines (sku, name, qty).
	ItemsJSON []byte          `gorm:"type:jsonb;not null"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status    string          `gorm:"type:varchar(20);not null;default:'received'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
