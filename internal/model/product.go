package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. The SKU is the stock-keeping identifier every
// sale line must carry — stock decrements key on it.
//
// Stock semantics: a nil Stock means unlimited (the product never blocks a
// sale); a non-nil Stock is enforced atomically at checkout commit time.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU         string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"index;not null"`
	Description *string
	Category    string          `gorm:"not null"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SalePrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock       *int
	MinStock    int  `gorm:"not null;default:0"`
	Active      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StockMovement is an immutable audit entry for every stock change.
// Kind: "sale" | "cancel_restore" | "manual_adjust"
type StockMovement struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID  uuid.UUID `gorm:"type:uuid;index;not null"`
	Kind       string    `gorm:"type:varchar(20);not null"`
	Quantity   int       `gorm:"not null"` // signed delta
	StockBefore *int
	StockAfter  *int
	Reason      string `gorm:"not null"`
	// ReferenceID links to the originating Sale or manual operation
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
}

// StockConflict records a checkout attempt rejected for insufficient stock,
// kept for later supervisor review.
type StockConflict struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID      uuid.UUID `gorm:"type:uuid;index;not null"`
	IdempotencyKey string    `gorm:"index;not null"`
	Required       int       `gorm:"not null"`
	Available     int `gorm:"not null"`
	CreatedAt     time.Time
}
