package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon kinds.
const (
	CouponFixed   = "fixed"   // Value is an absolute discount
	CouponPercent = "percent" // Value is a percentage of the subtotal
)

// Coupon is a discount code redeemable at checkout.
type Coupon struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code      string          `gorm:"uniqueIndex;not null"`
	Kind      string          `gorm:"type:varchar(10);not null"`
	Value     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ExpiresAt *time.Time
	MaxUses   *int
	Uses      int  `gorm:"not null;default:0"`
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
