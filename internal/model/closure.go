package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Closure is the immutable snapshot produced when a CashSession ends.
// It freezes every figure relevant to the session so later edits to sales or
// expenses cannot retroactively change historical reports. There is no update
// or delete path for closures.
//
// The per-method and per-operator breakdowns are stored as JSON snapshots
// (jsonb); the typed shapes live in the service layer.
type Closure struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	// Day is the session's calendar day (truncated to date, UTC).
	Day             time.Time       `gorm:"type:date;index;not null"`
	OpeningAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalSales      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalCosts      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalDiscounts  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalExpenses   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	GrossProfit     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	NetProfit       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FinalCashAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MethodTotals    []byte          `gorm:"type:jsonb;not null"`
	OperatorTotals  []byte          `gorm:"type:jsonb;not null"`
	SaleIDs         []byte          `gorm:"type:jsonb;not null"`
	CancellationIDs []byte          `gorm:"type:jsonb;not null"`
	ExpenseIDs      []byte          `gorm:"type:jsonb;not null"`
	CreatedBy       uuid.UUID       `gorm:"type:uuid;not null"`
	// AuthorizedBy is the elevated user whose credential approved the close.
	AuthorizedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt    time.Time
}
