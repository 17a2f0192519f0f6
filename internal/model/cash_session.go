package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session statuses. Status is set transactionally — a session is open iff
// Status == "open", never inferred from the presence of a closure row.
const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// CashSession is one open-to-close cycle of a register.
// Invariant: at most one session with Status "open" per register.
type CashSession struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RegisterID int       `gorm:"not null;index"`
	UserID     uuid.UUID `gorm:"type:uuid;not null"`
	// OpeningAmount includes later cash injections — AddResources is additive.
	OpeningAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status        string          `gorm:"type:varchar(20);not null;default:'open'"`
	OpenedAt      time.Time
	ClosedAt      *time.Time

	Injections []CashInjection `gorm:"foreignKey:SessionID"`
}

// CashInjection is an immutable resource-injection event: extra change money
// added to the drawer mid-session. Never decreases, never edited.
type CashInjection struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID uuid.UUID       `gorm:"type:uuid;index;not null"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Note      string
	CreatedAt time.Time
}
