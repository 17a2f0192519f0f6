package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles, lowest to highest privilege.
const (
	RoleOperator = "operator"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// ElevatedRole reports whether the role may authorize sensitive actions
// (sale cancellation, session closure).
func ElevatedRole(rol string) bool {
	return rol == RoleManager || rol == RoleAdmin
}

// User stores system users with role-based access.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null"`
	// RegisterID restricts an operator to a specific register; nil = all registers
	RegisterID *int
	Active     bool `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
