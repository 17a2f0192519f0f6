package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	RegisterID    int             `json:"register_id"    validate:"required,min=1"`
	OpeningAmount decimal.Decimal `json:"opening_amount" validate:"min=0"`
}

// AddResourcesRequest injects extra change money into the open drawer.
// Purely additive — there is no removal counterpart.
type AddResourcesRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Note   string          `json:"note"`
}

type CloseSessionRequest struct {
	Authorization Authorization `json:"authorization" validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type InjectionResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note,omitempty"`
	CreatedAt string          `json:"created_at"`
}

type SessionResponse struct {
	SessionID     string              `json:"session_id"`
	RegisterID    int                 `json:"register_id"`
	OpenedBy      string              `json:"opened_by"`
	OpeningAmount decimal.Decimal     `json:"opening_amount"`
	Status        string              `json:"status"`
	Injections    []InjectionResponse `json:"injections,omitempty"`
	OpenedAt      string              `json:"opened_at"`
	ClosedAt      *string             `json:"closed_at,omitempty"`
}
