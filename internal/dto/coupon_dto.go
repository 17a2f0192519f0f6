package dto

import "github.com/shopspring/decimal"

type CouponRequest struct {
	Code      string          `json:"code"       validate:"required,min=3"`
	Kind      string          `json:"kind"       validate:"required,oneof=fixed percent"`
	Value     decimal.Decimal `json:"value"      validate:"required,gt=0"`
	ExpiresAt *string         `json:"expires_at" validate:"omitempty,datetime=2006-01-02"`
	MaxUses   *int            `json:"max_uses"   validate:"omitempty,min=1"`
}

type CouponResponse struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	Kind      string          `json:"kind"`
	Value     decimal.Decimal `json:"value"`
	ExpiresAt *string         `json:"expires_at,omitempty"`
	MaxUses   *int            `json:"max_uses,omitempty"`
	Uses      int             `json:"uses"`
	Active    bool            `json:"active"`
}
