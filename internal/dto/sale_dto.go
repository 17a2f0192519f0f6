package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	Date      string `form:"date"`                      // YYYY-MM-DD
	Status    string `form:"status,default=finalized"`  // finalized | cancelled | all
	SessionID string `form:"session_id" validate:"omitempty,uuid"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity"   validate:"required,min=1"`
	Discount  decimal.Decimal `json:"discount"   validate:"min=0"`
}

type CheckoutRequest struct {
	// IdempotencyKey is generated client-side per checkout attempt, before the
	// first call, so retries are applied at most once.
	IdempotencyKey string            `json:"idempotency_key" validate:"required,uuid"`
	Items          []SaleItemRequest `json:"items"           validate:"required,min=1,dive"`
	PaymentMethod  string            `json:"payment_method"  validate:"required,oneof=cash pix_terminal pix_direct debit credit"`
	// AmountReceived is only meaningful for cash; absent = exact payment.
	AmountReceived *decimal.Decimal `json:"amount_received"`
	CouponCode     string           `json:"coupon_code"`
	// CustomerEmail: optional — when present, the receipt worker mails the PDF.
	CustomerEmail *string `json:"customer_email" validate:"omitempty,email"`
}

type CancelSaleRequest struct {
	Reason        string        `json:"reason"        validate:"required,min=5"`
	Authorization Authorization `json:"authorization" validate:"required"`
}

// SyncBatchRequest holds checkout attempts recorded while a terminal was
// offline, replayed in order. Idempotent per idempotency_key.
type SyncBatchRequest struct {
	Sales []CheckoutRequest `json:"sales" validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	SKU       string          `json:"sku"`
	Product   string          `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type SaleResponse struct {
	ID             string             `json:"id"`
	TicketNumber   int                `json:"ticket_number"`
	SessionID      string             `json:"session_id"`
	Operator       string             `json:"operator,omitempty"`
	Items          []SaleItemResponse `json:"items"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DiscountTotal  decimal.Decimal    `json:"discount_total"`
	Total          decimal.Decimal    `json:"total"`
	PaymentMethod  string             `json:"payment_method"`
	AmountReceived *decimal.Decimal   `json:"amount_received,omitempty"`
	Change         decimal.Decimal    `json:"change"`
	Status         string             `json:"status"`
	CreatedAt      string             `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// SyncResult reports the outcome of replaying one offline checkout.
// A replay that hits a validation error reports "failed"; one whose
// idempotency key already exists reports "duplicate" with the stored sale.
type SyncResult struct {
	IdempotencyKey string        `json:"idempotency_key"`
	Status         string        `json:"status"` // synced | duplicate | failed
	Error          *string       `json:"error,omitempty"`
	Sale           *SaleResponse `json:"sale,omitempty"`
}

// PendingSaleResponse describes one offline retry queue entry.
type PendingSaleResponse struct {
	ID             string  `json:"id"`
	IdempotencyKey string  `json:"idempotency_key"`
	Status         string  `json:"status"`
	RetryCount     int     `json:"retry_count"`
	LastError      *string `json:"last_error,omitempty"`
	NextRetryAt    *string `json:"next_retry_at,omitempty"`
	CreatedAt      string  `json:"created_at"`
}
