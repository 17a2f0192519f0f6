package dto

import "github.com/shopspring/decimal"

// MethodTotals is the per-payment-method breakdown. Cancellations are
// subtracted from their original method's bucket, so individual buckets (and
// Total) may be negative — raw arithmetic is preserved, never clamped.
type MethodTotals struct {
	Cash        decimal.Decimal `json:"cash"`
	PixTerminal decimal.Decimal `json:"pix_terminal"`
	PixDirect   decimal.Decimal `json:"pix_direct"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Total       decimal.Decimal `json:"total"`
}

// OperatorTotals groups a session's sales by operator display name, each with
// its own per-method sub-breakdown.
type OperatorTotals struct {
	Operator string       `json:"operator"`
	Methods  MethodTotals `json:"methods"`
	Total    decimal.Decimal `json:"total"`
}

// ClosureResponse is the frozen end-of-session report.
type ClosureResponse struct {
	ID              string           `json:"id"`
	SessionID       string           `json:"session_id"`
	Day             string           `json:"day"`
	OpeningAmount   decimal.Decimal  `json:"opening_amount"`
	TotalSales      decimal.Decimal  `json:"total_sales"`
	TotalCosts      decimal.Decimal  `json:"total_costs"`
	TotalDiscounts  decimal.Decimal  `json:"total_discounts"`
	TotalExpenses   decimal.Decimal  `json:"total_expenses"`
	GrossProfit     decimal.Decimal  `json:"gross_profit"`
	NetProfit       decimal.Decimal  `json:"net_profit"`
	FinalCashAmount decimal.Decimal  `json:"final_cash_amount"`
	Methods         MethodTotals     `json:"methods"`
	Operators       []OperatorTotals `json:"operators"`
	SaleIDs         []string         `json:"sale_ids"`
	CancellationIDs []string         `json:"cancellation_ids"`
	ExpenseIDs      []string         `json:"expense_ids"`
	AuthorizedBy    string           `json:"authorized_by"`
	CreatedAt       string           `json:"created_at"`
}
