package dto

import "github.com/shopspring/decimal"

type ExpenseRequest struct {
	Date        string          `json:"date"        validate:"required,datetime=2006-01-02"`
	Category    string          `json:"category"    validate:"required"`
	Description string          `json:"description" validate:"required,min=3"`
	Amount      decimal.Decimal `json:"amount"      validate:"required,gt=0"`
}

type ExpenseResponse struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedBy   string          `json:"created_by"`
}
