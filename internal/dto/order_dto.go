package dto

import "github.com/shopspring/decimal"

type OrderItemRequest struct {
	SKU      string `json:"sku"      validate:"required"`
	Name     string `json:"name"     validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type CreateOrderRequest struct {
	Reference string             `json:"reference" validate:"required"`
	Customer  string             `json:"customer"  validate:"required"`
	Address   string             `json:"address"   validate:"required"`
	City      string             `json:"city"      validate:"required"`
	ZipCode   string             `json:"zip_code"`
	Phone     string             `json:"phone"`
	Items     []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Total     decimal.Decimal    `json:"total" validate:"min=0"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=received packed shipped delivered"`
}

type OrderResponse struct {
	ID        string             `json:"id"`
	Reference string             `json:"reference"`
	Customer  string             `json:"customer"`
	Address   string             `json:"address"`
	City      string             `json:"city"`
	ZipCode   string             `json:"zip_code,omitempty"`
	Phone     string             `json:"phone,omitempty"`
	Items     []OrderItemRequest `json:"items"`
	Total     decimal.Decimal    `json:"total"`
	Status    string             `json:"status"`
	CreatedAt string             `json:"created_at"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
