package dto

import "github.com/shopspring/decimal"

// ProductFilter is bound from the query string of GET /v1/products.
type ProductFilter struct {
	SKU      string `form:"sku"`
	Name     string `form:"name"`
	Category string `form:"category"`
	Active   string `form:"active"` // "" = active only, "false" = inactive, "all"
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type CreateProductRequest struct {
	SKU         string          `json:"sku"         validate:"required"`
	Name        string          `json:"name"        validate:"required"`
	Description *string         `json:"description"`
	Category    string          `json:"category"    validate:"required"`
	CostPrice   decimal.Decimal `json:"cost_price"  validate:"min=0"`
	SalePrice   decimal.Decimal `json:"sale_price"  validate:"min=0"`
	// Stock nil means the product is untracked (unlimited).
	Stock    *int `json:"stock"`
	MinStock int  `json:"min_stock" validate:"min=0"`
}

type UpdateProductRequest struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Category    string          `json:"category"`
	CostPrice   decimal.Decimal `json:"cost_price" validate:"min=0"`
	SalePrice   decimal.Decimal `json:"sale_price" validate:"min=0"`
	Stock       *int            `json:"stock"`
	MinStock    *int            `json:"min_stock"`
}

type AdjustStockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Reason string `json:"reason" validate:"required,min=3"`
}

type ProductResponse struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Category    string          `json:"category"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	Stock       *int            `json:"stock"`
	MinStock    int             `json:"min_stock"`
	Active      bool            `json:"active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// LabelSheetRequest selects the products to print barcode labels for.
type LabelSheetRequest struct {
	ProductIDs []string `json:"product_ids" validate:"required,min=1,dive,uuid"`
}
