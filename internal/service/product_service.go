package service

import (
	"context"
	"errors"
	"time"

	"vendapos/internal/config"
	"vendapos/internal/dto"
	"vendapos/internal/infra"
	"vendapos/internal/model"
	"vendapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrSKUTaken = errors.New("a product with this SKU already exists")

type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	GetBySKU(ctx context.Context, sku string) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error

	AdjustStock(ctx context.Context, id uuid.UUID, req dto.AdjustStockRequest) (*dto.ProductResponse, error)
	Movements(ctx context.Context, id uuid.UUID) ([]model.StockMovement, error)

	// LabelSheet renders a printable barcode label sheet and returns the file
	// path of the generated PDF.
	LabelSheet(ctx context.Context, req dto.LabelSheetRequest) (string, error)
}

type productService struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	cfg       *config.Config
}

func NewProductService(products repository.ProductRepository, movements repository.StockMovementRepository, cfg *config.Config) ProductService {
	return &productService{products: products, movements: movements, cfg: cfg}
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if _, err := s.products.FindBySKU(ctx, req.SKU); err == nil {
		return nil, ErrSKUTaken
	}
	p := &model.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		CostPrice:   req.CostPrice,
		SalePrice:   req.SalePrice,
		Stock:       req.Stock,
		MinStock:    req.MinStock,
		Active:      true,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *productService) GetBySKU(ctx context.Context, sku string) (*dto.ProductResponse, error) {
	p, err := s.products.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.ProductListResponse{
		Data:  make([]dto.ProductResponse, 0, len(products)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range products {
		resp.Data = append(resp.Data, toProductResponse(&products[i]))
	}
	return resp, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Category != "" {
		p.Category = req.Category
	}
	if !req.CostPrice.IsZero() {
		p.CostPrice = req.CostPrice
	}
	if !req.SalePrice.IsZero() {
		p.SalePrice = req.SalePrice
	}
	if req.Stock != nil {
		p.Stock = req.Stock
	}
	if req.MinStock != nil {
		p.MinStock = *req.MinStock
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *productService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.products.SoftDelete(ctx, id)
}

func (s *productService) Reactivate(ctx context.Context, id uuid.UUID) error {
	return s.products.Reactivate(ctx, id)
}

func (s *productService) AdjustStock(ctx context.Context, id uuid.UUID, req dto.AdjustStockRequest) (*dto.ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Stock == nil {
		return nil, errors.New("product stock is untracked; set a stock value first")
	}
	if *p.Stock+req.Delta < 0 {
		return nil, &InsufficientStockError{SKU: p.SKU, Required: -req.Delta, Available: *p.Stock}
	}
	if err := s.products.AdjustStock(ctx, id, req.Delta); err != nil {
		return nil, err
	}

	before := *p.Stock
	after := before + req.Delta
	mov := &model.StockMovement{
		ProductID:   p.ID,
		Kind:        "manual_adjust",
		Quantity:    req.Delta,
		StockBefore: &before,
		StockAfter:  &after,
		Reason:      req.Reason,
		CreatedAt:   time.Now(),
	}
	if err := s.movements.CreateTx(s.products.DB(), mov); err != nil {
		log.Warn().Err(err).Str("sku", p.SKU).Msg("stock movement record failed")
	}

	p.Stock = &after
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *productService) Movements(ctx context.Context, id uuid.UUID) ([]model.StockMovement, error) {
	return s.movements.ListByProduct(ctx, id)
}

func (s *productService) LabelSheet(ctx context.Context, req dto.LabelSheetRequest) (string, error) {
	products := make([]model.Product, 0, len(req.ProductIDs))
	for _, raw := range req.ProductIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return "", err
		}
		p, err := s.products.FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		products = append(products, *p)
	}
	return infra.GenerateBarcodeLabelsPDF(products, s.cfg.PDFStoragePath)
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID.String(),
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		CostPrice:   p.CostPrice,
		SalePrice:   p.SalePrice,
		Stock:       p.Stock,
		MinStock:    p.MinStock,
		Active:      p.Active,
	}
}
