package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"vendapos/internal/config"
	"vendapos/internal/dto"
	"vendapos/internal/infra"
	"vendapos/internal/model"
	"vendapos/internal/repository"

	"github.com/google/uuid"
)

var ErrInvalidOrderTransition = errors.New("order status can only move forward")

// statusRank orders the fulfilment states; transitions must move forward.
var statusRank = map[string]int{
	model.OrderReceived:  0,
	model.OrderPacked:    1,
	model.OrderShipped:   2,
	model.OrderDelivered: 3,
}

type OrderService interface {
	Create(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	List(ctx context.Context, status string, page, limit int) (*dto.OrderListResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req dto.UpdateOrderStatusRequest) (*dto.OrderResponse, error)
	// ShippingLabel renders the order's shipping label PDF and returns its path.
	ShippingLabel(ctx context.Context, id uuid.UUID) (string, error)
}

type orderService struct {
	orders repository.OrderRepository
	cfg    *config.Config
}

func NewOrderService(orders repository.OrderRepository, cfg *config.Config) OrderService {
	return &orderService{orders: orders, cfg: cfg}
}

func (s *orderService) Create(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	items, err := json.Marshal(req.Items)
	if err != nil {
		return nil, err
	}
	o := &model.OnlineOrder{
		Reference: req.Reference,
		Customer:  req.Customer,
		Address:   req.Address,
		City:      req.City,
		ZipCode:   req.ZipCode,
		Phone:     req.Phone,
		ItemsJSON: items,
		Total:     req.Total,
		Status:    model.OrderReceived,
		CreatedAt: time.Now(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, err
	}
	return toOrderResponse(o)
}

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(o)
}

func (s *orderService) List(ctx context.Context, status string, page, limit int) (*dto.OrderListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	orders, total, err := s.orders.List(ctx, status, page, limit)
	if err != nil {
		return nil, err
	}
	resp := &dto.OrderListResponse{
		Data:  make([]dto.OrderResponse, 0, len(orders)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for i := range orders {
		r, err := toOrderResponse(&orders[i])
		if err != nil {
			return nil, err
		}
		resp.Data = append(resp.Data, *r)
	}
	return resp, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, req dto.UpdateOrderStatusRequest) (*dto.OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if statusRank[req.Status] <= statusRank[o.Status] {
		return nil, ErrInvalidOrderTransition
	}
	o.Status = req.Status
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	return toOrderResponse(o)
}

func (s *orderService) ShippingLabel(ctx context.Context, id uuid.UUID) (string, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return infra.GenerateShippingLabelPDF(o, s.cfg.StoreName, s.cfg.PDFStoragePath)
}

func toOrderResponse(o *model.OnlineOrder) (*dto.OrderResponse, error) {
	var items []dto.OrderItemRequest
	if err := json.Unmarshal(o.ItemsJSON, &items); err != nil {
		return nil, err
	}
	return &dto.OrderResponse{
		ID:        o.ID.String(),
		Reference: o.Reference,
		Customer:  o.Customer,
		Address:   o.Address,
		City:      o.City,
		ZipCode:   o.ZipCode,
		Phone:     o.Phone,
		Items:     items,
		Total:     o.Total,
		Status:    o.Status,
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
	}, nil
}
