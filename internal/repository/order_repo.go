package repository

import (
	"context"

	"vendapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, o *model.OnlineOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.OnlineOrder, error)
	List(ctx context.Context, status string, page, limit int) ([]model.OnlineOrder, int64, error)
	Update(ctx context.Context, o *model.OnlineOrder) error
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) Create(ctx context.Context, o *model.OnlineOrder) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.OnlineOrder, error) {
	var o model.OnlineOrder
	err := r.db.WithContext(ctx).First(&o, id).Error
	return &o, err
}

func (r *orderRepo) List(ctx context.Context, status string, page, limit int) ([]model.OnlineOrder, int64, error) {
	var orders []model.OnlineOrder
	var total int64

	q := r.db.WithContext(ctx).Model(&model.OnlineOrder{})
	if status != "" && status != "all" {
		q = q.Where("status = ?", status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) Update(ctx context.Context, o *model.OnlineOrder) error {
	return r.db.WithContext(ctx).Save(o).Error
}
