package repository

import (
	"context"
	"time"

	"vendapos/internal/model"

	"gorm.io/gorm"
)

type PendingSaleRepository interface {
	Create(ctx context.Context, p *model.PendingSale) error
	FindByIdempotencyKey(ctx context.Context, key string) (*model.PendingSale, error)
	// ListDue returns pending entries whose next_retry_at is in the past,
	// oldest first, capped at limit.
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.PendingSale, error)
	Update(ctx context.Context, p *model.PendingSale) error
	ListByStatus(ctx context.Context, status string) ([]model.PendingSale, error)
}

type pendingSaleRepo struct{ db *gorm.DB }

func NewPendingSaleRepository(db *gorm.DB) PendingSaleRepository {
	return &pendingSaleRepo{db: db}
}

func (r *pendingSaleRepo) Create(ctx context.Context, p *model.PendingSale) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *pendingSaleRepo) FindByIdempotencyKey(ctx context.Context, key string) (*model.PendingSale, error) {
	var p model.PendingSale
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&p).Error
	return &p, err
}

func (r *pendingSaleRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]model.PendingSale, error) {
	var entries []model.PendingSale
	err := r.db.WithContext(ctx).
		Where("status = ? AND (next_retry_at IS NULL OR next_retry_at <= ?)", "pending", now).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *pendingSaleRepo) Update(ctx context.Context, p *model.PendingSale) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *pendingSaleRepo) ListByStatus(ctx context.Context, status string) ([]model.PendingSale, error) {
	var entries []model.PendingSale
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("created_at ASC").Find(&entries).Error
	return entries, err
}
