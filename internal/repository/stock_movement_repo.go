package repository

import (
	"context"

	"vendapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockMovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.StockMovement, error)
	CreateConflict(ctx context.Context, c *model.StockConflict) error
	ListConflicts(ctx context.Context) ([]model.StockConflict, error)
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockMovementRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.StockMovement, error) {
	var movs []model.StockMovement
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("created_at DESC").Find(&movs).Error
	return movs, err
}

func (r *stockMovementRepo) CreateConflict(ctx context.Context, c *model.StockConflict) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *stockMovementRepo) ListConflicts(ctx context.Context) ([]model.StockConflict, error) {
	var conflicts []model.StockConflict
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&conflicts).Error
	return conflicts, err
}
