package repository

import (
	"context"
	"time"

	"vendapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClosureRepository is create/read only — closures are immutable snapshots.
type ClosureRepository interface {
	CreateTx(tx *gorm.DB, c *model.Closure) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Closure, error)
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.Closure, error)
	// LatestForDay returns the most recent closure on the given calendar day,
	// or nil when none exists.
	LatestForDay(ctx context.Context, day time.Time) (*model.Closure, error)
	List(ctx context.Context, page, limit int) ([]model.Closure, int64, error)
}

type closureRepo struct{ db *gorm.DB }

func NewClosureRepository(db *gorm.DB) ClosureRepository { return &closureRepo{db: db} }

func (r *closureRepo) CreateTx(tx *gorm.DB, c *model.Closure) error {
	return tx.Create(c).Error
}

func (r *closureRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Closure, error) {
	var c model.Closure
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *closureRepo) FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.Closure, error) {
	var c model.Closure
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&c).Error
	return &c, err
}

func (r *closureRepo) LatestForDay(ctx context.Context, day time.Time) (*model.Closure, error) {
	var c model.Closure
	err := r.db.WithContext(ctx).
		Where("day = ?", day.Format("2006-01-02")).
		Order("created_at DESC").
		First(&c).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *closureRepo) List(ctx context.Context, page, limit int) ([]model.Closure, int64, error) {
	var closures []model.Closure
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Closure{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&closures).Error
	return closures, total, err
}
