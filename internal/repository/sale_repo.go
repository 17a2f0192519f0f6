package repository

import (
	"context"

	"vendapos/internal/dto"
	"vendapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Sale, error)
	CancelTx(tx *gorm.DB, id uuid.UUID, reason string, authorizedBy uuid.UUID) error
	NextTicketNumber(tx *gorm.DB) (int, error)
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)
	// ListBySession returns the session's sales split by status, for closure.
	ListBySession(ctx context.Context, sessionID uuid.UUID) (finalized, cancelled []model.Sale, err error)
	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Items").Preload("User").First(&s, id).Error
	return &s, err
}

func (r *saleRepo) FindByIdempotencyKey(ctx context.Context, key string) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Items").Where("idempotency_key = ?", key).First(&s).Error
	return &s, err
}

func (r *saleRepo) CancelTx(tx *gorm.DB, id uuid.UUID, reason string, authorizedBy uuid.UUID) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        model.SaleCancelled,
		"cancel_reason": reason,
		"cancelled_at":  gorm.Expr("NOW()"),
		"authorized_by": authorizedBy,
	}).Error
}

func (r *saleRepo) NextTicketNumber(tx *gorm.DB) (int, error) {
	// PostgreSQL sequence — atomic across concurrent terminals
	var num int
	err := tx.Raw("SELECT nextval('sales_ticket_number_seq')").Scan(&num).Error
	return num, err
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Sale{})

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	}
	if filter.SessionID != "" {
		q = q.Where("session_id = ?", filter.SessionID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").Preload("User").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error

	return sales, total, err
}

func (r *saleRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Sale, []model.Sale, error) {
	var all []model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("User").
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&all).Error
	if err != nil {
		return nil, nil, err
	}

	var finalized, cancelled []model.Sale
	for _, s := range all {
		if s.Status == model.SaleCancelled {
			cancelled = append(cancelled, s)
		} else {
			finalized = append(finalized, s)
		}
	}
	return finalized, cancelled, nil
}
