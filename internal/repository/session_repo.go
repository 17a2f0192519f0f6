package repository

import (
	"context"

	"vendapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository interface {
	CreateSession(ctx context.Context, s *model.CashSession) error
	FindOpenByRegister(ctx context.Context, registerID int) (*model.CashSession, error)
	FindOpenByUser(ctx context.Context, userID uuid.UUID) (*model.CashSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	UpdateSessionTx(tx *gorm.DB, s *model.CashSession) error
	CreateInjectionTx(tx *gorm.DB, inj *model.CashInjection) error
	AddToOpeningAmountTx(tx *gorm.DB, id uuid.UUID, amount interface{}) error
	ListSessions(ctx context.Context, page, limit int) ([]model.CashSession, int64, error)

	// DB exposes the underlying *gorm.DB so the service can run the
	// close-session transaction.
	DB() *gorm.DB
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) CreateSession(ctx context.Context, s *model.CashSession) error {
	// The partial unique index idx_cash_sessions_one_open backs this insert:
	// two terminals racing to open the same register cannot both succeed.
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) FindOpenByRegister(ctx context.Context, registerID int) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("register_id = ? AND status = ?", registerID, model.SessionOpen).
		Preload("Injections").First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindOpenByUser(ctx context.Context, userID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.SessionOpen).
		Preload("Injections").First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).Preload("Injections").First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) UpdateSessionTx(tx *gorm.DB, s *model.CashSession) error {
	return tx.Save(s).Error
}

func (r *sessionRepo) CreateInjectionTx(tx *gorm.DB, inj *model.CashInjection) error {
	return tx.Create(inj).Error
}

func (r *sessionRepo) AddToOpeningAmountTx(tx *gorm.DB, id uuid.UUID, amount interface{}) error {
	return tx.Model(&model.CashSession{}).
		Where("id = ?", id).
		Update("opening_amount", gorm.Expr("opening_amount + ?", amount)).Error
}

func (r *sessionRepo) ListSessions(ctx context.Context, page, limit int) ([]model.CashSession, int64, error) {
	var sessions []model.CashSession
	var total int64

	q := r.db.WithContext(ctx).Model(&model.CashSession{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("opened_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}

func (r *sessionRepo) DB() *gorm.DB { return r.db }
