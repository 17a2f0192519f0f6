package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"vendapos/internal/dto"
	"vendapos/internal/model"
	"vendapos/internal/repository"

	"github.com/google/uuid"
)

var ErrCouponCodeTaken = errors.New("a coupon with this code already exists")

type CouponService interface {
	Create(ctx context.Context, req dto.CouponRequest) (*dto.CouponResponse, error)
	List(ctx context.Context) ([]dto.CouponResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.CouponRequest) (*dto.CouponResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Validate checks a code the same way checkout will, without redeeming.
	Validate(ctx context.Context, code string) (*dto.CouponResponse, error)
}

type couponService struct {
	coupons repository.CouponRepository
}

func NewCouponService(coupons repository.CouponRepository) CouponService {
	return &couponService{coupons: coupons}
}

func (s *couponService) Create(ctx context.Context, req dto.CouponRequest) (*dto.CouponResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if _, err := s.coupons.FindByCode(ctx, code); err == nil {
		return nil, ErrCouponCodeTaken
	}
	c := &model.Coupon{
		Code:    code,
		Kind:    req.Kind,
		Value:   req.Value,
		MaxUses: req.MaxUses,
		Active:  true,
	}
	if req.ExpiresAt != nil {
		t, err := time.Parse("2006-01-02", *req.ExpiresAt)
		if err != nil {
			return nil, err
		}
		// Expiry is inclusive of the named day.
		end := t.Add(24*time.Hour - time.Second)
		c.ExpiresAt = &end
	}
	if err := s.coupons.Create(ctx, c); err != nil {
		return nil, err
	}
	resp := toCouponResponse(c)
	return &resp, nil
}

func (s *couponService) List(ctx context.Context) ([]dto.CouponResponse, error) {
	coupons, err := s.coupons.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CouponResponse, 0, len(coupons))
	for i := range coupons {
		out = append(out, toCouponResponse(&coupons[i]))
	}
	return out, nil
}

func (s *couponService) Update(ctx context.Context, id uuid.UUID, req dto.CouponRequest) (*dto.CouponResponse, error) {
	c, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	c.Kind = req.Kind
	c.Value = req.Value
	c.MaxUses = req.MaxUses
	if req.ExpiresAt != nil {
		t, err := time.Parse("2006-01-02", *req.ExpiresAt)
		if err != nil {
			return nil, err
		}
		end := t.Add(24*time.Hour - time.Second)
		c.ExpiresAt = &end
	} else {
		c.ExpiresAt = nil
	}
	if err := s.coupons.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := toCouponResponse(c)
	return &resp, nil
}

func (s *couponService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.coupons.Delete(ctx, id)
}

func (s *couponService) Validate(ctx context.Context, code string) (*dto.CouponResponse, error) {
	c, err := s.coupons.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, ErrCouponInvalid
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(time.Now()) {
		return nil, ErrCouponInvalid
	}
	if c.MaxUses != nil && c.Uses >= *c.MaxUses {
		return nil, ErrCouponInvalid
	}
	resp := toCouponResponse(c)
	return &resp, nil
}

func toCouponResponse(c *model.Coupon) dto.CouponResponse {
	resp := dto.CouponResponse{
		ID:      c.ID.String(),
		Code:    c.Code,
		Kind:    c.Kind,
		Value:   c.Value,
		MaxUses: c.MaxUses,
		Uses:    c.Uses,
		Active:  c.Active,
	}
	if c.ExpiresAt != nil {
		d := c.ExpiresAt.Format("2006-01-02")
		resp.ExpiresAt = &d
	}
	return resp
}
