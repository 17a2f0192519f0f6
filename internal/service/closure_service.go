package service

import (
	"context"
	"encoding/json"
	"time"

	"vendapos/internal/dto"
	"vendapos/internal/model"
	"vendapos/internal/repository"

	"github.com/google/uuid"
)

// ClosureService reads frozen closure snapshots. There is deliberately no
// write path here — closures are only produced by SessionService.Close.
type ClosureService interface {
	Get(ctx context.Context, id uuid.UUID) (*dto.ClosureResponse, error)
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*dto.ClosureResponse, error)
	List(ctx context.Context, page, limit int) ([]dto.ClosureResponse, int64, error)
}

type closureService struct {
	closures repository.ClosureRepository
}

func NewClosureService(closures repository.ClosureRepository) ClosureService {
	return &closureService{closures: closures}
}

func (s *closureService) Get(ctx context.Context, id uuid.UUID) (*dto.ClosureResponse, error) {
	c, err := s.closures.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return unmarshalClosure(c)
}

func (s *closureService) GetBySession(ctx context.Context, sessionID uuid.UUID) (*dto.ClosureResponse, error) {
	c, err := s.closures.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return unmarshalClosure(c)
}

func (s *closureService) List(ctx context.Context, page, limit int) ([]dto.ClosureResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	closures, total, err := s.closures.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ClosureResponse, 0, len(closures))
	for i := range closures {
		r, err := unmarshalClosure(&closures[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	return out, total, nil
}

func unmarshalClosure(c *model.Closure) (*dto.ClosureResponse, error) {
	resp := &dto.ClosureResponse{
		ID:              c.ID.String(),
		SessionID:       c.SessionID.String(),
		Day:             c.Day.Format("2006-01-02"),
		OpeningAmount:   c.OpeningAmount,
		TotalSales:      c.TotalSales,
		TotalCosts:      c.TotalCosts,
		TotalDiscounts:  c.TotalDiscounts,
		TotalExpenses:   c.TotalExpenses,
		GrossProfit:     c.GrossProfit,
		NetProfit:       c.NetProfit,
		FinalCashAmount: c.FinalCashAmount,
		AuthorizedBy:    c.AuthorizedBy.String(),
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
	}
	if err := json.Unmarshal(c.MethodTotals, &resp.Methods); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(c.OperatorTotals, &resp.Operators); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(c.SaleIDs, &resp.SaleIDs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(c.CancellationIDs, &resp.CancellationIDs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(c.ExpenseIDs, &resp.ExpenseIDs); err != nil {
		return nil, err
	}
	return resp, nil
}
