package service

import (
	"context"
	"time"

	"vendapos/internal/dto"
	"vendapos/internal/model"
	"vendapos/internal/repository"

	"github.com/google/uuid"
)

type ExpenseService interface {
	Create(ctx context.Context, userID uuid.UUID, req dto.ExpenseRequest) (*dto.ExpenseResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ExpenseResponse, error)
	ListByRange(ctx context.Context, from, to string) ([]dto.ExpenseResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.ExpenseRequest) (*dto.ExpenseResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type expenseService struct {
	expenses repository.ExpenseRepository
}

func NewExpenseService(expenses repository.ExpenseRepository) ExpenseService {
	return &expenseService{expenses: expenses}
}

func (s *expenseService) Create(ctx context.Context, userID uuid.UUID, req dto.ExpenseRequest) (*dto.ExpenseResponse, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, err
	}
	e := &model.Expense{
		Date:        date,
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		CreatedBy:   userID,
	}
	if err := s.expenses.Create(ctx, e); err != nil {
		return nil, err
	}
	resp := toExpenseResponse(e)
	return &resp, nil
}

func (s *expenseService) Get(ctx context.Context, id uuid.UUID) (*dto.ExpenseResponse, error) {
	e, err := s.expenses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toExpenseResponse(e)
	return &resp, nil
}

// ListByRange accepts YYYY-MM-DD bounds; empty strings default to the
// current day.
func (s *expenseService) ListByRange(ctx context.Context, from, to string) ([]dto.ExpenseResponse, error) {
	now := time.Now()
	fromT := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	toT := fromT.Add(24*time.Hour - time.Second)

	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return nil, err
		}
		fromT = t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return nil, err
		}
		toT = t.Add(24*time.Hour - time.Second)
	}

	expenses, err := s.expenses.ListByDateRange(ctx, fromT, toT)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		out = append(out, toExpenseResponse(&expenses[i]))
	}
	return out, nil
}

func (s *expenseService) Update(ctx context.Context, id uuid.UUID, req dto.ExpenseRequest) (*dto.ExpenseResponse, error) {
	e, err := s.expenses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, err
	}
	e.Date = date
	e.Category = req.Category
	e.Description = req.Description
	e.Amount = req.Amount
	if err := s.expenses.Update(ctx, e); err != nil {
		return nil, err
	}
	resp := toExpenseResponse(e)
	return &resp, nil
}

func (s *expenseService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.expenses.Delete(ctx, id)
}

func toExpenseResponse(e *model.Expense) dto.ExpenseResponse {
	return dto.ExpenseResponse{
		ID:          e.ID.String(),
		Date:        e.Date.Format("2006-01-02"),
		Category:    e.Category,
		Description: e.Description,
		Amount:      e.Amount,
		CreatedBy:   e.CreatedBy.String(),
	}
}
