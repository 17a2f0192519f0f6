package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"vendapos/internal/dto"
	"vendapos/internal/model"
	"vendapos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// catalogCacheKey holds a JSON snapshot of the active product catalog,
// refreshed every time a session opens so a terminal going offline right
// after opening still has prices to sell with.
const catalogCacheKey = "cache:catalog"

type SessionService interface {
	Open(ctx context.Context, userID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	Current(ctx context.Context, registerID int) (*dto.SessionResponse, error)
	AddResources(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID, req dto.AddResourcesRequest) (*dto.SessionResponse, error)
	Close(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID, req dto.CloseSessionRequest) (*dto.ClosureResponse, error)
	List(ctx context.Context, page, limit int) ([]dto.SessionResponse, int64, error)
}

type sessionService struct {
	sessions   repository.SessionRepository
	sales      repository.SaleRepository
	expenses   repository.ExpenseRepository
	closures   repository.ClosureRepository
	products   repository.ProductRepository
	authorizer Authorizer
	dispatcher JobDispatcher
	rdb        *redis.Client
}

func NewSessionService(
	sessions repository.SessionRepository,
	sales repository.SaleRepository,
	expenses repository.ExpenseRepository,
	closures repository.ClosureRepository,
	products repository.ProductRepository,
	authorizer Authorizer,
	dispatcher JobDispatcher,
	rdb *redis.Client,
) SessionService {
	return &sessionService{
		sessions:   sessions,
		sales:      sales,
		expenses:   expenses,
		closures:   closures,
		products:   products,
		authorizer: authorizer,
		dispatcher: dispatcher,
		rdb:        rdb,
	}
}

func (s *sessionService) Open(ctx context.Context, userID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	if req.OpeningAmount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	if existing, err := s.sessions.FindOpenByRegister(ctx, req.RegisterID); err == nil && existing != nil {
		return nil, ErrSessionAlreadyOpen
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	session := &model.CashSession{
		RegisterID:    req.RegisterID,
		UserID:        userID,
		OpeningAmount: req.OpeningAmount,
		Status:        model.SessionOpen,
		OpenedAt:      time.Now(),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		// The partial unique index catches the race two checks let through.
		return nil, ErrSessionAlreadyOpen
	}

	s.refreshCatalogCache(ctx)

	return toSessionResponse(session), nil
}

// refreshCatalogCache is best effort: an unreachable Redis must never block
// opening the drawer.
func (s *sessionService) refreshCatalogCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	products, _, err := s.products.List(ctx, dto.ProductFilter{Page: 1, Limit: 10000})
	if err != nil {
		log.Warn().Err(err).Msg("catalog cache refresh: listing products failed")
		return
	}
	raw, err := json.Marshal(products)
	if err != nil {
		log.Warn().Err(err).Msg("catalog cache refresh: marshal failed")
		return
	}
	if err := s.rdb.Set(ctx, catalogCacheKey, raw, 24*time.Hour).Err(); err != nil {
		log.Warn().Err(err).Msg("catalog cache refresh: redis set failed")
	}
}

func (s *sessionService) Current(ctx context.Context, registerID int) (*dto.SessionResponse, error) {
	session, err := s.sessions.FindOpenByRegister(ctx, registerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOpenSession
		}
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *sessionService) AddResources(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID, req dto.AddResourcesRequest) (*dto.SessionResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, ErrNoOpenSession
	}
	if session.Status != model.SessionOpen {
		return nil, ErrNoOpenSession
	}

	inj := &model.CashInjection{
		SessionID: session.ID,
		UserID:    userID,
		Amount:    req.Amount,
		Note:      req.Note,
		CreatedAt: time.Now(),
	}
	// Event row and amount bump commit together: a retry after a partial
	// failure must not double-record the injection.
	err = runTx(s.sessions.DB(), func(tx *gorm.DB) error {
		if err := s.sessions.CreateInjectionTx(tx, inj); err != nil {
			return err
		}
		return s.sessions.AddToOpeningAmountTx(tx, session.ID, req.Amount)
	})
	if err != nil {
		return nil, err
	}

	session, err = s.sessions.FindByID(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("session_id", session.ID.String()).
		Str("amount", req.Amount.String()).
		Msg("cash injection recorded")
	return toSessionResponse(session), nil
}

func (s *sessionService) Close(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID, req dto.CloseSessionRequest) (*dto.ClosureResponse, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, ErrNoOpenSession
	}
	if session.Status != model.SessionOpen {
		return nil, ErrNoOpenSession
	}

	approver, err := s.authorizer.Authorize(ctx, req.Authorization)
	if err != nil {
		return nil, err
	}

	finalized, cancelled, err := s.sales.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(session.OpenedAt.Year(), session.OpenedAt.Month(), session.OpenedAt.Day(), 0, 0, 0, 0, session.OpenedAt.Location())
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)
	expenses, err := s.expenses.ListByDateRange(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	var priorClosureAt *time.Time
	if prior, err := s.closures.LatestForDay(ctx, dayStart); err != nil {
		return nil, err
	} else if prior != nil {
		priorClosureAt = &prior.CreatedAt
	}

	closedAt := time.Now()
	all := append(append(make([]model.Sale, 0, len(finalized)+len(cancelled)), finalized...), cancelled...)
	result := ComputeClosure(session, all, cancelled, expenses, priorClosureAt, closedAt)

	closure, err := buildClosure(session, &result, userID, approver.ID)
	if err != nil {
		return nil, err
	}

	err = runTx(s.sessions.DB(), func(tx *gorm.DB) error {
		if err := s.closures.CreateTx(tx, closure); err != nil {
			return err
		}
		session.Status = model.SessionClosed
		session.ClosedAt = &closedAt
		return s.sessions.UpdateSessionTx(tx, session)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", session.ID.String()).
		Str("closure_id", closure.ID.String()).
		Str("final_cash", result.FinalCashAmount.String()).
		Msg("session closed")

	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, QueueClosureReports, ClosureReportJob{ClosureID: closure.ID.String()}); err != nil {
			log.Warn().Err(err).Msg("closure report job enqueue failed")
		}
	}

	return toClosureResponse(closure, &result, approver.ID), nil
}

func (s *sessionService) List(ctx context.Context, page, limit int) ([]dto.SessionResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	sessions, total, err := s.sessions.ListSessions(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, *toSessionResponse(&sessions[i]))
	}
	return out, total, nil
}

// buildClosure freezes a ClosureResult into the persisted snapshot.
func buildClosure(session *model.CashSession, r *ClosureResult, createdBy, authorizedBy uuid.UUID) (*model.Closure, error) {
	methods, err := json.Marshal(r.Methods)
	if err != nil {
		return nil, err
	}
	operators, err := json.Marshal(r.Operators)
	if err != nil {
		return nil, err
	}
	saleIDs, err := json.Marshal(uuidStrings(r.SaleIDs))
	if err != nil {
		return nil, err
	}
	cancelIDs, err := json.Marshal(uuidStrings(r.CancellationIDs))
	if err != nil {
		return nil, err
	}
	expenseIDs, err := json.Marshal(uuidStrings(r.ExpenseIDs))
	if err != nil {
		return nil, err
	}
	return &model.Closure{
		ID:              uuid.New(),
		SessionID:       session.ID,
		Day:             r.Day,
		OpeningAmount:   r.OpeningAmount,
		TotalSales:      r.TotalSales,
		TotalCosts:      r.TotalCosts,
		TotalDiscounts:  r.TotalDiscounts,
		TotalExpenses:   r.TotalExpenses,
		GrossProfit:     r.GrossProfit,
		NetProfit:       r.NetProfit,
		FinalCashAmount: r.FinalCashAmount,
		MethodTotals:    methods,
		OperatorTotals:  operators,
		SaleIDs:         saleIDs,
		CancellationIDs: cancelIDs,
		ExpenseIDs:      expenseIDs,
		CreatedBy:       createdBy,
		AuthorizedBy:    authorizedBy,
		CreatedAt:       time.Now(),
	}, nil
}

func toSessionResponse(s *model.CashSession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		SessionID:     s.ID.String(),
		RegisterID:    s.RegisterID,
		OpenedBy:      s.UserID.String(),
		OpeningAmount: s.OpeningAmount,
		Status:        s.Status,
		OpenedAt:      s.OpenedAt.Format(time.RFC3339),
	}
	for _, inj := range s.Injections {
		resp.Injections = append(resp.Injections, dto.InjectionResponse{
			Amount:    inj.Amount,
			Note:      inj.Note,
			CreatedAt: inj.CreatedAt.Format(time.RFC3339),
		})
	}
	if s.ClosedAt != nil {
		closed := s.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &closed
	}
	return resp
}

func toClosureResponse(c *model.Closure, r *ClosureResult, authorizedBy uuid.UUID) *dto.ClosureResponse {
	return &dto.ClosureResponse{
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
		Methods:         r.Methods,
		Operators:       r.Operators,
		SaleIDs:         uuidStrings(r.SaleIDs),
		CancellationIDs: uuidStrings(r.CancellationIDs),
		ExpenseIDs:      uuidStrings(r.ExpenseIDs),
		AuthorizedBy:    authorizedBy.String(),
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
	}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
