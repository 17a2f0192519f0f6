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
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CheckoutService finalizes sales. The commit is all-or-nothing: ticket
// number, sale row, line items, stock decrements and coupon redemption land
// in one transaction. Duplicate idempotency keys replay the stored sale.
type CheckoutService interface {
	Checkout(ctx context.Context, userID uuid.UUID, registerID *int, req dto.CheckoutRequest) (*dto.SaleResponse, error)
	Cancel(ctx context.Context, saleID uuid.UUID, req dto.CancelSaleRequest) (*dto.SaleResponse, error)
	Get(ctx context.Context, saleID uuid.UUID) (*dto.SaleResponse, error)
	List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)

	// SyncBatch replays checkouts recorded while the terminal was offline.
	SyncBatch(ctx context.Context, userID uuid.UUID, registerID *int, req dto.SyncBatchRequest) ([]dto.SyncResult, error)
	// EnqueuePending parks a checkout that could not be committed; the retry
	// cron replays it with exponential backoff.
	EnqueuePending(ctx context.Context, userID uuid.UUID, req dto.CheckoutRequest, cause error) (*dto.PendingSaleResponse, error)
	// ReplayPending attempts one parked checkout. Validation errors are
	// permanent; only infrastructure errors are worth another retry.
	ReplayPending(ctx context.Context, p *model.PendingSale) (*dto.SaleResponse, error)
	ListPending(ctx context.Context, status string) ([]dto.PendingSaleResponse, error)
}

type checkoutService struct {
	sales      repository.SaleRepository
	sessions   repository.SessionRepository
	products   repository.ProductRepository
	movements  repository.StockMovementRepository
	coupons    repository.CouponRepository
	pending    repository.PendingSaleRepository
	authorizer Authorizer
	dispatcher JobDispatcher
}

func NewCheckoutService(
	sales repository.SaleRepository,
	sessions repository.SessionRepository,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	coupons repository.CouponRepository,
	pending repository.PendingSaleRepository,
	authorizer Authorizer,
	dispatcher JobDispatcher,
) CheckoutService {
	return &checkoutService{
		sales:      sales,
		sessions:   sessions,
		products:   products,
		movements:  movements,
		coupons:    coupons,
		pending:    pending,
		authorizer: authorizer,
		dispatcher: dispatcher,
	}
}

func (s *checkoutService) Checkout(ctx context.Context, userID uuid.UUID, registerID *int, req dto.CheckoutRequest) (*dto.SaleResponse, error) {
	// Idempotency replay: a retried request returns the stored sale, not an
	// error, so flaky links are invisible to the operator.
	if existing, err := s.sales.FindByIdempotencyKey(ctx, req.IdempotencyKey); err == nil {
		return toSaleResponse(existing), nil
	}

	session, err := s.openSessionFor(ctx, userID, registerID)
	if err != nil {
		return nil, err
	}

	lines, subtotal, itemDiscounts, costTotal, err := s.priceLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	couponDiscount := decimal.Zero
	var coupon *model.Coupon
	if req.CouponCode != "" {
		coupon, couponDiscount, err = s.redeemableCoupon(ctx, req.CouponCode, subtotal.Sub(itemDiscounts))
		if err != nil {
			return nil, err
		}
	}

	discountTotal := itemDiscounts.Add(couponDiscount)
	total := subtotal.Sub(discountTotal)
	if total.IsNegative() {
		total = decimal.Zero
	}

	change := decimal.Zero
	var amountReceived *decimal.Decimal
	if req.PaymentMethod == model.PayCash && req.AmountReceived != nil {
		if req.AmountReceived.LessThan(total) {
			return nil, ErrInsufficientPayment
		}
		change = req.AmountReceived.Sub(total)
		amountReceived = req.AmountReceived
	}

	sale := &model.Sale{
		ID:             uuid.New(),
		IdempotencyKey: req.IdempotencyKey,
		SessionID:      session.ID,
		UserID:         userID,
		PaymentMethod:  req.PaymentMethod,
		Subtotal:       subtotal,
		DiscountTotal:  discountTotal,
		Total:          total,
		CostTotal:      costTotal,
		AmountReceived: amountReceived,
		Change:         change,
		Status:         model.SaleFinalized,
		CreatedAt:      time.Now(),
	}
	if coupon != nil {
		sale.CouponID = &coupon.ID
	}

	var conflict *InsufficientStockError
	err = runTx(s.sales.DB(), func(tx *gorm.DB) error {
		ticket, err := s.sales.NextTicketNumber(tx)
		if err != nil {
			return err
		}
		sale.TicketNumber = ticket

		for i := range lines {
			line := &lines[i]
			line.item.SaleID = sale.ID
			sale.Items = append(sale.Items, line.item)
		}
		if err := s.sales.CreateTx(tx, sale); err != nil {
			return err
		}

		for i := range lines {
			line := &lines[i]
			if line.product.Stock == nil {
				continue // unlimited stock, nothing to decrement
			}
			affected, err := s.products.DecrementStockTx(tx, line.product.ID, line.item.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				// The pre-transaction read is stale once the guard trips;
				// re-read so the deficit reports the current stock.
				available := *line.product.Stock
				if fresh, ferr := s.products.FindByIDTx(tx, line.product.ID); ferr == nil && fresh.Stock != nil {
					available = *fresh.Stock
				}
				conflict = &InsufficientStockError{
					SKU:       line.product.SKU,
					Required:  line.item.Quantity,
					Available: available,
				}
				return conflict
			}
			before := *line.product.Stock
			after := before - line.item.Quantity
			mov := &model.StockMovement{
				ProductID:   line.product.ID,
				Kind:        "sale",
				Quantity:    -line.item.Quantity,
				StockBefore: &before,
				StockAfter:  &after,
				Reason:      "checkout",
				ReferenceID: &sale.ID,
				CreatedAt:   time.Now(),
			}
			if err := s.movements.CreateTx(tx, mov); err != nil {
				return err
			}
		}

		if coupon != nil {
			return s.coupons.IncrementUsesTx(tx, coupon.ID)
		}
		return nil
	})
	if err != nil {
		if conflict != nil {
			s.recordStockConflict(ctx, req.IdempotencyKey, lines, conflict)
			return nil, conflict
		}
		// Two terminals racing on the same key can both miss the replay
		// lookup; the loser hits the unique index and gets the stored sale.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if existing, ferr := s.sales.FindByIdempotencyKey(ctx, req.IdempotencyKey); ferr == nil {
				return toSaleResponse(existing), nil
			}
		}
		return nil, err
	}

	log.Info().
		Int("ticket", sale.TicketNumber).
		Str("sale_id", sale.ID.String()).
		Str("method", sale.PaymentMethod).
		Str("total", sale.Total.String()).
		Msg("sale finalized")

	if s.dispatcher != nil {
		job := ReceiptJob{SaleID: sale.ID.String()}
		if req.CustomerEmail != nil {
			job.CustomerEmail = *req.CustomerEmail
		}
		if err := s.dispatcher.Dispatch(ctx, QueueReceipts, job); err != nil {
			log.Warn().Err(err).Str("sale_id", sale.ID.String()).Msg("receipt job enqueue failed")
		}
	}

	return toSaleResponse(sale), nil
}

type pricedLine struct {
	product *model.Product
	item    model.SaleItem
}

// priceLines loads and validates every product, freezing name, SKU and both
// prices into the line items.
func (s *checkoutService) priceLines(ctx context.Context, items []dto.SaleItemRequest) (lines []pricedLine, subtotal, discounts, costTotal decimal.Decimal, err error) {
	for _, it := range items {
		pid, perr := uuid.Parse(it.ProductID)
		if perr != nil {
			return nil, decimal.Zero, decimal.Zero, decimal.Zero, perr
		}
		p, perr := s.products.FindByID(ctx, pid)
		if perr != nil {
			return nil, decimal.Zero, decimal.Zero, decimal.Zero, perr
		}
		if p.SKU == "" {
			return nil, decimal.Zero, decimal.Zero, decimal.Zero, ErrMissingSKU
		}

		qty := decimal.NewFromInt(int64(it.Quantity))
		lineSubtotal := p.SalePrice.Mul(qty).Sub(it.Discount)
		subtotal = subtotal.Add(p.SalePrice.Mul(qty))
		discounts = discounts.Add(it.Discount)
		costTotal = costTotal.Add(p.CostPrice.Mul(qty))

		lines = append(lines, pricedLine{
			product: p,
			item: model.SaleItem{
				ProductID: p.ID,
				SKU:       p.SKU,
				Name:      p.Name,
				Quantity:  it.Quantity,
				UnitPrice: p.SalePrice,
				UnitCost:  p.CostPrice,
				Discount:  it.Discount,
				Subtotal:  lineSubtotal,
			},
		})
	}
	return lines, subtotal, discounts, costTotal, nil
}

func (s *checkoutService) redeemableCoupon(ctx context.Context, code string, base decimal.Decimal) (*model.Coupon, decimal.Decimal, error) {
	c, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		return nil, decimal.Zero, ErrCouponInvalid
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(time.Now()) {
		return nil, decimal.Zero, ErrCouponInvalid
	}
	if c.MaxUses != nil && c.Uses >= *c.MaxUses {
		return nil, decimal.Zero, ErrCouponInvalid
	}

	var discount decimal.Decimal
	switch c.Kind {
	case model.CouponPercent:
		discount = base.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
	default:
		discount = c.Value
	}
	if discount.GreaterThan(base) {
		discount = base
	}
	return c, discount, nil
}

func (s *checkoutService) openSessionFor(ctx context.Context, userID uuid.UUID, registerID *int) (*model.CashSession, error) {
	var (
		session *model.CashSession
		err     error
	)
	if registerID != nil {
		session, err = s.sessions.FindOpenByRegister(ctx, *registerID)
	} else {
		session, err = s.sessions.FindOpenByUser(ctx, userID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOpenSession
		}
		return nil, err
	}
	return session, nil
}

// recordStockConflict is best effort and runs outside the rolled-back
// transaction, so the rejected attempt stays visible for supervisor review.
func (s *checkoutService) recordStockConflict(ctx context.Context, key string, lines []pricedLine, conflict *InsufficientStockError) {
	for i := range lines {
		if lines[i].product.SKU != conflict.SKU {
			continue
		}
		c := &model.StockConflict{
			ProductID:      lines[i].product.ID,
			IdempotencyKey: key,
			Required:       conflict.Required,
			Available:      conflict.Available,
			CreatedAt:      time.Now(),
		}
		if err := s.movements.CreateConflict(ctx, c); err != nil {
			log.Warn().Err(err).Str("sku", conflict.SKU).Msg("stock conflict record failed")
		}
		return
	}
}

func (s *checkoutService) Cancel(ctx context.Context, saleID uuid.UUID, req dto.CancelSaleRequest) (*dto.SaleResponse, error) {
	approver, err := s.authorizer.Authorize(ctx, req.Authorization)
	if err != nil {
		return nil, err
	}

	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.Status == model.SaleCancelled {
		return nil, ErrSaleAlreadyCancelled
	}

	err = runTx(s.sales.DB(), func(tx *gorm.DB) error {
		if err := s.sales.CancelTx(tx, sale.ID, req.Reason, approver.ID); err != nil {
			return err
		}
		for _, item := range sale.Items {
			p, err := s.products.FindByIDTx(tx, item.ProductID)
			if err != nil {
				// Product deleted since the sale — stock restore is moot.
				continue
			}
			if p.Stock == nil {
				continue
			}
			if err := s.products.RestoreStockTx(tx, p.ID, item.Quantity); err != nil {
				return err
			}
			before := *p.Stock
			after := before + item.Quantity
			mov := &model.StockMovement{
				ProductID:   p.ID,
				Kind:        "cancel_restore",
				Quantity:    item.Quantity,
				StockBefore: &before,
				StockAfter:  &after,
				Reason:      req.Reason,
				ReferenceID: &sale.ID,
				CreatedAt:   time.Now(),
			}
			if err := s.movements.CreateTx(tx, mov); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sale_id", sale.ID.String()).
		Str("authorized_by", approver.Username).
		Msg("sale cancelled")

	sale, err = s.sales.FindByID(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	return toSaleResponse(sale), nil
}

func (s *checkoutService) Get(ctx context.Context, saleID uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return toSaleResponse(sale), nil
}

func (s *checkoutService) List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	sales, total, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.SaleListResponse{
		Data:  make([]dto.SaleResponse, 0, len(sales)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range sales {
		resp.Data = append(resp.Data, *toSaleResponse(&sales[i]))
	}
	return resp, nil
}

func (s *checkoutService) SyncBatch(ctx context.Context, userID uuid.UUID, registerID *int, req dto.SyncBatchRequest) ([]dto.SyncResult, error) {
	results := make([]dto.SyncResult, 0, len(req.Sales))
	for _, checkout := range req.Sales {
		// Checkout itself replays duplicates, so distinguish them up front
		// for the result report.
		if existing, err := s.sales.FindByIdempotencyKey(ctx, checkout.IdempotencyKey); err == nil {
			results = append(results, dto.SyncResult{
				IdempotencyKey: checkout.IdempotencyKey,
				Status:         "duplicate",
				Sale:           toSaleResponse(existing),
			})
			continue
		}

		sale, err := s.Checkout(ctx, userID, registerID, checkout)
		if err != nil {
			msg := err.Error()
			results = append(results, dto.SyncResult{
				IdempotencyKey: checkout.IdempotencyKey,
				Status:         "failed",
				Error:          &msg,
			})
			continue
		}
		results = append(results, dto.SyncResult{
			IdempotencyKey: checkout.IdempotencyKey,
			Status:         "synced",
			Sale:           sale,
		})
	}
	return results, nil
}

func (s *checkoutService) EnqueuePending(ctx context.Context, userID uuid.UUID, req dto.CheckoutRequest, cause error) (*dto.PendingSaleResponse, error) {
	if existing, err := s.pending.FindByIdempotencyKey(ctx, req.IdempotencyKey); err == nil {
		return toPendingResponse(existing), nil
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	p := &model.PendingSale{
		IdempotencyKey: req.IdempotencyKey,
		UserID:         userID,
		Payload:        payload,
		Status:         "pending",
		CreatedAt:      time.Now(),
	}
	if cause != nil {
		msg := cause.Error()
		p.LastError = &msg
	}
	if err := s.pending.Create(ctx, p); err != nil {
		return nil, err
	}
	log.Info().Str("idempotency_key", p.IdempotencyKey).Msg("checkout parked for retry")
	return toPendingResponse(p), nil
}

func (s *checkoutService) ReplayPending(ctx context.Context, p *model.PendingSale) (*dto.SaleResponse, error) {
	var req dto.CheckoutRequest
	if err := json.Unmarshal(p.Payload, &req); err != nil {
		return nil, err
	}
	var registerID *int
	if u, err := s.sessions.FindOpenByUser(ctx, p.UserID); err == nil {
		registerID = &u.RegisterID
	}
	return s.Checkout(ctx, p.UserID, registerID, req)
}

func (s *checkoutService) ListPending(ctx context.Context, status string) ([]dto.PendingSaleResponse, error) {
	if status == "" {
		status = "pending"
	}
	entries, err := s.pending.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PendingSaleResponse, 0, len(entries))
	for i := range entries {
		out = append(out, *toPendingResponse(&entries[i]))
	}
	return out, nil
}

func toSaleResponse(s *model.Sale) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:             s.ID.String(),
		TicketNumber:   s.TicketNumber,
		SessionID:      s.SessionID.String(),
		Subtotal:       s.Subtotal,
		DiscountTotal:  s.DiscountTotal,
		Total:          s.Total,
		PaymentMethod:  s.PaymentMethod,
		AmountReceived: s.AmountReceived,
		Change:         s.Change,
		Status:         s.Status,
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
	}
	if s.User != nil {
		resp.Operator = s.User.Name
	}
	for _, it := range s.Items {
		resp.Items = append(resp.Items, dto.SaleItemResponse{
			SKU:       it.SKU,
			Product:   it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Discount:  it.Discount,
			Subtotal:  it.Subtotal,
		})
	}
	return resp
}

func toPendingResponse(p *model.PendingSale) *dto.PendingSaleResponse {
	resp := &dto.PendingSaleResponse{
		ID:             p.ID.String(),
		IdempotencyKey: p.IdempotencyKey,
		Status:         p.Status,
		RetryCount:     p.RetryCount,
		LastError:      p.LastError,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
	if p.NextRetryAt != nil {
		next := p.NextRetryAt.Format(time.RFC3339)
		resp.NextRetryAt = &next
	}
	return resp
}
