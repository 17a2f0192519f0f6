package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"vendapos/internal/dto"
	"vendapos/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type checkoutFixture struct {
	svc        CheckoutService
	sales      *fakeSaleRepo
	sessions   *fakeSessionRepo
	products   *fakeProductRepo
	movements  *fakeMovementRepo
	coupons    *fakeCouponRepo
	pending    *fakePendingRepo
	users      *fakeUserRepo
	dispatcher *fakeDispatcher
	operator   *model.User
	manager    *model.User
	session    *model.CashSession
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	users := newFakeUserRepo()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!!"), bcrypt.MinCost)
	require.NoError(t, err)
	operator := &model.User{ID: uuid.New(), Username: "alice", Name: "Alice", PasswordHash: string(hash), Role: model.RoleOperator, Active: true}
	manager := &model.User{ID: uuid.New(), Username: "boss", Name: "Boss", PasswordHash: string(hash), Role: model.RoleManager, Active: true}
	require.NoError(t, users.Create(context.Background(), operator))
	require.NoError(t, users.Create(context.Background(), manager))

	sessions := newFakeSessionRepo()
	session := &model.CashSession{
		ID:            uuid.New(),
		RegisterID:    1,
		UserID:        operator.ID,
		OpeningAmount: dec("100.00"),
		Status:        model.SessionOpen,
		OpenedAt:      time.Now().Add(-time.Hour),
	}
	require.NoError(t, sessions.CreateSession(context.Background(), session))

	f := &checkoutFixture{
		sales:      newFakeSaleRepo(),
		sessions:   sessions,
		products:   newFakeProductRepo(),
		movements:  newFakeMovementRepo(),
		coupons:    newFakeCouponRepo(),
		pending:    newFakePendingRepo(),
		users:      users,
		dispatcher: &fakeDispatcher{},
		operator:   operator,
		manager:    manager,
		session:    session,
	}
	f.svc = NewCheckoutService(
		f.sales, f.sessions, f.products, f.movements, f.coupons, f.pending,
		NewAuthorizer(users), f.dispatcher,
	)
	return f
}

func (f *checkoutFixture) trackedProduct(sku, price, cost string, stock int) *model.Product {
	return f.products.add(model.Product{
		SKU:       sku,
		Name:      "Product " + sku,
		Category:  "general",
		CostPrice: dec(cost),
		SalePrice: dec(price),
		Stock:     &stock,
	})
}

func (f *checkoutFixture) checkoutReq(p *model.Product, qty int, method string) dto.CheckoutRequest {
	return dto.CheckoutRequest{
		IdempotencyKey: uuid.NewString(),
		Items:          []dto.SaleItemRequest{{ProductID: p.ID.String(), Quantity: qty}},
		PaymentMethod:  method,
	}
}

func TestCheckoutFinalizesSale(t *testing.T) {
	f := newCheckoutFixture(t)
	p := f.trackedProduct("SKU-1", "25.00", "10.00", 5)

	resp, err := f.svc.Checkout(context.Background(), f.operator.ID, nil, f.checkoutReq(p, 2, model.PayCredit))
	require.NoError(t, err)

	assert.Equal(t, 1, resp.TicketNumber)
	assert.True(t, resp.Total.Equal(dec("50.00")))
	assert.Equal(t, model.SaleFinalized, resp.Status)
	assert.Equal(t, f.session.ID.String(), resp.SessionID)

	// Stock decremented and the movement recorded.
	stored, err := f.products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *stored.Stock)
	assert.Len(t, f.movements.movements, 1)

	// Receipt job enqueued.
	assert.Equal(t, 1, f.dispatcher.count(QueueReceipts))
}

func TestCheckoutRequiresOpenSession(t *testing.T) {
	f := newCheckoutFixture(t)
	p := f.trackedProduct("SKU-1", "25.00", "10.00", 5)
	other := uuid.New()

	_, err := f.svc.Checkout(context.Background(), other, nil, f.checkoutReq(p, 1, model.PayCash))
	assert.ErrorIs(t, err, ErrNoOpenSession)
	assert.Len(t, f.sales.sales, 0)
}

func TestCheckoutRejectsMissingSKU(t *testing.T) {
	f := newCheckoutFixture(t)
	p := f.products.add(model.Product{
		Name:      "No identifier",
		Category:  "general",
		SalePrice: dec("10.00"),
	})

	_, err := f.svc.Checkout(context.Background(), f.operator.ID, nil, f.checkoutReq(p, 1, model.PayCash))
	assert.ErrorIs(t, err, ErrMissingSKU)
	assert.Len(t, f.sales.sales, 0, "no sale may be persisted")
}

func TestCheckoutCashChange(t *testing.T) {
	f := newCheckoutFixture(t)
	p := f.trackedProduct("SKU-1", "80.00", "30.00", 5)

	received := dec("100.00")
	req := f.checkoutReq(p, 1, model.PayCash)
	req.AmountReceived = &received

	resp, err := f.svc.Checkout(context.Background(), f.operator.ID, nil, req)
	require.NoError(t, err)
	assert.True(t, resp.Change.Equal(dec("20.00")), "change = %s", resp.Change)

	// Exact payment: no change.
	exact := dec("80.00")
	req2 := f.checkoutReq(p, 1, model.PayCash)
	req2.AmountReceived = &exact
	resp2, err := f.svc.Checkout(context.Background(), f.operator.ID, nil, req2)
	require.NoError(t, err)
	assert.True(t, resp2.Change.IsZero())

	// Underpayment fails.
	short := dec("70.00")
	req3 := f.checkoutReq(p, 1, model.PayCash)
	req3.AmountReceived = &short
	_, err = f.svc.Checkout(context.Background(), f.operator.ID, nil, req3)
	assert.ErrorIs(t, err, ErrInsufficientPayment)
}

// racingSaleRepo misses the first replay lookup, as it would when a
// concurrent checkout with the same key has not committed yet.
type racingSaleRepo struct {
	*fakeSaleRepo
	missed bool
}

func (r *racingSaleRepo) FindByIdempotencyKey(ctx context.Context, key string) (*model.Sale, error) {
	if !r.missed {
		r.missed = true
		return nil, gorm.ErrRecordNotFound
	}
	return r.fakeSaleRepo.FindByIdempotencyKey(ctx, key)
}

func TestCheckoutDuplicateKeyRaceReplaysStoredSale(t *testing.T) {
	f := newCheckoutFixture(t)
	p := f.trackedProduct("SKU-1", "25.00", "10.00", 5)

	req := f.checkoutReq(p, 1, model.PayCash)
	first, err := f.svc.Checkout(context.Background(), f.operator.ID, nil, req)
	require.NoError(t, err)

	racing := &racingSaleRepo{fakeSaleRepo: f.sales}
	svc := NewCheckoutService(
		racing, f.sessions, f.products, f.movements, f.coupons, f.pending,
		NewAuthorizer(f.users), f.dispatcher,
	)

	// The loser of the race hits the unique index inside the transaction and
	// must come back with the stored sale, not a generic failure.
	second, err := svc.Checkout(context.Background(), f.operator.ID, nil, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.sales.sales, 1)

	// The aborted transaction decremented nothing.
	stored, err := f.products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, *stored.Stock)
}

func TestCheckoutIdempotencyReplay(t *testing.T) {
	f := newCheckoutFixture(t)
	p := f.trackedProduct("SKU-1", "25.00", "10.00", 5)

	req := f.checkoutReq(p, 1, model.PayDebit)

	first, err := f.svc.Checkout(context.Background(), f.operator.ID, nil, req)
	require.NoError(t, err)

	second, err := f.svc.Checkout(context.Background(), f.operator.ID, nil, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.sales.sales, 1, "exactly one sale persisted")

	// Stock decremented exactly once.
	stored, err := f.products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, *stored.Stock)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	f := newCheckoutFixture(t)
	p := f.trackedProduct("SKU-1", "25.00", "10.00", 1)

	_, err := f.svc.Checkout(context.Background(), f.operator.ID, nil, f.checkoutReq(p, 3, model.PayCash))

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "SKU-1", stockErr.SKU)
	assert.Equal(t, 3, stockErr.Required)
	assert.Equal(t, 1, stockErr.Available)

	// Conflict recorded for supervisor review.
	conflicts, err := f.movements.ListConflicts(context.Background())
	require.NoError(t, err)
	assert.Len(t, conflicts, 1)
}

// staleProductRepo inflates the stock seen by the pre-transaction read, as a
// concurrent sale committing in between would leave it.
type staleProductRepo struct {
	*fakeProductRepo
	stale int
}

func (r *staleProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := r.fakeProductRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Stock != nil {
		s := r.stale
		p.Stock = &s
	}
	return p, nil
}

func TestCheckoutStockConflictReportsCurrentStock(t *testing.T) {
	f := newCheckoutFixture(t)
	p := f.trackedProduct("SKU-1", "25.00", "10.00", 1)

	stale := &staleProductRepo{fakeProductRepo: f.products, stale: 5}
	svc := NewCheckoutService(
		f.sales, f.sessions, stale, f.movements, f.coupons, f.pending,
		NewAuthorizer(f.users), f.dispatcher,
	)

	_, err := svc.Checkout(context.Background(), f.operator.ID, nil, f.checkoutReq(p, 3, model.PayCash))

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available, "deficit must report the row as it is now, not the stale read")
	assert.Equal(t, 3, stockErr.Required)
}

func TestCheckoutUnlimitedStockNeverBlocks(t *testing.T) {
	f := newCheckoutFixture(t)
	p := f.products.add(model.Product{
		SKU:       "SVC-1",
		Name:      "Service fee",
		Category:  "services",
		SalePrice: dec("15.00"),
		Stock:     nil, // untracked
	})

	resp, err := f.svc.Checkout(context.Background(), f.operator.ID, nil, f.checkoutReq(p, 100, model.PayPixDirect))
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(dec("1500.00")))
	assert.Empty(t, f.movements.movements, "untracked products produce no stock movements")
}

func TestCheckoutPercentCoupon(t *testing.T) {
	f := newCheckoutFixture(t)
	p := f.trackedProduct("SKU-1", "100.00", "40.00", 5)
	require.NoError(t, f.coupons.Create(context.Background(), &model.Coupon{
		Code: "TEN", Kind: model.CouponPercent, Value: dec("10"), Active: true,
	}))

	req := f.checkoutReq(p, 1, model.PayCredit)
	req.CouponCode = "TEN"

	resp, err := f.svc.Checkout(context.Background(), f.operator.ID, nil, req)
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(dec("90.00")), "total = %s", resp.Total)
	assert.True(t, resp.DiscountTotal.Equal(dec("10.00")))

	// Use counted.
	coupons, err := f.coupons.List(context.Background())
	require.NoError(t, err)
	require.Len(t, coupons, 1)
	assert.Equal(t, 1, coupons[0].Uses)
}

func TestCheckoutExpiredCouponRejected(t *testing.T) {
	f := newCheckoutFixture(t)
	p := f.trackedProduct("SKU-1", "100.00", "40.00", 5)
	past := time.Now().Add(-24 * time.Hour)
	require.NoError(t, f.coupons.Create(context.Background(), &model.Coupon{
		Code: "OLD", Kind: model.CouponFixed, Value: dec("5"), ExpiresAt: &past, Active: true,
	}))

	req := f.checkoutReq(p, 1, model.PayCash)
	req.CouponCode = "OLD"

	_, err := f.svc.Checkout(context.Background(), f.operator.ID, nil, req)
	assert.ErrorIs(t, err, ErrCouponInvalid)
}

func TestCancelSaleRestoresStock(t *testing.T) {
	f := newCheckoutFixture(t)
	p := f.trackedProduct("SKU-1", "25.00", "10.00", 5)

	sale, err := f.svc.Checkout(context.Background(), f.operator.ID, nil, f.checkoutReq(p, 2, model.PayCash))
	require.NoError(t, err)
	saleID := uuid.MustParse(sale.ID)

	cancelled, err := f.svc.Cancel(context.Background(), saleID, dto.CancelSaleRequest{
		Reason:        "customer returned items",
		Authorization: dto.Authorization{Username: "boss", Password: "s3cret!!"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.SaleCancelled, cancelled.Status)

	stored, err := f.products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, *stored.Stock, "stock restored")

	// Second cancellation is rejected.
	_, err = f.svc.Cancel(context.Background(), saleID, dto.CancelSaleRequest{
		Reason:        "customer returned items",
		Authorization: dto.Authorization{Username: "boss", Password: "s3cret!!"},
	})
	assert.ErrorIs(t, err, ErrSaleAlreadyCancelled)
}

func TestCancelSaleRequiresElevatedCredential(t *testing.T) {
	f := newCheckoutFixture(t)
	p := f.trackedProduct("SKU-1", "25.00", "10.00", 5)

	sale, err := f.svc.Checkout(context.Background(), f.operator.ID, nil, f.checkoutReq(p, 1, model.PayCash))
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), uuid.MustParse(sale.ID), dto.CancelSaleRequest{
		Reason:        "fat fingered",
		Authorization: dto.Authorization{Username: "alice", Password: "s3cret!!"},
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	stored, err := f.sales.FindByID(context.Background(), uuid.MustParse(sale.ID))
	require.NoError(t, err)
	assert.Equal(t, model.SaleFinalized, stored.Status, "sale untouched after failed authorization")
}

func TestSyncBatchReportsPerEntry(t *testing.T) {
	f := newCheckoutFixture(t)
	p := f.trackedProduct("SKU-1", "25.00", "10.00", 5)

	dup := f.checkoutReq(p, 1, model.PayCash)
	_, err := f.svc.Checkout(context.Background(), f.operator.ID, nil, dup)
	require.NoError(t, err)

	missing := f.checkoutReq(p, 1, model.PayCash)
	missing.Items[0].ProductID = uuid.NewString() // unknown product

	fresh := f.checkoutReq(p, 1, model.PayCash)

	results, err := f.svc.SyncBatch(context.Background(), f.operator.ID, nil, dto.SyncBatchRequest{
		Sales: []dto.CheckoutRequest{dup, missing, fresh},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "duplicate", results[0].Status)
	assert.Equal(t, "failed", results[1].Status)
	assert.Equal(t, "synced", results[2].Status)

	assert.Len(t, f.sales.sales, 2)
}

func TestEnqueueAndReplayPending(t *testing.T) {
	f := newCheckoutFixture(t)
	p := f.trackedProduct("SKU-1", "25.00", "10.00", 5)

	req := f.checkoutReq(p, 1, model.PayCash)
	parked, err := f.svc.EnqueuePending(context.Background(), f.operator.ID, req, errors.New("connection refused"))
	require.NoError(t, err)
	assert.Equal(t, "pending", parked.Status)
	require.NotNil(t, parked.LastError)

	// Enqueueing the same key again returns the stored entry.
	again, err := f.svc.EnqueuePending(context.Background(), f.operator.ID, req, nil)
	require.NoError(t, err)
	assert.Equal(t, parked.ID, again.ID)

	entry, err := f.pending.FindByIdempotencyKey(context.Background(), req.IdempotencyKey)
	require.NoError(t, err)

	sale, err := f.svc.ReplayPending(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, model.SaleFinalized, sale.Status)
	assert.Len(t, f.sales.sales, 1)
}
