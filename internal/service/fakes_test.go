package service

// In-memory repository fakes. They ignore tx handles: runTx executes the
// closure directly when DB() returns nil, so transactional code paths run
// unchanged against these.

import (
	"context"
	"strings"
	"sync"
	"time"

	"vendapos/internal/dto"
	"vendapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*model.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username && u.Active {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(_ context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		if u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) ListByRoles(_ context.Context, roles ...string) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		for _, role := range roles {
			if u.Active && u.Role == role {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Active = false
	}
	return nil
}

func (r *fakeUserRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Active = true
	}
	return nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[uuid.UUID]*model.Product{}}
}

func (r *fakeProductRepo) add(p model.Product) *model.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Active = true
	r.products[p.ID] = &p
	return &p
}

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	r.add(*p)
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		cp := *p
		if p.Stock != nil {
			s := *p.Stock
			cp.Stock = &s
		}
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.Active = false
	}
	return nil
}

func (r *fakeProductRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.Active = true
	}
	return nil
}

func (r *fakeProductRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(context.Background(), id)
}

func (r *fakeProductRepo) DecrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	if p.Stock == nil {
		return 1, nil
	}
	if *p.Stock < qty {
		return 0, nil
	}
	*p.Stock -= qty
	return 1, nil
}

func (r *fakeProductRepo) RestoreStockTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok && p.Stock != nil {
		*p.Stock += qty
	}
	return nil
}

func (r *fakeProductRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok && p.Stock != nil {
		*p.Stock += delta
	}
	return nil
}

func (r *fakeProductRepo) DB() *gorm.DB { return nil }

type fakeMovementRepo struct {
	mu        sync.Mutex
	movements []model.StockMovement
	conflicts []model.StockConflict
}

func newFakeMovementRepo() *fakeMovementRepo { return &fakeMovementRepo{} }

func (r *fakeMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeMovementRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]model.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) CreateConflict(_ context.Context, c *model.StockConflict) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts = append(r.conflicts, *c)
	return nil
}

func (r *fakeMovementRepo) ListConflicts(_ context.Context) ([]model.StockConflict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.StockConflict(nil), r.conflicts...), nil
}

type fakeSessionRepo struct {
	mu         sync.Mutex
	sessions   map[uuid.UUID]*model.CashSession
	injections []model.CashInjection
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[uuid.UUID]*model.CashSession{}}
}

func (r *fakeSessionRepo) CreateSession(_ context.Context, s *model.CashSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.RegisterID == s.RegisterID && existing.Status == model.SessionOpen {
			return gorm.ErrDuplicatedKey
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) FindOpenByRegister(_ context.Context, registerID int) (*model.CashSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.RegisterID == registerID && s.Status == model.SessionOpen {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) FindOpenByUser(_ context.Context, userID uuid.UUID) (*model.CashSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.UserID == userID && s.Status == model.SessionOpen {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) UpdateSessionTx(_ *gorm.DB, s *model.CashSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) CreateInjectionTx(_ *gorm.DB, inj *model.CashInjection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.injections = append(r.injections, *inj)
	return nil
}

func (r *fakeSessionRepo) AddToOpeningAmountTx(_ *gorm.DB, id uuid.UUID, amount interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if d, ok := amount.(decimal.Decimal); ok {
		s.OpeningAmount = s.OpeningAmount.Add(d)
	}
	return nil
}

func (r *fakeSessionRepo) ListSessions(_ context.Context, _, _ int) ([]model.CashSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashSession
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSessionRepo) DB() *gorm.DB { return nil }

type fakeSaleRepo struct {
	mu         sync.Mutex
	sales      map[uuid.UUID]*model.Sale
	nextTicket int
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: map[uuid.UUID]*model.Sale{}}
}

func (r *fakeSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.IdempotencyKey != "" {
		for _, existing := range r.sales {
			if existing.IdempotencyKey == s.IdempotencyKey {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.sales[s.ID] = &cp
	return nil
}

func (r *fakeSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sales[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSaleRepo) FindByIdempotencyKey(_ context.Context, key string) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.IdempotencyKey == key {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSaleRepo) CancelTx(_ *gorm.DB, id uuid.UUID, reason string, authorizedBy uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	s.Status = model.SaleCancelled
	s.CancelReason = &reason
	s.CancelledAt = &now
	s.AuthorizedBy = &authorizedBy
	return nil
}

func (r *fakeSaleRepo) NextTicketNumber(_ *gorm.DB) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextTicket++
	return r.nextTicket, nil
}

func (r *fakeSaleRepo) List(_ context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Sale
	for _, s := range r.sales {
		if filter.Status != "" && filter.Status != "all" && s.Status != filter.Status {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSaleRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.Sale, []model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var finalized, cancelled []model.Sale
	for _, s := range r.sales {
		if s.SessionID != sessionID {
			continue
		}
		if s.Status == model.SaleCancelled {
			cancelled = append(cancelled, *s)
		} else {
			finalized = append(finalized, *s)
		}
	}
	return finalized, cancelled, nil
}

func (r *fakeSaleRepo) DB() *gorm.DB { return nil }

type fakeExpenseRepo struct {
	mu       sync.Mutex
	expenses map[uuid.UUID]*model.Expense
}

func newFakeExpenseRepo() *fakeExpenseRepo {
	return &fakeExpenseRepo{expenses: map[uuid.UUID]*model.Expense{}}
}

func (r *fakeExpenseRepo) Create(_ context.Context, e *model.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	cp := *e
	r.expenses[e.ID] = &cp
	return nil
}

func (r *fakeExpenseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.expenses[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeExpenseRepo) ListByDateRange(_ context.Context, from, to time.Time) ([]model.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Expense
	for _, e := range r.expenses {
		if !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeExpenseRepo) Update(_ context.Context, e *model.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.expenses[e.ID] = &cp
	return nil
}

func (r *fakeExpenseRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.expenses, id)
	return nil
}

type fakeCouponRepo struct {
	mu      sync.Mutex
	coupons map[uuid.UUID]*model.Coupon
}

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{coupons: map[uuid.UUID]*model.Coupon{}}
}

func (r *fakeCouponRepo) Create(_ context.Context, c *model.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.coupons[c.ID] = &cp
	return nil
}

func (r *fakeCouponRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.coupons[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCouponRepo) FindByCode(_ context.Context, code string) (*model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.coupons {
		if strings.EqualFold(c.Code, code) && c.Active {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCouponRepo) List(_ context.Context) ([]model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Coupon
	for _, c := range r.coupons {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeCouponRepo) Update(_ context.Context, c *model.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.coupons[c.ID] = &cp
	return nil
}

func (r *fakeCouponRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.coupons, id)
	return nil
}

func (r *fakeCouponRepo) IncrementUsesTx(_ *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.coupons[id]; ok {
		c.Uses++
	}
	return nil
}

type fakeClosureRepo struct {
	mu       sync.Mutex
	closures map[uuid.UUID]*model.Closure
}

func newFakeClosureRepo() *fakeClosureRepo {
	return &fakeClosureRepo{closures: map[uuid.UUID]*model.Closure{}}
}

func (r *fakeClosureRepo) CreateTx(_ *gorm.DB, c *model.Closure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.closures[c.ID] = &cp
	return nil
}

func (r *fakeClosureRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Closure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.closures[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeClosureRepo) FindBySessionID(_ context.Context, sessionID uuid.UUID) (*model.Closure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.closures {
		if c.SessionID == sessionID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeClosureRepo) LatestForDay(_ context.Context, day time.Time) (*model.Closure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.Closure
	for _, c := range r.closures {
		if c.Day.Format("2006-01-02") != day.Format("2006-01-02") {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *fakeClosureRepo) List(_ context.Context, _, _ int) ([]model.Closure, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Closure
	for _, c := range r.closures {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

type fakePendingRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*model.PendingSale
}

func newFakePendingRepo() *fakePendingRepo {
	return &fakePendingRepo{entries: map[uuid.UUID]*model.PendingSale{}}
}

func (r *fakePendingRepo) Create(_ context.Context, p *model.PendingSale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.entries[p.ID] = &cp
	return nil
}

func (r *fakePendingRepo) FindByIdempotencyKey(_ context.Context, key string) (*model.PendingSale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.entries {
		if p.IdempotencyKey == key {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePendingRepo) ListDue(_ context.Context, now time.Time, limit int) ([]model.PendingSale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.PendingSale
	for _, p := range r.entries {
		if p.Status != "pending" {
			continue
		}
		if p.NextRetryAt != nil && p.NextRetryAt.After(now) {
			continue
		}
		out = append(out, *p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakePendingRepo) Update(_ context.Context, p *model.PendingSale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.entries[p.ID] = &cp
	return nil
}

func (r *fakePendingRepo) ListByStatus(_ context.Context, status string) ([]model.PendingSale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.PendingSale
	for _, p := range r.entries {
		if p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

// fakeDispatcher records enqueued jobs.
type fakeDispatcher struct {
	mu   sync.Mutex
	jobs []struct {
		Queue   string
		Payload interface{}
	}
}

func (d *fakeDispatcher) Dispatch(_ context.Context, queue string, payload interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, struct {
		Queue   string
		Payload interface{}
	}{queue, payload})
	return nil
}

func (d *fakeDispatcher) count(queue string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, j := range d.jobs {
		if j.Queue == queue {
			n++
		}
	}
	return n
}
