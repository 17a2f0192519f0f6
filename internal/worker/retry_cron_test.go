package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vendapos/internal/dto"
	"vendapos/internal/model"
	"vendapos/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPendingRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*model.PendingSale
}

func newMemPendingRepo() *memPendingRepo {
	return &memPendingRepo{entries: map[uuid.UUID]*model.PendingSale{}}
}

func (r *memPendingRepo) Create(_ context.Context, p *model.PendingSale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.entries[p.ID] = &cp
	return nil
}

func (r *memPendingRepo) FindByIdempotencyKey(_ context.Context, key string) (*model.PendingSale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.entries {
		if p.IdempotencyKey == key {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *memPendingRepo) ListDue(_ context.Context, now time.Time, limit int) ([]model.PendingSale, error) {
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

func (r *memPendingRepo) Update(_ context.Context, p *model.PendingSale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.entries[p.ID] = &cp
	return nil
}

func (r *memPendingRepo) ListByStatus(_ context.Context, status string) ([]model.PendingSale, error) {
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

func (r *memPendingRepo) get(t *testing.T, id uuid.UUID) *model.PendingSale {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.entries[id]
	require.True(t, ok)
	cp := *p
	return &cp
}

// stubCheckout satisfies service.CheckoutService; only ReplayPending is
// exercised by the retry cron.
type stubCheckout struct {
	service.CheckoutService
	replayErr error
	replays   int
}

func (s *stubCheckout) ReplayPending(_ context.Context, p *model.PendingSale) (*dto.SaleResponse, error) {
	s.replays++
	if s.replayErr != nil {
		return nil, s.replayErr
	}
	return &dto.SaleResponse{ID: uuid.NewString(), Status: model.SaleFinalized}, nil
}

func parkedEntry(t *testing.T, repo *memPendingRepo, retryCount int) *model.PendingSale {
	t.Helper()
	p := &model.PendingSale{
		IdempotencyKey: uuid.NewString(),
		UserID:         uuid.New(),
		Payload:        []byte(`{}`),
		Status:         "pending",
		RetryCount:     retryCount,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestSweepMarksSynced(t *testing.T) {
	repo := newMemPendingRepo()
	checkout := &stubCheckout{}
	cron := NewRetryCron(repo, checkout, nil, 8)

	p := parkedEntry(t, repo, 2)
	cron.Sweep(context.Background())

	got := repo.get(t, p.ID)
	assert.Equal(t, "synced", got.Status)
	assert.Nil(t, got.LastError)
	assert.Equal(t, 1, checkout.replays)
}

func TestSweepReschedulesTransientFailure(t *testing.T) {
	repo := newMemPendingRepo()
	checkout := &stubCheckout{replayErr: errors.New("connection refused")}
	cron := NewRetryCron(repo, checkout, nil, 8)

	p := parkedEntry(t, repo, 0)
	before := time.Now()
	cron.Sweep(context.Background())

	got := repo.get(t, p.ID)
	assert.Equal(t, "pending", got.Status)
	assert.Equal(t, 1, got.RetryCount)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "connection refused", *got.LastError)
	require.NotNil(t, got.NextRetryAt)
	assert.False(t, got.NextRetryAt.Before(before.Add(backoff(1))))
}

func TestSweepDeadLettersPermanentFailure(t *testing.T) {
	repo := newMemPendingRepo()
	checkout := &stubCheckout{replayErr: service.ErrMissingSKU}
	cron := NewRetryCron(repo, checkout, nil, 8)

	p := parkedEntry(t, repo, 0)
	cron.Sweep(context.Background())

	got := repo.get(t, p.ID)
	assert.Equal(t, "dead", got.Status)
	assert.Nil(t, got.NextRetryAt)
}

func TestSweepDeadLettersAfterMaxAttempts(t *testing.T) {
	repo := newMemPendingRepo()
	checkout := &stubCheckout{replayErr: errors.New("connection refused")}
	cron := NewRetryCron(repo, checkout, nil, 3)

	p := parkedEntry(t, repo, 2) // next failure is attempt 3 of 3
	cron.Sweep(context.Background())

	got := repo.get(t, p.ID)
	assert.Equal(t, "dead", got.Status)
	assert.Equal(t, 3, got.RetryCount)
}

func TestSweepSkipsEntriesNotYetDue(t *testing.T) {
	repo := newMemPendingRepo()
	checkout := &stubCheckout{}
	cron := NewRetryCron(repo, checkout, nil, 8)

	p := parkedEntry(t, repo, 1)
	future := time.Now().Add(time.Hour)
	p.NextRetryAt = &future
	require.NoError(t, repo.Update(context.Background(), p))

	cron.Sweep(context.Background())

	assert.Equal(t, 0, checkout.replays)
	assert.Equal(t, "pending", repo.get(t, p.ID).Status)
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 32 * time.Second},
		{12, 2048 * time.Second},
		{20, 2048 * time.Second}, // capped
	}
	for _, c := range cases {
		assert.Equal(t, c.want, backoff(c.attempt), "attempt %d", c.attempt)
	}
}

func TestPermanentErrorClassification(t *testing.T) {
	assert.True(t, permanentError(&service.InsufficientStockError{SKU: "SKU-1", Required: 3, Available: 1}))
	assert.True(t, permanentError(service.ErrMissingSKU))
	assert.True(t, permanentError(service.ErrInsufficientPayment))
	assert.True(t, permanentError(service.ErrCouponInvalid))

	assert.False(t, permanentError(errors.New("connection refused")))
	assert.False(t, permanentError(service.ErrNoOpenSession))
}
