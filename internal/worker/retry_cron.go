package worker

import (
	"context"
	"errors"
	"time"

	"vendapos/internal/model"
	"vendapos/internal/repository"
	"vendapos/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryInterval = 30 * time.Second
	retryBatch    = 50

	// PendingDLQ receives checkouts that exhausted their retries or hit a
	// permanent validation error, for supervisor inspection.
	PendingDLQ = "dlq:pending_sales"
)

// RetryCron replays parked checkouts from the offline retry queue.
type RetryCron struct {
	pending     repository.PendingSaleRepository
	checkout    service.CheckoutService
	rdb         *redis.Client
	maxAttempts int
}

func NewRetryCron(pending repository.PendingSaleRepository, checkout service.CheckoutService, rdb *redis.Client, maxAttempts int) *RetryCron {
	if maxAttempts < 1 {
		maxAttempts = 8
	}
	return &RetryCron{pending: pending, checkout: checkout, rdb: rdb, maxAttempts: maxAttempts}
}

// Start ticks every 30 seconds until ctx is cancelled.
func (c *RetryCron) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(retryInterval)
		defer ticker.Stop()
		log.Info().Dur("interval", retryInterval).Msg("sale retry cron started")
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep(ctx)
			}
		}
	}()
}

// Sweep replays every due entry once.
func (c *RetryCron) Sweep(ctx context.Context) {
	due, err := c.pending.ListDue(ctx, time.Now(), retryBatch)
	if err != nil {
		log.Error().Err(err).Msg("retry sweep: listing due entries failed")
		return
	}
	for i := range due {
		c.replay(ctx, &due[i])
	}
}

func (c *RetryCron) replay(ctx context.Context, p *model.PendingSale) {
	_, err := c.checkout.ReplayPending(ctx, p)
	if err == nil {
		p.Status = "synced"
		p.LastError = nil
		if uerr := c.pending.Update(ctx, p); uerr != nil {
			log.Error().Err(uerr).Str("idempotency_key", p.IdempotencyKey).Msg("retry sweep: marking synced failed")
		}
		log.Info().Str("idempotency_key", p.IdempotencyKey).Int("attempts", p.RetryCount).Msg("parked checkout synced")
		return
	}

	msg := err.Error()
	p.LastError = &msg
	p.RetryCount++

	if permanentError(err) || p.RetryCount >= c.maxAttempts {
		p.Status = "dead"
		p.NextRetryAt = nil
		if uerr := c.pending.Update(ctx, p); uerr != nil {
			log.Error().Err(uerr).Str("idempotency_key", p.IdempotencyKey).Msg("retry sweep: marking dead failed")
			return
		}
		c.deadLetter(ctx, p)
		log.Warn().Err(err).Str("idempotency_key", p.IdempotencyKey).Int("attempts", p.RetryCount).Msg("parked checkout dead-lettered")
		return
	}

	next := time.Now().Add(backoff(p.RetryCount))
	p.NextRetryAt = &next
	if uerr := c.pending.Update(ctx, p); uerr != nil {
		log.Error().Err(uerr).Str("idempotency_key", p.IdempotencyKey).Msg("retry sweep: rescheduling failed")
		return
	}
	log.Warn().Err(err).Str("idempotency_key", p.IdempotencyKey).Int("attempt", p.RetryCount).Time("next_retry", next).Msg("parked checkout retry failed")
}

// backoff doubles per attempt: 1s, 2s, 4s, 8s, ...
func backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 12 {
		attempt = 12
	}
	return time.Duration(1<<uint(attempt-1)) * time.Second
}

// permanentError reports whether a replay failure can never succeed, so
// retrying is pointless.
func permanentError(err error) bool {
	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		return true
	}
	return errors.Is(err, service.ErrMissingSKU) ||
		errors.Is(err, service.ErrInsufficientPayment) ||
		errors.Is(err, service.ErrCouponInvalid)
}

func (c *RetryCron) deadLetter(ctx context.Context, p *model.PendingSale) {
	if c.rdb == nil {
		return
	}
	job := Job{
		ID:         p.ID.String(),
		Queue:      PendingDLQ,
		Payload:    p.Payload,
		Attempts:   p.RetryCount,
		EnqueuedAt: time.Now(),
	}
	pushDLQ(ctx, c.rdb, "pending_sales", &job)
}
