package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type checkoutSweeper interface {
	Sweep() int
}

type cartEvicter interface {
	Sweep(maxIdle time.Duration) int
}

type slotPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewCheckoutSweepJob drops checkout sessions that sat idle past their TTL.
func NewCheckoutSweepJob(logg *logger.Logger, sessions checkoutSweeper) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("checkout sessions required")
	}
	return &checkoutSweepJob{logg: logg, sessions: sessions}, nil
}

type checkoutSweepJob struct {
	logg     *logger.Logger
	sessions checkoutSweeper
}

func (j *checkoutSweepJob) Name() string { return "checkout-sweep" }

func (j *checkoutSweepJob) Run(ctx context.Context) error {
	if removed := j.sessions.Sweep(); removed > 0 {
		j.logg.Info(j.logg.WithField(ctx, "sessions_removed", removed), "expired checkout sessions dropped")
	}
	return nil
}

// NewCartEvictionJob forgets in-memory carts idle for longer than maxIdle.
// Their contents stay in slot storage.
func NewCartEvictionJob(logg *logger.Logger, carts cartEvicter, maxIdle time.Duration) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart manager required")
	}
	if maxIdle <= 0 {
		return nil, nil
	}
	return &cartEvictionJob{logg: logg, carts: carts, maxIdle: maxIdle}, nil
}

type cartEvictionJob struct {
	logg    *logger.Logger
	carts   cartEvicter
	maxIdle time.Duration
}

func (j *cartEvictionJob) Name() string { return "cart-eviction" }

func (j *cartEvictionJob) Run(ctx context.Context) error {
	if evicted := j.carts.Sweep(j.maxIdle); evicted > 0 {
		j.logg.Info(j.logg.WithField(ctx, "carts_evicted", evicted), "idle carts evicted")
	}
	return nil
}

// NewCartSlotRetentionJob deletes database cart slots not written within
// retention. Redis-backed slots expire through their own TTL instead.
func NewCartSlotRetentionJob(logg *logger.Logger, slots slotPruner, retention time.Duration) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if slots == nil {
		return nil, fmt.Errorf("slot storage required")
	}
	if retention <= 0 {
		return nil, nil
	}
	return &cartSlotRetentionJob{logg: logg, slots: slots, retention: retention, now: time.Now}, nil
}

type cartSlotRetentionJob struct {
	logg      *logger.Logger
	slots     slotPruner
	retention time.Duration
	now       func() time.Time
}

func (j *cartSlotRetentionJob) Name() string { return "cart-slot-retention" }

func (j *cartSlotRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.slots.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cart slot retention: %w", err)
	}
	if deleted > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"cutoff":       cutoff,
			"rows_deleted": deleted,
		})
		j.logg.Info(logCtx, "stale cart slots deleted")
	}
	return nil
}
