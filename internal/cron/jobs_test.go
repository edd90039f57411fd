package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeCheckoutSweeper struct{ removed, calls int }

func (f *fakeCheckoutSweeper) Sweep() int {
	f.calls++
	return f.removed
}

type fakeCartEvicter struct{ maxIdle time.Duration }

func (f *fakeCartEvicter) Sweep(maxIdle time.Duration) int {
	f.maxIdle = maxIdle
	return 1
}

type fakePruner struct {
	cutoff time.Time
	err    error
}

func (f *fakePruner) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

func TestCheckoutSweepJob(t *testing.T) {
	sweeper := &fakeCheckoutSweeper{removed: 2}
	job, err := NewCheckoutSweepJob(testLogger(), sweeper)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sweeper.calls != 1 {
		t.Fatalf("expected one sweep, got %d", sweeper.calls)
	}
}

func TestCartEvictionJobPassesIdleWindow(t *testing.T) {
	carts := &fakeCartEvicter{}
	job, err := NewCartEvictionJob(testLogger(), carts, 6*time.Hour)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if carts.maxIdle != 6*time.Hour {
		t.Fatalf("unexpected idle window %s", carts.maxIdle)
	}

	disabled, err := NewCartEvictionJob(testLogger(), carts, 0)
	if err != nil || disabled != nil {
		t.Fatalf("expected nil job when eviction is disabled, got %v %v", disabled, err)
	}
}

func TestCartSlotRetentionJobUsesCutoff(t *testing.T) {
	pruner := &fakePruner{}
	job, err := NewCartSlotRetentionJob(testLogger(), pruner, 48*time.Hour)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	job.(*cartSlotRetentionJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !pruner.cutoff.Equal(now.Add(-48 * time.Hour)) {
		t.Fatalf("unexpected cutoff %s", pruner.cutoff)
	}

	pruner.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected storage error to surface")
	}
}

func TestJobConstructorsValidate(t *testing.T) {
	if _, err := NewCheckoutSweepJob(nil, &fakeCheckoutSweeper{}); err == nil {
		t.Fatal("expected logger error")
	}
	if _, err := NewCheckoutSweepJob(testLogger(), nil); err == nil {
		t.Fatal("expected sweeper error")
	}
	if _, err := NewCartSlotRetentionJob(testLogger(), nil, time.Hour); err == nil {
		t.Fatal("expected pruner error")
	}
}
