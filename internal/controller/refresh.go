package controller

import (
	"context"
	"log/slog"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/config"
	"golang.org/x/time/rate"
)

// ReloadFunc re-reads the inventory view and reports whether it differs from
// the state captured when the order was accepted.
type ReloadFunc func(ctx context.Context) (changed bool, err error)

// InventoryRefresher decides when the inventory is re-read after an accepted
// order. Refresh blocks until it is done or ctx is cancelled.
type InventoryRefresher interface {
	Refresh(ctx context.Context, reload ReloadFunc)
}

// AfterFunc waits for d; time.After in production, a manual channel in tests.
type AfterFunc func(d time.Duration) <-chan time.Time

// DelayRefresher reloads once, Delay after the order was accepted.
type DelayRefresher struct {
	Delay time.Duration
	After AfterFunc
}

func (r DelayRefresher) Refresh(ctx context.Context, reload ReloadFunc) {
	if !sleep(ctx, r.After, r.Delay) {
		return
	}
	_, _ = reload(ctx)
}

// PollRefresher reloads first after InitialDelay, then at most once per
// Interval until the inventory changes or MaxWait has passed since the order.
// When MaxWait runs out, whatever the last reload rendered stays on screen.
type PollRefresher struct {
	InitialDelay time.Duration
	Interval     time.Duration
	MaxWait      time.Duration
	After        AfterFunc
	Logger       *slog.Logger
}

func (r PollRefresher) Refresh(ctx context.Context, reload ReloadFunc) {
	start := time.Now()
	if !sleep(ctx, r.After, r.InitialDelay) {
		return
	}

	pollCtx, cancel := context.WithDeadline(ctx, start.Add(r.MaxWait))
	defer cancel()

	interval := r.Interval
	if interval <= 0 {
		interval = time.Second
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(pollCtx); err != nil {
			if ctx.Err() == nil && r.Logger != nil {
				r.Logger.Warn("inventory did not change before max wait",
					"attempts", attempt-1,
					"max_wait", r.MaxWait.String(),
				)
			}
			return
		}

		changed, err := reload(ctx)
		if changed {
			return
		}
		if err != nil && r.Logger != nil {
			r.Logger.Debug("inventory poll failed", "attempt", attempt, "error", err)
		}
	}
}

// NewRefresher builds the refresher selected by cfg.
func NewRefresher(cfg config.SyncConfig, log *slog.Logger) InventoryRefresher {
	if cfg.OrderRefreshMode == config.RefreshModeDelay {
		return DelayRefresher{Delay: cfg.OrderRefreshDelay}
	}
	return PollRefresher{
		InitialDelay: cfg.OrderRefreshDelay,
		Interval:     cfg.OrderRefreshInterval,
		MaxWait:      cfg.OrderRefreshMaxWait,
		Logger:       log,
	}
}

// sleep waits d using after (time.After when nil). It returns false if ctx
// ended first.
func sleep(ctx context.Context, after AfterFunc, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	if after == nil {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		}
	}
	select {
	case <-ctx.Done():
		return false
	case <-after(d):
		return true
	}
}
