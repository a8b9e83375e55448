// Package worker runs the periodic background jobs.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// Refresher refreshes the balances of every configured chain.
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

// RefreshWorker periodically refreshes balances from the explorers.
type RefreshWorker struct {
	refresher Refresher
	interval  time.Duration
}

// NewRefreshWorker creates a new RefreshWorker.
func NewRefreshWorker(refresher Refresher, interval time.Duration) *RefreshWorker {
	return &RefreshWorker{
		refresher: refresher,
		interval:  interval,
	}
}

// Run starts the refresh loop. It blocks until the context is cancelled.
func (w *RefreshWorker) Run(ctx context.Context) {
	slog.Info("RefreshWorker: starting", "interval", w.interval)

	w.refresh(ctx, "initial refresh")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("RefreshWorker: shutting down")
			return
		case <-ticker.C:
			w.refresh(ctx, "refresh")
		}
	}
}

func (w *RefreshWorker) refresh(ctx context.Context, what string) {
	if err := w.refresher.RefreshAll(ctx); err != nil {
		slog.Error("RefreshWorker: "+what+" failed", "error", err)
		return
	}
	slog.Info("RefreshWorker: " + what + " completed")
}
