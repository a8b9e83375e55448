package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/btcbalances/internal/snapshot"
)

// SnapshotGenerator defines the interface for generating snapshots.
type SnapshotGenerator interface {
	Generate(ctx context.Context, date time.Time) (snapshot.Data, error)
}

// AfterSnapshotHook is called after each successful snapshot generation.
type AfterSnapshotHook interface {
	Export(ctx context.Context, data snapshot.Data) error
}

// Readiness reports whether the balance views hold fetched data worth recording.
type Readiness interface {
	Ready() bool
}

const defaultReadyPoll = 5 * time.Second

// SnapshotWorker periodically stores a snapshot of the balance views.
type SnapshotWorker struct {
	generator SnapshotGenerator
	interval  time.Duration
	hook      AfterSnapshotHook // optional
	ready     Readiness         // optional
	readyPoll time.Duration
	now       func() time.Time
}

// NewSnapshotWorker creates a new SnapshotWorker with an optional post-generation hook.
// When ready is set, each generation waits until it reports true.
func NewSnapshotWorker(generator SnapshotGenerator, interval time.Duration, hook AfterSnapshotHook, ready Readiness) *SnapshotWorker {
	return &SnapshotWorker{
		generator: generator,
		interval:  interval,
		hook:      hook,
		ready:     ready,
		readyPoll: defaultReadyPoll,
		now:       time.Now,
	}
}

// Run starts the snapshot loop. It blocks until the context is cancelled.
func (w *SnapshotWorker) Run(ctx context.Context) {
	slog.Info("SnapshotWorker: starting", "interval", w.interval)

	w.generate(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("SnapshotWorker: shutting down")
			return
		case <-ticker.C:
			w.generate(ctx)
		}
	}
}

func (w *SnapshotWorker) generate(ctx context.Context) {
	if !w.waitReady(ctx) {
		return
	}
	data, err := w.generator.Generate(ctx, UTCDate(w.now()))
	if err != nil {
		slog.Error("SnapshotWorker: generation failed", "error", err)
		return
	}
	slog.Info("SnapshotWorker: generation completed")
	w.runHook(ctx, data)
}

// waitReady blocks until the readiness gate opens. It returns false if ctx ends first.
func (w *SnapshotWorker) waitReady(ctx context.Context) bool {
	if w.ready == nil || w.ready.Ready() {
		return true
	}
	slog.Info("SnapshotWorker: waiting for balances to load")

	ticker := time.NewTicker(w.readyPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if w.ready.Ready() {
				return true
			}
		}
	}
}

// runHook calls the post-generation hook if one is configured.
func (w *SnapshotWorker) runHook(ctx context.Context, data snapshot.Data) {
	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, data); err != nil {
		slog.Error("SnapshotWorker: export hook failed", "error", err)
	} else {
		slog.Info("SnapshotWorker: export hook completed")
	}
}

// UTCDate returns t's calendar date at midnight UTC.
func UTCDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
