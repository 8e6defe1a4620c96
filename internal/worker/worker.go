// Package worker runs the engine's background loops: failing goals past their
// deadline and settling goals that reached a terminal state.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/gameia/engine/internal/model"
)

type GoalSweeper interface {
	FailExpired(ctx context.Context) ([]string, error)
}

type Settler interface {
	SettleWithRetry(ctx context.Context, goalID string) (*model.Payout, error)
	SettlePending(ctx context.Context) (int, error)
}

// DeadlineSweeper fails active goals whose deadline passed.
type DeadlineSweeper struct {
	goals    GoalSweeper
	interval time.Duration
}

func NewDeadlineSweeper(goals GoalSweeper, interval time.Duration) *DeadlineSweeper {
	return &DeadlineSweeper{goals: goals, interval: interval}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (w *DeadlineSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("deadline sweeper started", "interval", w.interval)
	for {
		w.Sweep(ctx)

		select {
		case <-ctx.Done():
			slog.Info("deadline sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (w *DeadlineSweeper) Sweep(ctx context.Context) {
	failed, err := w.goals.FailExpired(ctx)
	if err != nil {
		slog.Error("deadline sweep failed", "error", err)
		return
	}
	if len(failed) > 0 {
		slog.Info("expired goals failed", "count", len(failed))
	}
}

// SettlementWorker settles goals as soon as they are triggered and rescans
// for unsettled terminal goals every interval.
type SettlementWorker struct {
	settler  Settler
	interval time.Duration
	queue    chan string
}

func NewSettlementWorker(settler Settler, interval time.Duration, queueSize int) *SettlementWorker {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &SettlementWorker{
		settler:  settler,
		interval: interval,
		queue:    make(chan string, queueSize),
	}
}

// Trigger queues a goal for settlement without blocking. When the queue is
// full the goal is left to the next rescan.
func (w *SettlementWorker) Trigger(goalID string) {
	select {
	case w.queue <- goalID:
	default:
		slog.Warn("settlement queue full, deferring to rescan", "goal_id", goalID)
	}
}

func (w *SettlementWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("settlement worker started", "interval", w.interval)
	w.rescan(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("settlement worker stopped")
			return nil
		case goalID := <-w.queue:
			_, err := w.settler.SettleWithRetry(ctx, goalID)
			if err != nil && ctx.Err() == nil {
				slog.Error("settlement failed", "error", err, "goal_id", goalID)
			}
		case <-ticker.C:
			w.rescan(ctx)
		}
	}
}

func (w *SettlementWorker) rescan(ctx context.Context) {
	settled, err := w.settler.SettlePending(ctx)
	if err != nil && ctx.Err() == nil {
		slog.Error("settlement rescan failed", "error", err)
		return
	}
	if settled > 0 {
		slog.Info("pending goals settled", "count", settled)
	}
}
