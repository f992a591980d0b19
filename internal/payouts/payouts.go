package payouts

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lumeva/creditcore/internal/service/payoutservice"
	"go.uber.org/zap"
)

type PayoutService interface {
	Run(ctx context.Context, runID string) (*payoutservice.RunSummary, error)
}

// Runner triggers payout batches on a fixed schedule. The HTTP trigger
// endpoint remains the path for manual and scheduler-driven runs.
type Runner struct {
	service  PayoutService
	interval time.Duration
	running  atomic.Bool
}

func New(service PayoutService, interval time.Duration) *Runner {
	return &Runner{
		service:  service,
		interval: interval,
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.interval <= 0 {
		zap.L().Info("Payout runner disabled")
		return
	}
	zap.L().Info("Payout runner started", zap.Duration("interval", r.interval))
	go r.run(ctx)
}

func (r *Runner) run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping payout runner")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	// A slow batch must finish before the next tick starts another.
	if !r.running.CompareAndSwap(false, true) {
		zap.L().Warn("Previous payout run still in progress, skipping tick")
		return
	}
	defer r.running.Store(false)

	runID := uuid.NewString()
	if _, err := r.service.Run(ctx, runID); err != nil {
		zap.L().Error("Scheduled payout run failed", zap.String("runID", runID), zap.Error(err))
	}
}
