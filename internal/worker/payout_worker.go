package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/observability"
	"github.com/ultrasignals/trading-ledger/internal/service"
)

// PayoutWorker executes pending withdrawal payouts in the background.
// Safe for concurrent instances thanks to FOR UPDATE SKIP LOCKED.
type PayoutWorker struct {
	withdrawals  *service.WithdrawalService
	pollInterval time.Duration
	batchSize    int32
	stopCh       chan struct{}
	stopOnce     sync.Once
}

func NewPayoutWorker(withdrawals *service.WithdrawalService) *PayoutWorker {
	return &PayoutWorker{
		withdrawals:  withdrawals,
		pollInterval: 10 * time.Second,
		batchSize:    10,
		stopCh:       make(chan struct{}),
	}
}

// WithPollInterval updates the poll interval.
func (w *PayoutWorker) WithPollInterval(interval time.Duration) *PayoutWorker {
	if interval > 0 {
		w.pollInterval = interval
	}
	return w
}

// WithBatchSize updates the claim batch size.
func (w *PayoutWorker) WithBatchSize(size int32) *PayoutWorker {
	if size > 0 {
		w.batchSize = size
	}
	return w
}

// Start blocks and processes pending payouts at the configured interval.
func (w *PayoutWorker) Start(ctx context.Context) {
	zap.L().Info("payout worker starting",
		zap.Duration("poll_interval", w.pollInterval),
		zap.Int32("batch_size", w.batchSize))
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("payout worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("payout worker stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop stops the running worker loop.
func (w *PayoutWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *PayoutWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

// ProcessOnce processes a single batch immediately. Useful for tests.
func (w *PayoutWorker) ProcessOnce(ctx context.Context) (int, error) {
	return w.withdrawals.ProcessPending(ctx, w.batchSize)
}

func (w *PayoutWorker) runOnce(ctx context.Context) {
	processed, err := w.withdrawals.ProcessPending(ctx, w.batchSize)
	if err != nil {
		observability.IncrementWorkerRun("payout", "failed")
		zap.L().Error("payout run failed", zap.Int("processed", processed), zap.Error(err))
		return
	}
	observability.IncrementWorkerRun("payout", "success")
	if processed > 0 {
		zap.L().Info("payout run finished", zap.Int("processed", processed))
	}
}
