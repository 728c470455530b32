package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ultrasignals/trading-ledger/internal/observability"
	"github.com/ultrasignals/trading-ledger/internal/service"
)

// SettlementWorker resolves due trades in the background. Safe to run in
// multiple instances: due trades are claimed with FOR UPDATE SKIP LOCKED.
type SettlementWorker struct {
	trades       *service.TradeService
	pollInterval time.Duration
	batchSize    int32
	stopCh       chan struct{}
	stopOnce     sync.Once
}

func NewSettlementWorker(trades *service.TradeService) *SettlementWorker {
	return &SettlementWorker{
		trades:       trades,
		pollInterval: time.Second,
		batchSize:    50,
		stopCh:       make(chan struct{}),
	}
}

// WithPollInterval updates the poll interval.
func (w *SettlementWorker) WithPollInterval(interval time.Duration) *SettlementWorker {
	if interval > 0 {
		w.pollInterval = interval
	}
	return w
}

// WithBatchSize updates the claim batch size.
func (w *SettlementWorker) WithBatchSize(size int32) *SettlementWorker {
	if size > 0 {
		w.batchSize = size
	}
	return w
}

// Start blocks and settles due trades at the configured interval.
func (w *SettlementWorker) Start(ctx context.Context) {
	zap.L().Info("settlement worker starting",
		zap.Duration("poll_interval", w.pollInterval),
		zap.Int32("batch_size", w.batchSize))
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("settlement worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("settlement worker stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop stops the running worker loop.
func (w *SettlementWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *SettlementWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

// ProcessOnce settles a single batch immediately. Useful for tests.
func (w *SettlementWorker) ProcessOnce(ctx context.Context) (int, error) {
	return w.trades.ResolveDue(ctx, w.batchSize)
}

func (w *SettlementWorker) runOnce(ctx context.Context) {
	settled, err := w.trades.ResolveDue(ctx, w.batchSize)
	if err != nil {
		observability.IncrementWorkerRun("settlement", "failed")
		zap.L().Error("settlement run failed", zap.Int("settled", settled), zap.Error(err))
		return
	}
	observability.IncrementWorkerRun("settlement", "success")
	if settled > 0 {
		zap.L().Info("settlement run finished", zap.Int("settled", settled))
	}
}
