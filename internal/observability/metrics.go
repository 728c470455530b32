package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpDurationHistogram  *prometheus.HistogramVec
	ledgerImbalanceCounter prometheus.Counter
	rejectedDeltaCounter   *prometheus.CounterVec
	idempotencyCounter     *prometheus.CounterVec
	tradeOpenCounter       prometheus.Counter
	tradeSettleCounter     *prometheus.CounterVec
	payoutCounter          *prometheus.CounterVec
	spinRewardCounter      *prometheus.CounterVec
	workerRunCounter       *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		ledgerImbalanceCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_imbalance_total",
			Help: "Wallets whose balances diverged from their journal net",
		})

		rejectedDeltaCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_rejected_deltas_total",
			Help: "Balance deltas refused by the ledger",
		}, []string{"event"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		tradeOpenCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trades_opened_total",
			Help: "Trades opened",
		})

		tradeSettleCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trades_settled_total",
			Help: "Trades settled by terminal status",
		}, []string{"status"})

		payoutCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "withdrawal_payouts_total",
			Help: "Withdrawal payout attempts by result",
		}, []string{"result"})

		spinRewardCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spin_rewards_total",
			Help: "Fortune wheel spins by credit mode",
		}, []string{"mode"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			ledgerImbalanceCounter,
			rejectedDeltaCounter,
			idempotencyCounter,
			tradeOpenCounter,
			tradeSettleCounter,
			payoutCounter,
			spinRewardCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementLedgerImbalance() {
	if ledgerImbalanceCounter == nil {
		return
	}
	ledgerImbalanceCounter.Inc()
}

func IncrementRejectedDelta(event string) {
	if rejectedDeltaCounter == nil {
		return
	}
	rejectedDeltaCounter.WithLabelValues(event).Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func IncrementTradeOpened() {
	if tradeOpenCounter == nil {
		return
	}
	tradeOpenCounter.Inc()
}

func IncrementTradeSettled(status string) {
	if tradeSettleCounter == nil {
		return
	}
	tradeSettleCounter.WithLabelValues(status).Inc()
}

func IncrementPayout(result string) {
	if payoutCounter == nil {
		return
	}
	payoutCounter.WithLabelValues(result).Inc()
}

func IncrementSpinReward(mode string) {
	if spinRewardCounter == nil {
		return
	}
	spinRewardCounter.WithLabelValues(mode).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
