package backtest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_runs_total",
			Help: "Total number of strategy runs",
		},
		[]string{"status"}, // "success", "error" or "canceled"
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backtest_run_duration_seconds",
			Help:    "Duration of a single strategy run in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
	)

	tradesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backtest_trades_total",
			Help: "Total number of closed trades produced by strategy runs",
		},
	)
)
