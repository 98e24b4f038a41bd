// Package backtest runs strategies bar by bar over a series and ranks them.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mohamedkhairy/strategy-lab/internal/models"
	"github.com/mohamedkhairy/strategy-lab/internal/rules"
	"github.com/mohamedkhairy/strategy-lab/pkg/logger"
)

// Result is the outcome of one strategy run
type Result struct {
	RunID         string
	Strategy      string
	Series        string
	Record        *models.TradingRecord
	BarsProcessed int
	StartedAt     time.Time
	Duration      time.Duration
}

// Engine drives a strategy over a series
type Engine struct {
	log *zap.Logger
}

// NewEngine creates a new engine. A nil log uses the global logger.
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = logger.Get()
	}
	return &Engine{log: log}
}

// Run walks every bar of series once. On each bar it exits when a trade is
// open and the exit rule holds, otherwise enters when flat, past the unstable
// period and the entry rule holds. At most one operation happens per bar.
// A trade still open after the last bar stays open in the result.
func (e *Engine) Run(ctx context.Context, series *models.TimeSeries, strategy *Strategy) (*Result, error) {
	if err := strategy.Validate(); err != nil {
		recordFailure("error", "invalid_strategy")
		return nil, err
	}
	if series == nil || series.Len() == 0 {
		recordFailure("error", "empty_series")
		return nil, models.ErrEmptySeries
	}

	result := &Result{
		RunID:     uuid.New().String(),
		Strategy:  strategy.Name,
		Series:    series.Name(),
		Record:    models.NewTradingRecord(strategy.StartingType),
		StartedAt: time.Now(),
	}
	log := e.log.With(
		logger.String("run_id", result.RunID),
		logger.String("strategy", strategy.Name),
	)

	err := e.walk(ctx, series, strategy, result)
	result.Duration = time.Since(result.StartedAt)
	runDuration.Observe(result.Duration.Seconds())

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			recordFailure("canceled", "canceled")
		} else {
			recordFailure("error", "run")
		}
		log.Warn("Strategy run failed",
			logger.Int("bars_processed", result.BarsProcessed),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("run %s: %w", strategy.Name, err)
	}

	runsTotal.WithLabelValues("success").Inc()
	tradesTotal.Add(float64(result.Record.TradeCount()))
	log.Debug("Strategy run completed",
		logger.Int("bars_processed", result.BarsProcessed),
		logger.Int("trades", result.Record.TradeCount()),
		logger.Bool("open_trade", !result.Record.IsClosed()),
		logger.Duration("duration", result.Duration),
	)

	return result, nil
}

func recordFailure(status, errorType string) {
	runsTotal.WithLabelValues(status).Inc()
	logger.ErrorsTotal.WithLabelValues("backtest", errorType).Inc()
}

func (e *Engine) walk(ctx context.Context, series *models.TimeSeries, strategy *Strategy, result *Result) error {
	record := result.Record
	for index := series.BeginIndex(); index <= series.EndIndex(); index++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !record.IsClosed() {
			exit, err := rules.Evaluate(strategy.Exit, series, index, record)
			if err != nil {
				return err
			}
			if exit {
				if err := record.Exit(index); err != nil {
					return err
				}
			}
		} else if !strategy.IsUnstableAt(index) {
			enter, err := rules.Evaluate(strategy.Entry, series, index, record)
			if err != nil {
				return err
			}
			if enter {
				if err := record.Enter(index); err != nil {
					return err
				}
			}
		}

		result.BarsProcessed++
	}
	return nil
}
