package criteria

import (
	"github.com/mohamedkhairy/strategy-lab/internal/models"
)

// MaximumDrawdown is the largest peak-to-trough decline of the equity curve,
// as a fraction of the peak. Lower is better.
//
// The curve starts at 1 and follows the close while a trade is open: close/entry
// for long trades, entry/close for short trades. It stays flat between trades.
type MaximumDrawdown struct{}

// Name implements Criterion
func (MaximumDrawdown) Name() string {
	return "maximum_drawdown"
}

// Calculate implements Criterion
func (MaximumDrawdown) Calculate(series *models.TimeSeries, trades []models.Trade) float64 {
	return maxDrawdown(equityCurve(series, closedTrades(trades)))
}

// CalculateTrade implements Criterion
func (c MaximumDrawdown) CalculateTrade(series *models.TimeSeries, trade models.Trade) float64 {
	return c.Calculate(series, []models.Trade{trade})
}

// CalculateRecord implements Criterion
func (c MaximumDrawdown) CalculateRecord(series *models.TimeSeries, record *models.TradingRecord) float64 {
	return c.Calculate(series, record.Trades())
}

// BetterThan implements Criterion
func (MaximumDrawdown) BetterThan(x, y float64) bool {
	return x < y
}

func equityCurve(series *models.TimeSeries, trades []models.Trade) []float64 {
	values := make([]float64, series.Len())
	equity := 1.0
	next := 0

	for _, trade := range trades {
		entry, exit := trade.Entry.Index, trade.Exit.Index
		for i := next; i <= entry; i++ {
			values[i] = equity
		}

		entryPrice := series.Close(entry)
		base := equity
		for i := entry + 1; i <= exit; i++ {
			if trade.IsShort() {
				values[i] = base * entryPrice / series.Close(i)
			} else {
				values[i] = base * series.Close(i) / entryPrice
			}
		}
		equity = values[exit]
		if exit == entry {
			equity = base
		}
		next = exit + 1
	}

	for i := next; i < len(values); i++ {
		values[i] = equity
	}
	return values
}

func maxDrawdown(values []float64) float64 {
	peak := 0.0
	drawdown := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if d := (peak - v) / peak; d > drawdown {
				drawdown = d
			}
		}
	}
	return drawdown
}
