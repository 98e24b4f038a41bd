package criteria

import (
	"github.com/mohamedkhairy/strategy-lab/internal/models"
	"github.com/sdcoffey/techan"
)

// AbsoluteProfit is the sum of per-unit price gains over closed trades, computed
// by techan's total profit analysis on one-unit orders. Higher is better.
type AbsoluteProfit struct{}

// Name implements Criterion
func (AbsoluteProfit) Name() string {
	return "absolute_profit"
}

// Calculate implements Criterion
func (AbsoluteProfit) Calculate(series *models.TimeSeries, trades []models.Trade) float64 {
	var analysis techan.TotalProfitAnalysis
	return analysis.Analyze(models.TradesToTechan(series, closedTrades(trades)))
}

// CalculateTrade implements Criterion
func (c AbsoluteProfit) CalculateTrade(series *models.TimeSeries, trade models.Trade) float64 {
	return c.Calculate(series, []models.Trade{trade})
}

// CalculateRecord implements Criterion
func (c AbsoluteProfit) CalculateRecord(series *models.TimeSeries, record *models.TradingRecord) float64 {
	return c.Calculate(series, record.Trades())
}

// BetterThan implements Criterion
func (AbsoluteProfit) BetterThan(x, y float64) bool {
	return x > y
}
