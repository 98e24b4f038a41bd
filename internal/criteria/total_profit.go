package criteria

import (
	"github.com/mohamedkhairy/strategy-lab/internal/models"
)

// TotalProfit is the compounded gross return of all closed trades: the product
// of every trade's exit/entry ratio (entry/exit for short trades), starting at 1.
// Higher is better.
type TotalProfit struct{}

// Name implements Criterion
func (TotalProfit) Name() string {
	return "total_profit"
}

// Calculate implements Criterion
func (c TotalProfit) Calculate(series *models.TimeSeries, trades []models.Trade) float64 {
	profit := 1.0
	for _, trade := range trades {
		profit *= c.CalculateTrade(series, trade)
	}
	return profit
}

// CalculateTrade implements Criterion
func (TotalProfit) CalculateTrade(series *models.TimeSeries, trade models.Trade) float64 {
	return tradeRatio(series, trade)
}

// CalculateRecord implements Criterion
func (c TotalProfit) CalculateRecord(series *models.TimeSeries, record *models.TradingRecord) float64 {
	return c.Calculate(series, record.Trades())
}

// BetterThan implements Criterion
func (TotalProfit) BetterThan(x, y float64) bool {
	return x > y
}
