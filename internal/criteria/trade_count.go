package criteria

import (
	"github.com/mohamedkhairy/strategy-lab/internal/models"
)

// NumberOfTrades counts closed trades. Fewer trades is better.
type NumberOfTrades struct{}

// Name implements Criterion
func (NumberOfTrades) Name() string {
	return "number_of_trades"
}

// Calculate implements Criterion
func (NumberOfTrades) Calculate(_ *models.TimeSeries, trades []models.Trade) float64 {
	return float64(len(closedTrades(trades)))
}

// CalculateTrade implements Criterion
func (NumberOfTrades) CalculateTrade(_ *models.TimeSeries, trade models.Trade) float64 {
	if trade.IsOpen() {
		return 0
	}
	return 1
}

// CalculateRecord implements Criterion
func (NumberOfTrades) CalculateRecord(_ *models.TimeSeries, record *models.TradingRecord) float64 {
	return float64(record.TradeCount())
}

// BetterThan implements Criterion
func (NumberOfTrades) BetterThan(x, y float64) bool {
	return x < y
}

// WinningTrades counts closed trades that ended with a gain. More is better.
type WinningTrades struct{}

// Name implements Criterion
func (WinningTrades) Name() string {
	return "winning_trades"
}

// Calculate implements Criterion
func (c WinningTrades) Calculate(series *models.TimeSeries, trades []models.Trade) float64 {
	wins := 0.0
	for _, trade := range trades {
		wins += c.CalculateTrade(series, trade)
	}
	return wins
}

// CalculateTrade implements Criterion
func (WinningTrades) CalculateTrade(series *models.TimeSeries, trade models.Trade) float64 {
	if trade.IsClosed() && tradeRatio(series, trade) > 1 {
		return 1
	}
	return 0
}

// CalculateRecord implements Criterion
func (c WinningTrades) CalculateRecord(series *models.TimeSeries, record *models.TradingRecord) float64 {
	return c.Calculate(series, record.Trades())
}

// BetterThan implements Criterion
func (WinningTrades) BetterThan(x, y float64) bool {
	return x > y
}
