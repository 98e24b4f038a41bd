// Package criteria scores trading runs so that strategies can be ranked.
package criteria

import (
	"errors"

	"github.com/mohamedkhairy/strategy-lab/internal/models"
)

// ErrUnknownCriterion is returned when a criterion name is not registered
var ErrUnknownCriterion = errors.New("unknown criterion")

// Criterion folds the trades of a run into a single comparable score.
//
// Implementations assume well-formed trades (validated at the data-model
// boundary), are stateless and safe for concurrent use. Whether a higher or a
// lower score wins is criterion-specific, so callers compare through BetterThan.
type Criterion interface {
	// Name returns the registry name of the criterion
	Name() string

	// Calculate scores chronological trades. Open trades contribute nothing.
	Calculate(series *models.TimeSeries, trades []models.Trade) float64

	// CalculateTrade scores a single trade
	CalculateTrade(series *models.TimeSeries, trade models.Trade) float64

	// CalculateRecord scores the closed trades of record
	CalculateRecord(series *models.TimeSeries, record *models.TradingRecord) float64

	// BetterThan reports whether score x strictly beats score y
	BetterThan(x, y float64) bool
}

// tradeRatio is the gross return of a closed trade: exit/entry for long trades,
// entry/exit for short trades. Open trades return 1.
func tradeRatio(series *models.TimeSeries, trade models.Trade) float64 {
	if trade.IsOpen() {
		return 1.0
	}
	entry := trade.Entry.Price(series)
	exit := trade.Exit.Price(series)
	if trade.IsShort() {
		return entry / exit
	}
	return exit / entry
}

// closedTrades filters out open trades
func closedTrades(trades []models.Trade) []models.Trade {
	out := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if t.IsClosed() {
			out = append(out, t)
		}
	}
	return out
}
