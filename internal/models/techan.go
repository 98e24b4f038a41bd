package models

import (
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// defaultBarPeriod is used for single-bar series where no spacing can be observed
const defaultBarPeriod = time.Minute

// Techan converts the series into a techan time series with one candle per bar,
// preserving indices. Candle periods span the gap to the following bar so that
// techan accepts every candle in order.
func (s *TimeSeries) Techan() *techan.TimeSeries {
	ts := techan.NewTimeSeries()
	for i, bar := range s.bars {
		candle := techan.NewCandle(techan.NewTimePeriod(bar.Timestamp, s.barPeriod(i)))
		candle.OpenPrice = big.NewDecimal(bar.Open)
		candle.MaxPrice = big.NewDecimal(bar.High)
		candle.MinPrice = big.NewDecimal(bar.Low)
		candle.ClosePrice = big.NewDecimal(bar.Close)
		candle.Volume = big.NewDecimal(float64(bar.Volume))
		ts.AddCandle(candle)
	}
	return ts
}

func (s *TimeSeries) barPeriod(i int) time.Duration {
	switch {
	case i+1 < len(s.bars):
		return s.bars[i+1].Timestamp.Sub(s.bars[i].Timestamp)
	case i > 0:
		return s.bars[i].Timestamp.Sub(s.bars[i-1].Timestamp)
	default:
		return defaultBarPeriod
	}
}

// Techan rebuilds the record as a techan trading record
func (r *TradingRecord) Techan(series *TimeSeries) *techan.TradingRecord {
	trades := r.Trades()
	if open := r.OpenTrade(); open != nil {
		trades = append(trades, *open)
	}
	return TradesToTechan(series, trades)
}

// TradesToTechan converts chronological trades into a techan trading record.
// Each operation becomes a one-unit order priced at the close of its bar and
// executed at the bar timestamp. Only the last trade may be open.
func TradesToTechan(series *TimeSeries, trades []Trade) *techan.TradingRecord {
	record := techan.NewTradingRecord()
	for _, t := range trades {
		record.Operate(techanOrder(series, t.Entry))
		if t.Exit != nil {
			record.Operate(techanOrder(series, *t.Exit))
		}
	}
	return record
}

func techanOrder(series *TimeSeries, op Operation) techan.Order {
	side := techan.BUY
	if op.Type == Sell {
		side = techan.SELL
	}
	bar := series.bars[op.Index]
	return techan.Order{
		Side:          side,
		Security:      series.name,
		Price:         big.NewDecimal(bar.Close),
		Amount:        big.NewDecimal(1),
		ExecutionTime: bar.Timestamp,
	}
}
