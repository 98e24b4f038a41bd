package rules

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/mohamedkhairy/strategy-lab/internal/models"
	"github.com/sdcoffey/techan"
)

// TechanRule adapts a techan rule to Rule.
//
// techan indicators cache results internally without locking, so evaluations
// of one TechanRule are serialized. Do not share indicators between adapters.
type TechanRule struct {
	rule        techan.Rule
	series      *models.TimeSeries
	needsRecord bool
	mu          sync.Mutex
}

// FromTechan adapts a techan rule that inspects the trading record, such as a
// stop loss. The record is rebuilt in techan form on every evaluation.
func FromTechan(rule techan.Rule, series *models.TimeSeries) *TechanRule {
	return &TechanRule{rule: rule, series: series, needsRecord: true}
}

// FromTechanIndicators adapts a techan rule that only reads indicators.
// The techan rule receives a nil record.
func FromTechanIndicators(rule techan.Rule) *TechanRule {
	return &TechanRule{rule: rule}
}

// IsSatisfied implements Rule
func (r *TechanRule) IsSatisfied(index int, record *models.TradingRecord) bool {
	var tr *techan.TradingRecord
	if r.needsRecord {
		tr = record.Techan(r.series)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rule.IsSatisfied(index, tr)
}

// Indicators builds techan indicators over a series from short expressions:
// "close", "open", "high", "low", "volume", "sma:N", "ema:N", "rsi:N" or a
// numeric constant.
type Indicators struct {
	series *techan.TimeSeries
}

// NewIndicators creates an indicator factory over series
func NewIndicators(series *models.TimeSeries) *Indicators {
	return &Indicators{series: series.Techan()}
}

// Parse builds a fresh indicator for expr
func (f *Indicators) Parse(expr string) (techan.Indicator, error) {
	return parseIndicator(f.series, expr)
}

func parseIndicator(series *techan.TimeSeries, expr string) (techan.Indicator, error) {
	expr = strings.ToLower(strings.TrimSpace(expr))
	if expr == "" {
		return nil, fmt.Errorf("%w: empty indicator expression", ErrInvalidRule)
	}

	if value, err := strconv.ParseFloat(expr, 64); err == nil {
		return techan.NewConstantIndicator(value), nil
	}

	switch expr {
	case "close":
		return techan.NewClosePriceIndicator(series), nil
	case "open":
		return techan.NewOpenPriceIndicator(series), nil
	case "high":
		return techan.NewHighPriceIndicator(series), nil
	case "low":
		return techan.NewLowPriceIndicator(series), nil
	case "volume":
		return techan.NewVolumeIndicator(series), nil
	}

	name, arg, ok := strings.Cut(expr, ":")
	if !ok {
		return nil, fmt.Errorf("%w: unknown indicator %q", ErrInvalidRule, expr)
	}
	period, err := strconv.Atoi(arg)
	if err != nil || period <= 0 {
		return nil, fmt.Errorf("%w: indicator %q needs a positive period", ErrInvalidRule, expr)
	}

	closePrice := techan.NewClosePriceIndicator(series)
	switch name {
	case "sma":
		return techan.NewSimpleMovingAverage(closePrice, period), nil
	case "ema":
		return techan.NewEMAIndicator(closePrice, period), nil
	case "rsi":
		return techan.NewRelativeStrengthIndexIndicator(closePrice, period), nil
	default:
		return nil, fmt.Errorf("%w: unknown indicator %q", ErrInvalidRule, expr)
	}
}

// CrossUp is satisfied when indicator a crosses above indicator b at index
func (f *Indicators) CrossUp(a, b string) (Rule, error) {
	left, right, err := f.pair(a, b)
	if err != nil {
		return nil, err
	}
	return FromTechanIndicators(techan.NewCrossUpIndicatorRule(right, left)), nil
}

// CrossDown is satisfied when indicator a crosses below indicator b at index
func (f *Indicators) CrossDown(a, b string) (Rule, error) {
	left, right, err := f.pair(a, b)
	if err != nil {
		return nil, err
	}
	return FromTechanIndicators(techan.NewCrossDownIndicatorRule(left, right)), nil
}

// Over is satisfied when indicator a is strictly above indicator b
func (f *Indicators) Over(a, b string) (Rule, error) {
	left, right, err := f.pair(a, b)
	if err != nil {
		return nil, err
	}
	return FromTechanIndicators(techan.OverIndicatorRule{First: left, Second: right}), nil
}

// Under is satisfied when indicator a is strictly below indicator b
func (f *Indicators) Under(a, b string) (Rule, error) {
	left, right, err := f.pair(a, b)
	if err != nil {
		return nil, err
	}
	return FromTechanIndicators(techan.UnderIndicatorRule{First: left, Second: right}), nil
}

// StopLoss is satisfied while a trade is open and close/entry - 1 is at or
// below tolerance (a negative fraction, e.g. -0.05). The loss is measured as
// for a long position, so it is meant for strategies starting with a buy.
func (f *Indicators) StopLoss(series *models.TimeSeries, tolerance float64) (Rule, error) {
	if tolerance >= 0 {
		return nil, fmt.Errorf("%w: stop loss tolerance must be negative, got %v", ErrInvalidRule, tolerance)
	}
	return FromTechan(techan.NewStopLossRule(f.series, tolerance), series), nil
}

func (f *Indicators) pair(a, b string) (techan.Indicator, techan.Indicator, error) {
	left, err := f.Parse(a)
	if err != nil {
		return nil, nil, err
	}
	right, err := f.Parse(b)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}
