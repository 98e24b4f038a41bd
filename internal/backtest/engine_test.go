package backtest

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohamedkhairy/strategy-lab/internal/config"
	"github.com/mohamedkhairy/strategy-lab/internal/models"
	"github.com/mohamedkhairy/strategy-lab/internal/rules"
	"github.com/mohamedkhairy/strategy-lab/pkg/logger"
)

// at returns a rule satisfied only at the given indices
func at(indices ...int) rules.Rule {
	set := make(map[int]bool, len(indices))
	for _, i := range indices {
		set[i] = true
	}
	return rules.RuleFunc(func(index int, _ *models.TradingRecord) bool {
		return set[index]
	})
}

func mustSeries(t *testing.T, closes ...float64) *models.TimeSeries {
	t.Helper()
	series, err := models.SeriesFromCloses(closes...)
	require.NoError(t, err)
	return series
}

func flatSeries(t *testing.T, n int) *models.TimeSeries {
	t.Helper()
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100
	}
	return mustSeries(t, closes...)
}

func TestStrategy_Validate(t *testing.T) {
	valid := Strategy{Name: "s", Entry: rules.Boolean(true), Exit: rules.Boolean(true)}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(s *Strategy)
	}{
		{"missing name", func(s *Strategy) { s.Name = "" }},
		{"missing entry", func(s *Strategy) { s.Entry = nil }},
		{"missing exit", func(s *Strategy) { s.Exit = nil }},
		{"negative unstable bars", func(s *Strategy) { s.UnstableBars = -1 }},
		{"unknown starting type", func(s *Strategy) { s.StartingType = models.OrderType(7) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidStrategy)
		})
	}

	var nilStrategy *Strategy
	assert.ErrorIs(t, nilStrategy.Validate(), ErrInvalidStrategy)
}

func TestEngine_Run(t *testing.T) {
	series := flatSeries(t, 10)
	engine := NewEngine(zap.NewNop())

	result, err := engine.Run(context.Background(), series, &Strategy{
		Name:  "alternating",
		Entry: at(2, 3, 6),
		Exit:  at(2, 4, 8),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "alternating", result.Strategy)
	assert.Equal(t, series.Name(), result.Series)
	assert.Equal(t, 10, result.BarsProcessed)
	assert.Equal(t, []models.Trade{
		models.MustTrade(models.BuyAt(2), models.SellAt(4)),
		models.MustTrade(models.BuyAt(6), models.SellAt(8)),
	}, result.Record.Trades())
	assert.True(t, result.Record.IsClosed())
}

func TestEngine_Run_NoEntryOnExitBar(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	result, err := engine.Run(context.Background(), flatSeries(t, 6), &Strategy{
		Name:  "always",
		Entry: rules.Boolean(true),
		Exit:  rules.Boolean(true),
	})
	require.NoError(t, err)

	assert.Equal(t, []models.Trade{
		models.MustTrade(models.BuyAt(0), models.SellAt(1)),
		models.MustTrade(models.BuyAt(2), models.SellAt(3)),
		models.MustTrade(models.BuyAt(4), models.SellAt(5)),
	}, result.Record.Trades())
}

func TestEngine_Run_UnstablePeriod(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	result, err := engine.Run(context.Background(), flatSeries(t, 10), &Strategy{
		Name:         "warmup",
		Entry:        at(1, 5),
		Exit:         at(3, 7),
		UnstableBars: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, []models.Trade{
		models.MustTrade(models.BuyAt(5), models.SellAt(7)),
	}, result.Record.Trades())
}

func TestEngine_Run_OpenTradeAtEnd(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	result, err := engine.Run(context.Background(), flatSeries(t, 10), &Strategy{
		Name:         "short",
		StartingType: models.Sell,
		Entry:        at(8),
		Exit:         rules.Boolean(false),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Record.TradeCount())
	open := result.Record.OpenTrade()
	require.NotNil(t, open)
	assert.Equal(t, models.Operation{Type: models.Sell, Index: 8}, open.Entry)
}

func TestEngine_Run_RulesSeeRecord(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	var openAtExit []bool
	exit := rules.RuleFunc(func(index int, record *models.TradingRecord) bool {
		openAtExit = append(openAtExit, !record.IsClosed())
		return index == 4
	})

	_, err := engine.Run(context.Background(), flatSeries(t, 6), &Strategy{
		Name:  "spy",
		Entry: at(2),
		Exit:  exit,
	})
	require.NoError(t, err)

	// exit is only consulted while a trade is open: bars 3 and 4
	assert.Equal(t, []bool{true, true}, openAtExit)
}

func TestEngine_Run_WaitForEntry(t *testing.T) {
	entry, err := rules.WaitFor(at(5), at(3), 2)
	require.NoError(t, err)

	result, err := NewEngine(zap.NewNop()).Run(context.Background(), flatSeries(t, 8), &Strategy{
		Name:  "confirmed",
		Entry: entry,
		Exit:  at(7),
	})
	require.NoError(t, err)

	assert.Equal(t, []models.Trade{
		models.MustTrade(models.BuyAt(5), models.SellAt(7)),
	}, result.Record.Trades())
}

func TestEngine_Run_Errors(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	strategy := &Strategy{Name: "s", Entry: rules.Boolean(true), Exit: rules.Boolean(true)}

	_, err := engine.Run(context.Background(), nil, strategy)
	assert.ErrorIs(t, err, models.ErrEmptySeries)

	_, err = engine.Run(context.Background(), flatSeries(t, 3), &Strategy{Name: "s"})
	assert.ErrorIs(t, err, ErrInvalidStrategy)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.Run(ctx, flatSeries(t, 3), strategy)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Run_CountsErrors(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	strategy := &Strategy{Name: "s", Entry: rules.Boolean(true), Exit: rules.Boolean(true)}
	errorsOf := func(errorType string) float64 {
		return testutil.ToFloat64(logger.ErrorsTotal.WithLabelValues("backtest", errorType))
	}

	empty, invalid, canceled := errorsOf("empty_series"), errorsOf("invalid_strategy"), errorsOf("canceled")

	_, err := engine.Run(context.Background(), nil, strategy)
	require.Error(t, err)
	_, err = engine.Run(context.Background(), flatSeries(t, 3), &Strategy{Name: "s"})
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.Run(ctx, flatSeries(t, 3), strategy)
	require.Error(t, err)

	assert.Equal(t, empty+1, errorsOf("empty_series"))
	assert.Equal(t, invalid+1, errorsOf("invalid_strategy"))
	assert.Equal(t, canceled+1, errorsOf("canceled"))

	_, err = engine.Run(context.Background(), flatSeries(t, 3), strategy)
	require.NoError(t, err)
	assert.Equal(t, canceled+1, errorsOf("canceled"))
}

func TestStrategyFromConfig(t *testing.T) {
	series := flatSeries(t, 30)
	compiler := rules.NewCompiler(series, rules.WithMemoization())

	strategy, err := StrategyFromConfig(compiler, config.StrategyConfig{
		Name:         "sma",
		StartingType: "sell",
		UnstableBars: 5,
		Entry: rules.Definition{
			Type:   rules.TypeWaitFor,
			Window: 3,
			Rules: []rules.Definition{
				{Type: rules.TypeOver, Left: "close", Right: "sma:5"},
				{Type: rules.TypeConstant, Value: true},
			},
		},
		Exit: rules.Definition{Type: rules.TypeConstant, Value: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "sma", strategy.Name)
	assert.Equal(t, models.Sell, strategy.StartingType)
	assert.Equal(t, 5, strategy.UnstableBars)
	assert.IsType(t, &rules.WaitForRule{}, strategy.Entry)

	_, err = StrategyFromConfig(compiler, config.StrategyConfig{
		Name:  "broken",
		Entry: rules.Definition{Type: rules.TypeWaitFor},
		Exit:  rules.Definition{Type: rules.TypeConstant},
	})
	assert.ErrorIs(t, err, rules.ErrInvalidRule)
}
