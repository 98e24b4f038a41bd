package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/strategy-lab/internal/rules"
)

func TestLoad(t *testing.T) {
	t.Setenv("BARS_PATH", "bars.csv")
	t.Setenv("CRITERION", "maximum_drawdown")
	t.Setenv("BACKTEST_CONCURRENCY", "8")
	t.Setenv("BACKTEST_TIMEOUT", "30s")
	t.Setenv("RESULTS_DRIVER", "none")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "bars.csv", cfg.Data.Path)
	assert.Equal(t, "maximum_drawdown", cfg.Backtest.Criterion)
	assert.Equal(t, 8, cfg.Backtest.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Backtest.Timeout)
	assert.True(t, cfg.Backtest.Memoize)
	assert.Equal(t, "none", cfg.Results.Driver)
}

func TestLoad_MissingBars(t *testing.T) {
	t.Setenv("BARS_PATH", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Data:     DataConfig{Path: "bars.parquet"},
		Backtest: BacktestConfig{StrategiesPath: "s.yaml", Concurrency: 1},
		Results:  ResultsConfig{Driver: "sqlite", DSN: ":memory:"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad format", func(c *Config) { c.Data.Format = "json" }},
		{"no strategies", func(c *Config) { c.Backtest.StrategiesPath = "" }},
		{"zero concurrency", func(c *Config) { c.Backtest.Concurrency = 0 }},
		{"unknown driver", func(c *Config) { c.Results.Driver = "mysql" }},
		{"sqlite without dsn", func(c *Config) { c.Results.DSN = "" }},
		{"postgres without host", func(c *Config) { c.Results = ResultsConfig{Driver: "postgres"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "lab", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=lab sslmode=disable", db.DSN())
}

const strategiesYAML = `
strategies:
  - name: sma-trend-with-trigger
    unstable_bars: 20
    entry:
      type: wait_for
      window: 3
      rules:
        - type: over
          left: sma:5
          right: sma:20
        - type: cross_up
          left: close
          right: ema:10
    exit:
      type: or
      rules:
        - type: cross_down
          left: close
          right: sma:20
        - type: stop_loss
          tolerance: -0.05
  - name: short-rsi
    starting_type: SELL
    entry:
      type: over
      left: rsi:14
      right: "70"
    exit:
      type: under
      left: rsi:14
      right: "50"
`

func TestParseStrategies(t *testing.T) {
	strategies, err := ParseStrategies([]byte(strategiesYAML))
	require.NoError(t, err)
	require.Len(t, strategies, 2)

	first := strategies[0]
	assert.Equal(t, "sma-trend-with-trigger", first.Name)
	assert.Equal(t, "buy", first.StartingType)
	assert.Equal(t, 20, first.UnstableBars)
	assert.Equal(t, rules.TypeWaitFor, first.Entry.Type)
	assert.Equal(t, 3, first.Entry.Window)
	assert.Equal(t, -0.05, first.Exit.Rules[1].Tolerance)

	assert.Equal(t, "sell", strategies[1].StartingType)
	assert.Equal(t, "70", strategies[1].Entry.Right)
}

func TestParseStrategies_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":         `strategies: []`,
		"missing name":  "strategies:\n  - entry: {type: constant}\n    exit: {type: constant}\n",
		"duplicate":     "strategies:\n  - {name: a, entry: {type: constant}, exit: {type: constant}}\n  - {name: a, entry: {type: constant}, exit: {type: constant}}\n",
		"bad side":      "strategies:\n  - {name: a, starting_type: hold, entry: {type: constant}, exit: {type: constant}}\n",
		"bad entry":     "strategies:\n  - {name: a, entry: {type: wait_for}, exit: {type: constant}}\n",
		"missing exit":  "strategies:\n  - {name: a, entry: {type: constant}}\n",
		"negative bars": "strategies:\n  - {name: a, unstable_bars: -1, entry: {type: constant}, exit: {type: constant}}\n",
		"not yaml":      "strategies: [",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseStrategies([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadStrategies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strategiesYAML), 0o600))

	strategies, err := LoadStrategies(path)
	require.NoError(t, err)
	assert.Len(t, strategies, 2)

	_, err = LoadStrategies(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
