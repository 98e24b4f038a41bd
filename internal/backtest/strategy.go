package backtest

import (
	"errors"
	"fmt"

	"github.com/mohamedkhairy/strategy-lab/internal/config"
	"github.com/mohamedkhairy/strategy-lab/internal/models"
	"github.com/mohamedkhairy/strategy-lab/internal/rules"
)

// ErrInvalidStrategy is returned when a strategy cannot be run
var ErrInvalidStrategy = errors.New("invalid strategy")

// Strategy pairs an entry rule with an exit rule
type Strategy struct {
	Name         string
	StartingType models.OrderType
	Entry        rules.Rule
	Exit         rules.Rule

	// UnstableBars is the number of leading bars on which no trade is entered,
	// typically the longest indicator lookback
	UnstableBars int
}

// Validate validates the strategy
func (s *Strategy) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: strategy cannot be nil", ErrInvalidStrategy)
	}
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidStrategy)
	}
	if s.Entry == nil {
		return fmt.Errorf("%w: %s: entry rule is required", ErrInvalidStrategy, s.Name)
	}
	if s.Exit == nil {
		return fmt.Errorf("%w: %s: exit rule is required", ErrInvalidStrategy, s.Name)
	}
	if s.UnstableBars < 0 {
		return fmt.Errorf("%w: %s: unstable bars must be non-negative, got %d", ErrInvalidStrategy, s.Name, s.UnstableBars)
	}
	if s.StartingType != models.Buy && s.StartingType != models.Sell {
		return fmt.Errorf("%w: %s: unknown starting type %s", ErrInvalidStrategy, s.Name, s.StartingType)
	}
	return nil
}

// IsUnstableAt reports whether index falls inside the unstable period
func (s *Strategy) IsUnstableAt(index int) bool {
	return index < s.UnstableBars
}

// StrategyFromConfig compiles a configured strategy against the compiler's series
func StrategyFromConfig(compiler *rules.Compiler, cfg config.StrategyConfig) (*Strategy, error) {
	entry, err := compiler.Compile(&cfg.Entry)
	if err != nil {
		return nil, fmt.Errorf("strategy %q entry: %w", cfg.Name, err)
	}
	exit, err := compiler.Compile(&cfg.Exit)
	if err != nil {
		return nil, fmt.Errorf("strategy %q exit: %w", cfg.Name, err)
	}

	startingType := models.Buy
	if cfg.StartingType == "sell" {
		startingType = models.Sell
	}

	strategy := &Strategy{
		Name:         cfg.Name,
		StartingType: startingType,
		Entry:        entry,
		Exit:         exit,
		UnstableBars: cfg.UnstableBars,
	}
	if err := strategy.Validate(); err != nil {
		return nil, err
	}
	return strategy, nil
}
