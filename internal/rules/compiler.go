package rules

import (
	"fmt"
	"strings"

	"github.com/mohamedkhairy/strategy-lab/internal/models"
)

// Compiler builds executable rules from definitions against one series
type Compiler struct {
	series     *models.TimeSeries
	indicators *Indicators
	observer   Observer
	memoize    bool
}

// CompilerOption configures a Compiler
type CompilerOption func(*Compiler)

// WithCompilerObserver attaches observer to every compiled wait_for rule
func WithCompilerObserver(observer Observer) CompilerOption {
	return func(c *Compiler) {
		c.observer = observer
	}
}

// WithMemoization caches indicator leaves per index.
// The compiled rules must then only be used with the compiler's series.
func WithMemoization() CompilerOption {
	return func(c *Compiler) {
		c.memoize = true
	}
}

// NewCompiler creates a new rule compiler for series
func NewCompiler(series *models.TimeSeries, opts ...CompilerOption) *Compiler {
	c := &Compiler{
		series:     series,
		indicators: NewIndicators(series),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile validates def and builds the rule tree it describes
func (c *Compiler) Compile(def *Definition) (Rule, error) {
	if err := ValidateDefinition(def); err != nil {
		return nil, fmt.Errorf("invalid rule: %w", err)
	}
	return c.build(def)
}

func (c *Compiler) build(def *Definition) (Rule, error) {
	children := make([]Rule, 0, len(def.Rules))
	for i := range def.Rules {
		child, err := c.build(&def.Rules[i])
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	switch strings.ToLower(def.Type) {
	case TypeAnd:
		return And(children...), nil
	case TypeOr:
		return Or(children...), nil
	case TypeXor:
		return Xor(children[0], children[1]), nil
	case TypeNot:
		return Not(children[0]), nil
	case TypeWaitFor:
		opts := []WaitForOption{}
		if def.Name != "" {
			opts = append(opts, WithName(def.Name))
		}
		if c.observer != nil {
			opts = append(opts, WithObserver(c.observer))
		}
		rule, err := WaitFor(children[0], children[1], def.Window, opts...)
		if err != nil {
			return nil, err
		}
		return rule, nil
	case TypeCrossUp:
		return c.leaf(c.indicators.CrossUp(def.Left, def.Right))
	case TypeCrossDown:
		return c.leaf(c.indicators.CrossDown(def.Left, def.Right))
	case TypeOver:
		return c.leaf(c.indicators.Over(def.Left, def.Right))
	case TypeUnder:
		return c.leaf(c.indicators.Under(def.Left, def.Right))
	case TypeStopLoss:
		return c.indicators.StopLoss(c.series, def.Tolerance)
	case TypeConstant:
		return Boolean(def.Value), nil
	default:
		return nil, fmt.Errorf("%w: unsupported rule type %q", ErrInvalidRule, def.Type)
	}
}

func (c *Compiler) leaf(rule Rule, err error) (Rule, error) {
	if err != nil {
		return nil, err
	}
	if c.memoize {
		return Memoize(rule), nil
	}
	return rule, nil
}
