package rules

import (
	"errors"

	"github.com/mohamedkhairy/strategy-lab/internal/models"
)

// ErrInvalidRule is returned when a rule cannot be constructed from its parameters
var ErrInvalidRule = errors.New("invalid rule")

// Rule is a boolean predicate over a bar index and the trading history so far.
//
// Implementations must be pure functions of their arguments: no state may be
// carried between calls, and only bars up to index may be consulted. A Rule is
// safe for concurrent use as long as the record passed in is not being written.
type Rule interface {
	IsSatisfied(index int, record *models.TradingRecord) bool
}

// RuleFunc adapts an ordinary function to the Rule interface
type RuleFunc func(index int, record *models.TradingRecord) bool

// IsSatisfied calls f(index, record)
func (f RuleFunc) IsSatisfied(index int, record *models.TradingRecord) bool {
	return f(index, record)
}

// Observer receives the outcome of a top-level rule evaluation.
// Observers must not panic and cannot influence the result.
type Observer interface {
	Observe(rule string, index int, satisfied bool)
}

// ObserverFunc adapts an ordinary function to the Observer interface
type ObserverFunc func(rule string, index int, satisfied bool)

// Observe calls f(rule, index, satisfied)
func (f ObserverFunc) Observe(rule string, index int, satisfied bool) {
	f(rule, index, satisfied)
}
