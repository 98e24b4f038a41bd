package rules

import (
	"sync"

	"github.com/mohamedkhairy/strategy-lab/internal/models"
)

// MemoRule caches the result of a rule per index for the lifetime of one run.
//
// Entries are written once and never invalidated, so the wrapped rule must not
// depend on the trading record (indicator-only leaves). Create a fresh MemoRule
// for every series.
type MemoRule struct {
	rule  Rule
	cache sync.Map // int -> bool
}

// Memoize wraps rule with a per-index cache
func Memoize(rule Rule) *MemoRule {
	return &MemoRule{rule: rule}
}

// IsSatisfied implements Rule
func (m *MemoRule) IsSatisfied(index int, record *models.TradingRecord) bool {
	if cached, ok := m.cache.Load(index); ok {
		return cached.(bool)
	}
	satisfied := m.rule.IsSatisfied(index, record)
	actual, _ := m.cache.LoadOrStore(index, satisfied)
	return actual.(bool)
}

// Evaluate checks index against series before evaluating rule, so that an
// out-of-range index fails loudly instead of reaching the rule.
func Evaluate(rule Rule, series *models.TimeSeries, index int, record *models.TradingRecord) (bool, error) {
	if err := series.CheckIndex(index); err != nil {
		return false, err
	}
	return rule.IsSatisfied(index, record), nil
}
