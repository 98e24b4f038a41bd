package rules

import (
	"github.com/mohamedkhairy/strategy-lab/internal/models"
)

// And returns a rule satisfied when every passed-in rule is satisfied
func And(rules ...Rule) Rule {
	return andRule{rules: rules}
}

type andRule struct {
	rules []Rule
}

func (ar andRule) IsSatisfied(index int, record *models.TradingRecord) bool {
	for _, r := range ar.rules {
		if !r.IsSatisfied(index, record) {
			return false
		}
	}
	return true
}

// Or returns a rule satisfied when at least one passed-in rule is satisfied
func Or(rules ...Rule) Rule {
	return orRule{rules: rules}
}

type orRule struct {
	rules []Rule
}

func (or orRule) IsSatisfied(index int, record *models.TradingRecord) bool {
	for _, r := range or.rules {
		if r.IsSatisfied(index, record) {
			return true
		}
	}
	return false
}

// Xor returns a rule satisfied when exactly one of first and second is satisfied
func Xor(first, second Rule) Rule {
	return xorRule{first: first, second: second}
}

type xorRule struct {
	first, second Rule
}

func (xr xorRule) IsSatisfied(index int, record *models.TradingRecord) bool {
	return xr.first.IsSatisfied(index, record) != xr.second.IsSatisfied(index, record)
}

// Not returns a rule satisfied when rule is not
func Not(rule Rule) Rule {
	return notRule{rule: rule}
}

type notRule struct {
	rule Rule
}

func (nr notRule) IsSatisfied(index int, record *models.TradingRecord) bool {
	return !nr.rule.IsSatisfied(index, record)
}

// Boolean returns a rule that always evaluates to value
func Boolean(value bool) Rule {
	return booleanRule(value)
}

type booleanRule bool

func (br booleanRule) IsSatisfied(int, *models.TradingRecord) bool {
	return bool(br)
}
