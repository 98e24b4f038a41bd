package rules

import (
	"fmt"

	"github.com/mohamedkhairy/strategy-lab/internal/models"
)

// WaitForRule combines two rules and tolerates a bounded lag between them.
//
// It is satisfied at index when both rules are satisfied there, or when exactly
// one of them is and the other was satisfied somewhere in [index-window, index).
// The backward scan only runs when index-window > 0.
type WaitForRule struct {
	first    Rule
	second   Rule
	window   int
	name     string
	observer Observer
}

// WaitForOption configures a WaitForRule
type WaitForOption func(*WaitForRule)

// WithObserver attaches an observer notified after every evaluation
func WithObserver(observer Observer) WaitForOption {
	return func(r *WaitForRule) {
		r.observer = observer
	}
}

// WithName sets the name reported to the observer
func WithName(name string) WaitForOption {
	return func(r *WaitForRule) {
		r.name = name
	}
}

// WaitFor creates a rule satisfied when first and second agree within window bars
func WaitFor(first, second Rule, window int, opts ...WaitForOption) (*WaitForRule, error) {
	if first == nil || second == nil {
		return nil, fmt.Errorf("%w: wait_for requires two sub-rules", ErrInvalidRule)
	}
	if window < 0 {
		return nil, fmt.Errorf("%w: wait_for window must be non-negative, got %d", ErrInvalidRule, window)
	}

	r := &WaitForRule{
		first:  first,
		second: second,
		window: window,
		name:   "wait_for",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Window returns the lag window in bars
func (r *WaitForRule) Window() int {
	return r.window
}

// Name returns the name reported to the observer
func (r *WaitForRule) Name() string {
	return r.name
}

// IsSatisfied implements Rule
func (r *WaitForRule) IsSatisfied(index int, record *models.TradingRecord) bool {
	firstSatisfied := r.first.IsSatisfied(index, record)
	secondSatisfied := r.second.IsSatisfied(index, record)

	satisfied := firstSatisfied && secondSatisfied
	if !satisfied && (firstSatisfied || secondSatisfied) && index-r.window > 0 {
		other := r.second
		if secondSatisfied {
			other = r.first
		}
		satisfied = satisfiedWithin(other, index-r.window, index, record)
	}

	if r.observer != nil {
		r.observer.Observe(r.name, index, satisfied)
	}
	return satisfied
}

// satisfiedWithin scans [from, to) in increasing order and stops at the first hit
func satisfiedWithin(rule Rule, from, to int, record *models.TradingRecord) bool {
	for i := from; i < to; i++ {
		if rule.IsSatisfied(i, record) {
			return true
		}
	}
	return false
}
