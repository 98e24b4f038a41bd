package criteria

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps names to criteria
type Registry struct {
	mu       sync.RWMutex
	criteria map[string]Criterion
}

// NewRegistry creates a new registry with the built-in criteria
func NewRegistry() *Registry {
	registry := &Registry{
		criteria: make(map[string]Criterion),
	}

	for _, c := range []Criterion{
		TotalProfit{},
		NumberOfTrades{},
		WinningTrades{},
		MaximumDrawdown{},
		AbsoluteProfit{},
	} {
		registry.criteria[c.Name()] = c
	}

	return registry
}

// Register adds a criterion under its name
func (r *Registry) Register(criterion Criterion) error {
	if criterion == nil {
		return fmt.Errorf("criterion cannot be nil")
	}

	name := criterion.Name()
	if name == "" {
		return fmt.Errorf("criterion name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.criteria[name]; exists {
		return fmt.Errorf("criterion with name %q already registered", name)
	}

	r.criteria[name] = criterion
	return nil
}

// Lookup returns the criterion registered under name
func (r *Registry) Lookup(name string) (Criterion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	criterion, ok := r.criteria[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCriterion, name)
	}
	return criterion, nil
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.criteria))
	for name := range r.criteria {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compare orders two scores for sorting: -1 when x beats y, 1 when y beats x,
// 0 when neither does
func Compare(criterion Criterion, x, y float64) int {
	switch {
	case criterion.BetterThan(x, y):
		return -1
	case criterion.BetterThan(y, x):
		return 1
	default:
		return 0
	}
}

// Sort returns the indices of scores ordered best first. Ties keep input order.
func Sort(criterion Criterion, scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return Compare(criterion, scores[order[a]], scores[order[b]]) < 0
	})
	return order
}
