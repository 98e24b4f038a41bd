package rules

import (
	"fmt"
	"strings"
)

// Rule definition types
const (
	TypeAnd       = "and"
	TypeOr        = "or"
	TypeXor       = "xor"
	TypeNot       = "not"
	TypeWaitFor   = "wait_for"
	TypeCrossUp   = "cross_up"
	TypeCrossDown = "cross_down"
	TypeOver      = "over"
	TypeUnder     = "under"
	TypeStopLoss  = "stop_loss"
	TypeConstant  = "constant"
)

// Definition is the declarative form of a rule tree, as found in strategy files
type Definition struct {
	Type      string       `yaml:"type" json:"type"`
	Name      string       `yaml:"name,omitempty" json:"name,omitempty"`
	Rules     []Definition `yaml:"rules,omitempty" json:"rules,omitempty"`
	Window    int          `yaml:"window,omitempty" json:"window,omitempty"`
	Left      string       `yaml:"left,omitempty" json:"left,omitempty"`
	Right     string       `yaml:"right,omitempty" json:"right,omitempty"`
	Tolerance float64      `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
	Value     bool         `yaml:"value,omitempty" json:"value,omitempty"`
}

// ValidateDefinition validates a definition tree without building it
func ValidateDefinition(def *Definition) error {
	if def == nil {
		return fmt.Errorf("%w: definition cannot be nil", ErrInvalidRule)
	}

	switch strings.ToLower(def.Type) {
	case TypeAnd, TypeOr:
		if len(def.Rules) < 2 {
			return fmt.Errorf("%w: %s needs at least two rules, got %d", ErrInvalidRule, def.Type, len(def.Rules))
		}
	case TypeXor, TypeWaitFor:
		if len(def.Rules) != 2 {
			return fmt.Errorf("%w: %s needs exactly two rules, got %d", ErrInvalidRule, def.Type, len(def.Rules))
		}
		if def.Window < 0 {
			return fmt.Errorf("%w: window must be non-negative, got %d", ErrInvalidRule, def.Window)
		}
	case TypeNot:
		if len(def.Rules) != 1 {
			return fmt.Errorf("%w: not needs exactly one rule, got %d", ErrInvalidRule, len(def.Rules))
		}
	case TypeCrossUp, TypeCrossDown, TypeOver, TypeUnder:
		if def.Left == "" || def.Right == "" {
			return fmt.Errorf("%w: %s needs left and right indicators", ErrInvalidRule, def.Type)
		}
	case TypeStopLoss:
		if def.Tolerance >= 0 {
			return fmt.Errorf("%w: stop_loss tolerance must be negative, got %v", ErrInvalidRule, def.Tolerance)
		}
	case TypeConstant:
	case "":
		return fmt.Errorf("%w: rule type is required", ErrInvalidRule)
	default:
		return fmt.Errorf("%w: unsupported rule type %q", ErrInvalidRule, def.Type)
	}

	for i := range def.Rules {
		if err := ValidateDefinition(&def.Rules[i]); err != nil {
			return fmt.Errorf("%s rule %d: %w", def.Type, i, err)
		}
	}

	return nil
}
