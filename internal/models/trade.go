package models

import (
	"fmt"
)

// OrderType is the side of an operation
type OrderType int

const (
	Buy OrderType = iota
	Sell
)

// Opposite returns the other side
func (t OrderType) Opposite() OrderType {
	if t == Buy {
		return Sell
	}
	return Buy
}

func (t OrderType) String() string {
	switch t {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return fmt.Sprintf("OrderType(%d)", int(t))
	}
}

// Operation is a buy or sell executed at the close of the bar at Index
type Operation struct {
	Type  OrderType `json:"type"`
	Index int       `json:"index"`
}

// BuyAt returns a buy operation at index
func BuyAt(index int) Operation {
	return Operation{Type: Buy, Index: index}
}

// SellAt returns a sell operation at index
func SellAt(index int) Operation {
	return Operation{Type: Sell, Index: index}
}

// Price returns the close of the operation's bar
func (o Operation) Price(series *TimeSeries) float64 {
	return series.Close(o.Index)
}

func (o Operation) String() string {
	return fmt.Sprintf("%s@%d", o.Type, o.Index)
}

// Trade is an entry operation paired with an optional exit of the opposite side.
// A trade without exit is open.
type Trade struct {
	Entry Operation  `json:"entry"`
	Exit  *Operation `json:"exit,omitempty"`
}

// NewTrade creates a closed trade, validating the entry/exit pair
func NewTrade(entry, exit Operation) (Trade, error) {
	t := Trade{Entry: entry, Exit: &exit}
	if err := t.validateShape(); err != nil {
		return Trade{}, err
	}
	return t, nil
}

// MustTrade is like NewTrade but panics on a malformed pair.
// Intended for fixtures with literal indices.
func MustTrade(entry, exit Operation) Trade {
	t, err := NewTrade(entry, exit)
	if err != nil {
		panic(err)
	}
	return t
}

// OpenTrade creates a trade that has been entered but not exited
func OpenTrade(entry Operation) Trade {
	return Trade{Entry: entry}
}

// IsOpen reports whether the trade has no exit yet
func (t Trade) IsOpen() bool {
	return t.Exit == nil
}

// IsClosed reports whether the trade has both entry and exit
func (t Trade) IsClosed() bool {
	return t.Exit != nil
}

// IsLong reports whether the trade was entered with a buy
func (t Trade) IsLong() bool {
	return t.Entry.Type == Buy
}

// IsShort reports whether the trade was entered with a sell
func (t Trade) IsShort() bool {
	return t.Entry.Type == Sell
}

func (t Trade) validateShape() error {
	if t.Entry.Index < 0 {
		return fmt.Errorf("%w: negative entry index %d", ErrMalformedTrade, t.Entry.Index)
	}
	if t.Exit == nil {
		return nil
	}
	if t.Exit.Type != t.Entry.Type.Opposite() {
		return fmt.Errorf("%w: entry %s and exit %s are not opposite", ErrMalformedTrade, t.Entry, *t.Exit)
	}
	if t.Exit.Index < t.Entry.Index {
		return fmt.Errorf("%w: exit %s precedes entry %s", ErrMalformedTrade, *t.Exit, t.Entry)
	}
	return nil
}

// Validate checks the trade shape and that every operation refers to a bar of
// series with a positive price
func (t Trade) Validate(series *TimeSeries) error {
	if err := t.validateShape(); err != nil {
		return err
	}
	ops := []Operation{t.Entry}
	if t.Exit != nil {
		ops = append(ops, *t.Exit)
	}
	for _, op := range ops {
		bar, err := series.Bar(op.Index)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedTrade, op, err)
		}
		if bar.Close <= 0 {
			return fmt.Errorf("%w: %s: %v", ErrMalformedTrade, op, ErrInvalidPrice)
		}
	}
	return nil
}

func (t Trade) String() string {
	if t.Exit == nil {
		return fmt.Sprintf("[%s, open]", t.Entry)
	}
	return fmt.Sprintf("[%s, %s]", t.Entry, *t.Exit)
}
