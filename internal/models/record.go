package models

import (
	"fmt"
)

// TradingRecord is the chronological ledger of a strategy run: closed trades in
// entry order plus at most one open trade, which is always the most recent.
//
// A record is owned by a single writer (the backtest driver). Rules and criteria
// only read it; pass them a Snapshot when the record keeps growing.
// All read methods accept a nil receiver and behave like an empty record.
type TradingRecord struct {
	startingType OrderType
	trades       []Trade
	open         *Trade
}

// NewTradingRecord creates an empty record whose trades are entered with startingType
func NewTradingRecord(startingType OrderType) *TradingRecord {
	return &TradingRecord{startingType: startingType}
}

// RecordFromTrades rebuilds a record from an ordered list of trades.
// Every trade except the last must be closed.
func RecordFromTrades(startingType OrderType, trades []Trade) (*TradingRecord, error) {
	r := NewTradingRecord(startingType)
	for i, t := range trades {
		if t.Entry.Type != startingType {
			return nil, fmt.Errorf("trade %d: %w: entry %s does not match starting type %s",
				i, ErrMalformedTrade, t.Entry, startingType)
		}
		if err := r.Enter(t.Entry.Index); err != nil {
			return nil, fmt.Errorf("trade %d: %w", i, err)
		}
		if t.IsOpen() {
			if i != len(trades)-1 {
				return nil, fmt.Errorf("trade %d: %w: only the last trade may be open", i, ErrMalformedTrade)
			}
			continue
		}
		if t.Exit.Type != startingType.Opposite() {
			return nil, fmt.Errorf("trade %d: %w: exit %s has the wrong side", i, ErrMalformedTrade, *t.Exit)
		}
		if err := r.Exit(t.Exit.Index); err != nil {
			return nil, fmt.Errorf("trade %d: %w", i, err)
		}
	}
	return r, nil
}

// StartingType returns the side used to enter trades
func (r *TradingRecord) StartingType() OrderType {
	if r == nil {
		return Buy
	}
	return r.startingType
}

// Enter opens a new trade at index
func (r *TradingRecord) Enter(index int) error {
	if index < 0 {
		return fmt.Errorf("%w: negative entry index %d", ErrMalformedTrade, index)
	}
	if r.open != nil {
		return fmt.Errorf("%w: trade %s is still open", ErrTradeOverlap, *r.open)
	}
	if last := r.LastExit(); last != nil && index <= last.Index {
		return fmt.Errorf("%w: entry at %d is not after exit %s", ErrTradeOverlap, index, *last)
	}
	t := OpenTrade(Operation{Type: r.startingType, Index: index})
	r.open = &t
	return nil
}

// Exit closes the open trade at index
func (r *TradingRecord) Exit(index int) error {
	if r.open == nil {
		return ErrNoOpenTrade
	}
	t, err := NewTrade(r.open.Entry, Operation{Type: r.startingType.Opposite(), Index: index})
	if err != nil {
		return err
	}
	r.trades = append(r.trades, t)
	r.open = nil
	return nil
}

// Operate enters when flat and exits when a trade is open
func (r *TradingRecord) Operate(index int) error {
	if r.open == nil {
		return r.Enter(index)
	}
	return r.Exit(index)
}

// Trades returns a copy of the closed trades in chronological order
func (r *TradingRecord) Trades() []Trade {
	if r == nil {
		return nil
	}
	out := make([]Trade, len(r.trades))
	copy(out, r.trades)
	return out
}

// TradeCount returns the number of closed trades
func (r *TradingRecord) TradeCount() int {
	if r == nil {
		return 0
	}
	return len(r.trades)
}

// OpenTrade returns the open trade, or nil when flat
func (r *TradingRecord) OpenTrade() *Trade {
	if r == nil || r.open == nil {
		return nil
	}
	t := *r.open
	return &t
}

// IsClosed reports whether no trade is open
func (r *TradingRecord) IsClosed() bool {
	return r == nil || r.open == nil
}

// LastTrade returns the most recent closed trade, or nil
func (r *TradingRecord) LastTrade() *Trade {
	if r == nil || len(r.trades) == 0 {
		return nil
	}
	t := r.trades[len(r.trades)-1]
	return &t
}

// LastEntry returns the most recent entry operation, open or closed
func (r *TradingRecord) LastEntry() *Operation {
	if r == nil {
		return nil
	}
	if r.open != nil {
		op := r.open.Entry
		return &op
	}
	if last := r.LastTrade(); last != nil {
		return &last.Entry
	}
	return nil
}

// LastExit returns the most recent exit operation
func (r *TradingRecord) LastExit() *Operation {
	last := r.LastTrade()
	if last == nil {
		return nil
	}
	op := *last.Exit
	return &op
}

// Snapshot returns an independent copy that later writes to r do not affect
func (r *TradingRecord) Snapshot() *TradingRecord {
	if r == nil {
		return nil
	}
	return &TradingRecord{
		startingType: r.startingType,
		trades:       r.Trades(),
		open:         r.OpenTrade(),
	}
}

// Validate checks every trade against series
func (r *TradingRecord) Validate(series *TimeSeries) error {
	for i, t := range r.Trades() {
		if err := t.Validate(series); err != nil {
			return fmt.Errorf("trade %d: %w", i, err)
		}
	}
	if open := r.OpenTrade(); open != nil {
		if err := open.Validate(series); err != nil {
			return fmt.Errorf("open trade: %w", err)
		}
	}
	return nil
}
