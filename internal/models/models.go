package models

import (
	"fmt"
	"time"
)

// Bar represents a single time-indexed price observation
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// Validate validates a Bar
func (b *Bar) Validate() error {
	if b.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	if b.Close <= 0 {
		return ErrInvalidPrice
	}
	if b.High < b.Low {
		return ErrInvalidBar
	}
	if b.Volume < 0 {
		return ErrInvalidVolume
	}
	return nil
}

// TimeSeries is an immutable, index-addressable sequence of bars.
// Indices run from 0 to Len()-1 and increase with time.
type TimeSeries struct {
	name string
	bars []Bar
}

// NewTimeSeries creates a new time series after validating every bar.
// The bars slice is copied so later changes by the caller are not observed.
func NewTimeSeries(name string, bars []Bar) (*TimeSeries, error) {
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}

	owned := make([]Bar, len(bars))
	copy(owned, bars)

	for i := range owned {
		if err := owned[i].Validate(); err != nil {
			return nil, fmt.Errorf("bar %d: %w", i, err)
		}
		if i > 0 && !owned[i].Timestamp.After(owned[i-1].Timestamp) {
			return nil, fmt.Errorf("bar %d: %w", i, ErrUnorderedSeries)
		}
	}

	return &TimeSeries{name: name, bars: owned}, nil
}

// SeriesFromCloses builds a daily series where every bar has the given close
// as its open, high, low and close. Useful for fixtures and quick studies.
func SeriesFromCloses(closes ...float64) (*TimeSeries, error) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]Bar, len(closes))
	for i, c := range closes {
		bars[i] = Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
		}
	}
	return NewTimeSeries("closes", bars)
}

// Name returns the series name
func (s *TimeSeries) Name() string {
	return s.name
}

// Len returns the number of bars in the series
func (s *TimeSeries) Len() int {
	return len(s.bars)
}

// BeginIndex returns the first valid index
func (s *TimeSeries) BeginIndex() int {
	return 0
}

// EndIndex returns the last valid index
func (s *TimeSeries) EndIndex() int {
	return len(s.bars) - 1
}

// CheckIndex returns ErrIndexOutOfRange when index is not in [0, Len())
func (s *TimeSeries) CheckIndex(index int) error {
	if index < 0 || index >= len(s.bars) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(s.bars))
	}
	return nil
}

// Bar returns the bar at index
func (s *TimeSeries) Bar(index int) (Bar, error) {
	if err := s.CheckIndex(index); err != nil {
		return Bar{}, err
	}
	return s.bars[index], nil
}

// Close returns the closing price at index.
// It panics on an out-of-range index; use Bar for a checked lookup.
func (s *TimeSeries) Close(index int) float64 {
	return s.bars[index].Close
}

// Bars returns a copy of the underlying bars
func (s *TimeSeries) Bars() []Bar {
	out := make([]Bar, len(s.bars))
	copy(out, s.bars)
	return out
}
