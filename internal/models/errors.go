package models

import "errors"

var (
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidBar       = errors.New("invalid bar (high < low)")
	ErrInvalidVolume    = errors.New("invalid volume")
	ErrEmptySeries      = errors.New("time series has no bars")
	ErrUnorderedSeries  = errors.New("bar timestamps must be strictly increasing")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrMalformedTrade   = errors.New("malformed trade")
	ErrTradeOverlap     = errors.New("trade overlaps the previous trade")
	ErrNoOpenTrade      = errors.New("no open trade")
)
