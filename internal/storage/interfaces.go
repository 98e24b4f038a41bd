// Package storage persists strategy rankings.
package storage

import (
	"context"
	"time"

	"github.com/mohamedkhairy/strategy-lab/internal/backtest"
)

// ResultStore defines the interface for ranking storage operations
type ResultStore interface {
	// SaveRanking writes a ranking and all of its entries atomically
	SaveRanking(ctx context.Context, ranking *backtest.Ranking) error

	// ListRuns returns stored runs, newest ranking first. An empty strategy
	// matches every strategy; limit <= 0 means no limit.
	ListRuns(ctx context.Context, strategy string, limit int) ([]RunRecord, error)

	// Close closes the storage connection
	Close() error
}

// RunRecord is one stored ranking entry
type RunRecord struct {
	RankingID     string
	Series        string
	Criterion     string
	CreatedAt     time.Time
	Rank          int
	Strategy      string
	Score         float64
	Trades        int
	OpenTrade     bool
	RunID         string
	BarsProcessed int
	Duration      time.Duration
}

// NopStore discards rankings
type NopStore struct{}

// SaveRanking implements ResultStore
func (NopStore) SaveRanking(context.Context, *backtest.Ranking) error { return nil }

// ListRuns implements ResultStore
func (NopStore) ListRuns(context.Context, string, int) ([]RunRecord, error) { return nil, nil }

// Close implements ResultStore
func (NopStore) Close() error { return nil }
