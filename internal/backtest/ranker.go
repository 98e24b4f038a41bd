package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mohamedkhairy/strategy-lab/internal/criteria"
	"github.com/mohamedkhairy/strategy-lab/internal/models"
	"github.com/mohamedkhairy/strategy-lab/pkg/logger"
)

// Entry is one ranked strategy
type Entry struct {
	Rank      int
	Strategy  string
	Score     float64
	Trades    int
	OpenTrade bool
	RunID     string
	Result    *Result
}

// Ranking is the ordered outcome of ranking strategies on one series
type Ranking struct {
	ID        string
	Series    string
	Criterion string
	CreatedAt time.Time
	Entries   []Entry
}

// Best returns the winning entry, or nil for an empty ranking
func (r *Ranking) Best() *Entry {
	if r == nil || len(r.Entries) == 0 {
		return nil
	}
	return &r.Entries[0]
}

// Ranker runs strategies concurrently and orders them by a criterion
type Ranker struct {
	engine      *Engine
	concurrency int
	log         *zap.Logger
}

// NewRanker creates a new ranker running at most concurrency strategies at once.
// A nil engine uses one backed by the global logger.
func NewRanker(engine *Engine, concurrency int) *Ranker {
	if engine == nil {
		engine = NewEngine(nil)
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Ranker{
		engine:      engine,
		concurrency: concurrency,
		log:         engine.log,
	}
}

// Rank runs every strategy over series and sorts them best first according to
// criterion. Ties keep name order. The first failing run cancels the others.
// The ranking takes the run ID carried by ctx when there is one.
func (r *Ranker) Rank(ctx context.Context, series *models.TimeSeries, strategies []*Strategy, criterion criteria.Criterion) (*Ranking, error) {
	if criterion == nil {
		return nil, fmt.Errorf("criterion cannot be nil")
	}
	seen := make(map[string]bool, len(strategies))
	for _, s := range strategies {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: duplicate strategy name %q", ErrInvalidStrategy, s.Name)
		}
		seen[s.Name] = true
	}

	id := logger.RunID(ctx)
	if id == "" {
		id = uuid.New().String()
	}

	ranking := &Ranking{
		ID:        id,
		Series:    series.Name(),
		Criterion: criterion.Name(),
		CreatedAt: time.Now().UTC(),
		Entries:   make([]Entry, len(strategies)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, strategy := range strategies {
		g.Go(func() error {
			result, err := r.engine.Run(gctx, series, strategy)
			if err != nil {
				return err
			}
			ranking.Entries[i] = Entry{
				Strategy:  strategy.Name,
				Score:     criterion.CalculateRecord(series, result.Record),
				Trades:    result.Record.TradeCount(),
				OpenTrade: !result.Record.IsClosed(),
				RunID:     result.RunID,
				Result:    result,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(ranking.Entries, func(a, b int) bool {
		return ranking.Entries[a].Strategy < ranking.Entries[b].Strategy
	})
	scores := make([]float64, len(ranking.Entries))
	for i, e := range ranking.Entries {
		scores[i] = e.Score
	}
	ranked := make([]Entry, 0, len(ranking.Entries))
	for _, i := range criteria.Sort(criterion, scores) {
		entry := ranking.Entries[i]
		entry.Rank = len(ranked) + 1
		ranked = append(ranked, entry)
	}
	ranking.Entries = ranked

	fields := []zap.Field{
		logger.String("ranking_id", ranking.ID),
		logger.String("series", ranking.Series),
		logger.String("criterion", ranking.Criterion),
		logger.Int("strategies", len(ranking.Entries)),
	}
	if best := ranking.Best(); best != nil {
		fields = append(fields,
			logger.String("best", best.Strategy),
			logger.Float64("best_score", best.Score),
		)
	}
	r.log.Info("Strategies ranked", fields...)

	return ranking, nil
}
