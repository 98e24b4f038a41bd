package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mohamedkhairy/strategy-lab/internal/backtest"
	"github.com/mohamedkhairy/strategy-lab/internal/config"
	"github.com/mohamedkhairy/strategy-lab/pkg/logger"
)

// Supported database/sql driver names
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	storageWriteTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_write_total",
			Help: "Total number of ranking writes",
		},
		[]string{"status"}, // "success" or "error"
	)

	storageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_latency_seconds",
			Help:    "Result store operation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		},
		[]string{"operation"},
	)
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS rankings (
		id         TEXT PRIMARY KEY,
		series     TEXT NOT NULL,
		criterion  TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ranking_entries (
		ranking_id     TEXT NOT NULL REFERENCES rankings(id),
		rank           INTEGER NOT NULL,
		strategy       TEXT NOT NULL,
		score          DOUBLE PRECISION NOT NULL,
		trades         INTEGER NOT NULL,
		open_trade     BOOLEAN NOT NULL,
		run_id         TEXT NOT NULL,
		bars_processed INTEGER NOT NULL,
		duration_ns    BIGINT NOT NULL,
		PRIMARY KEY (ranking_id, rank)
	)`,
	`CREATE INDEX IF NOT EXISTS ranking_entries_strategy_idx ON ranking_entries (strategy)`,
}

// SQLStore implements ResultStore over database/sql
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore opens dsn with driver, checks the connection and creates the schema
func NewSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if driver == DriverSQLite {
		// every sqlite connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	store := &SQLStore{db: db, driver: driver}
	if err := store.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewStore creates the store selected by cfg.Results
func NewStore(ctx context.Context, cfg *config.Config) (ResultStore, error) {
	switch cfg.Results.Driver {
	case "none":
		return NopStore{}, nil
	case DriverSQLite:
		return NewSQLStore(ctx, DriverSQLite, cfg.Results.DSN)
	case DriverPostgres:
		dsn := cfg.Results.DSN
		if dsn == "" {
			dsn = cfg.Database.DSN()
		}
		store, err := NewSQLStore(ctx, DriverPostgres, dsn)
		if err != nil {
			return nil, err
		}
		store.db.SetMaxOpenConns(cfg.Database.MaxConnections)
		store.db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		store.db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported results driver %q", cfg.Results.Driver)
	}
}

func (s *SQLStore) init(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	logger.Info("Connected to result store", logger.String("driver", s.driver))
	return nil
}

// placeholder returns the bind parameter at 1-based position in the driver's syntax
func (s *SQLStore) placeholder(position int) string {
	if s.driver == DriverPostgres {
		return fmt.Sprintf("$%d", position)
	}
	return "?"
}

func (s *SQLStore) placeholders(n int) string {
	params := make([]string, n)
	for i := range params {
		params[i] = s.placeholder(i + 1)
	}
	return strings.Join(params, ", ")
}

// SaveRanking implements ResultStore
func (s *SQLStore) SaveRanking(ctx context.Context, ranking *backtest.Ranking) (err error) {
	if ranking == nil {
		return fmt.Errorf("ranking cannot be nil")
	}

	start := time.Now()
	defer func() {
		storageLatency.WithLabelValues("save_ranking").Observe(time.Since(start).Seconds())
		status := "success"
		if err != nil {
			status = "error"
			logger.ErrorsTotal.WithLabelValues("storage", "save_ranking").Inc()
		}
		storageWriteTotal.WithLabelValues(status).Inc()
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	rankingQuery := fmt.Sprintf(
		"INSERT INTO rankings (id, series, criterion, created_at) VALUES (%s)",
		s.placeholders(4),
	)
	if _, err = tx.ExecContext(ctx, rankingQuery,
		ranking.ID,
		ranking.Series,
		ranking.Criterion,
		ranking.CreatedAt.UnixNano(),
	); err != nil {
		return fmt.Errorf("failed to insert ranking: %w", err)
	}

	entryQuery := fmt.Sprintf(
		`INSERT INTO ranking_entries
			(ranking_id, rank, strategy, score, trades, open_trade, run_id, bars_processed, duration_ns)
		VALUES (%s)`,
		s.placeholders(9),
	)
	stmt, err := tx.PrepareContext(ctx, entryQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range ranking.Entries {
		var bars int
		var duration time.Duration
		if e.Result != nil {
			bars = e.Result.BarsProcessed
			duration = e.Result.Duration
		}
		if _, err = stmt.ExecContext(ctx,
			ranking.ID,
			e.Rank,
			e.Strategy,
			e.Score,
			e.Trades,
			e.OpenTrade,
			e.RunID,
			bars,
			int64(duration),
		); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", e.Strategy, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ranking: %w", err)
	}

	logger.WithContext(ctx).Debug("Ranking saved",
		logger.String("ranking_id", ranking.ID),
		logger.Int("entries", len(ranking.Entries)),
	)
	return nil
}

// ListRuns implements ResultStore
func (s *SQLStore) ListRuns(ctx context.Context, strategy string, limit int) (runs []RunRecord, err error) {
	start := time.Now()
	defer func() {
		storageLatency.WithLabelValues("list_runs").Observe(time.Since(start).Seconds())
		if err != nil {
			logger.ErrorsTotal.WithLabelValues("storage", "list_runs").Inc()
		}
	}()

	query := `
		SELECT r.id, r.series, r.criterion, r.created_at,
			e.rank, e.strategy, e.score, e.trades, e.open_trade, e.run_id, e.bars_processed, e.duration_ns
		FROM ranking_entries e
		JOIN rankings r ON r.id = e.ranking_id
	`
	var args []interface{}
	if strategy != "" {
		args = append(args, strategy)
		query += " WHERE e.strategy = " + s.placeholder(len(args))
	}
	query += " ORDER BY r.created_at DESC, r.id, e.rank ASC"
	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT " + s.placeholder(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var run RunRecord
		var createdAt, durationNs int64
		if err := rows.Scan(
			&run.RankingID,
			&run.Series,
			&run.Criterion,
			&createdAt,
			&run.Rank,
			&run.Strategy,
			&run.Score,
			&run.Trades,
			&run.OpenTrade,
			&run.RunID,
			&run.BarsProcessed,
			&durationNs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.CreatedAt = time.Unix(0, createdAt).UTC()
		run.Duration = time.Duration(durationNs)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return runs, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}
