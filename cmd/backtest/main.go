package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/mohamedkhairy/strategy-lab/internal/backtest"
	"github.com/mohamedkhairy/strategy-lab/internal/config"
	"github.com/mohamedkhairy/strategy-lab/internal/criteria"
	"github.com/mohamedkhairy/strategy-lab/internal/data"
	"github.com/mohamedkhairy/strategy-lab/internal/report"
	"github.com/mohamedkhairy/strategy-lab/internal/rules"
	"github.com/mohamedkhairy/strategy-lab/internal/storage"
	"github.com/mohamedkhairy/strategy-lab/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// "history [strategy]" lists stored runs instead of ranking
	if len(os.Args) > 1 && os.Args[1] == "history" {
		strategy := ""
		if len(os.Args) > 2 {
			strategy = os.Args[2]
		}
		err = history(ctx, cfg, strategy)
	} else {
		err = rank(ctx, cfg)
	}

	if err != nil {
		logger.Error("Backtest failed", logger.ErrorField(err))
		logger.Sync()
		os.Exit(1)
	}
}

func rank(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Backtest.Timeout)
	defer cancel()
	ctx = logger.WithRunID(ctx, uuid.New().String())

	logger.WithContext(ctx).Info("Starting backtest",
		logger.String("bars", cfg.Data.Path),
		logger.String("strategies", cfg.Backtest.StrategiesPath),
		logger.String("criterion", cfg.Backtest.Criterion),
		logger.Int("concurrency", cfg.Backtest.Concurrency),
	)

	criterion, err := criteria.NewRegistry().Lookup(cfg.Backtest.Criterion)
	if err != nil {
		return err
	}

	provider, err := data.NewProvider(cfg.Data)
	if err != nil {
		return err
	}
	series, err := provider.LoadSeries(ctx, cfg.Data.Name)
	if err != nil {
		return err
	}

	definitions, err := config.LoadStrategies(cfg.Backtest.StrategiesPath)
	if err != nil {
		return err
	}

	var opts []rules.CompilerOption
	if cfg.Backtest.Memoize {
		opts = append(opts, rules.WithMemoization())
	}
	if cfg.Backtest.TraceRules {
		opts = append(opts, rules.WithCompilerObserver(rules.Observers(
			rules.NewLogObserver(nil),
			rules.NewMetricsObserver(),
		)))
	}
	compiler := rules.NewCompiler(series, opts...)

	strategies := make([]*backtest.Strategy, 0, len(definitions))
	for _, def := range definitions {
		strategy, err := backtest.StrategyFromConfig(compiler, def)
		if err != nil {
			return err
		}
		strategies = append(strategies, strategy)
	}

	ranker := backtest.NewRanker(backtest.NewEngine(logger.Get()), cfg.Backtest.Concurrency)
	ranking, err := ranker.Rank(ctx, series, strategies, criterion)
	if err != nil {
		return err
	}

	if err := report.NewConsole().PrintRanking(ranking); err != nil {
		return err
	}

	store, err := storage.NewStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.SaveRanking(ctx, ranking)
}

func history(ctx context.Context, cfg *config.Config, strategy string) error {
	store, err := storage.NewStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, strategy, 50)
	if err != nil {
		return err
	}
	return report.NewConsole().PrintRuns(runs)
}
