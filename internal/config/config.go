package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mohamedkhairy/strategy-lab/internal/rules"
)

// Config holds all configuration for the application
type Config struct {
	// Common
	Environment string
	LogLevel    string

	Data     DataConfig
	Backtest BacktestConfig
	Results  ResultsConfig
	Database DatabaseConfig
}

// DataConfig describes where bars are read from
type DataConfig struct {
	Path   string
	Format string // "csv" or "parquet"; empty infers from the file extension
	Name   string // series name, defaults to the file name
}

// BacktestConfig holds strategy ranking configuration
type BacktestConfig struct {
	StrategiesPath string
	Criterion      string
	Concurrency    int
	Memoize        bool
	TraceRules     bool
	Timeout        time.Duration
}

// ResultsConfig selects where rankings are persisted
type ResultsConfig struct {
	Driver string // "sqlite", "postgres" or "none"
	DSN    string // sqlite path or full postgres DSN; postgres falls back to Database
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN builds a lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Database,
		d.SSLMode,
	)
}

// Load loads configuration from environment variables
// It automatically loads .env file if it exists in the current directory
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Data: DataConfig{
			Path:   getEnv("BARS_PATH", ""),
			Format: getEnv("BARS_FORMAT", ""),
			Name:   getEnv("BARS_NAME", ""),
		},
		Backtest: BacktestConfig{
			StrategiesPath: getEnv("STRATEGIES_PATH", "strategies.yaml"),
			Criterion:      getEnv("CRITERION", "total_profit"),
			Concurrency:    getEnvAsInt("BACKTEST_CONCURRENCY", 4),
			Memoize:        getEnvAsBool("BACKTEST_MEMOIZE", true),
			TraceRules:     getEnvAsBool("BACKTEST_TRACE_RULES", false),
			Timeout:        getEnvAsDuration("BACKTEST_TIMEOUT", 5*time.Minute),
		},
		Results: ResultsConfig{
			Driver: getEnv("RESULTS_DRIVER", "sqlite"),
			DSN:    getEnv("RESULTS_DSN", "strategy-lab.db"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "strategy_lab"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 5),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Data.Path == "" {
		return fmt.Errorf("BARS_PATH is required")
	}
	switch c.Data.Format {
	case "", "csv", "parquet":
	default:
		return fmt.Errorf("BARS_FORMAT must be csv or parquet, got %q", c.Data.Format)
	}
	if c.Backtest.StrategiesPath == "" {
		return fmt.Errorf("STRATEGIES_PATH is required")
	}
	if c.Backtest.Concurrency <= 0 {
		return fmt.Errorf("BACKTEST_CONCURRENCY must be positive, got %d", c.Backtest.Concurrency)
	}
	switch c.Results.Driver {
	case "none":
	case "sqlite":
		if c.Results.DSN == "" {
			return fmt.Errorf("RESULTS_DSN is required for the sqlite driver")
		}
	case "postgres":
		if c.Results.DSN == "" && c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required for the postgres driver")
		}
	default:
		return fmt.Errorf("RESULTS_DRIVER must be sqlite, postgres or none, got %q", c.Results.Driver)
	}
	return nil
}

// StrategyConfig is one strategy in the strategies file
type StrategyConfig struct {
	Name         string           `yaml:"name"`
	StartingType string           `yaml:"starting_type"` // "buy" (default) or "sell"
	UnstableBars int              `yaml:"unstable_bars"`
	Entry        rules.Definition `yaml:"entry"`
	Exit         rules.Definition `yaml:"exit"`
}

// StrategiesFile is the top-level layout of the strategies file
type StrategiesFile struct {
	Strategies []StrategyConfig `yaml:"strategies"`
}

// LoadStrategies reads and validates the strategies file at path
func LoadStrategies(path string) ([]StrategyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.LoadStrategies: read %q: %w", path, err)
	}
	return ParseStrategies(data)
}

// ParseStrategies parses and validates a strategies document
func ParseStrategies(data []byte) ([]StrategyConfig, error) {
	var file StrategiesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config.ParseStrategies: parse YAML: %w", err)
	}
	if len(file.Strategies) == 0 {
		return nil, fmt.Errorf("strategies file must contain at least one strategy")
	}

	seen := make(map[string]bool, len(file.Strategies))
	for i := range file.Strategies {
		s := &file.Strategies[i]
		if s.Name == "" {
			return nil, fmt.Errorf("strategy %d: name is required", i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("strategy %q: duplicate name", s.Name)
		}
		seen[s.Name] = true

		switch strings.ToLower(s.StartingType) {
		case "":
			s.StartingType = "buy"
		case "buy", "sell":
			s.StartingType = strings.ToLower(s.StartingType)
		default:
			return nil, fmt.Errorf("strategy %q: starting_type must be buy or sell, got %q", s.Name, s.StartingType)
		}
		if s.UnstableBars < 0 {
			return nil, fmt.Errorf("strategy %q: unstable_bars must be non-negative", s.Name)
		}
		if err := rules.ValidateDefinition(&s.Entry); err != nil {
			return nil, fmt.Errorf("strategy %q entry: %w", s.Name, err)
		}
		if err := rules.ValidateDefinition(&s.Exit); err != nil {
			return nil, fmt.Errorf("strategy %q exit: %w", s.Name, err)
		}
	}

	return file.Strategies, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
