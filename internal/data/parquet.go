package data

import (
	"context"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/mohamedkhairy/strategy-lab/internal/models"
	"github.com/mohamedkhairy/strategy-lab/pkg/logger"
)

// ParquetProvider reads bars stored as BarRecord rows
type ParquetProvider struct {
	path string
}

// NewParquetProvider creates a new parquet provider for path
func NewParquetProvider(path string) (Provider, error) {
	return &ParquetProvider{path: path}, nil
}

// GetName returns the provider format
func (p *ParquetProvider) GetName() string {
	return "parquet"
}

// LoadSeries implements Provider
func (p *ParquetProvider) LoadSeries(ctx context.Context, name string) (*models.TimeSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := parquet.ReadFile[BarRecord](p.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.path, err)
	}

	series, err := NormalizeRecords(seriesName(name, p.path), records)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", p.path, err)
	}

	logger.WithContext(ctx).Info("Loaded bars",
		logger.String("path", p.path),
		logger.String("format", p.GetName()),
		logger.String("series", series.Name()),
		logger.Int("bars", series.Len()),
	)
	return series, nil
}

// WriteParquet stores the bars of series at path
func WriteParquet(path string, series *models.TimeSeries) error {
	bars := series.Bars()
	records := make([]BarRecord, len(bars))
	for i, bar := range bars {
		records[i] = RecordFromBar(bar)
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
