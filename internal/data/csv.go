package data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mohamedkhairy/strategy-lab/internal/models"
	"github.com/mohamedkhairy/strategy-lab/pkg/logger"
)

// CSVProvider reads bars from a CSV file with a header row.
// Columns are matched by name, so extra columns and any column order are accepted.
type CSVProvider struct {
	path string
}

// NewCSVProvider creates a new CSV provider for path
func NewCSVProvider(path string) (Provider, error) {
	return &CSVProvider{path: path}, nil
}

// GetName returns the provider format
func (p *CSVProvider) GetName() string {
	return "csv"
}

// LoadSeries implements Provider
func (p *CSVProvider) LoadSeries(ctx context.Context, name string) (*models.TimeSeries, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.path, err)
	}
	defer f.Close()

	records, err := ReadCSV(ctx, f)
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

// csvColumns holds the position of each bar field in a row
type csvColumns struct {
	timestamp, open, high, low, close, volume int
}

// ReadCSV decodes bar records from r
func ReadCSV(ctx context.Context, r io.Reader) ([]BarRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, models.ErrEmptySeries
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}
	reader.FieldsPerRecord = len(header)

	var records []BarRecord
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		record, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, record)
	}

	return records, nil
}

func mapColumns(header []string) (csvColumns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	find := func(field string, aliases []string, required bool) (int, error) {
		for _, alias := range aliases {
			if i, ok := index[alias]; ok {
				return i, nil
			}
		}
		if required {
			return -1, fmt.Errorf("%w: missing %s column", ErrInvalidRecord, field)
		}
		return -1, nil
	}

	var cols csvColumns
	var err error
	if cols.timestamp, err = find("timestamp", timestampFields, true); err != nil {
		return cols, err
	}
	if cols.close, err = find("close", closeFields, true); err != nil {
		return cols, err
	}
	if cols.open, err = find("open", openFields, false); err != nil {
		return cols, err
	}
	if cols.high, err = find("high", highFields, false); err != nil {
		return cols, err
	}
	if cols.low, err = find("low", lowFields, false); err != nil {
		return cols, err
	}
	if cols.volume, err = find("volume", volumeFields, false); err != nil {
		return cols, err
	}
	return cols, nil
}

// parseRow converts a row. Missing open/high/low columns default to the close.
func parseRow(row []string, cols csvColumns) (BarRecord, error) {
	var record BarRecord
	var err error

	if record.Timestamp, err = normalizeTimestamp(row[cols.timestamp]); err != nil {
		return record, err
	}
	if record.Close, err = parsePrice("close", row[cols.close]); err != nil {
		return record, err
	}

	record.Open, record.High, record.Low = record.Close, record.Close, record.Close
	if cols.open >= 0 {
		if record.Open, err = parsePrice("open", row[cols.open]); err != nil {
			return record, err
		}
	}
	if cols.high >= 0 {
		if record.High, err = parsePrice("high", row[cols.high]); err != nil {
			return record, err
		}
	}
	if cols.low >= 0 {
		if record.Low, err = parsePrice("low", row[cols.low]); err != nil {
			return record, err
		}
	}
	if cols.volume >= 0 {
		if record.Volume, err = parseVolume(row[cols.volume]); err != nil {
			return record, err
		}
	}

	return record, nil
}
