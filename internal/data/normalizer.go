package data

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mohamedkhairy/strategy-lab/internal/models"
)

// BarRecord is the stored layout of a bar
type BarRecord struct {
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    int64   `parquet:"volume"`
}

// RecordFromBar converts a bar into its stored layout
func RecordFromBar(bar models.Bar) BarRecord {
	return BarRecord{
		Timestamp: bar.Timestamp.UnixMilli(),
		Open:      bar.Open,
		High:      bar.High,
		Low:       bar.Low,
		Close:     bar.Close,
		Volume:    bar.Volume,
	}
}

// Bar converts the record into a validated bar
func (r BarRecord) Bar() (models.Bar, error) {
	bar := models.Bar{
		Timestamp: time.UnixMilli(r.Timestamp).UTC(),
		Open:      r.Open,
		High:      r.High,
		Low:       r.Low,
		Close:     r.Close,
		Volume:    r.Volume,
	}
	if err := bar.Validate(); err != nil {
		return models.Bar{}, err
	}
	return bar, nil
}

// NormalizeRecords converts records into a series. Records are sorted by
// timestamp first since exports are often newest-first; duplicated timestamps
// are rejected by the series.
func NormalizeRecords(name string, records []BarRecord) (*models.TimeSeries, error) {
	if len(records) == 0 {
		return nil, models.ErrEmptySeries
	}

	sorted := make([]BarRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	bars := make([]models.Bar, 0, len(sorted))
	for i, r := range sorted {
		bar, err := r.Bar()
		if err != nil {
			return nil, fmt.Errorf("%w %d: %w", ErrInvalidRecord, i, err)
		}
		bars = append(bars, bar)
	}

	return models.NewTimeSeries(name, bars)
}

// Field aliases accepted in CSV headers
var (
	timestampFields = []string{"timestamp", "t", "time", "ts", "datetime", "date"}
	openFields      = []string{"open", "o"}
	highFields      = []string{"high", "h"}
	lowFields       = []string{"low", "l"}
	closeFields     = []string{"close", "c", "last"}
	volumeFields    = []string{"volume", "v", "vol"}
)

// unixMillisThreshold separates unix seconds from unix milliseconds
const unixMillisThreshold = 1e11

// normalizeTimestamp parses RFC3339, a plain date or unix seconds/milliseconds
// into unix milliseconds
func normalizeTimestamp(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%w: empty timestamp", ErrInvalidRecord)
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		if n > unixMillisThreshold || n < -unixMillisThreshold {
			return n, nil
		}
		return n * 1000, nil
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UnixMilli(), nil
		}
	}

	return 0, fmt.Errorf("%w: unrecognized timestamp %q", ErrInvalidRecord, value)
}

func parsePrice(field, value string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrInvalidRecord, field, value, err)
	}
	return price, nil
}

// parseVolume accepts integers and integral floats such as "1500.0"
func parseVolume(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: volume %q: %v", ErrInvalidRecord, value, err)
	}
	return int64(f), nil
}
