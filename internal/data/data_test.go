package data

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/strategy-lab/internal/config"
	"github.com/mohamedkhairy/strategy-lab/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestProviderFactory(t *testing.T) {
	factory := NewProviderFactory()
	assert.Equal(t, []string{"csv", "parquet"}, factory.ListProviders())

	p, err := factory.CreateProvider("", "bars/AAPL.CSV")
	require.NoError(t, err)
	assert.Equal(t, "csv", p.GetName())

	p, err = factory.CreateProvider("parquet", "bars/AAPL.dat")
	require.NoError(t, err)
	assert.Equal(t, "parquet", p.GetName())

	_, err = factory.CreateProvider("", "bars/AAPL.json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = factory.CreateProvider("csv", "")
	assert.Error(t, err)

	assert.Error(t, factory.RegisterProvider("csv", NewCSVProvider))
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(config.DataConfig{Path: "daily.parquet"})
	require.NoError(t, err)
	assert.Equal(t, "parquet", p.GetName())
}

func TestNormalizeTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC).UnixMilli()

	tests := []struct {
		name  string
		value string
		want  int64
	}{
		{"rfc3339", "2024-03-01T14:30:00Z", want},
		{"rfc3339 offset", "2024-03-01T15:30:00+01:00", want},
		{"datetime", "2024-03-01 14:30:00", want},
		{"date", "2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli()},
		{"unix seconds", "1709303400", want},
		{"unix millis", "1709303400000", want},
		{"padded", "  1709303400 ", want},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeTimestamp(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := normalizeTimestamp("")
	assert.ErrorIs(t, err, ErrInvalidRecord)
	_, err = normalizeTimestamp("yesterday")
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"Date,Open,High,Low,Close,Volume,Symbol",
		"2024-01-02,10,11,9,10.5,1000,ABC",
		"2024-01-03,10.5,12,10,11.5,1500.0,ABC",
	}, "\n")

	records, err := ReadCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli(), records[0].Timestamp)
	assert.Equal(t, BarRecord{
		Timestamp: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC).UnixMilli(),
		Open:      10.5,
		High:      12,
		Low:       10,
		Close:     11.5,
		Volume:    1500,
	}, records[1])
}

func TestReadCSV_CloseOnly(t *testing.T) {
	records, err := ReadCSV(context.Background(), strings.NewReader("t,c\n1704153600,42\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 42.0, records[0].Open)
	assert.Equal(t, 42.0, records[0].High)
	assert.Equal(t, 42.0, records[0].Low)
	assert.Equal(t, int64(0), records[0].Volume)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":         "",
		"no close":      "timestamp,open\n2024-01-02,1\n",
		"no timestamp":  "open,close\n1,1\n",
		"bad price":     "timestamp,close\n2024-01-02,abc\n",
		"bad timestamp": "timestamp,close\nsoon,1\n",
		"ragged row":    "timestamp,close\n2024-01-02,1,2\n",
		"bad volume":    "timestamp,close,volume\n2024-01-02,1,lots\n",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(context.Background(), strings.NewReader(input))
			assert.Error(t, err)
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadCSV(ctx, strings.NewReader("timestamp,close\n2024-01-02,1\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeRecords(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	records := []BarRecord{
		{Timestamp: day.AddDate(0, 0, 2).UnixMilli(), Open: 3, High: 3, Low: 3, Close: 3},
		{Timestamp: day.UnixMilli(), Open: 1, High: 1, Low: 1, Close: 1},
		{Timestamp: day.AddDate(0, 0, 1).UnixMilli(), Open: 2, High: 2, Low: 2, Close: 2},
	}

	series, err := NormalizeRecords("abc", records)
	require.NoError(t, err)
	assert.Equal(t, "abc", series.Name())
	assert.Equal(t, []float64{1, 2, 3}, []float64{series.Close(0), series.Close(1), series.Close(2)})

	bar, err := series.Bar(0)
	require.NoError(t, err)
	assert.Equal(t, day, bar.Timestamp)

	_, err = NormalizeRecords("abc", nil)
	assert.ErrorIs(t, err, models.ErrEmptySeries)

	_, err = NormalizeRecords("abc", []BarRecord{{Timestamp: day.UnixMilli(), Close: -1}})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.ErrorIs(t, err, models.ErrInvalidPrice)

	dup := []BarRecord{records[1], records[1]}
	_, err = NormalizeRecords("abc", dup)
	assert.ErrorIs(t, err, models.ErrUnorderedSeries)
}

func TestCSVProvider_LoadSeries(t *testing.T) {
	path := writeFile(t, "SPY.csv", "timestamp,open,high,low,close,volume\n"+
		"2024-01-03T00:00:00Z,2,2,2,2,20\n"+
		"2024-01-02T00:00:00Z,1,1,1,1,10\n")

	p, err := NewCSVProvider(path)
	require.NoError(t, err)

	series, err := p.LoadSeries(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "SPY", series.Name())
	assert.Equal(t, 2, series.Len())
	assert.Equal(t, 1.0, series.Close(0))

	named, err := p.LoadSeries(context.Background(), "spy-daily")
	require.NoError(t, err)
	assert.Equal(t, "spy-daily", named.Name())

	missing, err := NewCSVProvider(filepath.Join(t.TempDir(), "missing.csv"))
	require.NoError(t, err)
	_, err = missing.LoadSeries(context.Background(), "")
	assert.Error(t, err)
}

func TestParquetProvider_RoundTrip(t *testing.T) {
	source, err := models.SeriesFromCloses(10, 11, 12.5, 9)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "closes.parquet")
	require.NoError(t, WriteParquet(path, source))

	p, err := NewProvider(config.DataConfig{Path: path})
	require.NoError(t, err)

	series, err := p.LoadSeries(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "closes", series.Name())
	assert.Equal(t, source.Bars(), series.Bars())
}

func TestParquetProvider_Errors(t *testing.T) {
	p, err := NewParquetProvider(filepath.Join(t.TempDir(), "missing.parquet"))
	require.NoError(t, err)
	_, err = p.LoadSeries(context.Background(), "")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.LoadSeries(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
