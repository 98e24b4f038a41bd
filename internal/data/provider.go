// Package data loads bar series from files.
package data

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mohamedkhairy/strategy-lab/internal/config"
	"github.com/mohamedkhairy/strategy-lab/internal/models"
)

var (
	// ErrUnsupportedFormat is returned when no provider handles a file format
	ErrUnsupportedFormat = errors.New("unsupported bar format")
	// ErrInvalidRecord is returned when a stored bar cannot be converted
	ErrInvalidRecord = errors.New("invalid bar record")
)

// Provider loads a complete bar series
type Provider interface {
	// LoadSeries reads the bars and returns them as a series called name.
	// An empty name uses the file name without extension.
	LoadSeries(ctx context.Context, name string) (*models.TimeSeries, error)

	// GetName returns the format handled by the provider (e.g. "csv", "parquet")
	GetName() string
}

// ProviderFactory creates providers for a file path
type ProviderFactory struct {
	factories map[string]func(path string) (Provider, error)
}

// NewProviderFactory creates a new provider factory with the built-in formats
func NewProviderFactory() *ProviderFactory {
	factory := &ProviderFactory{
		factories: make(map[string]func(string) (Provider, error)),
	}

	factory.RegisterProvider("csv", NewCSVProvider)
	factory.RegisterProvider("parquet", NewParquetProvider)

	return factory
}

// CreateProvider creates a provider for path. An empty format is inferred
// from the file extension.
func (f *ProviderFactory) CreateProvider(format, path string) (Provider, error) {
	if path == "" {
		return nil, fmt.Errorf("bar file path is required")
	}
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	factoryFunc, exists := f.factories[format]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return factoryFunc(path)
}

// RegisterProvider registers a provider constructor for format
func (f *ProviderFactory) RegisterProvider(format string, factoryFunc func(path string) (Provider, error)) error {
	if _, exists := f.factories[format]; exists {
		return fmt.Errorf("provider format already registered: %s", format)
	}
	f.factories[format] = factoryFunc
	return nil
}

// ListProviders returns the registered formats in sorted order
func (f *ProviderFactory) ListProviders() []string {
	formats := make([]string, 0, len(f.factories))
	for format := range f.factories {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

// NewProvider creates the provider described by cfg
func NewProvider(cfg config.DataConfig) (Provider, error) {
	return NewProviderFactory().CreateProvider(cfg.Format, cfg.Path)
}

// seriesName returns name, or the base file name without extension
func seriesName(name, path string) string {
	if name != "" {
		return name
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
