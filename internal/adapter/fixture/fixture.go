// Package fixture loads and serves saved pipeline inputs, so the monitor and
// CLI tools can run full evaluations offline.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cinderbloom/heatrisk/internal/domain"
)

// Dataset bundles everything one pipeline run fetches: region boundaries,
// temperature points, and theme items.
type Dataset struct {
	Boundaries []domain.RegionBoundary `json:"boundaries"`
	Points     []domain.Point          `json:"points"`
	Themes     []domain.ThemeItem      `json:"themes"`
}

// Load reads a Dataset from a JSON file.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &ds, nil
}

// Save writes a Dataset as one indented JSON document, creating parent
// directories as needed.
func Save(path string, ds *Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// Source serves a Dataset as the pipeline's region, weather, and theme
// sources.
type Source struct {
	ds *Dataset
}

// NewSource wraps a Dataset for use as pipeline input.
func NewSource(ds *Dataset) *Source {
	return &Source{ds: ds}
}

// Boundaries implements pipeline.RegionSource.
func (s *Source) Boundaries(_ context.Context) ([]domain.RegionBoundary, error) {
	return s.ds.Boundaries, nil
}

// TemperaturePoints implements pipeline.WeatherSource.
func (s *Source) TemperaturePoints(_ context.Context) ([]domain.Point, error) {
	return s.ds.Points, nil
}

// ThemeItems implements pipeline.ThemeSource, filtering the saved items to
// the requested categories just as the live API only returns what is queried.
func (s *Source) ThemeItems(_ context.Context, categories []string) ([]domain.ThemeItem, error) {
	want := make(map[string]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}

	var items []domain.ThemeItem
	for _, item := range s.ds.Themes {
		if want[item.Category] {
			items = append(items, item)
		}
	}
	return items, nil
}
