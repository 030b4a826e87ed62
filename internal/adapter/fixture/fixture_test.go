package fixture

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinderbloom/heatrisk/internal/domain"
)

func testDataset() *Dataset {
	return &Dataset{
		Boundaries: []domain.RegionBoundary{
			{Name: "BEDOK", Geometry: json.RawMessage(`{"type":"Polygon","coordinates":[[[103.9,1.31],[103.96,1.31],[103.96,1.35],[103.9,1.35],[103.9,1.31]]]}`)},
		},
		Points: []domain.Point{
			{Lat: 1.32, Lon: 103.93, Value: 30.2, Label: "S107"},
		},
		Themes: []domain.ThemeItem{
			{Category: "nationalparks", LatLng: "1.33,103.92"},
			{Category: "hotels", LatLng: "1.32,103.94"},
			{Category: "kindergartens", LatLng: "1.31,103.91"},
		},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dataset.json")

	require.NoError(t, Save(path, testDataset()))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, testDataset(), ds)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read fixture")
}

func TestSourceServesDataset(t *testing.T) {
	src := NewSource(testDataset())
	ctx := context.Background()

	boundaries, err := src.Boundaries(ctx)
	require.NoError(t, err)
	require.Len(t, boundaries, 1)
	assert.Equal(t, "BEDOK", boundaries[0].Name)

	points, err := src.TemperaturePoints(ctx)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 30.2, points[0].Value)
}

func TestSourceFiltersThemesByCategory(t *testing.T) {
	src := NewSource(testDataset())

	items, err := src.ThemeItems(context.Background(), []string{"nationalparks", "hotels"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "nationalparks", items[0].Category)
	assert.Equal(t, "hotels", items[1].Category)

	none, err := src.ThemeItems(context.Background(), []string{"museums"})
	require.NoError(t, err)
	assert.Empty(t, none)
}
