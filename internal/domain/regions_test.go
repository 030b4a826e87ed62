package domain

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// rect builds a GeoJSON Polygon covering [minLon,maxLon]x[minLat,maxLat].
func rect(minLon, minLat, maxLon, maxLat float64) json.RawMessage {
	s := fmt.Sprintf(
		`{"type":"Polygon","coordinates":[[[%g,%g],[%g,%g],[%g,%g],[%g,%g],[%g,%g]]]}`,
		minLon, minLat, maxLon, minLat, maxLon, maxLat, minLon, maxLat, minLon, minLat,
	)
	return json.RawMessage(s)
}

func TestRegionIndexResolve(t *testing.T) {
	idx := NewRegionIndex(discardLogger())
	n := idx.Load([]RegionBoundary{
		{Name: "BEDOK", Geometry: rect(103.90, 1.30, 103.96, 1.36)},
		{Name: "TAMPINES", Geometry: rect(103.93, 1.34, 104.00, 1.39)},
	})
	require.Equal(t, 2, n)

	t.Run("point inside exactly one polygon", func(t *testing.T) {
		name, ok := idx.Resolve(1.32, 103.92)
		require.True(t, ok)
		assert.Equal(t, "BEDOK", name)

		name, ok = idx.Resolve(1.38, 103.97)
		require.True(t, ok)
		assert.Equal(t, "TAMPINES", name)
	})

	t.Run("point outside every polygon", func(t *testing.T) {
		name, ok := idx.Resolve(1.50, 104.50)
		assert.False(t, ok)
		assert.Empty(t, name)
	})

	t.Run("overlap resolves to first-loaded polygon", func(t *testing.T) {
		// (1.35, 103.94) sits inside both rectangles.
		for i := 0; i < 10; i++ {
			name, ok := idx.Resolve(1.35, 103.94)
			require.True(t, ok)
			assert.Equal(t, "BEDOK", name)
		}
	})
}

func TestRegionIndexResolveMultiPolygon(t *testing.T) {
	geom := json.RawMessage(`{"type":"MultiPolygon","coordinates":[
		[[[103.60,1.20],[103.65,1.20],[103.65,1.25],[103.60,1.25],[103.60,1.20]]],
		[[[103.80,1.40],[103.85,1.40],[103.85,1.45],[103.80,1.45],[103.80,1.40]]]
	]}`)

	idx := NewRegionIndex(discardLogger())
	require.Equal(t, 1, idx.Load([]RegionBoundary{{Name: "ISLANDS", Geometry: geom}}))

	name, ok := idx.Resolve(1.22, 103.62)
	require.True(t, ok)
	assert.Equal(t, "ISLANDS", name)

	name, ok = idx.Resolve(1.42, 103.82)
	require.True(t, ok)
	assert.Equal(t, "ISLANDS", name)

	_, ok = idx.Resolve(1.32, 103.72) // between the two parts
	assert.False(t, ok)
}

func TestRegionIndexLoadSkipsMalformedGeometry(t *testing.T) {
	idx := NewRegionIndex(discardLogger())
	n := idx.Load([]RegionBoundary{
		{Name: "GOOD", Geometry: rect(103.80, 1.28, 103.86, 1.33)},
		{Name: "BROKEN", Geometry: json.RawMessage(`{"type":"Polygon","coordinates":`)},
		{Name: "POINTY", Geometry: json.RawMessage(`{"type":"Point","coordinates":[103.8,1.3]}`)},
	})

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"GOOD"}, idx.Names())

	name, ok := idx.Resolve(1.30, 103.83)
	require.True(t, ok)
	assert.Equal(t, "GOOD", name)
}

func TestRegionIndexLoadIsIdempotent(t *testing.T) {
	first := []RegionBoundary{{Name: "QUEENSTOWN", Geometry: rect(103.78, 1.27, 103.82, 1.31)}}
	second := []RegionBoundary{
		{Name: "NEWTON", Geometry: rect(103.83, 1.30, 103.85, 1.33)},
		{Name: "ORCHARD", Geometry: rect(103.82, 1.29, 103.84, 1.31)},
	}

	idx := NewRegionIndex(discardLogger())
	require.Equal(t, 1, idx.Load(first))

	// Second load while non-empty is a no-op that reports the cached size.
	assert.Equal(t, 1, idx.Load(second))
	assert.Equal(t, []string{"QUEENSTOWN"}, idx.Names())

	// Explicit clear makes the next load fill again.
	idx.Clear()
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 2, idx.Load(second))
	assert.Equal(t, []string{"NEWTON", "ORCHARD"}, idx.Names())
}

func TestRegionIndexNamesIncludesUnmeasuredRegions(t *testing.T) {
	idx := NewRegionIndex(discardLogger())
	idx.Load([]RegionBoundary{
		{Name: "A", Geometry: rect(0, 0, 1, 1)},
		{Name: "B", Geometry: rect(2, 2, 3, 3)},
		{Name: "C", Geometry: rect(4, 4, 5, 5)},
	})

	assert.Equal(t, []string{"A", "B", "C"}, idx.Names())
}
