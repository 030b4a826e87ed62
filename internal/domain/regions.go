package domain

import (
	"log/slog"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// RegionResolver answers "which region contains this point?". *RegionIndex is
// the production implementation; tests substitute stubs.
type RegionResolver interface {
	Resolve(lat, lon float64) (string, bool)
}

// region is one cached polygon. Polygon geometries are normalized to a
// single-element MultiPolygon on load so containment has one code path.
type region struct {
	name string
	geom orb.MultiPolygon
	bbox orb.Bound
}

// RegionIndex owns the cached set of named region polygons. The set is filled
// once per process lifetime (Load is a no-op while non-empty) and read many
// times; all methods are safe for concurrent use.
type RegionIndex struct {
	mu      sync.RWMutex
	regions []region // load order, which is also containment tie-break order
	logger  *slog.Logger
}

// NewRegionIndex returns an empty index. Parse warnings during Load go to
// logger.
func NewRegionIndex(logger *slog.Logger) *RegionIndex {
	return &RegionIndex{logger: logger}
}

// Load parses the boundaries and fills the cache exactly once, returning the
// number of cached regions. A call while a non-empty set is already cached is
// a no-op returning the cached size; callers needing a refresh must Clear
// first. A boundary whose geometry fails to parse, or decodes to something
// other than a Polygon or MultiPolygon, is skipped with a warning; a
// malformed item never aborts the load.
func (x *RegionIndex) Load(boundaries []RegionBoundary) int {
	x.mu.Lock()
	defer x.mu.Unlock()

	if len(x.regions) > 0 {
		return len(x.regions)
	}

	for _, b := range boundaries {
		g, err := geojson.UnmarshalGeometry(b.Geometry)
		if err != nil {
			x.logger.Warn("skipping region with malformed geometry",
				"region", b.Name,
				"error", err,
			)
			continue
		}

		var mp orb.MultiPolygon
		switch geom := g.Geometry().(type) {
		case orb.Polygon:
			mp = orb.MultiPolygon{geom}
		case orb.MultiPolygon:
			mp = geom
		default:
			x.logger.Warn("skipping region with unsupported geometry type",
				"region", b.Name,
				"type", g.Type,
			)
			continue
		}

		x.regions = append(x.regions, region{
			name: b.Name,
			geom: mp,
			bbox: mp.Bound(),
		})
	}

	return len(x.regions)
}

// Resolve tests containment against every cached polygon in load order and
// returns the first region containing the point. Overlapping polygons:
// first-loaded wins, deterministically. No containing polygon returns
// ("", false); a point outside all known regions is not an error.
//
// The bounding-box check is only a prefilter; it rejects most regions cheaply
// without changing which region matches first.
func (x *RegionIndex) Resolve(lat, lon float64) (string, bool) {
	pt := orb.Point{lon, lat}

	x.mu.RLock()
	defer x.mu.RUnlock()

	for _, r := range x.regions {
		if !r.bbox.Contains(pt) {
			continue
		}
		if planar.MultiPolygonContains(r.geom, pt) {
			return r.name, true
		}
	}
	return "", false
}

// Names returns all cached region names in load order, including regions that
// never receive a measurement.
func (x *RegionIndex) Names() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	names := make([]string, len(x.regions))
	for i, r := range x.regions {
		names[i] = r.name
	}
	return names
}

// Len reports the number of cached regions.
func (x *RegionIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.regions)
}

// Clear empties the cache so the next Load fills it again.
func (x *RegionIndex) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.regions = nil
}
