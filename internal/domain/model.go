package domain

import "encoding/json"

// Point is a single georeferenced measurement produced by an upstream
// provider, e.g. one weather station's air-temperature reading. Adapters only
// emit points that carried a reading, so Value is always meaningful.
type Point struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Value float64 `json:"value"`
	Label string  `json:"label"` // station or item name, kept for member lists
}

// RegionBoundary is a named region polygon as delivered by the region
// provider. Geometry holds the raw GeoJSON geometry document (Polygon or
// MultiPolygon, coordinates in longitude/latitude order); parsing happens in
// RegionIndex.Load so malformed geometry stays a per-item skip there.
type RegionBoundary struct {
	Name     string          `json:"name"`
	Geometry json.RawMessage `json:"geometry"`
}

// ThemeItem is one amenity occurrence from a theme query. LatLng carries the
// provider's raw "lat,lon" string; ThemeCounter owns parsing it, so a
// malformed pair is a per-item skip rather than an adapter failure.
type ThemeItem struct {
	Category string `json:"category"` // provider query name, e.g. "nationalparks"
	LatLng   string `json:"lat_lng"`
}

// ThemeBuckets maps provider theme categories onto the three density buckets.
// The mapping is configuration: new categories join a bucket without touching
// the counting algorithm.
type ThemeBuckets struct {
	Green       []string `json:"green"`
	Commercial  []string `json:"commercial"`
	Residential []string `json:"residential"`
}

// All returns every configured category across the three buckets, in bucket
// order. Fetch adapters use it to know which theme queries to issue.
func (b ThemeBuckets) All() []string {
	out := make([]string, 0, len(b.Green)+len(b.Commercial)+len(b.Residential))
	out = append(out, b.Green...)
	out = append(out, b.Commercial...)
	out = append(out, b.Residential...)
	return out
}

// RegionStat summarizes the measurement points that resolved into one region.
// Only regions that received at least one point get a RegionStat; the output
// is sparse, unlike ThemeProfile which covers every known region.
type RegionStat struct {
	Region   string   `json:"region"`
	AvgValue float64  `json:"avg_value"` // arithmetic mean, rounded to one decimal
	MaxValue float64  `json:"max_value"` // unrounded maximum
	Count    int      `json:"count"`
	Members  []string `json:"members"` // contributing labels in input order
}

// DensityClass is the land-use classification derived from theme counts.
type DensityClass string

const (
	DensityCommercial  DensityClass = "Commercial"
	DensityResidential DensityClass = "Residential"
	DensityMixed       DensityClass = "Mixed"
	DensityUnknown     DensityClass = "Unknown"
)

// ThemeProfile is the per-region context derived from theme occurrences.
// Exactly one profile exists for every region known to the index, including
// regions with zero matches, so downstream classification is total.
type ThemeProfile struct {
	Region           string       `json:"region"`
	GreenCount       int          `json:"green_count"`
	GreenRatio       float64      `json:"green_ratio"` // green_count / global max, two decimals
	CommercialCount  int          `json:"commercial_count"`
	ResidentialCount int          `json:"residential_count"`
	DensityClass     DensityClass `json:"density_class"`
}

// FusedRecord is the outer join of RegionStat and ThemeProfile for one
// region. AvgTemperature is nil when no measurement existed; zero is a valid
// temperature and never stands in for absent.
type FusedRecord struct {
	Region         string       `json:"region"`
	AvgTemperature *float64     `json:"avg_temperature"` // null in JSON when absent
	GreenRatio     float64      `json:"green_ratio"`
	DensityClass   DensityClass `json:"density_class"`
}

// Priority orders findings from most to least urgent.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
	PriorityNormal   Priority = "NORMAL"
	PriorityNotFound Priority = "NOT_FOUND"
)

// rank returns the sort position of a priority; lower sorts first. Unlisted
// values rank after NOT_FOUND so a corrupted finding never jumps the queue.
func (p Priority) rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	case PriorityNormal:
		return 4
	case PriorityNotFound:
		return 5
	default:
		return 6
	}
}

// Source records which rule branch produced a finding.
type Source string

const (
	SourceMeasurement Source = "measurement"
	SourceInference   Source = "inference"
)

// Finding is one rule-engine verdict for one region. It carries no timestamp
// or generated ID: identical inputs must produce byte-identical findings.
// Source is empty on NOT_FOUND findings, where neither branch ran.
type Finding struct {
	Region    string   `json:"region"`
	Triggered bool     `json:"triggered"`
	Priority  Priority `json:"priority"`
	Reason    string   `json:"reason"`
	Source    Source   `json:"source,omitempty"`
}
