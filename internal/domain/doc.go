// Package domain implements the heat-risk core: region containment, point
// aggregation, theme counting, record fusion, and the tiered trigger rules.
// Nothing in this package performs network I/O; adapters hand it
// already-fetched inputs and consume its outputs.
//
// # Data Sources
//
// Measurement points come from the data.gov.sg real-time air-temperature API:
// one reading per weather station, joined to station coordinates by station
// ID. Region polygons and theme items come from Singapore's OneMap API:
// planning-area boundaries (GeoJSON, WGS84, longitude/latitude order) and
// amenity themes addressed by query name (nationalparks, hotels,
// kindergartens, ...).
//
// # Spatial Conventions
//
// Containment is planar point-in-polygon over WGS84 degrees, an accepted
// approximation at Singapore's scale rather than geodesic math. Polygons are
// tested in load order and the first containing polygon wins; if
// administrative areas ever overlapped, the earlier-loaded one would claim
// the point, deterministically. A point inside no polygon resolves to nothing
// and is dropped from aggregation (common for offshore stations and points
// beyond the coastline).
//
// Theme item coordinates arrive as the provider's raw "lat,lon" strings and
// are parsed here, so a malformed pair is a per-item skip. Region geometry is
// parsed in RegionIndex.Load under the same rule.
//
// # Derived Values
//
// Per-region temperature statistics keep the mean rounded to one decimal and
// the maximum unrounded. Green cover is relative: a region's green count over
// the global maximum, rounded to two decimals (all zero when no green themes
// matched anywhere). Density class follows the commercial share of
// commercial+residential counts:
//
//	share > 0.6          → Commercial
//	share < 0.4          → Residential
//	0.4 ≤ share ≤ 0.6    → Mixed
//	no counts at all     → Unknown
//
// # Absent vs Zero
//
// RegionStat output is sparse (only regions with data); ThemeProfile output
// is total (every known region). Fusion outer-joins the two and marks a
// missing temperature with a nil pointer: 0°C is a valid reading and never
// stands in for "no data". The rule engine branches on exactly this
// distinction. Records with a temperature go through the measurement rules,
// records without one through the context-inference rules.
//
// # Trigger Rules
//
// Both branches are ordered decision lists; the first matching rule wins:
//
//	measurement: ≥30.5°C + green<0.1 + Commercial    → CRITICAL
//	             ≥29.5°C + green<0.2                 → HIGH
//	             ≥30.5°C                             → HIGH
//	             ≥29.5°C + Commercial + green<0.1    → MEDIUM
//	             ≥29.5°C + Residential + green<0.2   → MEDIUM
//	             otherwise                           → NORMAL (not triggered)
//
//	inference:   Commercial + green<0.1              → MEDIUM
//	             green<0.1                           → MEDIUM
//	             Residential + green<0.2             → LOW
//	             otherwise                           → NORMAL (not triggered)
//
// A region absent from the fused table evaluates to NOT_FOUND, never an
// error. EvaluateAll sorts findings CRITICAL < HIGH < MEDIUM < LOW < NORMAL <
// NOT_FOUND, stable on ties.
//
// # Determinism
//
// Findings carry no timestamps or generated IDs, and every ordering in this
// package is stable, so rerunning the pipeline on unchanged inputs produces
// byte-identical fused records and findings. Wall-clock time exists only on
// the snapshot envelope, through the swappable package clock.
package domain
