package domain

import (
	"log/slog"
	"strconv"
	"strings"
)

type bucket int

const (
	bucketGreen bucket = iota
	bucketCommercial
	bucketResidential
)

// ThemeCounter classifies theme items into density buckets and counts
// occurrences per region. The category→bucket mapping is fixed at
// construction; the counting algorithm never looks at category names itself.
type ThemeCounter struct {
	buckets map[string]bucket
	logger  *slog.Logger
}

// NewThemeCounter builds a counter for the given bucket mapping. A category
// listed in more than one bucket keeps its first assignment (green, then
// commercial, then residential).
func NewThemeCounter(buckets ThemeBuckets, logger *slog.Logger) *ThemeCounter {
	m := make(map[string]bucket)
	assign := func(categories []string, b bucket) {
		for _, c := range categories {
			if _, ok := m[c]; !ok {
				m[c] = b
			}
		}
	}
	assign(buckets.Green, bucketGreen)
	assign(buckets.Commercial, bucketCommercial)
	assign(buckets.Residential, bucketResidential)

	return &ThemeCounter{buckets: m, logger: logger}
}

// Profile produces exactly one ThemeProfile per name in allRegions, in
// allRegions order. Zero-match regions are included, so downstream density
// classification is total.
//
// Items with an unmapped category, an unparseable coordinate pair, or a
// location outside all known regions are skipped per item, never failing the
// whole profile. GreenRatio is each region's green count over the global
// maximum (two decimals; all zero when the maximum is zero). DensityClass
// follows the commercial share of commercial+residential counts: above 0.6
// Commercial, below 0.4 Residential, otherwise Mixed; no counts at all means
// Unknown.
func (c *ThemeCounter) Profile(items []ThemeItem, resolver RegionResolver, allRegions []string) []ThemeProfile {
	type counts struct {
		green       int
		commercial  int
		residential int
	}

	byRegion := make(map[string]*counts, len(allRegions))
	for _, name := range allRegions {
		byRegion[name] = &counts{}
	}

	for _, item := range items {
		b, mapped := c.buckets[item.Category]
		if !mapped {
			c.logger.Debug("theme category not in any bucket", "category", item.Category)
			continue
		}

		lat, lon, err := parseLatLng(item.LatLng)
		if err != nil {
			c.logger.Debug("skipping theme item with malformed coordinates",
				"category", item.Category,
				"lat_lng", item.LatLng,
			)
			continue
		}

		name, ok := resolver.Resolve(lat, lon)
		if !ok {
			continue
		}
		cnt, known := byRegion[name]
		if !known {
			// Resolver knows a region the caller did not list; ignore it so
			// the output stays exactly one profile per requested name.
			continue
		}

		switch b {
		case bucketGreen:
			cnt.green++
		case bucketCommercial:
			cnt.commercial++
		case bucketResidential:
			cnt.residential++
		}
	}

	maxGreen := 0
	for _, cnt := range byRegion {
		if cnt.green > maxGreen {
			maxGreen = cnt.green
		}
	}

	profiles := make([]ThemeProfile, 0, len(allRegions))
	for _, name := range allRegions {
		cnt := byRegion[name]

		ratio := 0.0
		if maxGreen > 0 {
			ratio = round2(float64(cnt.green) / float64(maxGreen))
		}

		profiles = append(profiles, ThemeProfile{
			Region:           name,
			GreenCount:       cnt.green,
			GreenRatio:       ratio,
			CommercialCount:  cnt.commercial,
			ResidentialCount: cnt.residential,
			DensityClass:     classifyDensity(cnt.commercial, cnt.residential),
		})
	}

	return profiles
}

// classifyDensity derives the land-use class from raw bucket counts. The
// boundaries at exactly 0.4 and 0.6 commercial share classify as Mixed.
func classifyDensity(commercial, residential int) DensityClass {
	total := commercial + residential
	if total == 0 {
		return DensityUnknown
	}

	r := float64(commercial) / float64(total)
	switch {
	case r > 0.6:
		return DensityCommercial
	case r < 0.4:
		return DensityResidential
	default:
		return DensityMixed
	}
}

// parseLatLng splits a "lat,lon" pair. Both parts must be valid numbers.
func parseLatLng(s string) (float64, float64, error) {
	latPart, lonPart, found := strings.Cut(s, ",")
	if !found {
		return 0, 0, strconv.ErrSyntax
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latPart), 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonPart), 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}
