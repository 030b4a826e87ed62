package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuckets() ThemeBuckets {
	return ThemeBuckets{
		Green:       []string{"nationalparks", "nparks_parks"},
		Commercial:  []string{"hotels"},
		Residential: []string{"kindergartens", "ssot_hawkercentres"},
	}
}

func TestThemeBucketsAll(t *testing.T) {
	all := testBuckets().All()
	assert.Equal(t, []string{
		"nationalparks", "nparks_parks", "hotels", "kindergartens", "ssot_hawkercentres",
	}, all)
}

func TestProfileCountsAndRatios(t *testing.T) {
	// Every coordinate below resolves to its region by exact match.
	resolver := stubResolver{
		{1.30, 103.80}: "BEDOK",
		{1.40, 103.90}: "YISHUN",
	}
	counter := NewThemeCounter(testBuckets(), discardLogger())

	items := []ThemeItem{
		{Category: "nationalparks", LatLng: "1.30,103.80"},
		{Category: "nparks_parks", LatLng: "1.30,103.80"},
		{Category: "nationalparks", LatLng: "1.30,103.80"},
		{Category: "nationalparks", LatLng: "1.40,103.90"},
		{Category: "hotels", LatLng: "1.40,103.90"},
		{Category: "kindergartens", LatLng: "1.30,103.80"},
	}

	profiles := counter.Profile(items, resolver, []string{"BEDOK", "YISHUN", "PIONEER"})
	require.Len(t, profiles, 3)

	bedok := profiles[0]
	assert.Equal(t, "BEDOK", bedok.Region)
	assert.Equal(t, 3, bedok.GreenCount)
	assert.Equal(t, 1.0, bedok.GreenRatio)
	assert.Equal(t, 0, bedok.CommercialCount)
	assert.Equal(t, 1, bedok.ResidentialCount)
	assert.Equal(t, DensityResidential, bedok.DensityClass)

	yishun := profiles[1]
	assert.Equal(t, 1, yishun.GreenCount)
	assert.Equal(t, 0.33, yishun.GreenRatio) // 1/3 rounded to two decimals
	assert.Equal(t, 1, yishun.CommercialCount)
	assert.Equal(t, DensityCommercial, yishun.DensityClass)

	// Regions with zero matches still get a profile.
	pioneer := profiles[2]
	assert.Equal(t, "PIONEER", pioneer.Region)
	assert.Equal(t, 0, pioneer.GreenCount)
	assert.Equal(t, 0.0, pioneer.GreenRatio)
	assert.Equal(t, DensityUnknown, pioneer.DensityClass)
}

func TestProfileSkipsBadItems(t *testing.T) {
	resolver := stubResolver{{1.30, 103.80}: "BEDOK"}
	counter := NewThemeCounter(testBuckets(), discardLogger())

	items := []ThemeItem{
		{Category: "hotels", LatLng: "1.30,103.80"},      // counted
		{Category: "hotels", LatLng: ""},                 // metadata head row
		{Category: "hotels", LatLng: "not-a-coordinate"}, // no comma
		{Category: "hotels", LatLng: "1.30,abc"},         // bad longitude
		{Category: "hotels", LatLng: "9.99,99.99"},       // resolves nowhere
		{Category: "museums", LatLng: "1.30,103.80"},     // unmapped category
	}

	profiles := counter.Profile(items, resolver, []string{"BEDOK"})
	require.Len(t, profiles, 1)
	assert.Equal(t, 1, profiles[0].CommercialCount)
	assert.Equal(t, 0, profiles[0].GreenCount)
	assert.Equal(t, 0, profiles[0].ResidentialCount)
}

func TestProfileZeroGreenEverywhere(t *testing.T) {
	counter := NewThemeCounter(testBuckets(), discardLogger())

	profiles := counter.Profile(nil, stubResolver{}, []string{"A", "B"})
	require.Len(t, profiles, 2)
	for _, p := range profiles {
		assert.Equal(t, 0.0, p.GreenRatio) // max green of zero never divides
		assert.Equal(t, DensityUnknown, p.DensityClass)
	}
}

func TestClassifyDensity(t *testing.T) {
	tests := []struct {
		commercial  int
		residential int
		expected    DensityClass
	}{
		{0, 0, DensityUnknown},
		{7, 3, DensityCommercial},  // share 0.7
		{3, 7, DensityResidential}, // share 0.3
		{5, 5, DensityMixed},       // share 0.5
		{6, 4, DensityMixed},       // share 0.6 boundary stays Mixed
		{4, 6, DensityMixed},       // share 0.4 boundary stays Mixed
		{1, 0, DensityCommercial},
		{0, 1, DensityResidential},
	}

	for _, tc := range tests {
		name := fmt.Sprintf("c=%d r=%d", tc.commercial, tc.residential)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, classifyDensity(tc.commercial, tc.residential))
		})
	}
}

func TestParseLatLng(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"plain pair", "1.3521,103.8198", 1.3521, 103.8198, false},
		{"spaces around parts", " 1.35 , 103.82 ", 1.35, 103.82, false},
		{"empty", "", 0, 0, true},
		{"no comma", "1.35 103.82", 0, 0, true},
		{"bad latitude", "x,103.82", 0, 0, true},
		{"bad longitude", "1.35,y", 0, 0, true},
		{"trailing junk", "1.35,103.82,extra", 0, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lat, lon, err := parseLatLng(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.lat, lat)
			assert.Equal(t, tc.lon, lon)
		})
	}
}
