// Command genmock generates a synthetic Singapore dataset for offline runs
// and test fixtures: a grid of planning-area polygons, weather stations with
// temperature readings, and theme occurrences for every configured category.
// Output is deterministic for a given seed.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/singapore.json -regions 16 -stations 10
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/cinderbloom/heatrisk/internal/adapter/fixture"
	"github.com/cinderbloom/heatrisk/internal/domain"
)

// Bounding box covering mainland Singapore.
const (
	minLon = 103.60
	maxLon = 104.05
	minLat = 1.20
	maxLat = 1.48
)

// Mirrors the default THEMES_* configuration.
var themeBuckets = domain.ThemeBuckets{
	Green:       []string{"nationalparks", "nparks_parks"},
	Commercial:  []string{"hotels"},
	Residential: []string{"kindergartens", "ssot_hawkercentres"},
}

// Real planning-area names, used before falling back to generated ones.
var areaNames = []string{
	"BEDOK", "TAMPINES", "JURONG EAST", "WOODLANDS", "PUNGGOL",
	"QUEENSTOWN", "TOA PAYOH", "ANG MO KIO", "CLEMENTI", "PASIR RIS",
	"YISHUN", "HOUGANG", "SENGKANG", "BUKIT MERAH", "BISHAN",
	"SERANGOON", "KALLANG", "GEYLANG", "MARINE PARADE", "NOVENA",
	"BUKIT TIMAH", "BUKIT BATOK", "CHOA CHU KANG", "SEMBAWANG",
	"PIONEER", "TUAS", "CHANGI", "ORCHARD", "NEWTON", "OUTRAM",
	"ROCHOR", "DOWNTOWN CORE", "MANDAI", "LIM CHU KANG", "SUNGEI KADUT",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock/singapore.json", "output path for the fixture")
	regions := flag.Int("regions", 16, "number of planning areas to generate")
	stations := flag.Int("stations", 10, "number of weather stations to generate")
	themes := flag.Int("themes", 40, "theme occurrences to generate per category")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if *regions < 1 {
		return fmt.Errorf("-regions must be at least 1")
	}

	rng := rand.New(rand.NewSource(*seed))
	grid := newGrid(*regions)

	ds := &fixture.Dataset{
		Boundaries: grid.boundaries(),
		Points:     genStations(rng, grid, *stations),
		Themes:     genThemes(rng, grid, *themes),
	}

	if err := fixture.Save(*out, ds); err != nil {
		return fmt.Errorf("save fixture: %w", err)
	}

	printSummary(ds, *out)
	return nil
}

// grid partitions the Singapore bounding box into equal rectangular cells,
// one per planning area.
type grid struct {
	cols, rows int
	n          int
	cellW      float64
	cellH      float64
}

func newGrid(n int) grid {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	return grid{
		cols:  cols,
		rows:  rows,
		n:     n,
		cellW: (maxLon - minLon) / float64(cols),
		cellH: (maxLat - minLat) / float64(rows),
	}
}

// cell returns the lon/lat rectangle of area i.
func (g grid) cell(i int) (lo, la, hi, ha float64) {
	col := i % g.cols
	row := i / g.cols
	lo = minLon + float64(col)*g.cellW
	la = minLat + float64(row)*g.cellH
	return lo, la, lo + g.cellW, la + g.cellH
}

// pointIn picks a uniform point inside area i, inset from the edges so
// containment never depends on boundary behavior.
func (g grid) pointIn(rng *rand.Rand, i int) (lon, lat float64) {
	lo, la, hi, ha := g.cell(i)
	inset := 0.05
	lon = lo + (inset+rng.Float64()*(1-2*inset))*(hi-lo)
	lat = la + (inset+rng.Float64()*(1-2*inset))*(ha-la)
	return lon, lat
}

func (g grid) name(i int) string {
	if i < len(areaNames) {
		return areaNames[i]
	}
	return fmt.Sprintf("ZONE %02d", i+1)
}

func (g grid) boundaries() []domain.RegionBoundary {
	out := make([]domain.RegionBoundary, 0, g.n)
	for i := 0; i < g.n; i++ {
		lo, la, hi, ha := g.cell(i)
		geom, err := geojson.NewGeometry(orb.Polygon{{
			{lo, la}, {hi, la}, {hi, ha}, {lo, ha}, {lo, la},
		}}).MarshalJSON()
		if err != nil {
			// Rectangles always marshal; a failure here is a bug.
			panic(err)
		}
		out = append(out, domain.RegionBoundary{Name: g.name(i), Geometry: geom})
	}
	return out
}

// genStations scatters stations over the first regions so some areas stay
// uncovered and exercise the inference branch downstream.
func genStations(rng *rand.Rand, g grid, n int) []domain.Point {
	out := make([]domain.Point, 0, n)
	for i := 0; i < n; i++ {
		region := rng.Intn(g.n)
		lon, lat := g.pointIn(rng, region)
		temp := math.Round((27.5+rng.Float64()*4)*10) / 10
		out = append(out, domain.Point{
			Lat:   lat,
			Lon:   lon,
			Value: temp,
			Label: fmt.Sprintf("S%d", 100+i),
		})
	}
	return out
}

// genThemes emits n occurrences per category plus the metadata head row the
// live theme API prepends to every result set.
func genThemes(rng *rand.Rand, g grid, n int) []domain.ThemeItem {
	categories := themeBuckets.All()
	out := make([]domain.ThemeItem, 0, len(categories)*(n+1))
	for _, cat := range categories {
		out = append(out, domain.ThemeItem{Category: cat, LatLng: ""})
		for i := 0; i < n; i++ {
			lon, lat := g.pointIn(rng, rng.Intn(g.n))
			out = append(out, domain.ThemeItem{
				Category: cat,
				LatLng:   fmt.Sprintf("%.5f,%.5f", lat, lon),
			})
		}
	}
	return out
}

func printSummary(ds *fixture.Dataset, path string) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range ds.Points {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}

	perCategory := map[string]int{}
	for _, item := range ds.Themes {
		if item.LatLng != "" {
			perCategory[item.Category]++
		}
	}

	fmt.Println("=== fixture summary ===")
	fmt.Printf("regions: %d\n", len(ds.Boundaries))
	if len(ds.Points) > 0 {
		fmt.Printf("stations: %d (temps %.1f..%.1f)\n", len(ds.Points), lo, hi)
	} else {
		fmt.Println("stations: 0")
	}
	for _, cat := range themeBuckets.All() {
		fmt.Printf("theme %s: %d\n", cat, perCategory[cat])
	}
	fmt.Printf("wrote %s\n", path)
}
