// Command validate checks the resolved service configuration and, with
// -fixture, the integrity of a saved dataset: boundary parse coverage,
// station containment, theme coordinate validity, and evaluation invariants.
//
// Usage:
//
//	go run ./cmd/validate
//	go run ./cmd/validate -fixture data/mock/singapore.json
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cinderbloom/heatrisk/internal/adapter/fixture"
	"github.com/cinderbloom/heatrisk/internal/config"
	"github.com/cinderbloom/heatrisk/internal/domain"
)

// Plausible air-temperature bounds for Singapore, °C.
const (
	tempFloor   = 20.0
	tempCeiling = 40.0
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	fixturePath := flag.String("fixture", "", "also validate a saved fixture dataset")
	flag.Parse()

	// .env is optional; real deployments use process env.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config invalid: %v\n", err)
		os.Exit(1)
	}

	printConfig(cfg)

	if *fixturePath == "" {
		fmt.Println("\nConfiguration OK.")
		return
	}

	if code := run(cfg, *fixturePath); code != 0 {
		os.Exit(code)
	}
}

func printConfig(cfg *config.Config) {
	fmt.Println("=== Resolved configuration ===")
	fmt.Printf("  %-22s %s\n", "HTTP_ADDR", cfg.HTTPAddr)
	fmt.Printf("  %-22s %s/%s\n", "LOG_LEVEL/FORMAT", cfg.LogLevel, cfg.LogFormat)
	fmt.Printf("  %-22s %s\n", "REFRESH_INTERVAL", cfg.RefreshInterval)
	fmt.Printf("  %-22s %s\n", "FETCH_TIMEOUT", cfg.FetchTimeout)
	fmt.Printf("  %-22s %s\n", "DATAGOV_BASE_URL", cfg.DataGovBaseURL)
	fmt.Printf("  %-22s %s\n", "ONEMAP_BASE_URL", cfg.OneMapBaseURL)
	fmt.Printf("  %-22s %s\n", "ONEMAP_TOKEN", setOrEmpty(cfg.OneMapToken))
	fmt.Printf("  %-22s %s\n", "ONEMAP_YEAR", cfg.OneMapYear)
	fmt.Printf("  %-22s %s\n", "THEMES_GREEN", strings.Join(cfg.ThemesGreen, ","))
	fmt.Printf("  %-22s %s\n", "THEMES_COMMERCIAL", strings.Join(cfg.ThemesCommercial, ","))
	fmt.Printf("  %-22s %s\n", "THEMES_RESIDENTIAL", strings.Join(cfg.ThemesResidential, ","))
	fmt.Printf("  %-22s high=%.1f critical=%.1f\n", "RULE_TEMP", cfg.RuleTempHigh, cfg.RuleTempCritical)
	fmt.Printf("  %-22s low=%.2f critical=%.2f\n", "RULE_GREEN", cfg.RuleGreenLow, cfg.RuleGreenCritical)
	fmt.Printf("  %-22s %v\n", "KAFKA_ALERTS_ENABLED", cfg.KafkaAlertsEnabled)
	if cfg.KafkaAlertsEnabled {
		fmt.Printf("  %-22s %s -> %s\n", "KAFKA", strings.Join(cfg.KafkaBrokers, ","), cfg.KafkaAlertsTopic)
	}
	fmt.Printf("  %-22s %v\n", "GEMINI_ENABLED", cfg.GeminiEnabled)
	if cfg.GeminiEnabled {
		fmt.Printf("  %-22s %s (key %s)\n", "GEMINI_MODEL", cfg.GeminiModel, setOrEmpty(cfg.GeminiAPIKey))
	}
}

func setOrEmpty(s string) string {
	if s == "" {
		return "(empty)"
	}
	return "(set)"
}

func run(cfg *config.Config, fixturePath string) int {
	fmt.Println("\n=== Fixture Integrity Validation ===")
	fmt.Println()

	ds, err := fixture.Load(fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	// Validation output stays readable without the index's per-item logs.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	idx := domain.NewRegionIndex(logger)
	loaded := idx.Load(ds.Boundaries)

	phases := []*phase{
		validateBoundaries(ds, loaded),
		validateStations(ds, idx),
		validateThemes(ds, cfg),
		validateEvaluation(ds, cfg, idx.Len(), logger),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	metadata := 0
	for _, item := range ds.Themes {
		if item.LatLng == "" {
			metadata++
		}
	}
	fmt.Println()
	fmt.Printf("Dataset: %d boundaries, %d stations, %d theme rows (%d metadata)\n",
		len(ds.Boundaries), len(ds.Points), len(ds.Themes), metadata)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Boundaries ──
// Every boundary must carry a name and parseable geometry, and names must be
// unique.

func validateBoundaries(ds *fixture.Dataset, loaded int) *phase {
	p := &phase{name: "Phase 1: Boundaries (names, geometry)"}

	if loaded != len(ds.Boundaries) {
		p.errorf("index loaded %d of %d boundaries; the rest were skipped as unparseable or unnamed", loaded, len(ds.Boundaries))
	}

	seen := map[string]int{}
	for i, b := range ds.Boundaries {
		if b.Name == "" {
			p.errorf("boundary %d: empty name", i)
		}
		if len(b.Geometry) == 0 {
			p.errorf("boundary %d (%s): empty geometry", i, b.Name)
		}
		seen[b.Name]++
	}
	for name, n := range seen {
		if n > 1 {
			p.errorf("duplicate boundary name %q (%d occurrences)", name, n)
		}
	}
	return p
}

// ── Phase 2: Stations ──
// Every station must carry a label, resolve into a known region, and report
// a plausible temperature.

func validateStations(ds *fixture.Dataset, idx *domain.RegionIndex) *phase {
	p := &phase{name: "Phase 2: Stations (containment, range)"}

	for i, pt := range ds.Points {
		if pt.Label == "" {
			p.errorf("station %d: empty label", i)
		}
		if _, ok := idx.Resolve(pt.Lat, pt.Lon); !ok {
			p.errorf("station %d (%s): (%.5f, %.5f) resolves to no region", i, pt.Label, pt.Lat, pt.Lon)
		}
		if pt.Value < tempFloor || pt.Value > tempCeiling {
			p.errorf("station %d (%s): temperature %.1f outside %.0f..%.0f", i, pt.Label, pt.Value, tempFloor, tempCeiling)
		}
	}
	return p
}

// ── Phase 3: Themes ──
// Every theme row must belong to a configured category; non-metadata rows
// must parse as "lat,lon" within coordinate bounds.

func validateThemes(ds *fixture.Dataset, cfg *config.Config) *phase {
	p := &phase{name: "Phase 3: Themes (categories, coordinates)"}

	buckets := themeBuckets(cfg)
	known := map[string]bool{}
	for _, cat := range buckets.All() {
		known[cat] = true
	}

	for i, item := range ds.Themes {
		if !known[item.Category] {
			p.errorf("theme %d: category %q not in configured buckets", i, item.Category)
		}
		if item.LatLng == "" {
			continue // metadata head row
		}

		var lat, lon float64
		if _, err := fmt.Sscanf(item.LatLng, "%f,%f", &lat, &lon); err != nil {
			p.errorf("theme %d (%s): LatLng %q does not parse as lat,lon", i, item.Category, item.LatLng)
			continue
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			p.errorf("theme %d (%s): coordinates (%.5f, %.5f) out of range", i, item.Category, lat, lon)
		}
	}
	return p
}

// ── Phase 4: Evaluation ──
// Running the full evaluation twice over the same dataset must produce
// identical findings, one per region, triggered iff the priority is
// non-NORMAL, sorted by priority.

func validateEvaluation(ds *fixture.Dataset, cfg *config.Config, regions int, logger *slog.Logger) *phase {
	p := &phase{name: "Phase 4: Evaluation (invariants)"}

	first := runEvaluation(ds, cfg, logger)
	second := runEvaluation(ds, cfg, logger)
	if !reflect.DeepEqual(first, second) {
		p.errorf("two evaluations over the same dataset produced different findings")
	}

	if len(first) != regions {
		p.errorf("expected one finding per region (%d), got %d", regions, len(first))
	}

	rank := map[domain.Priority]int{
		domain.PriorityCritical: 0,
		domain.PriorityHigh:     1,
		domain.PriorityMedium:   2,
		domain.PriorityLow:      3,
		domain.PriorityNormal:   4,
	}

	seen := map[string]bool{}
	for i, f := range first {
		if seen[f.Region] {
			p.errorf("duplicate finding for region %q", f.Region)
		}
		seen[f.Region] = true

		if f.Priority == domain.PriorityNotFound {
			p.errorf("%s: NOT_FOUND finding for a region in the dataset", f.Region)
			continue
		}
		if f.Triggered == (f.Priority == domain.PriorityNormal) {
			p.errorf("%s: triggered=%v inconsistent with priority %s", f.Region, f.Triggered, f.Priority)
		}
		if i > 0 && rank[first[i-1].Priority] > rank[f.Priority] {
			p.errorf("findings not sorted by priority at index %d (%s after %s)", i, f.Priority, first[i-1].Priority)
		}
	}
	return p
}

func runEvaluation(ds *fixture.Dataset, cfg *config.Config, logger *slog.Logger) []domain.Finding {
	idx := domain.NewRegionIndex(logger)
	idx.Load(ds.Boundaries)

	stats := domain.NewPointAggregator(logger).Aggregate(ds.Points, idx)
	profiles := domain.NewThemeCounter(themeBuckets(cfg), logger).Profile(ds.Themes, idx, idx.Names())
	records := domain.Fuse(stats, profiles)

	th := domain.Thresholds{
		TempHigh:      cfg.RuleTempHigh,
		TempCritical:  cfg.RuleTempCritical,
		GreenLow:      cfg.RuleGreenLow,
		GreenCritical: cfg.RuleGreenCritical,
	}
	return domain.NewRuleEngine(records, th).EvaluateAll()
}

func themeBuckets(cfg *config.Config) domain.ThemeBuckets {
	return domain.ThemeBuckets{
		Green:       cfg.ThemesGreen,
		Commercial:  cfg.ThemesCommercial,
		Residential: cfg.ThemesResidential,
	}
}
