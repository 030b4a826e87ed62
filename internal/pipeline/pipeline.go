// Package pipeline orchestrates one fetch-aggregate-evaluate cycle over the
// configured data sources and caches the resulting snapshot.
package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cinderbloom/heatrisk/internal/domain"
	"github.com/cinderbloom/heatrisk/internal/observability"
)

// RegionSource fetches the planning-area boundaries.
type RegionSource interface {
	Boundaries(ctx context.Context) ([]domain.RegionBoundary, error)
}

// WeatherSource fetches the current georeferenced temperature readings.
type WeatherSource interface {
	TemperaturePoints(ctx context.Context) ([]domain.Point, error)
}

// ThemeSource fetches amenity locations for the given theme categories.
type ThemeSource interface {
	ThemeItems(ctx context.Context, categories []string) ([]domain.ThemeItem, error)
}

// AlertSink publishes triggered findings to an external system.
type AlertSink interface {
	PublishAlerts(ctx context.Context, generatedAt time.Time, findings []domain.Finding) error
}

// Snapshot is one complete evaluation of the monitored regions.
type Snapshot struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Records     []domain.FusedRecord `json:"records"`
	Findings    []domain.Finding     `json:"findings"`
}

// Options bundles the dependencies for New. Alerts is optional; every other
// field is required.
type Options struct {
	Regions    RegionSource
	Weather    WeatherSource
	Themes     ThemeSource
	Alerts     AlertSink
	Buckets    domain.ThemeBuckets
	Thresholds domain.Thresholds
	Logger     *slog.Logger
	Metrics    *observability.Metrics
}

// Pipeline runs the refresh cycle and holds the latest snapshot. Boundaries
// are fetched once and cached in the region index for the process lifetime;
// weather and theme data are refetched every cycle.
type Pipeline struct {
	regions    RegionSource
	weather    WeatherSource
	themes     ThemeSource
	alerts     AlertSink
	buckets    domain.ThemeBuckets
	thresholds domain.Thresholds
	logger     *slog.Logger
	metrics    *observability.Metrics

	index      *domain.RegionIndex
	aggregator *domain.PointAggregator
	counter    *domain.ThemeCounter

	loadMu sync.Mutex // serializes the one-shot region load

	snapMu sync.RWMutex
	latest *Snapshot
}

// New creates a Pipeline from the given sources and observability.
func New(opts Options) *Pipeline {
	return &Pipeline{
		regions:    opts.Regions,
		weather:    opts.Weather,
		themes:     opts.Themes,
		alerts:     opts.Alerts,
		buckets:    opts.Buckets,
		thresholds: opts.Thresholds,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		index:      domain.NewRegionIndex(opts.Logger),
		aggregator: domain.NewPointAggregator(opts.Logger),
		counter:    domain.NewThemeCounter(opts.Buckets, opts.Logger),
	}
}

// Refresh runs one full cycle: ensure boundaries are loaded, fetch the live
// inputs, aggregate, fuse, evaluate, and publish alerts. A failed region load
// is the only fatal error; failed weather or theme fetches degrade the cycle
// (the rule engine falls back to inference) and alert publish failures are
// logged and counted but never fail the refresh.
func (p *Pipeline) Refresh(ctx context.Context) (Snapshot, error) {
	start := time.Now()

	if err := p.ensureRegions(ctx); err != nil {
		p.metrics.RefreshTotal.WithLabelValues("error").Inc()
		return Snapshot{}, fmt.Errorf("load regions: %w", err)
	}

	points := p.fetchPoints(ctx)
	items := p.fetchThemes(ctx)

	stats := p.aggregator.Aggregate(points, p.index)
	profiles := p.counter.Profile(items, p.index, p.index.Names())
	records := domain.Fuse(stats, profiles)
	findings := domain.NewRuleEngine(records, p.thresholds).EvaluateAll()

	snap := Snapshot{
		GeneratedAt: domain.Now().UTC(),
		Records:     records,
		Findings:    findings,
	}

	p.snapMu.Lock()
	p.latest = &snap
	p.snapMu.Unlock()

	p.observeRefresh(start, len(points), stats, findings)
	p.publishAlerts(ctx, snap.GeneratedAt, findings)

	p.logger.Info("refresh complete",
		"regions", p.index.Len(),
		"points", len(points),
		"theme_items", len(items),
		"records", len(records),
		"duration", time.Since(start))
	return snap, nil
}

// Latest returns the most recent snapshot, or false before the first
// successful refresh.
func (p *Pipeline) Latest() (Snapshot, bool) {
	p.snapMu.RLock()
	defer p.snapMu.RUnlock()
	if p.latest == nil {
		return Snapshot{}, false
	}
	return *p.latest, true
}

// CheckReadiness returns nil once at least one snapshot has been produced, or
// an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if _, ok := p.Latest(); !ok {
		return errors.New("no snapshot produced yet")
	}
	return nil
}

// EvaluateRegion scores one region against the latest snapshot's fused table.
// ok is false before the first snapshot exists. Unknown regions yield a
// NOT_FOUND finding, not an error.
func (p *Pipeline) EvaluateRegion(region string) (domain.Finding, bool) {
	snap, ok := p.Latest()
	if !ok {
		return domain.Finding{}, false
	}
	return domain.NewRuleEngine(snap.Records, p.thresholds).Evaluate(region), true
}

// ensureRegions performs the guarded one-shot boundary load. Concurrent first
// callers serialize on loadMu; once the index holds polygons, later refreshes
// skip the fetch entirely.
func (p *Pipeline) ensureRegions(ctx context.Context) error {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	if p.index.Len() > 0 {
		return nil
	}

	boundaries, err := p.regions.Boundaries(ctx)
	if err != nil {
		return err
	}

	n := p.index.Load(boundaries)
	p.metrics.RegionsLoaded.Set(float64(n))
	p.logger.Info("planning areas loaded", "count", n, "fetched", len(boundaries))
	return nil
}

func (p *Pipeline) fetchPoints(ctx context.Context) []domain.Point {
	points, err := p.weather.TemperaturePoints(ctx)
	if err != nil {
		p.logger.Warn("temperature fetch failed, continuing without measurements", "error", err)
		return nil
	}
	return points
}

func (p *Pipeline) fetchThemes(ctx context.Context) []domain.ThemeItem {
	items, err := p.themes.ThemeItems(ctx, p.buckets.All())
	if err != nil {
		p.logger.Warn("theme fetch failed, continuing without amenity context", "error", err)
		return nil
	}
	return items
}

func (p *Pipeline) observeRefresh(start time.Time, fetched int, stats []domain.RegionStat, findings []domain.Finding) {
	resolved := 0
	for _, s := range stats {
		resolved += s.Count
	}
	p.metrics.PointsDropped.Add(float64(fetched - resolved))

	counts := make(map[domain.Priority]int, 6)
	triggered := 0
	for _, f := range findings {
		counts[f.Priority]++
		if f.Triggered {
			triggered++
		}
	}
	for _, pr := range []domain.Priority{
		domain.PriorityCritical, domain.PriorityHigh, domain.PriorityMedium,
		domain.PriorityLow, domain.PriorityNormal, domain.PriorityNotFound,
	} {
		p.metrics.FindingsByPriority.WithLabelValues(string(pr)).Set(float64(counts[pr]))
	}
	p.metrics.TriggeredFindings.Set(float64(triggered))

	p.metrics.RefreshTotal.WithLabelValues("success").Inc()
	p.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	p.metrics.LastRefreshTime.Set(float64(domain.Now().UTC().Unix()))
}

func (p *Pipeline) publishAlerts(ctx context.Context, generatedAt time.Time, findings []domain.Finding) {
	if p.alerts == nil {
		return
	}

	triggered := make([]domain.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Triggered {
			triggered = append(triggered, f)
		}
	}
	if len(triggered) == 0 {
		return
	}

	if err := p.alerts.PublishAlerts(ctx, generatedAt, triggered); err != nil {
		p.metrics.AlertPublishErrors.Inc()
		p.logger.Error("alert publish failed", "error", err, "alerts", len(triggered))
		return
	}
	p.metrics.AlertsPublished.Add(float64(len(triggered)))
}

// WriteCSV encodes fused records as CSV with the header
// region,avg_temperature,green_ratio,density_class. An absent temperature is
// an empty field, never zero.
func WriteCSV(w io.Writer, records []domain.FusedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"region", "avg_temperature", "green_ratio", "density_class"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		temp := ""
		if rec.AvgTemperature != nil {
			temp = strconv.FormatFloat(*rec.AvgTemperature, 'f', -1, 64)
		}
		row := []string{
			rec.Region,
			temp,
			strconv.FormatFloat(rec.GreenRatio, 'f', -1, 64),
			string(rec.DensityClass),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
