package domain

import (
	"log/slog"
	"math"
	"sort"
)

// PointAggregator groups measurement points by the region containing them and
// summarizes each group.
type PointAggregator struct {
	logger *slog.Logger
}

// NewPointAggregator returns an aggregator that logs dropped points to logger.
func NewPointAggregator(logger *slog.Logger) *PointAggregator {
	return &PointAggregator{logger: logger}
}

// Aggregate resolves every point to a region and produces one RegionStat per
// region that received at least one point. Points outside all known regions
// are dropped (logged at debug, never an error). AvgValue is the mean rounded
// to one decimal, MaxValue the unrounded maximum, Members the point labels in
// input order. Output is sorted by MaxValue descending; ties keep the
// first-encountered region order. Empty input yields an empty result.
func (a *PointAggregator) Aggregate(points []Point, resolver RegionResolver) []RegionStat {
	type acc struct {
		sum     float64
		max     float64
		count   int
		members []string
	}

	groups := make(map[string]*acc)
	var order []string

	for _, p := range points {
		name, ok := resolver.Resolve(p.Lat, p.Lon)
		if !ok {
			a.logger.Debug("point outside all known regions",
				"lat", p.Lat,
				"lon", p.Lon,
				"label", p.Label,
			)
			continue
		}

		g, seen := groups[name]
		if !seen {
			g = &acc{max: p.Value}
			groups[name] = g
			order = append(order, name)
		}
		g.sum += p.Value
		if p.Value > g.max {
			g.max = p.Value
		}
		g.count++
		g.members = append(g.members, p.Label)
	}

	stats := make([]RegionStat, 0, len(order))
	for _, name := range order {
		g := groups[name]
		stats = append(stats, RegionStat{
			Region:   name,
			AvgValue: round1(g.sum / float64(g.count)),
			MaxValue: g.max,
			Count:    g.count,
			Members:  g.members,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].MaxValue > stats[j].MaxValue
	})

	return stats
}

// round1 rounds to one decimal place, half away from zero.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 rounds to two decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
