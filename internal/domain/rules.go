package domain

import (
	"fmt"
	"sort"
)

// Thresholds holds the rule-engine cutoffs. Temperatures are °C, green values
// are ratios in [0,1].
type Thresholds struct {
	TempHigh      float64
	TempCritical  float64
	GreenLow      float64
	GreenCritical float64
}

// DefaultThresholds returns the operational cutoffs the rules were tuned
// with: 29.5°C elevated, 30.5°C critical, 0.2 low green cover, 0.1 minimal.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TempHigh:      29.5,
		TempCritical:  30.5,
		GreenLow:      0.2,
		GreenCritical: 0.1,
	}
}

// RuleEngine evaluates fused records against a tiered decision list. The
// engine caches the fused table at construction; each evaluation is a pure
// function of one record and the fixed thresholds.
type RuleEngine struct {
	records map[string]FusedRecord
	order   []string // fused input order, the tie-break for EvaluateAll
	th      Thresholds
}

// NewRuleEngine caches the fused table for evaluation. Duplicate region names
// keep the first record.
func NewRuleEngine(records []FusedRecord, th Thresholds) *RuleEngine {
	byRegion := make(map[string]FusedRecord, len(records))
	order := make([]string, 0, len(records))
	for _, r := range records {
		if _, ok := byRegion[r.Region]; ok {
			continue
		}
		byRegion[r.Region] = r
		order = append(order, r.Region)
	}
	return &RuleEngine{records: byRegion, order: order, th: th}
}

// Evaluate scores one region. A region absent from the fused table yields a
// NOT_FOUND finding, not an error. Records with a temperature go through the
// measurement branch; records without one fall back to the inference branch,
// which estimates risk from green cover and density alone.
func (e *RuleEngine) Evaluate(region string) Finding {
	rec, ok := e.records[region]
	if !ok {
		return Finding{
			Region:    region,
			Triggered: false,
			Priority:  PriorityNotFound,
			Reason:    fmt.Sprintf("Planning area '%s' not found.", region),
		}
	}

	if rec.AvgTemperature != nil {
		return e.evaluateMeasurement(rec)
	}
	return e.inferFromContext(rec)
}

// evaluateMeasurement is the primary branch: an ordered decision list where
// the first matching rule wins.
func (e *RuleEngine) evaluateMeasurement(rec FusedRecord) Finding {
	t := *rec.AvgTemperature
	g := rec.GreenRatio
	d := rec.DensityClass

	f := Finding{Region: rec.Region, Source: SourceMeasurement}

	switch {
	case t >= e.th.TempCritical && g < e.th.GreenCritical && d == DensityCommercial:
		f.Priority = PriorityCritical
		f.Triggered = true
		f.Reason = fmt.Sprintf("CRITICAL: Extreme heat (%.1f°C) in commercial zone with minimal green coverage (%.0f%%)", t, g*100)
	case t >= e.th.TempHigh && g < e.th.GreenLow:
		f.Priority = PriorityHigh
		f.Triggered = true
		f.Reason = fmt.Sprintf("HIGH: Elevated temperature (%.1f°C) with low green ratio (%.0f%%)", t, g*100)
	case t >= e.th.TempCritical:
		f.Priority = PriorityHigh
		f.Triggered = true
		f.Reason = fmt.Sprintf("HIGH: Critical temperature threshold exceeded (%.1f°C)", t)
	case t >= e.th.TempHigh && d == DensityCommercial && g < e.th.GreenCritical:
		f.Priority = PriorityMedium
		f.Triggered = true
		f.Reason = "MEDIUM: Elevated heat in commercial area with minimal greenery"
	case t >= e.th.TempHigh && d == DensityResidential && g < e.th.GreenLow:
		f.Priority = PriorityMedium
		f.Triggered = true
		f.Reason = fmt.Sprintf("MEDIUM: Potential heat island in residential area (%.1f°C, %.0f%% green)", t, g*100)
	default:
		f.Priority = PriorityNormal
		f.Triggered = false
		f.Reason = fmt.Sprintf("Normal conditions (%.1f°C, %.0f%% green, %s)", t, g*100, d)
	}

	return f
}

// inferFromContext is the fallback branch for regions without a temperature
// reading: risk is inferred from green cover and density alone, capped below
// the measurement branch's certainty (no CRITICAL or HIGH here).
func (e *RuleEngine) inferFromContext(rec FusedRecord) Finding {
	g := rec.GreenRatio
	d := rec.DensityClass

	f := Finding{Region: rec.Region, Source: SourceInference}

	switch {
	case d == DensityCommercial && g < e.th.GreenCritical:
		f.Priority = PriorityMedium
		f.Triggered = true
		f.Reason = fmt.Sprintf("INFERRED: Commercial zone with minimal green coverage (%.0f%%) - likely heat-prone", g*100)
	case g < e.th.GreenCritical:
		f.Priority = PriorityMedium
		f.Triggered = true
		f.Reason = fmt.Sprintf("INFERRED: Very low green coverage (%.0f%%) suggests heat island risk", g*100)
	case d == DensityResidential && g < e.th.GreenLow:
		f.Priority = PriorityLow
		f.Triggered = true
		f.Reason = fmt.Sprintf("INFERRED: Residential area with low green coverage (%.0f%%)", g*100)
	default:
		f.Priority = PriorityNormal
		f.Triggered = false
		f.Reason = fmt.Sprintf("INFERRED: Adequate green coverage (%.0f%%, %s)", g*100, d)
	}

	return f
}

// EvaluateAll scores every cached record and returns the findings sorted by
// priority rank (CRITICAL first, NOT_FOUND last), stable on ties so equal
// priorities keep the fused table order.
func (e *RuleEngine) EvaluateAll() []Finding {
	findings := make([]Finding, 0, len(e.order))
	for _, region := range e.order {
		findings = append(findings, e.Evaluate(region))
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Priority.rank() < findings[j].Priority.rank()
	})

	return findings
}

// Triggered filters EvaluateAll down to findings with Triggered set,
// preserving order.
func (e *RuleEngine) Triggered() []Finding {
	all := e.EvaluateAll()
	triggered := make([]Finding, 0, len(all))
	for _, f := range all {
		if f.Triggered {
			triggered = append(triggered, f)
		}
	}
	return triggered
}
