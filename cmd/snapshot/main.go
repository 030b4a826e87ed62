// Command snapshot runs one evaluation cycle and prints a heat-risk report.
// It fetches live data by default; -fixture evaluates a saved dataset
// offline instead.
//
// Usage:
//
//	go run ./cmd/snapshot -fixture data/mock/singapore.json -csv unified_dataset.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/cinderbloom/heatrisk/internal/adapter/datagov"
	"github.com/cinderbloom/heatrisk/internal/adapter/fixture"
	"github.com/cinderbloom/heatrisk/internal/adapter/onemap"
	"github.com/cinderbloom/heatrisk/internal/config"
	"github.com/cinderbloom/heatrisk/internal/domain"
	"github.com/cinderbloom/heatrisk/internal/observability"
	"github.com/cinderbloom/heatrisk/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	fixturePath := flag.String("fixture", "", "evaluate a saved dataset instead of fetching live data")
	csvOut := flag.String("csv", "", "write the fused dataset to this CSV file")
	triggeredOnly := flag.Bool("triggered", false, "only list triggered findings")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall fetch and evaluation timeout")
	flag.Parse()

	// .env is optional; real deployments use process env.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	opts := pipeline.Options{
		Buckets: domain.ThemeBuckets{
			Green:       cfg.ThemesGreen,
			Commercial:  cfg.ThemesCommercial,
			Residential: cfg.ThemesResidential,
		},
		Thresholds: domain.Thresholds{
			TempHigh:      cfg.RuleTempHigh,
			TempCritical:  cfg.RuleTempCritical,
			GreenLow:      cfg.RuleGreenLow,
			GreenCritical: cfg.RuleGreenCritical,
		},
		Logger:  logger,
		Metrics: metrics,
	}

	if *fixturePath != "" {
		ds, err := fixture.Load(*fixturePath)
		if err != nil {
			return err
		}
		src := fixture.NewSource(ds)
		opts.Regions, opts.Weather, opts.Themes = src, src, src
	} else {
		onemapClient := onemap.NewClient(cfg.OneMapBaseURL, cfg.OneMapToken, cfg.OneMapYear, cfg.FetchTimeout, logger)
		opts.Regions = onemapClient
		opts.Themes = onemapClient
		opts.Weather = datagov.NewClient(cfg.DataGovBaseURL, cfg.FetchTimeout, logger)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	snap, err := pipeline.New(opts).Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	printReport(os.Stdout, snap, *triggeredOnly)

	if *csvOut != "" {
		f, err := os.Create(*csvOut)
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		if err := pipeline.WriteCSV(f, snap.Records); err != nil {
			f.Close()
			return fmt.Errorf("write csv: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("wrote %d records to %s", len(snap.Records), *csvOut)
	}
	return nil
}

var reportOrder = []domain.Priority{
	domain.PriorityCritical,
	domain.PriorityHigh,
	domain.PriorityMedium,
	domain.PriorityLow,
	domain.PriorityNormal,
}

func printReport(w io.Writer, snap pipeline.Snapshot, triggeredOnly bool) {
	var measured, inferred, triggered int
	for _, f := range snap.Findings {
		switch f.Source {
		case domain.SourceMeasurement:
			measured++
		case domain.SourceInference:
			inferred++
		}
		if f.Triggered {
			triggered++
		}
	}

	fmt.Fprintf(w, "=== Heat-risk report (%s) ===\n", snap.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Regions: %d (%d measured, %d inferred)\n", len(snap.Findings), measured, inferred)
	fmt.Fprintf(w, "Triggered: %d\n", triggered)

	for _, pri := range reportOrder {
		var group []domain.Finding
		for _, f := range snap.Findings {
			if f.Priority != pri {
				continue
			}
			if triggeredOnly && !f.Triggered {
				continue
			}
			group = append(group, f)
		}
		if len(group) == 0 {
			continue
		}

		fmt.Fprintf(w, "\n[%s] %d region(s):\n", pri, len(group))
		for _, f := range group {
			tag := ""
			if f.Source == domain.SourceInference {
				tag = " [inferred]"
			}
			fmt.Fprintf(w, "  %s: %s%s\n", f.Region, f.Reason, tag)
		}
	}

	fmt.Fprintf(w, "\n%d region(s) with normal conditions\n", len(snap.Findings)-triggered)
}
