// Command genmock writes reproducible groundwater fixtures from the mock
// generators: a DWLR CSV upload, the raw samples and series as JSON, and the
// analysis results the pipeline produces for them. It runs the real analysis
// package so the expected outputs always match current pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -seed 2024 -days 30
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/aquawatch/groundwater-etl/internal/analysis"
	"github.com/aquawatch/groundwater-etl/internal/domain"
	"github.com/aquawatch/groundwater-etl/internal/mockfeed"
	"github.com/aquawatch/groundwater-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Fixture file names shared with cmd/validate.
const (
	readingsCSV     = "dwlr_readings.csv"
	samplesJSON     = "samples.json"
	seriesJSON      = "series.json"
	assessmentsJSON = "assessments.json"
	analysesJSON    = "analyses.json"
)

var fixtureTime = time.Date(2024, time.August, 1, 6, 0, 0, 0, time.UTC)

var csvHeader = []string{"timestamp", "station_id", "water_level", "rainfall", "temperature", "latitude", "longitude"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for fixtures")
	seed := flag.Uint64("seed", 2024, "generator seed")
	days := flag.Int("days", 30, "days of readings per district")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	// Fixed clock for reproducible dates and ProcessedAt timestamps.
	clock := clockwork.NewFakeClockAt(fixtureTime)
	domain.SetClock(clock)
	defer domain.SetClock(nil)

	gen := mockfeed.NewGenerator(*seed, clock)
	samples := gen.Samples()
	series := make([]domain.Series, 0, len(mockfeed.Districts))
	for _, d := range mockfeed.Districts {
		series = append(series, gen.DistrictSeries(d, *days))
	}
	log.Printf("generated %d samples, %d series", len(samples), len(series))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	analyzer := analysis.New(analysis.DefaultSettings(), mockfeed.StateStations(), nil, logger, observability.NewMetricsForTesting())

	assessments := make([]analysis.SampleAssessment, 0, len(samples))
	for _, s := range samples {
		res, err := analyzer.AssessSample(s)
		if err != nil {
			return fmt.Errorf("assess %s: %w", s.StationCode, err)
		}
		assessments = append(assessments, res)
	}

	analyses := make([]analysis.SeriesAnalysis, 0, len(series))
	for _, s := range series {
		res, err := analyzer.AnalyzeSeries(context.Background(), s)
		if err != nil {
			return fmt.Errorf("analyze %s: %w", s.StationID, err)
		}
		analyses = append(analyses, res)
	}

	if err := writeCSV(filepath.Join(*outDir, readingsCSV), series); err != nil {
		return fmt.Errorf("writing readings CSV: %w", err)
	}
	fixtures := []struct {
		name string
		v    any
	}{
		{samplesJSON, samples},
		{seriesJSON, series},
		{assessmentsJSON, assessments},
		{analysesJSON, analyses},
	}
	for _, f := range fixtures {
		path := filepath.Join(*outDir, f.name)
		if err := writeJSON(path, f.v); err != nil {
			return fmt.Errorf("writing %s: %w", f.name, err)
		}
		log.Printf("wrote fixture: %s", path)
	}

	printStats(assessments, analyses)
	return nil
}

func writeCSV(path string, series []domain.Series) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range series {
		for _, r := range s.Readings {
			row := []string{
				r.Timestamp.Format(domain.DayLayout),
				r.StationID,
				formatFloat(&r.WaterLevel),
				formatFloat(r.Rainfall),
				formatFloat(r.Temperature),
				formatFloat(r.Latitude),
				formatFloat(r.Longitude),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

type labelCount struct {
	label string
	count int
}

func sortedCounts(m map[string]int) []labelCount {
	out := make([]labelCount, 0, len(m))
	for k, v := range m {
		out = append(out, labelCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].label < out[j].label
	})
	return out
}

func printStats(assessments []analysis.SampleAssessment, analyses []analysis.SeriesAnalysis) {
	bands := map[string]int{}
	var safe int
	for _, a := range assessments {
		bands[string(a.Band)]++
		if a.Safe {
			safe++
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Samples: %d (safe=%d)\n", len(assessments), safe)
	fmt.Print("By band:")
	for _, b := range sortedCounts(bands) {
		fmt.Printf(" %s=%d", b.label, b.count)
	}
	fmt.Println()

	fmt.Printf("\nSeries: %d\n", len(analyses))
	for _, a := range analyses {
		nearest := "-"
		if a.NearestStation != nil {
			nearest = fmt.Sprintf("%s (%.1f km)", a.NearestStation.Station.Code, a.NearestStation.DistanceKm)
		}
		fmt.Printf("  %-18s status=%-8s avg=%.2f total_recharge=%.3f alerts=%d nearest=%s\n",
			a.StationID, a.Summary.Status, a.Summary.AverageLevel, a.TotalRecharge, len(a.Alerts), nearest)
	}
}
