// Command validate checks a fixture directory written by cmd/genmock against
// the current analysis code. It verifies that the DWLR CSV matches the raw
// series, that re-running the analyses reproduces the stored results, and
// that every result satisfies the metric invariants.
//
// Usage:
//
//	go run ./cmd/validate -dir data/mock
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/aquawatch/groundwater-etl/internal/analysis"
	"github.com/aquawatch/groundwater-etl/internal/domain"
	"github.com/aquawatch/groundwater-etl/internal/ingest"
	"github.com/aquawatch/groundwater-etl/internal/mockfeed"
	"github.com/aquawatch/groundwater-etl/internal/observability"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
)

const tolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type fixtures struct {
	readings    []domain.WaterLevelReading
	samples     []domain.WaterSample
	series      []domain.Series
	assessments []analysis.SampleAssessment
	analyses    []analysis.SeriesAnalysis
}

func main() {
	dir := flag.String("dir", "", "fixture directory written by genmock")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dir); code != 0 {
		os.Exit(code)
	}
}

func run(dir string) int {
	fmt.Println("=== Groundwater Fixture Validation ===")
	fmt.Println()

	fx, err := loadFixtures(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	// Replay with the clock the fixtures were generated under.
	if len(fx.analyses) > 0 {
		domain.SetClock(clockwork.NewFakeClockAt(fx.analyses[0].ProcessedAt))
		defer domain.SetClock(nil)
	}

	settings := analysis.DefaultSettings()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	analyzer := analysis.New(settings, mockfeed.StateStations(), nil, logger, observability.NewMetricsForTesting())

	phases := []*phase{
		validateCSVParity(fx.readings, fx.series),
		validateAssessments(analyzer, fx.samples, fx.assessments),
		validateAnalyses(analyzer, fx.series, fx.analyses),
		validateInvariants(settings, fx.assessments, fx.analyses),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d CSV readings, %d samples, %d series, %d assessments, %d analyses\n",
		len(fx.readings), len(fx.samples), len(fx.series), len(fx.assessments), len(fx.analyses))

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

// ── Data loading ──

func loadFixtures(dir string) (fixtures, error) {
	var fx fixtures

	f, err := os.Open(filepath.Join(dir, "dwlr_readings.csv"))
	if err != nil {
		return fx, fmt.Errorf("open readings CSV: %w", err)
	}
	defer f.Close()
	if fx.readings, err = ingest.ParseReadings(f, ""); err != nil {
		return fx, fmt.Errorf("parse readings CSV: %w", err)
	}

	if fx.samples, err = loadJSON[domain.WaterSample](filepath.Join(dir, "samples.json")); err != nil {
		return fx, err
	}
	if fx.series, err = loadJSON[domain.Series](filepath.Join(dir, "series.json")); err != nil {
		return fx, err
	}
	if fx.assessments, err = loadJSON[analysis.SampleAssessment](filepath.Join(dir, "assessments.json")); err != nil {
		return fx, err
	}
	if fx.analyses, err = loadJSON[analysis.SeriesAnalysis](filepath.Join(dir, "analyses.json")); err != nil {
		return fx, err
	}
	return fx, nil
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// ── Phase 1: CSV parity ──

func validateCSVParity(readings []domain.WaterLevelReading, series []domain.Series) *phase {
	p := &phase{name: "Phase 1: CSV ↔ Series Parity"}

	grouped := ingest.GroupByStation(readings)
	if len(grouped) != len(series) {
		p.errorf("station count: CSV=%d, series=%d", len(grouped), len(series))
	}

	byID := make(map[string]domain.Series, len(grouped))
	for _, s := range grouped {
		byID[s.StationID] = s
	}
	for _, want := range series {
		got, ok := byID[want.StationID]
		if !ok {
			p.errorf("%s: missing from CSV", want.StationID)
			continue
		}
		if len(got.Readings) != len(want.Readings) {
			p.errorf("%s: reading count CSV=%d, series=%d", want.StationID, len(got.Readings), len(want.Readings))
			continue
		}
		for i := range want.Readings {
			g, w := got.Readings[i], want.Readings[i]
			if !g.Timestamp.Equal(w.Timestamp) {
				p.errorf("%s[%d]: timestamp CSV=%s, series=%s", want.StationID, i,
					g.Timestamp.Format(domain.DayLayout), w.Timestamp.Format(domain.DayLayout))
			}
			if !floatEq(g.WaterLevel, w.WaterLevel) {
				p.errorf("%s[%d]: water_level CSV=%g, series=%g", want.StationID, i, g.WaterLevel, w.WaterLevel)
			}
			if !ptrFloatEq(g.Rainfall, w.Rainfall) {
				p.errorf("%s[%d]: rainfall CSV=%s, series=%s", want.StationID, i, ptrFloat(g.Rainfall), ptrFloat(w.Rainfall))
			}
		}
	}
	return p
}

// ── Phase 2: sample assessments ──

func validateAssessments(a *analysis.Analyzer, samples []domain.WaterSample, stored []analysis.SampleAssessment) *phase {
	p := &phase{name: "Phase 2: Sample Assessment Replay"}

	if len(samples) != len(stored) {
		p.errorf("count: samples=%d, assessments=%d", len(samples), len(stored))
		return p
	}
	for i, s := range samples {
		got, err := a.AssessSample(s)
		if err != nil {
			p.errorf("sample[%d] %s: %v", i, s.StationCode, err)
			continue
		}
		if diff := cmp.Diff(stored[i], got, cmpopts.EquateApprox(0, tolerance)); diff != "" {
			p.errorf("sample[%d] %s mismatch (-stored +replayed):\n%s", i, s.StationCode, indent(diff))
		}
	}
	return p
}

// ── Phase 3: series analyses ──

func validateAnalyses(a *analysis.Analyzer, series []domain.Series, stored []analysis.SeriesAnalysis) *phase {
	p := &phase{name: "Phase 3: Series Analysis Replay"}

	if len(series) != len(stored) {
		p.errorf("count: series=%d, analyses=%d", len(series), len(stored))
		return p
	}
	for i, s := range series {
		got, err := a.AnalyzeSeries(context.Background(), s)
		if err != nil {
			p.errorf("series[%d] %s: %v", i, s.StationID, err)
			continue
		}
		opts := cmp.Options{cmpopts.EquateApprox(0, tolerance), cmpopts.EquateEmpty()}
		if diff := cmp.Diff(stored[i], got, opts); diff != "" {
			p.errorf("series[%d] %s mismatch (-stored +replayed):\n%s", i, s.StationID, indent(diff))
		}
	}
	return p
}

// ── Phase 4: invariants ──

func validateInvariants(settings analysis.Settings, assessments []analysis.SampleAssessment, analyses []analysis.SeriesAnalysis) *phase {
	p := &phase{name: "Phase 4: Metric Invariants"}

	for i := range assessments {
		checkAssessment(p, i, &assessments[i])
	}
	for i := range analyses {
		checkAnalysis(p, settings, i, &analyses[i])
	}
	return p
}

func checkAssessment(p *phase, i int, a *analysis.SampleAssessment) {
	if a.WQI < 0 || a.WQI > 100 {
		p.errorf("assessment[%d] %s: wqi %d outside [0,100]", i, a.StationCode, a.WQI)
	}
	if want := domain.ClassifyWQI(a.WQI); a.Band != want {
		p.errorf("assessment[%d] %s: band %q, want %q", i, a.StationCode, a.Band, want)
	}
	if a.Safe != (a.WQI >= domain.SafeWQI) {
		p.errorf("assessment[%d] %s: safe=%v with wqi %d", i, a.StationCode, a.Safe, a.WQI)
	}
}

func checkAnalysis(p *phase, settings analysis.Settings, i int, a *analysis.SeriesAnalysis) {
	pf := func(format string, args ...any) {
		p.errorf("analysis[%d] %s: "+format, append([]any{i, a.StationID}, args...)...)
	}

	if len(a.Forecast) != settings.HorizonDays {
		pf("forecast has %d points, want %d", len(a.Forecast), settings.HorizonDays)
	}
	for j, fp := range a.Forecast {
		if fp.Level < 0 {
			pf("forecast[%d] level %g is negative", j, fp.Level)
		}
	}
	if n := a.Summary.Readings; n > 0 && len(a.Recharge) != n-1 {
		pf("recharge has %d values for %d readings", len(a.Recharge), n)
	}
	var monthly float64
	for _, m := range a.MonthlyRecharge {
		monthly += m.Recharge
	}
	if !floatEq(monthly, a.TotalRecharge) {
		pf("total_recharge %g != monthly sum %g", a.TotalRecharge, monthly)
	}
	if a.Summary.MinLevel > a.Summary.AverageLevel || a.Summary.AverageLevel > a.Summary.MaxLevel {
		pf("summary average %g outside [%g, %g]", a.Summary.AverageLevel, a.Summary.MinLevel, a.Summary.MaxLevel)
	}
	if a.NearestStation != nil && a.NearestStation.DistanceKm > settings.RadiusKm {
		pf("nearest station %s at %.1f km exceeds radius %g", a.NearestStation.Station.Code, a.NearestStation.DistanceKm, settings.RadiusKm)
	}
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func ptrFloatEq(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return floatEq(*a, *b)
}

func ptrFloat(f *float64) string {
	if f == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%g", *f)
}

func indent(s string) string {
	return "      " + strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n      ")
}
