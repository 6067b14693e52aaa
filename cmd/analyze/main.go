// Command analyze runs the groundwater analysis over a DWLR CSV export
// without Kafka and prints one JSON result per station.
//
// Usage:
//
//	go run ./cmd/analyze -csv data/mock/dwlr_readings.csv -horizon 14
//	cat readings.csv | go run ./cmd/analyze -station DWLR_PUNE_001
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/aquawatch/groundwater-etl/internal/adapter/mapbox"
	"github.com/aquawatch/groundwater-etl/internal/analysis"
	"github.com/aquawatch/groundwater-etl/internal/domain"
	"github.com/aquawatch/groundwater-etl/internal/ingest"
	"github.com/aquawatch/groundwater-etl/internal/mockfeed"
	"github.com/aquawatch/groundwater-etl/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	defaults := analysis.DefaultSettings()

	csvPath := flag.String("csv", "-", "DWLR CSV file, or - for stdin")
	station := flag.String("station", "", "station ID for rows without a station column")
	catalog := flag.String("stations", "", "station catalog JSON (default: built-in state reference wells)")
	horizon := flag.Int("horizon", defaults.HorizonDays, "forecast horizon in days")
	specificYield := flag.Float64("specific-yield", defaults.SpecificYield, "aquifer specific yield")
	aggregation := flag.String("aggregation", string(defaults.Aggregation), "recharge aggregation: clamp_pairs, clamp_monthly or signed")
	noise := flag.Bool("noise", false, "add seeded noise to forecasts")
	geocode := flag.Bool("geocode", false, "reverse geocode via Mapbox (reads MAPBOX_TOKEN)")
	flag.Parse()

	mode, err := domain.ParseAggregationMode(*aggregation)
	if err != nil {
		return err
	}
	if !(*specificYield > 0 && *specificYield <= 1) {
		return fmt.Errorf("specific-yield must be in (0, 1], got %g", *specificYield)
	}

	in := io.Reader(os.Stdin)
	if *csvPath != "-" {
		f, err := os.Open(*csvPath)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	readings, err := ingest.ParseReadings(in, *station)
	if err != nil {
		return fmt.Errorf("parse %s: %w", *csvPath, err)
	}

	stations, err := analysis.LoadStations(*catalog, mockfeed.StateStations())
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetrics()

	var geocoder domain.ReverseGeocoder
	if *geocode {
		token := os.Getenv("MAPBOX_TOKEN")
		if token == "" {
			return fmt.Errorf("-geocode requires MAPBOX_TOKEN")
		}
		geocoder = mapbox.NewCachedGeocoder(mapbox.NewClient(token, 5*time.Second, metrics, logger), 256, metrics)
	}

	settings := defaults
	settings.HorizonDays = *horizon
	settings.SpecificYield = *specificYield
	settings.Aggregation = mode
	settings.Noise = *noise
	analyzer := analysis.New(settings, stations, geocoder, logger, metrics)

	ctx := context.Background()
	results := make([]analysis.SeriesAnalysis, 0)
	for _, series := range ingest.GroupByStation(readings) {
		res, err := analyzer.AnalyzeSeries(ctx, series)
		if err != nil {
			return fmt.Errorf("analyze %s: %w", series.StationID, err)
		}
		results = append(results, res)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
