package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aquawatch/groundwater-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Groundwater metrics.
	SpecificYield       float64
	ForecastHorizonDays int
	ForecastNoise       bool
	RechargeAggregation domain.AggregationMode
	NearestRadiusKm     float64
	AlertWindowDays     int
	StationCatalogPath  string

	// Mock telemetry feed.
	FeedInterval time.Duration
	FeedSeed     uint64

	// Mapbox reverse geocoding.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	feedInterval, err := parsePositiveDuration("FEED_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	horizon, err := parseIntInRange("FORECAST_HORIZON_DAYS", 30, 0, 365)
	if err != nil {
		return nil, err
	}
	alertWindow, err := parseIntInRange("ALERT_WINDOW_DAYS", domain.DefaultAlertWindow, 1, 365)
	if err != nil {
		return nil, err
	}

	specificYield, err := parseFloat("SPECIFIC_YIELD", domain.DefaultSpecificYield)
	if err != nil {
		return nil, err
	}
	if !(specificYield > 0 && specificYield <= 1) {
		return nil, errors.New("SPECIFIC_YIELD must be in (0, 1]")
	}
	radius, err := parseFloat("NEAREST_RADIUS_KM", domain.DefaultSearchRadiusKm)
	if err != nil {
		return nil, err
	}
	if !(radius > 0) {
		return nil, errors.New("NEAREST_RADIUS_KM must be positive")
	}

	aggregation, err := domain.ParseAggregationMode(sharedcfg.EnvOrDefault("RECHARGE_AGGREGATION", string(domain.AggregateClampPairs)))
	if err != nil {
		return nil, fmt.Errorf("invalid RECHARGE_AGGREGATION: %w", err)
	}

	forecastNoise, err := parseBool("FORECAST_NOISE", false)
	if err != nil {
		return nil, err
	}
	feedSeed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("FEED_SEED", "1"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid FEED_SEED")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "dwlr-raw-telemetry"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "groundwater-metrics"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "aquawatch-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		SpecificYield:       specificYield,
		ForecastHorizonDays: horizon,
		ForecastNoise:       forecastNoise,
		RechargeAggregation: aggregation,
		NearestRadiusKm:     radius,
		AlertWindowDays:     alertWindow,
		StationCatalogPath:  os.Getenv("STATION_CATALOG_PATH"),

		FeedInterval: feedInterval,
		FeedSeed:     feedSeed,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseIntInRange(key string, fallback, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer between %d and %d", key, lo, hi)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
