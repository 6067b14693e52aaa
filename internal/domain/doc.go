// Package domain models groundwater telemetry from Digital Water Level
// Recorders (DWLR) and water-quality samples from monitoring stations, and
// derives the metrics the rest of the service publishes.
//
// # Inputs
//
// Two record shapes arrive on the source topic, wrapped in an [Envelope]
// whose "kind" field selects the payload:
//
//	{"kind":"sample","sample":{...}}   one WaterSample from a quality station
//	{"kind":"series","series":{...}}   an ordered run of WaterLevelReadings
//
// Readings carry day-granularity timestamps ("2024-06-01"). A series is
// assumed to be ordered by timestamp ascending and gap-free; neither is
// verified.
//
// # Metrics
//
// Water Quality Index (WQI), 0 to 100, averaged from three sub-scores:
//
//	DO:  min(100, DO/8 × 100)              saturates at 8 mg/L
//	pH:  100 inside [6.5, 8.5]
//	     pH/6.5 × 100 below the band
//	     (8.5 − pH)/1.5 × 100 above the band
//	BOD: max(0, 100 − BOD/6 × 100)         zero at 6 mg/L
//
// Every sub-score is clamped to [0, 100] before averaging, so the index stays
// in range for any finite input. DO, pH and BOD are required; a missing or
// non-finite value is an [ErrValidation].
//
// Safety labels use fixed thresholds, one per parameter:
//
//	pH              Unsafe outside [6.5, 8.5]
//	dissolved O2    Low below 5 mg/L
//	BOD             High above 3 mg/L
//	fecal coliform  Contaminated above 100 MPN/100mL
//	total coliform  High above 500 MPN/100mL
//
// Recharge between two readings is Δh × Sy, where Sy is the aquifer's
// specific yield (0.15 unless configured). Per-pair values keep their sign;
// flooring at zero is only applied when aggregating by month, according to
// the chosen [AggregationMode].
//
// Forecasts are a linear extrapolation of the last single-step difference:
//
//	level(d) = max(0, last + (last − previous) × d)
//
// with optional cosmetic noise for demo feeds. This is not a fitted model.
//
// Nearest-station lookup is a linear haversine scan (R = 6371 km) bounded by
// an inclusive search radius, 25 km by default.
//
// # ID Generation
//
// Result IDs are deterministic SHA-256 hashes of the input identity (station
// and date span for a series, station and parameters for a sample), so a
// replayed message produces the same key on the sink topic.
package domain
