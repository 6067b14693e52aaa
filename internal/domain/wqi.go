package domain

import "math"

const (
	doSaturationMgL = 8.0
	phBandLow       = 6.5
	phBandHigh      = 8.5
	bodCeilingMgL   = 6.0

	// SafeWQI is the lowest index at which a station counts as safe.
	SafeWQI = 60
)

// WQIBand buckets an index for reporting.
type WQIBand string

const (
	BandExcellent WQIBand = "Excellent"
	BandGood      WQIBand = "Good"
	BandFair      WQIBand = "Fair"
	BandPoor      WQIBand = "Poor"
)

// ComputeWQI scores a sample from its DO, pH and BOD readings. The result is
// always within [0, 100].
func ComputeWQI(s WaterSample) (int, error) {
	do, err := requireFinite("dissolved_oxygen", s.DissolvedOxygen)
	if err != nil {
		return 0, err
	}
	ph, err := requireFinite("ph", s.PH)
	if err != nil {
		return 0, err
	}
	bod, err := requireFinite("bod", s.BOD)
	if err != nil {
		return 0, err
	}

	mean := (doSubScore(do) + phSubScore(ph) + bodSubScore(bod)) / 3
	return int(math.Round(mean)), nil
}

// ClassifyWQI maps an index to its band.
func ClassifyWQI(wqi int) WQIBand {
	switch {
	case wqi >= 90:
		return BandExcellent
	case wqi >= 70:
		return BandGood
	case wqi >= 50:
		return BandFair
	default:
		return BandPoor
	}
}

func doSubScore(do float64) float64 {
	return clampScore(do / doSaturationMgL * 100)
}

func phSubScore(ph float64) float64 {
	switch {
	case ph < phBandLow:
		return clampScore(ph / phBandLow * 100)
	case ph > phBandHigh:
		return clampScore((phBandHigh - ph) / 1.5 * 100)
	default:
		return 100
	}
}

func bodSubScore(bod float64) float64 {
	return clampScore(100 - bod/bodCeilingMgL*100)
}

func clampScore(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}

func requireFinite(field string, v *float64) (float64, error) {
	if v == nil {
		return 0, newValidationError(field, "required")
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, newValidationError(field, "must be a finite number")
	}
	return *v, nil
}
