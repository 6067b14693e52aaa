package domain

import "math"

// SafetyLabel is a categorical reading for one parameter.
type SafetyLabel string

const (
	LabelSafe         SafetyLabel = "Safe"
	LabelUnsafe       SafetyLabel = "Unsafe"
	LabelLow          SafetyLabel = "Low"
	LabelAdequate     SafetyLabel = "Adequate"
	LabelHigh         SafetyLabel = "High"
	LabelContaminated SafetyLabel = "Contaminated"
	LabelUnknown      SafetyLabel = "Unknown" // parameter not measured
)

const (
	minAdequateDOMgL    = 5.0
	maxLowBODMgL        = 3.0
	maxSafeFecalMPN     = 100.0
	maxLowTotalColiform = 500.0
)

// SafetyReport holds one label per classified parameter.
type SafetyReport struct {
	PH              SafetyLabel `json:"ph"`
	DissolvedOxygen SafetyLabel `json:"dissolved_oxygen"`
	BOD             SafetyLabel `json:"bod"`
	FecalColiform   SafetyLabel `json:"fecal_coliform"`
	TotalColiform   SafetyLabel `json:"total_coliform"`
}

// ClassifySafety labels each parameter against its fixed threshold. The
// thresholds are independent of each other. It never fails: unmeasured
// parameters are labelled Unknown.
func ClassifySafety(s WaterSample) SafetyReport {
	return SafetyReport{
		PH: classifyOptional(s.PH, func(v float64) SafetyLabel {
			if v < phBandLow || v > phBandHigh {
				return LabelUnsafe
			}
			return LabelSafe
		}),
		DissolvedOxygen: classifyOptional(s.DissolvedOxygen, func(v float64) SafetyLabel {
			if v < minAdequateDOMgL {
				return LabelLow
			}
			return LabelAdequate
		}),
		BOD: classifyOptional(s.BOD, func(v float64) SafetyLabel {
			if v > maxLowBODMgL {
				return LabelHigh
			}
			return LabelLow
		}),
		FecalColiform: labelAbove(s.FecalColiform, maxSafeFecalMPN, LabelContaminated, LabelSafe),
		TotalColiform: labelAbove(s.TotalColiform, maxLowTotalColiform, LabelHigh, LabelLow),
	}
}

func classifyOptional(v *float64, classify func(float64) SafetyLabel) SafetyLabel {
	if v == nil || math.IsNaN(*v) {
		return LabelUnknown
	}
	return classify(*v)
}

func labelAbove(v, limit float64, above, otherwise SafetyLabel) SafetyLabel {
	if math.IsNaN(v) {
		return LabelUnknown
	}
	if v > limit {
		return above
	}
	return otherwise
}
