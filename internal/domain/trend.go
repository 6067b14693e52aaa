package domain

import (
	"math"
	"slices"
)

// QualityParameter names a numeric WaterSample field for trend reports.
type QualityParameter string

const (
	ParamTemperature     QualityParameter = "temperature"
	ParamDissolvedOxygen QualityParameter = "dissolved_oxygen"
	ParamPH              QualityParameter = "ph"
	ParamConductivity    QualityParameter = "conductivity"
	ParamBOD             QualityParameter = "bod"
	ParamNitrateNitrite  QualityParameter = "nitrate_nitrite"
	ParamFecalColiform   QualityParameter = "fecal_coliform"
	ParamTotalColiform   QualityParameter = "total_coliform"
)

// YearAverage is the mean of one parameter over the samples of a year.
type YearAverage struct {
	Year    int     `json:"year"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

func (p QualityParameter) valueOf(s WaterSample) (float64, bool) {
	var v *float64
	switch p {
	case ParamTemperature:
		v = &s.Temperature
	case ParamDissolvedOxygen:
		v = s.DissolvedOxygen
	case ParamPH:
		v = s.PH
	case ParamConductivity:
		v = &s.Conductivity
	case ParamBOD:
		v = s.BOD
	case ParamNitrateNitrite:
		v = &s.NitrateNitrite
	case ParamFecalColiform:
		v = &s.FecalColiform
	case ParamTotalColiform:
		v = &s.TotalColiform
	}
	if v == nil || math.IsNaN(*v) {
		return 0, false
	}
	return *v, true
}

func (p QualityParameter) valid() bool {
	switch p {
	case ParamTemperature, ParamDissolvedOxygen, ParamPH, ParamConductivity,
		ParamBOD, ParamNitrateNitrite, ParamFecalColiform, ParamTotalColiform:
		return true
	}
	return false
}

// YearlyTrend averages param per sample year, ascending by year. Samples that
// did not measure param are left out.
func YearlyTrend(samples []WaterSample, param QualityParameter) ([]YearAverage, error) {
	if !param.valid() {
		return nil, newValidationError("parameter", "unknown quality parameter "+string(param))
	}

	type acc struct {
		sum   float64
		count int
	}
	years := make(map[int]*acc)
	for _, s := range samples {
		v, ok := param.valueOf(s)
		if !ok {
			continue
		}
		a, found := years[s.Year]
		if !found {
			a = &acc{}
			years[s.Year] = a
		}
		a.sum += v
		a.count++
	}

	out := make([]YearAverage, 0, len(years))
	for year, a := range years {
		out = append(out, YearAverage{Year: year, Average: a.sum / float64(a.count), Count: a.count})
	}
	slices.SortFunc(out, func(a, b YearAverage) int { return a.Year - b.Year })
	return out, nil
}
