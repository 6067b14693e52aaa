package domain

import (
	"fmt"
	"math"
	"slices"
)

// DefaultSpecificYield is the aquifer specific yield used when none is configured.
const DefaultSpecificYield = 0.15

// AggregationMode selects where negative recharge is floored when summing by month.
type AggregationMode string

const (
	// AggregateClampPairs floors each pair at zero, then sums.
	AggregateClampPairs AggregationMode = "clamp_pairs"
	// AggregateClampMonthly sums signed pairs, then floors the monthly total.
	AggregateClampMonthly AggregationMode = "clamp_monthly"
	// AggregateSigned never floors.
	AggregateSigned AggregationMode = "signed"
)

// ParseAggregationMode validates a configured mode name.
func ParseAggregationMode(s string) (AggregationMode, error) {
	switch m := AggregationMode(s); m {
	case AggregateClampPairs, AggregateClampMonthly, AggregateSigned:
		return m, nil
	default:
		return "", fmt.Errorf("unknown recharge aggregation mode %q", s)
	}
}

// MonthRecharge is the aggregated recharge for one calendar month (YYYY-MM).
type MonthRecharge struct {
	Month    string  `json:"month"`
	Recharge float64 `json:"recharge"`
}

// EstimateRecharge returns (level[i] − level[i−1]) × specificYield for every
// adjacent pair. Declines stay negative. Fewer than two readings yield an
// empty, non-nil slice.
func EstimateRecharge(readings []WaterLevelReading, specificYield float64) []float64 {
	if len(readings) < 2 {
		return []float64{}
	}
	out := make([]float64, len(readings)-1)
	for i := 1; i < len(readings); i++ {
		out[i-1] = (readings[i].WaterLevel - readings[i-1].WaterLevel) * specificYield
	}
	return out
}

// MonthlyRecharge groups pair recharge by the month of the later reading of
// each pair and sums within the month. Months are returned in ascending order.
func MonthlyRecharge(readings []WaterLevelReading, specificYield float64, mode AggregationMode) []MonthRecharge {
	pairs := EstimateRecharge(readings, specificYield)
	sums := make(map[string]float64)
	for i, v := range pairs {
		if mode == AggregateClampPairs {
			v = math.Max(0, v)
		}
		sums[readings[i+1].Timestamp.Format("2006-01")] += v
	}

	out := make([]MonthRecharge, 0, len(sums))
	for month, total := range sums {
		if mode == AggregateClampMonthly {
			total = math.Max(0, total)
		}
		out = append(out, MonthRecharge{Month: month, Recharge: total})
	}
	slices.SortFunc(out, func(a, b MonthRecharge) int {
		switch {
		case a.Month < b.Month:
			return -1
		case a.Month > b.Month:
			return 1
		}
		return 0
	})
	return out
}

// TotalRecharge sums monthly recharge.
func TotalRecharge(months []MonthRecharge) float64 {
	var total float64
	for _, m := range months {
		total += m.Recharge
	}
	return total
}
