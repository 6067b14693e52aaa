// Package mockfeed generates demo telemetry: water-quality samples for every
// state and daily DWLR series for a handful of districts. Generators are
// seeded so fixtures are reproducible.
package mockfeed

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/aquawatch/groundwater-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Generator draws mock records from a seeded source. It is not safe for
// concurrent use.
type Generator struct {
	rng   *rand.Rand
	clock clockwork.Clock
}

// NewGenerator creates a generator. Series end on the clock's current day.
func NewGenerator(seed uint64, clock clockwork.Clock) *Generator {
	return &Generator{
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		clock: clock,
	}
}

// Samples returns 3 to 8 stations' worth of samples for every state.
func (g *Generator) Samples() []domain.WaterSample {
	var out []domain.WaterSample
	for i, state := range States {
		n := 3 + g.rng.IntN(6)
		for j := range n {
			lat := state.At.Lat + (g.rng.Float64()-0.5)*2
			lng := state.At.Lng + (g.rng.Float64()-0.5)*2
			fecal := math.Round(g.between(0, 1000))

			out = append(out, domain.WaterSample{
				StationCode:     fmt.Sprintf("WS%03d", i*10+j+1),
				Location:        locations[g.rng.IntN(len(locations))],
				State:           state.Name,
				Year:            2020 + g.rng.IntN(4),
				Temperature:     round1(g.between(20, 35)),
				DissolvedOxygen: domain.Float64(round1(g.between(4, 12))),
				PH:              domain.Float64(round1(g.between(6.5, 8.5))),
				Conductivity:    math.Round(g.between(200, 1000)),
				BOD:             domain.Float64(round1(g.between(0, 6))),
				NitrateNitrite:  round1(g.between(0, 10)),
				FecalColiform:   fecal,
				TotalColiform:   fecal + math.Round(g.between(0, 500)),
				Latitude:        domain.Float64(lat),
				Longitude:       domain.Float64(lng),
			})
		}
	}
	return out
}

// DistrictSeries returns days of daily readings ending yesterday, with a
// seasonal level swing and monsoon-weighted rainfall.
func (g *Generator) DistrictSeries(d Region, days int) domain.Series {
	stationID := fmt.Sprintf("DWLR_%s_%03d", strings.ToUpper(strings.ReplaceAll(d.Name, " ", "")), g.rng.IntN(1000))
	lat, lng := d.At.Lat, d.At.Lng
	series := domain.Series{
		StationID: stationID,
		District:  d.Name,
		State:     d.State,
		Latitude:  &lat,
		Longitude: &lng,
		Readings:  make([]domain.WaterLevelReading, 0, max(0, days)),
	}

	start := domain.Day(g.clock.Now()).AddDate(0, 0, -days)
	for i := range days {
		date := start.AddDate(0, 0, i)
		seasonal := math.Sin(float64(i)/float64(days)*2*math.Pi) * 0.8
		level := math.Max(0, 3+seasonal+(g.rng.Float64()-0.5)*1.2)

		series.Readings = append(series.Readings, domain.WaterLevelReading{
			Timestamp:   date,
			WaterLevel:  level,
			Rainfall:    domain.Float64(g.rainfall(date)),
			Temperature: domain.Float64(g.temperature(date)),
			StationID:   stationID,
			Latitude:    domain.Float64(lat + (g.rng.Float64()-0.5)*0.1),
			Longitude:   domain.Float64(lng + (g.rng.Float64()-0.5)*0.1),
		})
	}
	return series
}

func (g *Generator) rainfall(date time.Time) float64 {
	chance := 0.2
	if m := date.Month(); m >= time.June && m <= time.October {
		chance = 0.6
	}
	if g.rng.Float64() < chance {
		return g.rng.Float64() * 25
	}
	return 0
}

func (g *Generator) temperature(date time.Time) float64 {
	month := float64(date.Month() - 1)
	base := 25 + math.Sin(month/12*2*math.Pi)*8
	return round1(base + (g.rng.Float64()-0.5)*6)
}

func (g *Generator) between(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
