// Package generator produces realistic synthetic water-quality data for the
// fleet simulator. Values follow the physical behavior of each parameter:
// dissolved solids drift slowly, temperature tracks a daily cycle, turbidity
// is calm with occasional spikes, and pH wanders inside a narrow band.
package generator

import (
	"math"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"aquaview.dev/monitor/pkg/quality"
)

// Station identifies a simulated monitoring station.
type Station struct {
	Timestamp time.Time
	StationID string  `fake:"{uuid}"`
	Location  string  `fake:"{city}, {state}"`
	Firmware  string  `fake:"{appversion}"`
	Latitude  float64 `fake:"{latitude}"`
	Longitude float64 `fake:"{longitude}"`
}

// NewStation creates a station with randomized identity fields.
func NewStation() *Station {
	var station Station
	if err := gofakeit.Struct(&station); err != nil {
		return nil
	}
	station.Timestamp = time.Now()
	return &station
}

// WaterGenerator produces correlated sensor readings for one station.
type WaterGenerator struct {
	baselineTDS  float64
	baselineTemp float64
	baselinePH   float64
	lastTDS      float64
	tdsTrend     float64
	noise        float64
}

// NewWaterGenerator seeds per-station baselines. Most stations sit in the
// excellent or good bands so warnings stay meaningful.
func NewWaterGenerator() *WaterGenerator {
	baselineTDS := 150.0 + rand.Float64()*300 // 150-450 ppm

	return &WaterGenerator{
		baselineTDS:  baselineTDS,
		baselineTemp: 18.0 + rand.Float64()*8,  // 18-26°C
		baselinePH:   6.8 + rand.Float64()*0.8, // 6.8-7.6
		lastTDS:      baselineTDS,
		tdsTrend:     (rand.Float64() - 0.5) * 2,
		noise:        rand.Float64() + 0.5,
	}
}

// GenerateTDS follows a slow random walk around the baseline.
func (g *WaterGenerator) GenerateTDS() float64 {
	change := (rand.Float64()-0.5)*10 + g.tdsTrend

	// Occasionally reverse the trend.
	if rand.Float64() < 0.1 {
		g.tdsTrend = -g.tdsTrend + (rand.Float64()-0.5)
	}

	// Pull back toward the baseline so the walk stays bounded.
	pull := (g.baselineTDS - g.lastTDS) * 0.05

	g.lastTDS = math.Max(0, g.lastTDS+change+pull)
	return g.lastTDS
}

// GenerateTemperature follows a daily cycle peaking mid-afternoon.
func (g *WaterGenerator) GenerateTemperature(t time.Time) float64 {
	hour := float64(t.Hour())
	dailyCycle := 3 * math.Sin((hour-6)*math.Pi/12)
	noise := (rand.Float64() - 0.5) * g.noise
	return g.baselineTemp + dailyCycle + noise
}

// GenerateTurbidity returns the raw sensor value. The monitor scales it to
// NTU; the simulator emits the unscaled unit the hardware produces.
func (g *WaterGenerator) GenerateTurbidity() float64 {
	ntu := 0.2 + rand.Float64()*1.5

	// Sediment spike (5% chance), pushes into warning or danger.
	if rand.Float64() < 0.05 {
		ntu += 3 + rand.Float64()*12
	}

	return ntu / quality.TurbidityScale
}

// GeneratePH wanders inside a narrow band around the baseline.
func (g *WaterGenerator) GeneratePH(t time.Time) float64 {
	// Multi-day drift plus reading-to-reading jitter.
	drift := 0.2 * math.Sin(float64(t.Unix())/(86400*3))
	noise := (rand.Float64() - 0.5) * 0.2
	return g.baselinePH + drift + noise
}

// Generate produces a complete raw reading at time t.
func (g *WaterGenerator) Generate(t time.Time) *quality.RawReading {
	tds := g.GenerateTDS()
	temp := g.GenerateTemperature(t)
	turbidity := g.GenerateTurbidity()
	ph := g.GeneratePH(t)

	return &quality.RawReading{
		TDS:         &tds,
		Temperature: &temp,
		Turbidity:   &turbidity,
		PH:          &ph,
	}
}
