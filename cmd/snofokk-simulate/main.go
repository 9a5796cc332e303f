// snofokk-simulate seeds a station database with a synthetic winter
// series and runs the hazard pipeline over it, for exercising the engine
// and the episode cache without real sensor data. The series walks
// through calm, storm and thaw phases; a fixed seed reproduces the same
// series on every run.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/toro68/snofokk-analyse-sub002/internal/log"
	"github.com/toro68/snofokk-analyse-sub002/internal/pipeline"
	"github.com/toro68/snofokk-analyse-sub002/internal/store"
	"github.com/toro68/snofokk-analyse-sub002/internal/types"
	"github.com/toro68/snofokk-analyse-sub002/pkg/config"
)

func main() {
	var (
		dbFile  = flag.String("db", "snofokk.db", "Path to station SQLite database")
		station = flag.String("station", "simulated", "Station name to write under")
		hours   = flag.Int("hours", 72, "Length of the synthetic series in hours")
		seed    = flag.Int64("seed", 1, "Random seed for the series")
		start   = flag.String("start", "", "Series start time (RFC3339, default 72h ago)")
		debug   = flag.Bool("debug", false, "Turn on debug logging")
	)
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger := log.GetSugaredLogger()

	startTime := time.Now().UTC().Add(-time.Duration(*hours) * time.Hour).Truncate(time.Hour)
	if *start != "" {
		t, err := time.Parse(time.RFC3339, *start)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad -start value: %v\n", err)
			os.Exit(1)
		}
		startTime = t.UTC()
	}

	series := synthesize(startTime, *hours, *seed)

	s, err := store.Open(*dbFile, logger)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.SaveObservations(ctx, *station, series); err != nil {
		log.Fatalf("Failed to save observations: %v", err)
	}
	logger.Infof("Seeded %d synthetic observations for %s", len(series), *station)

	analyzer, err := pipeline.New(config.Default(), logger)
	if err != nil {
		log.Fatalf("Failed to create analyzer: %v", err)
	}
	res, err := analyzer.Run(series)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	for _, domain := range []types.Domain{types.DomainSnowdrift, types.DomainSlippery} {
		eps := res.Episodes[domain]
		if err := s.RefreshEpisodes(ctx, *station, domain, eps); err != nil {
			log.Fatalf("Failed to cache %s episodes: %v", domain, err)
		}
		logger.Infof("%s: %d episodes", domain, len(eps))
		for _, ep := range eps {
			logger.Infof("  %s for %d hours starting %s", ep.Level, ep.Steps,
				ep.Start.Format("2006-01-02 15:04"))
		}
	}
}

// phase holds the hourly baseline for one stretch of synthetic weather.
type phase struct {
	hours     int
	airTemp   float64
	wind      float64
	windDir   float64
	precip10m float64 // mm per 10 min, accumulates into snow depth below freezing
	humidity  float64
}

var phases = []phase{
	{hours: 12, airTemp: -3.0, wind: 3.0, windDir: 90, precip10m: 0, humidity: 75},    // calm cold
	{hours: 8, airTemp: -2.0, wind: 5.0, windDir: 150, precip10m: 0.3, humidity: 92},  // snowfall
	{hours: 14, airTemp: -7.0, wind: 11.0, windDir: 200, precip10m: 0, humidity: 70},  // drift storm
	{hours: 10, airTemp: -4.0, wind: 6.0, windDir: 220, precip10m: 0, humidity: 80},   // easing
	{hours: 8, airTemp: 2.0, wind: 4.0, windDir: 240, precip10m: 0.4, humidity: 95},   // mild rain
	{hours: 20, airTemp: -1.0, wind: 2.0, windDir: 300, precip10m: 0.05, humidity: 88}, // refreeze
}

// synthesize builds an hourly series by walking the phase table, adding
// per-run jitter so repeated seeds explore slightly different storms.
func synthesize(start time.Time, hours int, seed int64) []types.Observation {
	rng := rand.New(rand.NewSource(seed))

	// Consistent per-run offsets, applied on top of the per-hour jitter.
	tempOffset := rng.Float64()*2 - 1
	windOffset := rng.Float64()*1.5 - 0.75

	series := make([]types.Observation, 0, hours)
	snowDepth := 15.0
	elapsed := 0

	for i := 0; i < hours; i++ {
		p := phaseAt(elapsed)
		elapsed++

		airTemp := p.airTemp + tempOffset + rng.NormFloat64()*0.5
		wind := math.Max(0, p.wind+windOffset+rng.NormFloat64()*0.8)
		gust := wind * (1.2 + rng.Float64()*0.4)
		windDir := math.Mod(p.windDir+rng.NormFloat64()*15+360, 360)
		humidity := clamp(p.humidity+rng.NormFloat64()*3, 20, 100)
		precip := math.Max(0, p.precip10m+rng.NormFloat64()*0.05)
		dewPoint := airTemp - (100-humidity)/5

		// Snowpack: precipitation below freezing accumulates, mild air melts.
		if airTemp <= 0.5 {
			snowDepth += precip * 6
		} else {
			snowDepth = math.Max(0, snowDepth-0.3)
		}
		surface := airTemp - 1.0 + rng.NormFloat64()*0.3
		depth := snowDepth

		series = append(series, types.Observation{
			Timestamp:   start.Add(time.Duration(i) * time.Hour),
			AirTemp:     &airTemp,
			SurfaceTemp: &surface,
			WindSpeed:   &wind,
			WindGust:    &gust,
			WindDir:     &windDir,
			SnowDepth:   &depth,
			Precip10m:   &precip,
			RelHumidity: &humidity,
			DewPoint:    &dewPoint,
		})
	}
	return series
}

// phaseAt maps an elapsed hour onto the phase table, cycling when the
// requested series outlasts one pass.
func phaseAt(hour int) phase {
	total := 0
	for _, p := range phases {
		total += p.hours
	}
	hour %= total
	for _, p := range phases {
		if hour < p.hours {
			return p
		}
		hour -= p.hours
	}
	return phases[len(phases)-1]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
