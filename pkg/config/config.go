// Package config defines the threshold configuration for the hazard
// engine. All thresholds the cascades consult live here, in one immutable
// object passed explicitly into the classifier; the exploratory per-script
// threshold copies of earlier analyses are collapsed into named presets.
package config

import (
	"fmt"
	"time"
)

// DeriveParams configures feature derivation.
type DeriveParams struct {
	// HighRiskSectorFrom/To bound the terrain-specific upwind exposure
	// azimuth range in degrees, inclusive, clockwise From→To (may wrap
	// through north).
	HighRiskSectorFrom float64 `yaml:"high-risk-sector-from"`
	HighRiskSectorTo   float64 `yaml:"high-risk-sector-to"`

	// WindPersistMin is the wind speed (m/s) that the consecutive-wind
	// run-length counter tracks.
	WindPersistMin float64 `yaml:"wind-persist-min"`

	// Loose-snow gate: transportable snow is plausible when the 6h depth
	// increase reaches LooseSnowDeltaCM, or when depth is at least
	// LooseSnowDepthCM with air temperature at or below LooseSnowFreezeC.
	LooseSnowDeltaCM float64 `yaml:"loose-snow-delta-cm"`
	LooseSnowDepthCM float64 `yaml:"loose-snow-depth-cm"`
	LooseSnowFreezeC float64 `yaml:"loose-snow-freeze-c"`

	// Humidity penalty: wet snow resists drifting when RH is at least
	// HumidityPenaltyRH and air temperature is within
	// HumidityPenaltyTempC of zero.
	HumidityPenaltyRH    float64 `yaml:"humidity-penalty-rh"`
	HumidityPenaltyTempC float64 `yaml:"humidity-penalty-temp-c"`
}

// SnowdriftParams configures the snowdrift (snøfokk) cascade.
type SnowdriftParams struct {
	WindHigh   float64 `yaml:"wind-high"`   // m/s, high tier
	WindMedium float64 `yaml:"wind-medium"` // m/s, medium tier

	// WindPenaltyBoost is added to both wind thresholds when the
	// humidity penalty flag is set for the timestep.
	WindPenaltyBoost float64 `yaml:"wind-penalty-boost"`

	TempCritical     float64 `yaml:"temp-critical"`      // °C, cold enough to drift
	PersistMinSteps  int     `yaml:"persist-min-steps"`  // required wind run length
	NearZeroTempMaxC float64 `yaml:"near-zero-temp-max"` // °C, near-zero edge case ceiling
	NearZeroWindMin  float64 `yaml:"near-zero-wind-min"` // m/s, near-zero edge case floor
	FreshSnowDeltaCM float64 `yaml:"fresh-snow-delta-cm"`
}

// SlipperyParams configures the slippery-road cascade.
type SlipperyParams struct {
	// FreshSnowDeltaCM is the 6h snow-depth increase that forces low
	// risk unconditionally (fresh snow is natural traction).
	FreshSnowDeltaCM float64 `yaml:"fresh-snow-delta-cm"`

	// Rain-on-snow, high tier: precipitation intensity (mm/h) at least
	// RainPrecipFloor with air temperature in (MildBandMinC, MildBandMaxC]
	// over snow cover of at least SnowCoverMinCM.
	RainPrecipFloor float64 `yaml:"rain-precip-floor"`
	MildBandMinC    float64 `yaml:"mild-band-min-c"`
	MildBandMaxC    float64 `yaml:"mild-band-max-c"`
	SnowCoverMinCM  float64 `yaml:"snow-cover-min-cm"`

	// Ice formation, high tier: surface at or below freezing combined
	// with active precipitation (at least ActivePrecipFloor mm/h) or a
	// saturated air mass (RH at least IceRHMin with the dew point within
	// DewSpreadMaxC of the surface temperature).
	ActivePrecipFloor float64 `yaml:"active-precip-floor"`
	IceRHMin          float64 `yaml:"ice-rh-min"`
	DewSpreadMaxC     float64 `yaml:"dew-spread-max-c"`

	// Medium tier relaxations.
	RainPrecipFloorMedium float64 `yaml:"rain-precip-floor-medium"`
	MildBandMaxMediumC    float64 `yaml:"mild-band-max-medium-c"`
	SurfaceMarginalMaxC   float64 `yaml:"surface-marginal-max-c"`
	MarginalRHMin         float64 `yaml:"marginal-rh-min"`

	// MediumNeedsSnowCover controls whether the relaxed rain rule also
	// requires existing snow cover. Source analyses disagreed, so it is
	// a switch rather than a guess.
	MediumNeedsSnowCover bool `yaml:"medium-needs-snow-cover"`
}

// EpisodeParams configures episode extraction.
type EpisodeParams struct {
	// MinDurationSteps discards blocks shorter than this many timesteps
	// as noise.
	MinDurationSteps int `yaml:"min-duration-steps"`

	// GapToleranceHours is the maximum gap, in hours, between flagged
	// timestamps merged into one episode in clustering mode.
	GapToleranceHours float64 `yaml:"gap-tolerance-hours"`

	// MaxRationale caps the deduplicated rationale union per episode.
	MaxRationale int `yaml:"max-rationale"`
}

// GapTolerance returns the clustering gap tolerance as a duration.
func (p EpisodeParams) GapTolerance() time.Duration {
	return time.Duration(p.GapToleranceHours * float64(time.Hour))
}

// Config is the complete engine configuration.
type Config struct {
	Derive    DeriveParams    `yaml:"derive"`
	Snowdrift SnowdriftParams `yaml:"snowdrift"`
	Slippery  SlipperyParams  `yaml:"slippery"`
	Episode   EpisodeParams   `yaml:"episode"`
}

// Default returns the baseline configuration used when no preset or file
// overrides it.
func Default() Config {
	return Config{
		Derive: DeriveParams{
			HighRiskSectorFrom:   112.5, // SE through SW exposure
			HighRiskSectorTo:     247.5,
			WindPersistMin:       6.0,
			LooseSnowDeltaCM:     1.0,
			LooseSnowDepthCM:     10.0,
			LooseSnowFreezeC:     0.0,
			HumidityPenaltyRH:    95.0,
			HumidityPenaltyTempC: 1.5,
		},
		Snowdrift: SnowdriftParams{
			WindHigh:         9.0,
			WindMedium:       6.5,
			WindPenaltyBoost: 2.0,
			TempCritical:     -1.0,
			PersistMinSteps:  2,
			NearZeroTempMaxC: 0.5,
			NearZeroWindMin:  10.0,
			FreshSnowDeltaCM: 1.0,
		},
		Slippery: SlipperyParams{
			FreshSnowDeltaCM:      1.5,
			RainPrecipFloor:       1.0,
			MildBandMinC:          0.0,
			MildBandMaxC:          4.0,
			SnowCoverMinCM:        3.0,
			ActivePrecipFloor:     0.1,
			IceRHMin:              90.0,
			DewSpreadMaxC:         1.0,
			RainPrecipFloorMedium: 0.3,
			MildBandMaxMediumC:    6.0,
			SurfaceMarginalMaxC:   1.0,
			MarginalRHMin:         80.0,
			MediumNeedsSnowCover:  false,
		},
		Episode: EpisodeParams{
			MinDurationSteps:  2,
			GapToleranceHours: 3,
			MaxRationale:      8,
		},
	}
}

// Preset returns a named configuration variant. The variants replace the
// per-script threshold copies of the original exploratory analyses.
func Preset(name string) (Config, error) {
	cfg := Default()

	switch name {
	case "default":
		return cfg, nil
	case "exposed-ridge":
		// Open terrain: drifting starts earlier, episodes merge over
		// longer lulls.
		cfg.Snowdrift.WindHigh = 8.0
		cfg.Snowdrift.WindMedium = 6.0
		cfg.Episode.GapToleranceHours = 4
		return cfg, nil
	case "sheltered":
		// Forested/lee terrain: demand stronger wind, merge less.
		cfg.Snowdrift.WindHigh = 11.0
		cfg.Snowdrift.WindMedium = 8.0
		cfg.Episode.GapToleranceHours = 2
		return cfg, nil
	default:
		return Config{}, fmt.Errorf("unknown config preset: %q", name)
	}
}

// Validate checks internal consistency of the configuration.
func (c Config) Validate() error {
	if c.Snowdrift.WindMedium > c.Snowdrift.WindHigh {
		return fmt.Errorf("snowdrift wind-medium (%.1f) exceeds wind-high (%.1f)",
			c.Snowdrift.WindMedium, c.Snowdrift.WindHigh)
	}
	if c.Slippery.RainPrecipFloorMedium > c.Slippery.RainPrecipFloor {
		return fmt.Errorf("slippery rain-precip-floor-medium (%.2f) exceeds rain-precip-floor (%.2f)",
			c.Slippery.RainPrecipFloorMedium, c.Slippery.RainPrecipFloor)
	}
	if c.Episode.MinDurationSteps < 1 {
		return fmt.Errorf("episode min-duration-steps must be at least 1, got %d", c.Episode.MinDurationSteps)
	}
	if c.Episode.GapToleranceHours < 0 {
		return fmt.Errorf("episode gap-tolerance-hours must not be negative")
	}
	if c.Episode.MaxRationale < 1 {
		return fmt.Errorf("episode max-rationale must be at least 1, got %d", c.Episode.MaxRationale)
	}
	return nil
}
