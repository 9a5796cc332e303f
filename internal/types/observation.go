// Package types holds the shared data model for the hazard engine:
// raw observations, derived observations, per-timestep risk labels and
// aggregated hazard episodes.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Observation is a single hourly weather station record. Every metric is
// optional; a nil pointer means the station did not report that element
// for this hour. Units: temperatures in °C, wind in m/s, direction in
// degrees, snow depth in cm, precipitation in mm, humidity in percent.
type Observation struct {
	Timestamp   time.Time `json:"timestamp"`
	AirTemp     *float64  `json:"air_temp,omitempty"`
	SurfaceTemp *float64  `json:"surface_temp,omitempty"`
	WindSpeed   *float64  `json:"wind_speed,omitempty"`
	WindGust    *float64  `json:"wind_gust,omitempty"`
	WindDir     *float64  `json:"wind_dir,omitempty"`
	SnowDepth   *float64  `json:"snow_depth,omitempty"`
	Precip1h    *float64  `json:"precip_1h,omitempty"`
	Precip10m   *float64  `json:"precip_10m,omitempty"`
	RelHumidity *float64  `json:"rel_humidity,omitempty"`
	DewPoint    *float64  `json:"dew_point,omitempty"`
}

// HourlyPrecip returns the precipitation intensity normalized to mm/h,
// preferring the hourly rate and falling back to the extrapolated
// 10-minute rate. Nil when the record carries neither.
func (o *Observation) HourlyPrecip() *float64 {
	if o.Precip1h != nil {
		return o.Precip1h
	}
	if o.Precip10m != nil {
		v := *o.Precip10m * 6
		return &v
	}
	return nil
}

// DerivedObservation is an Observation plus the secondary signals computed
// from it and from earlier timesteps. Derived fields are nil when the
// inputs they need are missing or the backing window does not yet hold
// enough samples; nil is "not yet available", never zero.
type DerivedObservation struct {
	Observation

	// Step is the 0-based position of this record within its series.
	Step int `json:"step"`

	WindChill     *float64 `json:"wind_chill,omitempty"`
	Precip3hSum   *float64 `json:"precip_3h_sum,omitempty"`
	Precip6hSum   *float64 `json:"precip_6h_sum,omitempty"`
	AirTemp6hMean *float64 `json:"air_temp_6h_mean,omitempty"`
	Wind3hMean    *float64 `json:"wind_3h_mean,omitempty"`
	Wind3hStd     *float64 `json:"wind_3h_std,omitempty"`
	SnowDelta6h   *float64 `json:"snow_delta_6h,omitempty"`
	DewSpread     *float64 `json:"dew_spread,omitempty"`
	GustRatio     *float64 `json:"gust_ratio,omitempty"`

	WindSector       string `json:"wind_sector,omitempty"`
	HighRiskSector   bool   `json:"high_risk_sector"`
	WindPersistSteps int    `json:"wind_persist_steps"`
	LooseSnow        bool   `json:"loose_snow"`
	HumidityPenalty  bool   `json:"humidity_penalty"`
}

// RiskLevel is the per-timestep hazard tier for one domain. Unknown means
// the data needed to classify the timestep was missing; it never counts as
// any numeric tier.
type RiskLevel int

const (
	LevelUnknown RiskLevel = iota
	LevelLow
	LevelMedium
	LevelHigh
)

// AtLeast reports whether the level meets the given tier. Unknown never
// qualifies for any tier.
func (l RiskLevel) AtLeast(tier RiskLevel) bool {
	return l != LevelUnknown && l >= tier
}

func (l RiskLevel) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseRiskLevel converts a stored level string back to a RiskLevel.
// Unrecognized strings map to LevelUnknown.
func ParseRiskLevel(s string) RiskLevel {
	switch s {
	case "low":
		return LevelLow
	case "medium":
		return LevelMedium
	case "high":
		return LevelHigh
	default:
		return LevelUnknown
	}
}

// Domain identifies which hazard cascade produced a label or episode.
type Domain string

const (
	DomainSnowdrift Domain = "snowdrift"
	DomainSlippery  Domain = "slippery_road"
)

// RiskLabel is the classification result for one (timestep, domain) pair.
// Rationale lists the matched rule conditions in evaluation order; it is
// load-bearing for audit output, not cosmetic.
type RiskLabel struct {
	Level     RiskLevel `json:"level"`
	Rationale []string  `json:"rationale,omitempty"`
}

// LabeledObservation is one row of the engine's per-timestep output
// table: the derived observation plus its label for each domain.
type LabeledObservation struct {
	Derived   DerivedObservation `json:"derived"`
	Snowdrift RiskLabel          `json:"snowdrift"`
	Slippery  RiskLabel          `json:"slippery"`
}

// Label returns the row's label for the given domain.
func (r *LabeledObservation) Label(d Domain) RiskLabel {
	if d == DomainSnowdrift {
		return r.Snowdrift
	}
	return r.Slippery
}

// EpisodeStats holds per-episode aggregates over the timesteps in the
// block. Pointer fields are nil when no timestep in the block carried the
// underlying metric.
type EpisodeStats struct {
	WindMax        *float64 `json:"wind_max,omitempty" msgpack:"wind_max,omitempty"`
	WindAvg        *float64 `json:"wind_avg,omitempty" msgpack:"wind_avg,omitempty"`
	GustMax        *float64 `json:"gust_max,omitempty" msgpack:"gust_max,omitempty"`
	AirTempMin     *float64 `json:"air_temp_min,omitempty" msgpack:"air_temp_min,omitempty"`
	AirTempAvg     *float64 `json:"air_temp_avg,omitempty" msgpack:"air_temp_avg,omitempty"`
	SurfaceTempMin *float64 `json:"surface_temp_min,omitempty" msgpack:"surface_temp_min,omitempty"`
	WindChillMin   *float64 `json:"wind_chill_min,omitempty" msgpack:"wind_chill_min,omitempty"`
	PrecipMax      *float64 `json:"precip_max,omitempty" msgpack:"precip_max,omitempty"`
	HumidityMax    *float64 `json:"humidity_max,omitempty" msgpack:"humidity_max,omitempty"`
	SnowDepthDelta *float64 `json:"snow_depth_delta,omitempty" msgpack:"snow_depth_delta,omitempty"`

	// PredominantSector is the statistical mode of the wind sector over
	// the block, empty when no timestep had a direction.
	PredominantSector string `json:"predominant_sector,omitempty" msgpack:"predominant_sector,omitempty"`
}

// Episode is a maximal contiguous (or gap-tolerant) span of timesteps
// sharing a qualifying hazard tier. Start and End are real timestamps
// from the input series; Steps counts the timesteps inside the span.
type Episode struct {
	ID        uuid.UUID    `json:"id"`
	Domain    Domain       `json:"domain"`
	Level     RiskLevel    `json:"level"`
	Start     time.Time    `json:"start"`
	End       time.Time    `json:"end"`
	Steps     int          `json:"steps"`
	Stats     EpisodeStats `json:"stats"`
	Rationale []string     `json:"rationale,omitempty"`
}
