// Package derive computes secondary signals from the raw observation
// series: wind chill, rolling window aggregates, consecutive run-length
// counters, wind sector classification and the boolean gates that the
// risk cascades consult. Derivation is a single forward pass; no derived
// field ever looks at data later than its own timestep.
package derive

import (
	"math"
	"time"

	"github.com/toro68/snofokk-analyse-sub002/internal/types"
	"github.com/toro68/snofokk-analyse-sub002/pkg/config"
)

// Deriver carries the sequential state of one pass over one station's
// series: rolling windows and run-length counters. It is not safe to
// share across series; create one Deriver per contiguous series.
type Deriver struct {
	cfg config.DeriveParams

	step     int
	lastTime time.Time

	precip3h *window
	precip6h *window
	temp6h   *window
	wind3h   *window
	snow6h   *window

	windRun int
}

// New creates a Deriver with empty rolling state.
func New(cfg config.DeriveParams) *Deriver {
	return &Deriver{
		cfg:      cfg,
		precip3h: newWindow(3*time.Hour, 2),
		precip6h: newWindow(6*time.Hour, 3),
		temp6h:   newWindow(6*time.Hour, 4),
		wind3h:   newWindow(3*time.Hour, 2),
		snow6h:   newWindow(6*time.Hour, 4),
	}
}

// Push consumes the next observation and returns its DerivedObservation.
// Observations must arrive in strictly ascending timestamp order; a
// violation is returned as an OrderingError and leaves the rolling state
// untouched.
func (d *Deriver) Push(obs types.Observation) (types.DerivedObservation, error) {
	if d.step > 0 {
		if err := types.CheckOrdering(d.step, d.lastTime, obs.Timestamp); err != nil {
			return types.DerivedObservation{}, err
		}
	}

	d.precip3h.advance(obs.Timestamp, obs.HourlyPrecip())
	d.precip6h.advance(obs.Timestamp, obs.HourlyPrecip())
	d.temp6h.advance(obs.Timestamp, obs.AirTemp)
	d.wind3h.advance(obs.Timestamp, obs.WindSpeed)
	d.snow6h.advance(obs.Timestamp, obs.SnowDepth)

	if obs.WindSpeed != nil && *obs.WindSpeed >= d.cfg.WindPersistMin {
		d.windRun++
	} else {
		d.windRun = 0
	}

	out := types.DerivedObservation{
		Observation:      obs,
		Step:             d.step,
		Precip3hSum:      d.precip3h.sum(),
		Precip6hSum:      d.precip6h.sum(),
		AirTemp6hMean:    d.temp6h.mean(),
		Wind3hMean:       d.wind3h.mean(),
		Wind3hStd:        d.wind3h.stddev(),
		SnowDelta6h:      d.snow6h.delta(),
		WindPersistSteps: d.windRun,
	}

	if obs.AirTemp != nil && obs.WindSpeed != nil {
		wc := WindChill(*obs.AirTemp, *obs.WindSpeed)
		out.WindChill = &wc
	}

	if obs.WindDir != nil {
		out.WindSector = Sector(*obs.WindDir)
		out.HighRiskSector = inAzimuthRange(*obs.WindDir, d.cfg.HighRiskSectorFrom, d.cfg.HighRiskSectorTo)
	}

	if obs.SurfaceTemp != nil && obs.DewPoint != nil {
		spread := *obs.SurfaceTemp - *obs.DewPoint
		out.DewSpread = &spread
	}

	if obs.WindGust != nil && obs.WindSpeed != nil && *obs.WindSpeed > 0 {
		ratio := *obs.WindGust / *obs.WindSpeed
		out.GustRatio = &ratio
	}

	out.LooseSnow = d.looseSnow(obs, out.SnowDelta6h)
	out.HumidityPenalty = humidityPenalty(obs, d.cfg)

	d.step++
	d.lastTime = obs.Timestamp

	return out, nil
}

// DeriveAll runs a full forward pass over an ascending series.
func DeriveAll(cfg config.DeriveParams, series []types.Observation) ([]types.DerivedObservation, error) {
	if len(series) == 0 {
		return nil, nil
	}

	d := New(cfg)
	out := make([]types.DerivedObservation, 0, len(series))
	for _, obs := range series {
		der, err := d.Push(obs)
		if err != nil {
			return nil, err
		}
		out = append(out, der)
	}
	return out, nil
}

// looseSnow decides whether transportable snow is plausibly available:
// either the depth grew recently, or there is standing snow in freezing
// air. Missing inputs fail the gate rather than degrading the timestep.
func (d *Deriver) looseSnow(obs types.Observation, delta6h *float64) bool {
	if delta6h != nil && *delta6h >= d.cfg.LooseSnowDeltaCM {
		return true
	}
	if obs.SnowDepth != nil && obs.AirTemp != nil {
		return *obs.SnowDepth >= d.cfg.LooseSnowDepthCM && *obs.AirTemp <= d.cfg.LooseSnowFreezeC
	}
	return false
}

// humidityPenalty is set when near-saturated air coincides with
// temperatures near zero; wet snow resists drifting, so downstream wind
// thresholds are raised while the flag holds.
func humidityPenalty(obs types.Observation, cfg config.DeriveParams) bool {
	if obs.RelHumidity == nil || obs.AirTemp == nil {
		return false
	}
	return *obs.RelHumidity >= cfg.HumidityPenaltyRH &&
		math.Abs(*obs.AirTemp) <= cfg.HumidityPenaltyTempC
}
