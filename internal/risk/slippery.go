package risk

import (
	"fmt"
	"math"

	"github.com/toro68/snofokk-analyse-sub002/internal/types"
	"github.com/toro68/snofokk-analyse-sub002/pkg/config"
)

// NewSlipperyCascade builds the slippery-road rule cascade.
func NewSlipperyCascade(p config.SlipperyParams) Cascade {
	return Cascade{
		Domain: types.DomainSlippery,
		Rules: []Rule{
			{
				Name:  "guard",
				Level: types.LevelUnknown,
				Match: func(d *types.DerivedObservation) (bool, []string) {
					if d.AirTemp == nil {
						return true, []string{"air temperature not reported"}
					}
					return false, nil
				},
			},
			{
				// Fresh snow is natural traction; this rule dominates
				// everything below it, whatever the other fields say.
				Name:  "fresh-snow-override",
				Level: types.LevelLow,
				Match: func(d *types.DerivedObservation) (bool, []string) {
					if d.SnowDelta6h != nil && *d.SnowDelta6h >= p.FreshSnowDeltaCM {
						return true, []string{
							fmt.Sprintf("fresh snow of at least %.1f cm in 6h provides traction", p.FreshSnowDeltaCM),
						}
					}
					return false, nil
				},
			},
			{
				Name:  "rain-on-snow-high",
				Level: types.LevelHigh,
				Match: func(d *types.DerivedObservation) (bool, []string) {
					if rainOnSnow(p, d, p.RainPrecipFloor, p.MildBandMaxC, true) {
						return true, []string{
							fmt.Sprintf("rain-on-snow: precipitation at or above %.1f mm/h onto snow cover", p.RainPrecipFloor),
							fmt.Sprintf("mild air between %.1f and %.1f°C", p.MildBandMinC, p.MildBandMaxC),
						}
					}
					return false, nil
				},
			},
			{
				Name:  "ice-formation-high",
				Level: types.LevelHigh,
				Match: func(d *types.DerivedObservation) (bool, []string) {
					if d.SurfaceTemp == nil || *d.SurfaceTemp > 0 {
						return false, nil
					}
					if precip := d.HourlyPrecip(); precip != nil && *precip >= p.ActivePrecipFloor {
						return true, []string{
							"freezing road surface with active precipitation",
						}
					}
					if d.RelHumidity != nil && *d.RelHumidity >= p.IceRHMin &&
						d.DewSpread != nil && math.Abs(*d.DewSpread) <= p.DewSpreadMaxC {
						return true, []string{
							"freezing road surface with dew point at the surface",
							fmt.Sprintf("humidity at or above %.0f%%", p.IceRHMin),
						}
					}
					return false, nil
				},
			},
			{
				Name:  "rain-on-snow-medium",
				Level: types.LevelMedium,
				Match: func(d *types.DerivedObservation) (bool, []string) {
					if rainOnSnow(p, d, p.RainPrecipFloorMedium, p.MildBandMaxMediumC, p.MediumNeedsSnowCover) {
						return true, []string{
							fmt.Sprintf("light rain at or above %.1f mm/h in mild air", p.RainPrecipFloorMedium),
						}
					}
					return false, nil
				},
			},
			{
				Name:  "marginal-surface-medium",
				Level: types.LevelMedium,
				Match: func(d *types.DerivedObservation) (bool, []string) {
					if d.SurfaceTemp != nil && *d.SurfaceTemp <= p.SurfaceMarginalMaxC &&
						d.RelHumidity != nil && *d.RelHumidity >= p.MarginalRHMin {
						return true, []string{
							fmt.Sprintf("road surface at or below %.1f°C with humid air", p.SurfaceMarginalMaxC),
						}
					}
					return false, nil
				},
			},
			{
				Name:  "slippery-low",
				Level: types.LevelLow,
				Match: func(d *types.DerivedObservation) (bool, []string) {
					return true, nil
				},
			},
		},
	}
}

// rainOnSnow is the shared shape of the strict and relaxed rain rules:
// precipitation intensity over a floor, air temperature inside the mild
// band, and (optionally) existing snow cover.
func rainOnSnow(p config.SlipperyParams, d *types.DerivedObservation, precipFloor, bandMax float64, needSnow bool) bool {
	precip := d.HourlyPrecip()
	if precip == nil || *precip < precipFloor {
		return false
	}
	if *d.AirTemp <= p.MildBandMinC || *d.AirTemp > bandMax {
		return false
	}
	if needSnow && (d.SnowDepth == nil || *d.SnowDepth < p.SnowCoverMinCM) {
		return false
	}
	return true
}
