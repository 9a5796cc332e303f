package risk

import (
	"fmt"

	"github.com/toro68/snofokk-analyse-sub002/internal/types"
	"github.com/toro68/snofokk-analyse-sub002/pkg/config"
)

// effectiveWind derives the wind threshold actually in force for a
// timestep: the configured base, raised by the penalty boost while the
// humidity penalty flag holds. Thresholds are always derived this way,
// never read as bare constants, so the wet-snow adjustment applies
// uniformly across the cascade.
func effectiveWind(base float64, p config.SnowdriftParams, d *types.DerivedObservation) float64 {
	if d.HumidityPenalty {
		return base + p.WindPenaltyBoost
	}
	return base
}

// persistentWind reports whether transport-capable wind has held long
// enough. At the very start of a series the counter cannot yet have
// reached the configured minimum, so the requirement is capped at the
// number of timesteps seen so far; otherwise the first hours of an
// already-howling series would be misclassified for lack of history.
func persistentWind(p config.SnowdriftParams, d *types.DerivedObservation) bool {
	need := p.PersistMinSteps
	if seen := d.Step + 1; seen < need {
		need = seen
	}
	return d.WindPersistSteps >= need
}

// NewSnowdriftCascade builds the snowdrift rule cascade.
func NewSnowdriftCascade(p config.SnowdriftParams) Cascade {
	return Cascade{
		Domain: types.DomainSnowdrift,
		Rules: []Rule{
			{
				Name:  "guard",
				Level: types.LevelUnknown,
				Match: func(d *types.DerivedObservation) (bool, []string) {
					if d.WindSpeed == nil || d.AirTemp == nil {
						return true, []string{"wind or air temperature not reported"}
					}
					return false, nil
				},
			},
			{
				Name:  "drift-high",
				Level: types.LevelHigh,
				Match: func(d *types.DerivedObservation) (bool, []string) {
					eff := effectiveWind(p.WindHigh, p, d)
					if *d.WindSpeed < eff || *d.AirTemp > p.TempCritical || !d.LooseSnow || !persistentWind(p, d) {
						return false, nil
					}

					why := []string{
						fmt.Sprintf("sustained wind at or above %.1f m/s", eff),
						fmt.Sprintf("air temperature at or below %.1f°C", p.TempCritical),
						"loose snow available for transport",
					}
					if d.HumidityPenalty {
						why = append(why, "wind threshold raised for wet snow")
					}
					if d.HighRiskSector {
						// Exposure adds context, never gates.
						why = append(why, fmt.Sprintf("wind from high-risk sector %s", d.WindSector))
					}
					return true, why
				},
			},
			{
				Name:  "drift-medium",
				Level: types.LevelMedium,
				Match: func(d *types.DerivedObservation) (bool, []string) {
					eff := effectiveWind(p.WindMedium, p, d)
					if *d.WindSpeed >= eff && *d.AirTemp <= p.TempCritical && d.LooseSnow {
						why := []string{
							fmt.Sprintf("wind at or above %.1f m/s", eff),
							fmt.Sprintf("air temperature at or below %.1f°C", p.TempCritical),
							"loose snow available for transport",
						}
						if d.HumidityPenalty {
							why = append(why, "wind threshold raised for wet snow")
						}
						if d.HighRiskSector {
							why = append(why, fmt.Sprintf("wind from high-risk sector %s", d.WindSector))
						}
						return true, why
					}

					// Near-zero edge case: strong wind over fresh snow can
					// drift even when the air is not yet properly cold.
					if *d.AirTemp <= p.NearZeroTempMaxC && *d.WindSpeed >= p.NearZeroWindMin &&
						d.SnowDelta6h != nil && *d.SnowDelta6h >= p.FreshSnowDeltaCM {
						return true, []string{
							fmt.Sprintf("strong wind at or above %.1f m/s near zero degrees", p.NearZeroWindMin),
							"recent fresh snow",
						}
					}

					return false, nil
				},
			},
			{
				Name:  "drift-low",
				Level: types.LevelLow,
				Match: func(d *types.DerivedObservation) (bool, []string) {
					return true, nil
				},
			},
		},
	}
}
