package episode

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/toro68/snofokk-analyse-sub002/internal/types"
	"github.com/toro68/snofokk-analyse-sub002/pkg/config"
)

// Build assembles one episode from the rows at the given indices
// (ascending). Start and end are the real timestamps of the first and
// last row in the block.
func Build(rows []types.LabeledObservation, idx []int, domain types.Domain, tier types.RiskLevel, p config.EpisodeParams) types.Episode {
	first := rows[idx[0]].Derived
	last := rows[idx[len(idx)-1]].Derived

	ep := types.Episode{
		ID:     episodeID(domain, tier, first.Timestamp, last.Timestamp),
		Domain: domain,
		Level:  tier,
		Start:  first.Timestamp,
		End:    last.Timestamp,
		Steps:  len(idx),
	}

	wind := collect(rows, idx, func(d *types.DerivedObservation) *float64 { return d.WindSpeed })
	air := collect(rows, idx, func(d *types.DerivedObservation) *float64 { return d.AirTemp })
	ep.Stats.WindMax = maxOf(wind)
	ep.Stats.WindAvg = meanOf(wind)
	ep.Stats.GustMax = maxOf(collect(rows, idx, func(d *types.DerivedObservation) *float64 { return d.WindGust }))
	ep.Stats.AirTempMin = minOf(air)
	ep.Stats.AirTempAvg = meanOf(air)
	ep.Stats.SurfaceTempMin = minOf(collect(rows, idx, func(d *types.DerivedObservation) *float64 { return d.SurfaceTemp }))
	ep.Stats.WindChillMin = minOf(collect(rows, idx, func(d *types.DerivedObservation) *float64 { return d.WindChill }))
	ep.Stats.PrecipMax = maxOf(collect(rows, idx, func(d *types.DerivedObservation) *float64 { return d.HourlyPrecip() }))
	ep.Stats.HumidityMax = maxOf(collect(rows, idx, func(d *types.DerivedObservation) *float64 { return d.RelHumidity }))

	// Net depth change is last minus first reported value in the block.
	depths := collect(rows, idx, func(d *types.DerivedObservation) *float64 { return d.SnowDepth })
	if len(depths) > 0 {
		delta := depths[len(depths)-1] - depths[0]
		ep.Stats.SnowDepthDelta = &delta
	}

	ep.Stats.PredominantSector = sectorMode(rows, idx)
	ep.Rationale = rationaleUnion(rows, idx, domain, p.MaxRationale)

	return ep
}

// episodeID derives a stable identifier from the episode's identity
// tuple. Re-running the engine over the same input yields the same IDs,
// which keeps the pipeline idempotent and lets downstream alerting
// deduplicate across refreshes.
func episodeID(domain types.Domain, tier types.RiskLevel, start, end time.Time) uuid.UUID {
	key := fmt.Sprintf("%s|%s|%d|%d", domain, tier, start.Unix(), end.Unix())
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
}

// collect gathers the present values of one metric over the block, in
// block order.
func collect(rows []types.LabeledObservation, idx []int, field func(*types.DerivedObservation) *float64) []float64 {
	var vals []float64
	for _, i := range idx {
		if v := field(&rows[i].Derived); v != nil {
			vals = append(vals, *v)
		}
	}
	return vals
}

func maxOf(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	m := vals[0]
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return &m
}

func minOf(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	m := vals[0]
	for _, v := range vals {
		if v < m {
			m = v
		}
	}
	return &m
}

func meanOf(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	m := stat.Mean(vals, nil)
	return &m
}

// sectorMode returns the statistical mode of the wind sector over the
// block, empty when no row had a direction. Ties resolve to the sector
// seen first.
func sectorMode(rows []types.LabeledObservation, idx []int) string {
	counts := make(map[string]int)
	var order []string
	for _, i := range idx {
		s := rows[i].Derived.WindSector
		if s == "" {
			continue
		}
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}

	best := ""
	bestCount := 0
	for _, s := range order {
		if counts[s] > bestCount {
			best = s
			bestCount = counts[s]
		}
	}
	return best
}

// rationaleUnion deduplicates the per-timestep rationale strings across
// the block, preserving first-seen order and capping the result for
// report readability.
func rationaleUnion(rows []types.LabeledObservation, idx []int, domain types.Domain, limit int) []string {
	seen := make(map[string]bool)
	var union []string
	for _, i := range idx {
		for _, s := range rows[i].Label(domain).Rationale {
			if seen[s] {
				continue
			}
			seen[s] = true
			if len(union) < limit {
				union = append(union, s)
			}
		}
	}
	return union
}
