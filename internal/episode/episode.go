// Package episode merges per-timestep risk labels into contiguous or
// gap-tolerant hazard episodes with per-episode aggregates. Tiers are
// resolved top-down: timestamps claimed by a high episode never reappear
// inside a medium episode of the same domain, and unknown timesteps are
// excluded from every tier mask.
package episode

import (
	"sort"

	"github.com/toro68/snofokk-analyse-sub002/internal/types"
	"github.com/toro68/snofokk-analyse-sub002/pkg/config"
)

var tiers = [2]types.RiskLevel{types.LevelHigh, types.LevelMedium}

// ExtractContiguous converts a labeled series into episodes using the
// contiguous-run mode: per tier, an at-least-this-tier mask is scanned
// for rising and falling edges, and each block of at least
// MinDurationSteps timesteps becomes an episode. Shorter blocks are
// discarded as noise. An empty series yields no episodes.
func ExtractContiguous(rows []types.LabeledObservation, domain types.Domain, p config.EpisodeParams) []types.Episode {
	n := len(rows)
	if n == 0 {
		return nil
	}

	claimed := make([]bool, n)
	var episodes []types.Episode

	for _, tier := range tiers {
		mask := make([]bool, n)
		for i := range rows {
			mask[i] = !claimed[i] && rows[i].Label(domain).Level.AtLeast(tier)
		}

		for _, blk := range maskRuns(mask) {
			length := blk[1] - blk[0] + 1
			if length < p.MinDurationSteps {
				continue
			}
			idx := make([]int, 0, length)
			for i := blk[0]; i <= blk[1]; i++ {
				idx = append(idx, i)
				claimed[i] = true
			}
			episodes = append(episodes, Build(rows, idx, domain, tier, p))
		}
	}

	sort.Slice(episodes, func(i, j int) bool {
		return episodes[i].Start.Before(episodes[j].Start)
	})
	return episodes
}

// ClusterFlagged converts a labeled series into episodes using the
// gap-tolerant clustering mode: per tier, flagged timestamps merge into
// one episode while the gap to the previous flagged timestamp stays
// within GapTolerance. Episode statistics cover the flagged timesteps
// only; Steps counts flagged timesteps, not the wall-clock span.
func ClusterFlagged(rows []types.LabeledObservation, domain types.Domain, p config.EpisodeParams) []types.Episode {
	n := len(rows)
	if n == 0 {
		return nil
	}

	tolerance := p.GapTolerance()
	claimed := make([]bool, n)
	var episodes []types.Episode

	for _, tier := range tiers {
		var flagged []int
		for i := range rows {
			if !claimed[i] && rows[i].Label(domain).Level.AtLeast(tier) {
				flagged = append(flagged, i)
			}
		}

		var cluster []int
		flush := func() {
			if len(cluster) >= p.MinDurationSteps {
				for _, i := range cluster {
					claimed[i] = true
				}
				episodes = append(episodes, Build(rows, cluster, domain, tier, p))
			}
			cluster = nil
		}

		for _, i := range flagged {
			if len(cluster) > 0 {
				prev := rows[cluster[len(cluster)-1]].Derived.Timestamp
				if rows[i].Derived.Timestamp.Sub(prev) > tolerance {
					flush()
				}
			}
			cluster = append(cluster, i)
		}
		flush()
	}

	sort.Slice(episodes, func(i, j int) bool {
		return episodes[i].Start.Before(episodes[j].Start)
	})
	return episodes
}

// maskRuns finds the [start, end] index blocks of true runs in a boolean
// mask via rising and falling edges, including runs that begin at the
// first element or are still open at the last.
func maskRuns(mask []bool) [][2]int {
	var runs [][2]int
	prev := false
	start := 0
	for i, m := range mask {
		if m && !prev {
			start = i
		}
		if !m && prev {
			runs = append(runs, [2]int{start, i - 1})
		}
		prev = m
	}
	if prev {
		runs = append(runs, [2]int{start, len(mask) - 1})
	}
	return runs
}
