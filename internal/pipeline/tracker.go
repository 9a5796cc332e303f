package pipeline

import (
	"sort"

	"github.com/toro68/snofokk-analyse-sub002/internal/derive"
	"github.com/toro68/snofokk-analyse-sub002/internal/episode"
	"github.com/toro68/snofokk-analyse-sub002/internal/risk"
	"github.com/toro68/snofokk-analyse-sub002/internal/types"
	"github.com/toro68/snofokk-analyse-sub002/pkg/config"
)

// Tracker is the incremental variant of the batch pipeline: each pushed
// observation updates the rolling derive state, classifies only the
// newest timestep, and extends or closes the currently open episode per
// domain. For any series, Push-ing every observation and calling
// Finalize yields exactly the labels and contiguous-mode episode
// boundaries that Analyzer.Run produces; the batch semantics are the
// contract, the tracker is the O(1)-per-step rendition of them.
type Tracker struct {
	cfg        config.Config
	deriver    *derive.Deriver
	classifier *risk.Classifier

	rows []types.LabeledObservation
	runs map[types.Domain]*runState
	done map[types.Domain][]types.Episode
}

// runState tracks the open at-least-medium run for one domain, together
// with the at-least-high sub-runs inside it. Tier precedence is resolved
// when the run closes: qualifying high sub-runs claim their timestamps
// first, the remaining segments become medium candidates.
type runState struct {
	active    bool
	start     int
	highs     [][2]int
	highOpen  bool
	highStart int
}

// NewTracker creates an empty incremental pipeline.
func NewTracker(cfg config.Config) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tracker{
		cfg:        cfg,
		deriver:    derive.New(cfg.Derive),
		classifier: risk.NewClassifier(cfg),
		runs: map[types.Domain]*runState{
			types.DomainSnowdrift: {},
			types.DomainSlippery:  {},
		},
		done: make(map[types.Domain][]types.Episode),
	}, nil
}

// Push consumes the next observation and returns its labeled row. A
// timestamp at or before the previous one is rejected with an
// OrderingError and leaves all state untouched.
func (t *Tracker) Push(obs types.Observation) (types.LabeledObservation, error) {
	der, err := t.deriver.Push(obs)
	if err != nil {
		return types.LabeledObservation{}, err
	}

	drift, slip := t.classifier.Classify(&der)
	row := types.LabeledObservation{Derived: der, Snowdrift: drift, Slippery: slip}
	t.rows = append(t.rows, row)

	i := len(t.rows) - 1
	t.step(types.DomainSnowdrift, i, drift.Level)
	t.step(types.DomainSlippery, i, slip.Level)

	return row, nil
}

// Rows returns the labeled table accumulated so far.
func (t *Tracker) Rows() []types.LabeledObservation {
	return t.rows
}

// Finalize closes any still-open runs at the end of the series and
// returns the complete Result. The tracker can keep accepting pushes
// afterwards only for a new series; reuse is not supported.
func (t *Tracker) Finalize() *Result {
	last := len(t.rows) - 1
	for _, domain := range []types.Domain{types.DomainSnowdrift, types.DomainSlippery} {
		rs := t.runs[domain]
		if rs.active {
			t.closeRun(domain, rs, last)
		}
	}

	res := &Result{Rows: t.rows, Episodes: make(map[types.Domain][]types.Episode)}
	for domain, eps := range t.done {
		sort.Slice(eps, func(i, j int) bool { return eps[i].Start.Before(eps[j].Start) })
		res.Episodes[domain] = eps
	}
	for _, domain := range []types.Domain{types.DomainSnowdrift, types.DomainSlippery} {
		if _, ok := res.Episodes[domain]; !ok {
			res.Episodes[domain] = nil
		}
	}
	return res
}

// step advances one domain's run state machine for the newest timestep.
// Unknown never qualifies for any tier, so it closes an open run exactly
// like low does.
func (t *Tracker) step(domain types.Domain, i int, level types.RiskLevel) {
	rs := t.runs[domain]
	atMedium := level.AtLeast(types.LevelMedium)
	atHigh := level.AtLeast(types.LevelHigh)

	if atMedium && !rs.active {
		rs.active = true
		rs.start = i
		rs.highs = nil
		rs.highOpen = false
	}

	if rs.active {
		if atHigh && !rs.highOpen {
			rs.highOpen = true
			rs.highStart = i
		}
		if !atHigh && rs.highOpen {
			rs.highOpen = false
			rs.highs = append(rs.highs, [2]int{rs.highStart, i - 1})
		}
	}

	if !atMedium && rs.active {
		t.closeRun(domain, rs, i-1)
	}
}

// closeRun finalizes an at-least-medium run ending at index end. High
// sub-runs meeting the minimum duration are emitted first and claim
// their timestamps; the unclaimed remainder segments are emitted as
// medium episodes when they meet the minimum themselves. Sub-minimum
// high runs stay inside their surrounding medium segment, matching the
// batch masks exactly.
func (t *Tracker) closeRun(domain types.Domain, rs *runState, end int) {
	if rs.highOpen {
		rs.highs = append(rs.highs, [2]int{rs.highStart, end})
		rs.highOpen = false
	}

	minSteps := t.cfg.Episode.MinDurationSteps
	segStart := rs.start
	for _, h := range rs.highs {
		if h[1]-h[0]+1 < minSteps {
			continue
		}
		t.emit(domain, segStart, h[0]-1, types.LevelMedium)
		t.emit(domain, h[0], h[1], types.LevelHigh)
		segStart = h[1] + 1
	}
	t.emit(domain, segStart, end, types.LevelMedium)

	rs.active = false
	rs.highs = nil
}

// emit appends an episode for [start, end] at the given tier when the
// block meets the minimum duration.
func (t *Tracker) emit(domain types.Domain, start, end int, tier types.RiskLevel) {
	length := end - start + 1
	if length < t.cfg.Episode.MinDurationSteps {
		return
	}
	idx := make([]int, 0, length)
	for i := start; i <= end; i++ {
		idx = append(idx, i)
	}
	t.done[domain] = append(t.done[domain], episode.Build(t.rows, idx, domain, tier, t.cfg.Episode))
}
