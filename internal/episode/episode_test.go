package episode

import (
	"testing"
	"time"

	"github.com/toro68/snofokk-analyse-sub002/internal/types"
	"github.com/toro68/snofokk-analyse-sub002/pkg/config"
)

func f64(v float64) *float64 { return &v }

// labeledHourly builds an hourly labeled series from a level pattern:
// 'H' high, 'M' medium, 'L' low, 'U' unknown.
func labeledHourly(pattern string, fill func(i int, r *types.LabeledObservation)) []types.LabeledObservation {
	start := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]types.LabeledObservation, len(pattern))
	for i, c := range pattern {
		var level types.RiskLevel
		switch c {
		case 'H':
			level = types.LevelHigh
		case 'M':
			level = types.LevelMedium
		case 'L':
			level = types.LevelLow
		default:
			level = types.LevelUnknown
		}
		rows[i].Derived.Timestamp = start.Add(time.Duration(i) * time.Hour)
		rows[i].Derived.Step = i
		rows[i].Snowdrift = types.RiskLabel{Level: level}
		rows[i].Slippery = types.RiskLabel{Level: types.LevelLow}
		if fill != nil {
			fill(i, &rows[i])
		}
	}
	return rows
}

func levels(eps []types.Episode) []string {
	var out []string
	for _, ep := range eps {
		out = append(out, ep.Level.String())
	}
	return out
}

func TestExtractContiguous(t *testing.T) {
	p := config.Default().Episode

	tests := []struct {
		name     string
		pattern  string
		expected []struct {
			level types.RiskLevel
			start int
			steps int
		}
	}{
		{
			name:    "one high and one medium block",
			pattern: "LHHHLMML",
			expected: []struct {
				level types.RiskLevel
				start int
				steps int
			}{
				{types.LevelHigh, 1, 3},
				{types.LevelMedium, 5, 2},
			},
		},
		{
			name:    "series starting and ending in a block",
			pattern: "HHLLHH",
			expected: []struct {
				level types.RiskLevel
				start int
				steps int
			}{
				{types.LevelHigh, 0, 2},
				{types.LevelHigh, 4, 2},
			},
		},
		{
			name:     "single qualifying timestep discarded as noise",
			pattern:  "LLHLL",
			expected: nil,
		},
		{
			name:     "unknown breaks a run",
			pattern:  "MUM",
			expected: nil,
		},
		{
			name:    "high claims inside a medium run",
			pattern: "MMHHMM",
			expected: []struct {
				level types.RiskLevel
				start int
				steps int
			}{
				{types.LevelMedium, 0, 2},
				{types.LevelHigh, 2, 2},
				{types.LevelMedium, 4, 2},
			},
		},
		{
			name:    "short high run stays inside the medium episode",
			pattern: "MMHMM",
			expected: []struct {
				level types.RiskLevel
				start int
				steps int
			}{
				{types.LevelMedium, 0, 5},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := labeledHourly(tt.pattern, nil)
			eps := ExtractContiguous(rows, types.DomainSnowdrift, p)

			if len(eps) != len(tt.expected) {
				t.Fatalf("expected %d episodes, got %d (%v)", len(tt.expected), len(eps), levels(eps))
			}
			for i, want := range tt.expected {
				ep := eps[i]
				if ep.Level != want.level {
					t.Errorf("episode %d: expected level %s, got %s", i, want.level, ep.Level)
				}
				wantStart := rows[want.start].Derived.Timestamp
				if !ep.Start.Equal(wantStart) {
					t.Errorf("episode %d: expected start %s, got %s", i, wantStart, ep.Start)
				}
				if ep.Steps != want.steps {
					t.Errorf("episode %d: expected %d steps, got %d", i, want.steps, ep.Steps)
				}
				if ep.End.Sub(ep.Start) != time.Duration(want.steps-1)*time.Hour {
					t.Errorf("episode %d: end %s inconsistent with %d steps", i, ep.End, want.steps)
				}
			}
		})
	}
}

func TestExtractContiguousEmptyInput(t *testing.T) {
	if eps := ExtractContiguous(nil, types.DomainSnowdrift, config.Default().Episode); eps != nil {
		t.Errorf("expected no episodes for empty input, got %d", len(eps))
	}
}

func TestMutualExclusivity(t *testing.T) {
	rows := labeledHourly("MMHHHMMHHML", nil)
	eps := ExtractContiguous(rows, types.DomainSnowdrift, config.Default().Episode)

	seen := make(map[time.Time]types.RiskLevel)
	for _, ep := range eps {
		for ts := ep.Start; !ts.After(ep.End); ts = ts.Add(time.Hour) {
			if prev, ok := seen[ts]; ok {
				t.Errorf("timestamp %s claimed by both %s and %s episodes", ts, prev, ep.Level)
			}
			seen[ts] = ep.Level
		}
	}
}

func TestClusterFlagged(t *testing.T) {
	// Sparse medium flags with a 5h hole in the middle.
	pattern := "MMLLLLLMML"

	t.Run("within tolerance merges", func(t *testing.T) {
		p := config.Default().Episode
		p.GapToleranceHours = 6
		rows := labeledHourly(pattern, nil)

		eps := ClusterFlagged(rows, types.DomainSnowdrift, p)
		if len(eps) != 1 {
			t.Fatalf("expected 1 episode, got %d", len(eps))
		}
		if eps[0].Steps != 4 {
			t.Errorf("expected 4 flagged steps, got %d", eps[0].Steps)
		}
		if !eps[0].Start.Equal(rows[0].Derived.Timestamp) || !eps[0].End.Equal(rows[8].Derived.Timestamp) {
			t.Errorf("unexpected bounds %s to %s", eps[0].Start, eps[0].End)
		}
	})

	t.Run("beyond tolerance splits", func(t *testing.T) {
		p := config.Default().Episode
		p.GapToleranceHours = 3
		rows := labeledHourly(pattern, nil)

		eps := ClusterFlagged(rows, types.DomainSnowdrift, p)
		if len(eps) != 2 {
			t.Fatalf("expected 2 episodes, got %d", len(eps))
		}
		if eps[0].Steps != 2 || eps[1].Steps != 2 {
			t.Errorf("expected 2 flagged steps each, got %d and %d", eps[0].Steps, eps[1].Steps)
		}
	})
}

func TestAggregates(t *testing.T) {
	winds := []float64{8, 12, 10}
	temps := []float64{-2, -6, -4}
	depths := []float64{20, 22, 25}
	sectors := []string{"S", "SE", "S"}

	rows := labeledHourly("HHH", func(i int, r *types.LabeledObservation) {
		r.Derived.WindSpeed = f64(winds[i])
		r.Derived.AirTemp = f64(temps[i])
		r.Derived.SnowDepth = f64(depths[i])
		r.Derived.WindSector = sectors[i]
		r.Snowdrift.Rationale = []string{"sustained wind", "loose snow available for transport"}
	})

	eps := ExtractContiguous(rows, types.DomainSnowdrift, config.Default().Episode)
	if len(eps) != 1 {
		t.Fatalf("expected 1 episode, got %d", len(eps))
	}
	st := eps[0].Stats

	if st.WindMax == nil || *st.WindMax != 12 {
		t.Errorf("expected WindMax 12, got %v", st.WindMax)
	}
	if st.WindAvg == nil || *st.WindAvg != 10 {
		t.Errorf("expected WindAvg 10, got %v", st.WindAvg)
	}
	if st.AirTempMin == nil || *st.AirTempMin != -6 {
		t.Errorf("expected AirTempMin -6, got %v", st.AirTempMin)
	}
	if st.SnowDepthDelta == nil || *st.SnowDepthDelta != 5 {
		t.Errorf("expected SnowDepthDelta 5, got %v", st.SnowDepthDelta)
	}
	if st.PredominantSector != "S" {
		t.Errorf("expected predominant sector S, got %s", st.PredominantSector)
	}
	if st.SurfaceTempMin != nil {
		t.Errorf("expected nil SurfaceTempMin when never reported, got %v", st.SurfaceTempMin)
	}

	// Identical per-timestep rationale collapses to one copy of each.
	if len(eps[0].Rationale) != 2 {
		t.Errorf("expected 2 deduplicated rationale strings, got %v", eps[0].Rationale)
	}
}

func TestRationaleCap(t *testing.T) {
	rows := labeledHourly("HHHH", func(i int, r *types.LabeledObservation) {
		r.Snowdrift.Rationale = []string{
			"a" + string(rune('0'+i)),
			"b" + string(rune('0'+i)),
			"c" + string(rune('0'+i)),
		}
	})

	p := config.Default().Episode
	p.MaxRationale = 5
	eps := ExtractContiguous(rows, types.DomainSnowdrift, p)
	if len(eps) != 1 {
		t.Fatalf("expected 1 episode, got %d", len(eps))
	}
	if len(eps[0].Rationale) != 5 {
		t.Errorf("expected rationale capped at 5, got %d", len(eps[0].Rationale))
	}
}

func TestDeterministicIDs(t *testing.T) {
	rows := labeledHourly("HHHLL", nil)
	p := config.Default().Episode

	a := ExtractContiguous(rows, types.DomainSnowdrift, p)
	b := ExtractContiguous(rows, types.DomainSnowdrift, p)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected 1 episode per run, got %d and %d", len(a), len(b))
	}
	if a[0].ID != b[0].ID {
		t.Errorf("expected stable episode IDs, got %s and %s", a[0].ID, b[0].ID)
	}
}
