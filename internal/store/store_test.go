package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/toro68/snofokk-analyse-sub002/internal/types"
)

func f64(v float64) *float64 { return &v }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "station.db"), nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestObservationRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	series := []types.Observation{
		{
			Timestamp:   base,
			AirTemp:     f64(-4.5),
			WindSpeed:   f64(9.2),
			WindDir:     f64(180),
			SnowDepth:   f64(22.0),
			RelHumidity: f64(88),
		},
		{
			// Sparse record: most sensors down.
			Timestamp: base.Add(time.Hour),
			AirTemp:   f64(-4.0),
		},
		{
			Timestamp:   base.Add(2 * time.Hour),
			AirTemp:     f64(-3.5),
			SurfaceTemp: f64(-1.2),
			WindSpeed:   f64(10.1),
			WindGust:    f64(15.4),
			WindDir:     f64(202.5),
			SnowDepth:   f64(23.5),
			Precip1h:    f64(0.4),
			Precip10m:   f64(0.1),
			RelHumidity: f64(93),
			DewPoint:    f64(-4.4),
		},
	}

	if err := s.SaveObservations(ctx, "fjellstasjon", series); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := s.LoadObservations(ctx, "fjellstasjon", base, base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !reflect.DeepEqual(series, got) {
		t.Errorf("round trip mismatch:\nsaved:  %+v\nloaded: %+v", series, got)
	}

	// A different station sees nothing.
	other, err := s.LoadObservations(ctx, "dalstasjon", base, base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no rows for other station, got %d", len(other))
	}
}

func TestSaveObservationsUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ts := time.Date(2024, time.February, 1, 6, 0, 0, 0, time.UTC)

	first := []types.Observation{{Timestamp: ts, AirTemp: f64(-2.0)}}
	if err := s.SaveObservations(ctx, "fjellstasjon", first); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Corrected reading for the same hour replaces the old row.
	second := []types.Observation{{Timestamp: ts, AirTemp: f64(-2.4), WindSpeed: f64(7.0)}}
	if err := s.SaveObservations(ctx, "fjellstasjon", second); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := s.LoadObservations(ctx, "fjellstasjon", ts, ts)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row after upsert, got %d", len(got))
	}
	if got[0].AirTemp == nil || *got[0].AirTemp != -2.4 {
		t.Errorf("expected corrected air temp -2.4, got %v", got[0].AirTemp)
	}
}

func TestLoadObservationsRangeBounds(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	var series []types.Observation
	for i := 0; i < 6; i++ {
		series = append(series, types.Observation{Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}
	if err := s.SaveObservations(ctx, "fjellstasjon", series); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := s.LoadObservations(ctx, "fjellstasjon", base.Add(time.Hour), base.Add(4*time.Hour))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 rows in inclusive range, got %d", len(got))
	}
	if !got[0].Timestamp.Equal(base.Add(time.Hour)) || !got[3].Timestamp.Equal(base.Add(4*time.Hour)) {
		t.Errorf("unexpected range bounds %s to %s", got[0].Timestamp, got[3].Timestamp)
	}
}

func testEpisode(id byte, start time.Time, steps int, level types.RiskLevel) types.Episode {
	return types.Episode{
		ID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte{id}),
		Domain: types.DomainSnowdrift,
		Level:  level,
		Start:  start,
		End:    start.Add(time.Duration(steps-1) * time.Hour),
		Steps:  steps,
		Stats: types.EpisodeStats{
			WindMax:           f64(14.2),
			WindAvg:           f64(11.0),
			AirTempMin:        f64(-8.1),
			PredominantSector: "SW",
		},
		Rationale: []string{"sustained wind at or above 9.0 m/s", "loose snow available for transport"},
	}
}

func TestEpisodeCacheRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, time.February, 2, 0, 0, 0, 0, time.UTC)

	eps := []types.Episode{
		testEpisode(1, base, 6, types.LevelHigh),
		testEpisode(2, base.Add(12*time.Hour), 3, types.LevelMedium),
	}
	if err := s.RefreshEpisodes(ctx, "fjellstasjon", types.DomainSnowdrift, eps); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	got, err := s.LoadEpisodes(ctx, "fjellstasjon", types.DomainSnowdrift)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !reflect.DeepEqual(eps, got) {
		t.Errorf("cache round trip mismatch:\nsaved:  %+v\nloaded: %+v", eps, got)
	}

	// The other domain's cache is untouched and empty.
	slips, err := s.LoadEpisodes(ctx, "fjellstasjon", types.DomainSlippery)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(slips) != 0 {
		t.Errorf("expected empty slippery cache, got %d episodes", len(slips))
	}
}

func TestRefreshReplacesGeneration(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, time.February, 2, 0, 0, 0, 0, time.UTC)

	first := []types.Episode{
		testEpisode(1, base, 6, types.LevelHigh),
		testEpisode(2, base.Add(12*time.Hour), 3, types.LevelMedium),
	}
	if err := s.RefreshEpisodes(ctx, "fjellstasjon", types.DomainSnowdrift, first); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	second := []types.Episode{testEpisode(3, base.Add(2*time.Hour), 4, types.LevelHigh)}
	if err := s.RefreshEpisodes(ctx, "fjellstasjon", types.DomainSnowdrift, second); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	got, err := s.LoadEpisodes(ctx, "fjellstasjon", types.DomainSnowdrift)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected old generation gone, got %d episodes", len(got))
	}
	if got[0].ID != second[0].ID {
		t.Errorf("expected episode %s, got %s", second[0].ID, got[0].ID)
	}
}

func TestRefreshEpisodesEmptyClearsCache(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, time.February, 2, 0, 0, 0, 0, time.UTC)

	if err := s.RefreshEpisodes(ctx, "fjellstasjon", types.DomainSnowdrift,
		[]types.Episode{testEpisode(1, base, 6, types.LevelHigh)}); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if err := s.RefreshEpisodes(ctx, "fjellstasjon", types.DomainSnowdrift, nil); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	got, err := s.LoadEpisodes(ctx, "fjellstasjon", types.DomainSnowdrift)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected cleared cache, got %d episodes", len(got))
	}
}
