// Package store persists station observations and the computed episode
// cache in a local SQLite database. It is a collaborator around the
// engine, not part of it: the pipeline itself never touches I/O. The
// episode cache follows a delete-then-insert refresh per (station,
// domain), so readers always see one coherent generation.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/toro68/snofokk-analyse-sub002/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS observations (
	stationname  TEXT NOT NULL,
	time         TEXT NOT NULL,
	air_temp     REAL,
	surface_temp REAL,
	wind_speed   REAL,
	wind_gust    REAL,
	wind_dir     REAL,
	snow_depth   REAL,
	precip_1h    REAL,
	precip_10m   REAL,
	rel_humidity REAL,
	dew_point    REAL,
	PRIMARY KEY (stationname, time)
);
CREATE TABLE IF NOT EXISTS episode_cache (
	stationname TEXT NOT NULL,
	domain      TEXT NOT NULL,
	id          TEXT NOT NULL,
	level       TEXT NOT NULL,
	start_time  TEXT NOT NULL,
	end_time    TEXT NOT NULL,
	steps       INTEGER NOT NULL,
	payload     BLOB,
	computed_at TEXT NOT NULL,
	PRIMARY KEY (stationname, domain, id)
);`

// Store wraps one station SQLite database.
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// Open opens (and if needed initializes) the database at path.
func Open(path string, logger *zap.SugaredLogger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveObservations upserts a batch of observations for a station.
func (s *Store) SaveObservations(ctx context.Context, station string, series []types.Observation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO observations
		(stationname, time, air_temp, surface_temp, wind_speed, wind_gust, wind_dir,
		 snow_depth, precip_1h, precip_10m, rel_humidity, dew_point)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, obs := range series {
		_, err := stmt.ExecContext(ctx, station, obs.Timestamp.UTC().Format(time.RFC3339),
			nullable(obs.AirTemp), nullable(obs.SurfaceTemp), nullable(obs.WindSpeed),
			nullable(obs.WindGust), nullable(obs.WindDir), nullable(obs.SnowDepth),
			nullable(obs.Precip1h), nullable(obs.Precip10m), nullable(obs.RelHumidity),
			nullable(obs.DewPoint))
		if err != nil {
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadObservations returns the station's observations in [from, to],
// ordered by time ascending, ready for the pipeline.
func (s *Store) LoadObservations(ctx context.Context, station string, from, to time.Time) ([]types.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT time, air_temp, surface_temp, wind_speed, wind_gust, wind_dir,
		       snow_depth, precip_1h, precip_10m, rel_humidity, dew_point
		FROM observations
		WHERE stationname = $1 AND time >= $2 AND time <= $3
		ORDER BY time
	`, station, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var series []types.Observation
	for rows.Next() {
		var ts string
		var airTemp, surfaceTemp, windSpeed, windGust, windDir sql.NullFloat64
		var snowDepth, precip1h, precip10m, relHumidity, dewPoint sql.NullFloat64

		err := rows.Scan(&ts, &airTemp, &surfaceTemp, &windSpeed, &windGust, &windDir,
			&snowDepth, &precip1h, &precip10m, &relHumidity, &dewPoint)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("bad timestamp %q: %w", ts, err)
		}

		series = append(series, types.Observation{
			Timestamp:   t,
			AirTemp:     optional(airTemp),
			SurfaceTemp: optional(surfaceTemp),
			WindSpeed:   optional(windSpeed),
			WindGust:    optional(windGust),
			WindDir:     optional(windDir),
			SnowDepth:   optional(snowDepth),
			Precip1h:    optional(precip1h),
			Precip10m:   optional(precip10m),
			RelHumidity: optional(relHumidity),
			DewPoint:    optional(dewPoint),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return series, nil
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func optional(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// episodePayload is the msgpack-encoded blob column of the episode
// cache: the aggregates and rationale that don't warrant columns of
// their own.
type episodePayload struct {
	Stats     types.EpisodeStats `msgpack:"stats"`
	Rationale []string           `msgpack:"rationale,omitempty"`
}

// RefreshEpisodes replaces the cached episodes for (station, domain)
// with the given list.
func (s *Store) RefreshEpisodes(ctx context.Context, station string, domain types.Domain, episodes []types.Episode) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM episode_cache WHERE stationname = $1 AND domain = $2`,
		station, string(domain)); err != nil {
		return fmt.Errorf("failed to delete old cache: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO episode_cache
		(stationname, domain, id, level, start_time, end_time, steps, payload, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, ep := range episodes {
		payload, err := msgpack.Marshal(episodePayload{Stats: ep.Stats, Rationale: ep.Rationale})
		if err != nil {
			return fmt.Errorf("failed to encode episode payload: %w", err)
		}
		_, err = stmt.ExecContext(ctx, station, string(ep.Domain), ep.ID.String(),
			ep.Level.String(),
			ep.Start.UTC().Format(time.RFC3339), ep.End.UTC().Format(time.RFC3339),
			ep.Steps, payload, now)
		if err != nil {
			return fmt.Errorf("failed to insert episode into cache: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if s.logger != nil {
		s.logger.Debugf("Cached %d %s episodes for %s", len(episodes), domain, station)
	}
	return nil
}

// LoadEpisodes returns the cached episodes for (station, domain) ordered
// by start time.
func (s *Store) LoadEpisodes(ctx context.Context, station string, domain types.Domain) ([]types.Episode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, level, start_time, end_time, steps, payload
		FROM episode_cache
		WHERE stationname = $1 AND domain = $2
		ORDER BY start_time
	`, station, string(domain))
	if err != nil {
		return nil, fmt.Errorf("query cache failed: %w", err)
	}
	defer rows.Close()

	var episodes []types.Episode
	for rows.Next() {
		var idStr, level, startStr, endStr string
		var steps int
		var payload []byte

		if err := rows.Scan(&idStr, &level, &startStr, &endStr, &steps, &payload); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("bad episode id %q: %w", idStr, err)
		}
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return nil, fmt.Errorf("bad start time %q: %w", startStr, err)
		}
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return nil, fmt.Errorf("bad end time %q: %w", endStr, err)
		}

		var p episodePayload
		if len(payload) > 0 {
			if err := msgpack.Unmarshal(payload, &p); err != nil {
				return nil, fmt.Errorf("failed to decode episode payload: %w", err)
			}
		}

		episodes = append(episodes, types.Episode{
			ID:        id,
			Domain:    domain,
			Level:     types.ParseRiskLevel(level),
			Start:     start,
			End:       end,
			Steps:     steps,
			Stats:     p.Stats,
			Rationale: p.Rationale,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return episodes, nil
}
