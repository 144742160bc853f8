// Package archive implements the engine's persistence collaborator
// (A1, spec.md §6) against PostgreSQL via jackc/pgx/v5, the driver the
// retrieval pack uses wherever it talks to Postgres directly rather than
// through an ORM.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/seismag-engine/internal/domain"
	"github.com/couchcryptid/seismag-engine/internal/engine"
)

// Postgres implements engine.Archive against a connection pool. Every
// method returns promptly on error (engine.Archive's contract) rather
// than retrying internally — callers treat a failed query as an empty
// result with a logged warning (spec.md §7, ArchiveUnavailable).
type Postgres struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and verifies connectivity with a ping.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// GetPicks implements engine.Archive: every pick bound to origin, by
// joining through the arrivals table.
func (p *Postgres) GetPicks(originID string) ([]engine.Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := p.pool.Query(ctx, `
		SELECT p.public_id, p.network, p.station, p.location, p.channel,
		       p.time, p.agency_id, p.modified_at
		FROM picks p
		JOIN arrivals a ON a.pick_id = p.public_id
		WHERE a.origin_id = $1`, originID)
	if err != nil {
		return nil, fmt.Errorf("query picks: %w", err)
	}
	defer rows.Close()

	var out []engine.Record
	for rows.Next() {
		pick, modifiedAt, err := scanPick(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, engine.Record{
			Object:       domain.NewPickObject(pick),
			LastModified: modifiedAt,
		})
	}
	return out, rows.Err()
}

// GetAmplitudesForOrigin implements engine.Archive: amplitudes attached
// to picks that arrived at origin.
func (p *Postgres) GetAmplitudesForOrigin(originID string) ([]engine.Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := p.pool.Query(ctx, `
		SELECT am.public_id, am.type, am.network, am.station, am.location,
		       am.channel, am.value, am.period, am.pick_id,
		       am.evaluation_mode, am.creation_time, am.agency_id, am.modified_at
		FROM amplitudes am
		JOIN arrivals a ON a.pick_id = am.pick_id
		WHERE a.origin_id = $1`, originID)
	if err != nil {
		return nil, fmt.Errorf("query amplitudes: %w", err)
	}
	defer rows.Close()

	var out []engine.Record
	for rows.Next() {
		amp, modifiedAt, err := scanAmplitude(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, engine.Record{
			Object:       domain.NewAmplitudeObject(amp),
			LastModified: modifiedAt,
		})
	}
	return out, rows.Err()
}

// GetOriginsForAmplitude implements engine.Archive: origins whose
// arrivals reference the amplitude's pick, for the C8 retroactive-update
// path (spec.md §4.8 step 3).
func (p *Postgres) GetOriginsForAmplitude(amplitudeID string) ([]engine.Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := p.pool.Query(ctx, `
		SELECT o.public_id, o.depth, o.evaluation_status, o.agency_id,
		       o.creation_time, o.modified_at
		FROM origins o
		JOIN arrivals a ON a.origin_id = o.public_id
		JOIN amplitudes am ON am.pick_id = a.pick_id
		WHERE am.public_id = $1`, amplitudeID)
	if err != nil {
		return nil, fmt.Errorf("query origins_for_amplitude: %w", err)
	}
	defer rows.Close()

	var out []engine.Record
	for rows.Next() {
		origin, modifiedAt, err := scanOrigin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, engine.Record{
			Object:       domain.NewOriginObject(origin),
			LastModified: modifiedAt,
		})
	}
	return out, rows.Err()
}

// LoadArrivals implements engine.Archive: populates origin.Arrivals.
func (p *Postgres) LoadArrivals(origin *domain.Origin) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := p.pool.Query(ctx, `
		SELECT pick_id, distance, weight FROM arrivals WHERE origin_id = $1`, origin.PublicID)
	if err != nil {
		return fmt.Errorf("query arrivals: %w", err)
	}
	defer rows.Close()

	var arrivals []domain.Arrival
	for rows.Next() {
		var a domain.Arrival
		if err := rows.Scan(&a.PickID, &a.Distance, &a.Weight); err != nil {
			return fmt.Errorf("scan arrival: %w", err)
		}
		arrivals = append(arrivals, a)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	origin.Arrivals = arrivals
	return nil
}

// LoadMagnitudes implements engine.Archive: populates
// origin.NetworkMagnitudes, including prior contributions.
func (p *Postgres) LoadMagnitudes(origin *domain.Origin) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := p.pool.Query(ctx, `
		SELECT public_id, type, value, stddev, station_count, method_id,
		       evaluation_status, contributions, agency_id, author,
		       creation_time, modification_time
		FROM network_magnitudes WHERE origin_id = $1`, origin.PublicID)
	if err != nil {
		return fmt.Errorf("query network_magnitudes: %w", err)
	}
	defer rows.Close()

	var out []domain.NetworkMagnitude
	for rows.Next() {
		nm := domain.NetworkMagnitude{OriginID: origin.PublicID}
		var contributionsJSON []byte
		var modTime *time.Time
		if err := rows.Scan(&nm.PublicID, &nm.Type, &nm.Value, &nm.StdDev, &nm.StationCount,
			&nm.MethodID, &nm.EvaluationStatus, &contributionsJSON, &nm.AgencyID, &nm.Author,
			&nm.CreationTime, &modTime); err != nil {
			return fmt.Errorf("scan network_magnitude: %w", err)
		}
		nm.ModificationTime = modTime
		if len(contributionsJSON) > 0 {
			if err := json.Unmarshal(contributionsJSON, &nm.Contributions); err != nil {
				return fmt.Errorf("unmarshal contributions: %w", err)
			}
		}
		out = append(out, nm)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	origin.NetworkMagnitudes = out
	return nil
}

// LoadStationMagnitudes implements engine.Archive: populates
// origin.StationMagnitudes.
func (p *Postgres) LoadStationMagnitudes(origin *domain.Origin) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := p.pool.Query(ctx, `
		SELECT public_id, network, station, location, channel, type, value,
		       amplitude_id, agency_id, author, creation_time, modification_time
		FROM station_magnitudes WHERE origin_id = $1`, origin.PublicID)
	if err != nil {
		return fmt.Errorf("query station_magnitudes: %w", err)
	}
	defer rows.Close()

	var out []domain.StationMagnitude
	for rows.Next() {
		sm := domain.StationMagnitude{OriginID: origin.PublicID}
		var modTime *time.Time
		if err := rows.Scan(&sm.PublicID, &sm.WaveformID.Network, &sm.WaveformID.Station,
			&sm.WaveformID.Location, &sm.WaveformID.Channel, &sm.Type, &sm.Value,
			&sm.AmplitudeID, &sm.AgencyID, &sm.Author, &sm.CreationTime, &modTime); err != nil {
			return fmt.Errorf("scan station_magnitude: %w", err)
		}
		sm.ModificationTime = modTime
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	origin.StationMagnitudes = out
	return nil
}

// Load implements engine.Archive's generic-by-id lookup. It probes picks,
// amplitudes, then origins in turn since the id alone does not name its
// kind.
func (p *Postgres) Load(id string) (engine.Record, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := p.pool.QueryRow(ctx, `
		SELECT public_id, network, station, location, channel, time, agency_id, modified_at
		FROM picks WHERE public_id = $1`, id)
	if pick, modifiedAt, err := scanPick(row); err == nil {
		return engine.Record{Object: domain.NewPickObject(pick), LastModified: modifiedAt}, true, nil
	} else if err != pgx.ErrNoRows {
		return engine.Record{}, false, err
	}

	row = p.pool.QueryRow(ctx, `
		SELECT public_id, type, network, station, location, channel, value,
		       period, pick_id, evaluation_mode, creation_time, agency_id, modified_at
		FROM amplitudes WHERE public_id = $1`, id)
	if amp, modifiedAt, err := scanAmplitude(row); err == nil {
		return engine.Record{Object: domain.NewAmplitudeObject(amp), LastModified: modifiedAt}, true, nil
	} else if err != pgx.ErrNoRows {
		return engine.Record{}, false, err
	}

	row = p.pool.QueryRow(ctx, `
		SELECT public_id, depth, evaluation_status, agency_id, creation_time, modified_at
		FROM origins WHERE public_id = $1`, id)
	if origin, modifiedAt, err := scanOrigin(row); err == nil {
		return engine.Record{Object: domain.NewOriginObject(origin), LastModified: modifiedAt}, true, nil
	} else if err != pgx.ErrNoRows {
		return engine.Record{}, false, err
	}

	return engine.Record{}, false, nil
}

// rowScanner abstracts over pgx.Rows and pgx.Row, both of which expose Scan.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPick(row rowScanner) (*domain.Pick, time.Time, error) {
	var p domain.Pick
	var modifiedAt time.Time
	err := row.Scan(&p.PublicID, &p.WaveformID.Network, &p.WaveformID.Station,
		&p.WaveformID.Location, &p.WaveformID.Channel, &p.Time, &p.AgencyID, &modifiedAt)
	if err != nil {
		return nil, time.Time{}, err
	}
	return &p, modifiedAt, nil
}

func scanAmplitude(row rowScanner) (*domain.Amplitude, time.Time, error) {
	var a domain.Amplitude
	var modifiedAt time.Time
	err := row.Scan(&a.PublicID, &a.Type, &a.WaveformID.Network, &a.WaveformID.Station,
		&a.WaveformID.Location, &a.WaveformID.Channel, &a.Value, &a.Period, &a.PickID,
		&a.EvaluationMode, &a.CreationTime, &a.AgencyID, &modifiedAt)
	if err != nil {
		return nil, time.Time{}, err
	}
	return &a, modifiedAt, nil
}

func scanOrigin(row rowScanner) (*domain.Origin, time.Time, error) {
	var o domain.Origin
	var modifiedAt time.Time
	err := row.Scan(&o.PublicID, &o.Depth, &o.EvaluationStatus, &o.AgencyID,
		&o.CreationTime, &modifiedAt)
	if err != nil {
		return nil, time.Time{}, err
	}
	return &o, modifiedAt, nil
}
