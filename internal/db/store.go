package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"navigation-simulator/internal/player"
	"navigation-simulator/internal/route"
)

// ErrNotFound is returned when a stored route or session does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS routes (
  id         BIGSERIAL PRIMARY KEY,
  name       TEXT NOT NULL DEFAULT '',
  step_count INTEGER NOT NULL,
  distance_m DOUBLE PRECISION NOT NULL,
  body       JSONB NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS playback_sessions (
  id             UUID PRIMARY KEY,
  route_id       BIGINT REFERENCES routes(id) ON DELETE SET NULL,
  step_count     INTEGER NOT NULL,
  started_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  finished_at    TIMESTAMPTZ,
  route_complete BOOLEAN NOT NULL DEFAULT false,
  superseded     BOOLEAN NOT NULL DEFAULT false,
  steps_played   INTEGER NOT NULL DEFAULT 0,
  frames         INTEGER NOT NULL DEFAULT 0
);`

// Store persists routes and the outcome of playbacks.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Migrate creates the tables the store needs.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// RouteInfo describes a stored route without its geometry.
type RouteInfo struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StepCount int       `json:"stepCount"`
	Distance  float64   `json:"distance"`
	CreatedAt time.Time `json:"createdAt"`
}

// SaveRoute stores rt and returns its id.
func (s *Store) SaveRoute(ctx context.Context, name string, rt route.Route) (int64, error) {
	body, err := json.Marshal(rt)
	if err != nil {
		return 0, fmt.Errorf("encode route: %w", err)
	}
	var dist float64
	steps := rt.Steps()
	for _, st := range steps {
		dist += st.Distance
	}
	q := `INSERT INTO routes (name, step_count, distance_m, body) VALUES ($1, $2, $3, $4::jsonb) RETURNING id`
	var id int64
	if err := s.db.QueryRowContext(ctx, q, name, len(steps), dist, string(body)).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert route: %w", err)
	}
	return id, nil
}

func (s *Store) LoadRoute(ctx context.Context, id int64) (route.Route, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM routes WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return route.Route{}, fmt.Errorf("route %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return route.Route{}, fmt.Errorf("query route %d: %w", id, err)
	}
	var rt route.Route
	if err := json.Unmarshal(body, &rt); err != nil {
		return route.Route{}, fmt.Errorf("decode route %d: %w", id, err)
	}
	return rt, nil
}

// ListRoutes returns the most recently stored routes first.
func (s *Store) ListRoutes(ctx context.Context, limit int) ([]RouteInfo, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT id, name, step_count, distance_m, created_at FROM routes ORDER BY id DESC LIMIT $1`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	defer rows.Close()
	var out []RouteInfo
	for rows.Next() {
		var ri RouteInfo
		if err := rows.Scan(&ri.ID, &ri.Name, &ri.StepCount, &ri.Distance, &ri.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ri)
	}
	return out, rows.Err()
}

// RecordSession stores a started playback. routeID 0 means the route was not stored.
func (s *Store) RecordSession(ctx context.Context, session uuid.UUID, routeID int64, stepCount int) error {
	var rid sql.NullInt64
	if routeID > 0 {
		rid = sql.NullInt64{Int64: routeID, Valid: true}
	}
	q := `INSERT INTO playback_sessions (id, route_id, step_count) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, q, session, rid, stepCount); err != nil {
		return fmt.Errorf("insert session %s: %w", session, err)
	}
	return nil
}

// FinishSession stores how a playback ended.
func (s *Store) FinishSession(ctx context.Context, res player.Result) error {
	q := `
UPDATE playback_sessions
SET finished_at = now(), route_complete = $2, superseded = $3, steps_played = $4, frames = $5
WHERE id = $1`
	r, err := s.db.ExecContext(ctx, q, res.Session, res.RouteComplete, res.Superseded, res.Steps, res.Frames)
	if err != nil {
		return fmt.Errorf("update session %s: %w", res.Session, err)
	}
	if n, err := r.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %s: %w", res.Session, ErrNotFound)
	}
	return nil
}

// SessionRecord is a stored playback.
type SessionRecord struct {
	ID            uuid.UUID  `json:"id"`
	RouteID       *int64     `json:"routeId,omitempty"`
	StepCount     int        `json:"stepCount"`
	StartedAt     time.Time  `json:"startedAt"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
	RouteComplete bool       `json:"routeComplete"`
	Superseded    bool       `json:"superseded"`
	StepsPlayed   int        `json:"stepsPlayed"`
	Frames        int        `json:"frames"`
}

func (s *Store) Session(ctx context.Context, id uuid.UUID) (SessionRecord, error) {
	q := `
SELECT id, route_id, step_count, started_at, finished_at, route_complete, superseded, steps_played, frames
FROM playback_sessions WHERE id = $1`
	var (
		rec      SessionRecord
		routeID  sql.NullInt64
		finished sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(&rec.ID, &routeID, &rec.StepCount, &rec.StartedAt,
		&finished, &rec.RouteComplete, &rec.Superseded, &rec.StepsPlayed, &rec.Frames)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return SessionRecord{}, fmt.Errorf("query session %s: %w", id, err)
	}
	if routeID.Valid {
		rec.RouteID = &routeID.Int64
	}
	if finished.Valid {
		rec.FinishedAt = &finished.Time
	}
	return rec, nil
}
