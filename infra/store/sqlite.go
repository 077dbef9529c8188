package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tmhire/pourplan/core/model"
)

// SQLiteStore persists schedules and fleet commitments in a SQLite
// database. It implements both ScheduleStore and FleetStore so one file
// carries the whole engine state.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `
CREATE TABLE IF NOT EXISTS schedules (
    id TEXT PRIMARY KEY,
    state TEXT NOT NULL,
    version INTEGER NOT NULL,
    record TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS transit_mixers (
    id TEXT PRIMARY KEY,
    identifier TEXT NOT NULL,
    capacity_m3 REAL NOT NULL,
    plant_id TEXT
);
CREATE TABLE IF NOT EXISTS pumps (
    id TEXT PRIMARY KEY,
    identifier TEXT NOT NULL,
    plant_id TEXT,
    type TEXT
);
CREATE TABLE IF NOT EXISTS reservations (
    vehicle_id TEXT NOT NULL,
    schedule_id TEXT NOT NULL,
    start_ts INTEGER NOT NULL,
    end_ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reservations_vehicle ON reservations(vehicle_id);
CREATE INDEX IF NOT EXISTS idx_reservations_schedule ON reservations(schedule_id);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, sched *model.Schedule) error {
	sched.Version = 1
	b, err := json.Marshal(sched)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO schedules (id, state, version, record) VALUES (?, ?, ?, ?)`,
		sched.ID, sched.State.String(), sched.Version, string(b))
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Schedule, error) {
	var record string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM schedules WHERE id = ?`, id).Scan(&record)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sched model.Schedule
	if err := json.Unmarshal([]byte(record), &sched); err != nil {
		return nil, fmt.Errorf("unmarshal schedule: %w", err)
	}
	return &sched, nil
}

func (s *SQLiteStore) Update(ctx context.Context, sched *model.Schedule) error {
	next := *sched
	next.Version = sched.Version + 1
	b, err := json.Marshal(&next)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE schedules SET state = ?, version = ?, record = ? WHERE id = ? AND version = ?`,
		next.State.String(), next.Version, string(b), sched.ID, sched.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, gerr := s.Get(ctx, sched.ID); gerr != nil {
			return gerr
		}
		return ErrVersionConflict
	}
	sched.Version = next.Version
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*model.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM schedules ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Schedule
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		var sched model.Schedule
		if err := json.Unmarshal([]byte(record), &sched); err != nil {
			return nil, fmt.Errorf("unmarshal schedule: %w", err)
		}
		out = append(out, &sched)
	}
	return out, rows.Err()
}

// AddTransitMixer registers a vehicle in the registry.
func (s *SQLiteStore) AddTransitMixer(ctx context.Context, tm model.TransitMixer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO transit_mixers (id, identifier, capacity_m3, plant_id) VALUES (?, ?, ?, ?)`,
		tm.ID, tm.Identifier, tm.Capacity, tm.PlantID)
	return err
}

// AddPump registers a pump in the registry.
func (s *SQLiteStore) AddPump(ctx context.Context, p model.Pump) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO pumps (id, identifier, plant_id, type) VALUES (?, ?, ?, ?)`,
		p.ID, p.Identifier, p.PlantID, string(p.Type))
	return err
}

func (s *SQLiteStore) TransitMixers(ctx context.Context) ([]model.TransitMixer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, identifier, capacity_m3, plant_id FROM transit_mixers ORDER BY identifier`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var tms []model.TransitMixer
	for rows.Next() {
		var tm model.TransitMixer
		if err := rows.Scan(&tm.ID, &tm.Identifier, &tm.Capacity, &tm.PlantID); err != nil {
			return nil, err
		}
		tms = append(tms, tm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range tms {
		windows, err := s.vehicleWindows(ctx, tms[i].ID)
		if err != nil {
			return nil, err
		}
		tms[i].Unavailable = windows
	}
	return tms, nil
}

func (s *SQLiteStore) Pumps(ctx context.Context) ([]model.Pump, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, identifier, plant_id, type FROM pumps ORDER BY identifier`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var pumps []model.Pump
	for rows.Next() {
		var p model.Pump
		var typ string
		if err := rows.Scan(&p.ID, &p.Identifier, &p.PlantID, &typ); err != nil {
			return nil, err
		}
		p.Type = model.PumpType(typ)
		pumps = append(pumps, p)
	}
	return pumps, rows.Err()
}

func (s *SQLiteStore) vehicleWindows(ctx context.Context, vehicleID string) ([]model.Window, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT schedule_id, start_ts, end_ts FROM reservations WHERE vehicle_id = ? ORDER BY start_ts`,
		vehicleID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var windows []model.Window
	for rows.Next() {
		var sid string
		var start, end int64
		if err := rows.Scan(&sid, &start, &end); err != nil {
			return nil, err
		}
		windows = append(windows, model.Window{
			ScheduleID: sid,
			Start:      time.Unix(start, 0).UTC(),
			End:        time.Unix(end, 0).UTC(),
		})
	}
	return windows, rows.Err()
}

// Reserve writes all windows in one transaction, re-checking overlaps
// inside the transaction so two concurrent generations cannot double-book
// a vehicle.
func (s *SQLiteStore) Reserve(ctx context.Context, scheduleID string, reservations []Reservation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, r := range reservations {
		var sid string
		var start, end int64
		err := tx.QueryRowContext(ctx,
			`SELECT schedule_id, start_ts, end_ts FROM reservations
             WHERE vehicle_id = ? AND schedule_id != ? AND start_ts < ? AND ? < end_ts LIMIT 1`,
			r.VehicleID, scheduleID, r.Window.End.Unix(), r.Window.Start.Unix()).Scan(&sid, &start, &end)
		if err == nil {
			return &model.VehicleConflictError{VehicleID: r.VehicleID, Window: model.Window{
				ScheduleID: sid,
				Start:      time.Unix(start, 0).UTC(),
				End:        time.Unix(end, 0).UTC(),
			}}
		}
		if err != sql.ErrNoRows {
			return err
		}
	}
	for _, r := range reservations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reservations (vehicle_id, schedule_id, start_ts, end_ts) VALUES (?, ?, ?, ?)`,
			r.VehicleID, scheduleID, r.Window.Start.Unix(), r.Window.End.Unix()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Release drops every window owned by the schedule in one statement.
func (s *SQLiteStore) Release(ctx context.Context, scheduleID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM reservations WHERE schedule_id = ?`, scheduleID)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
