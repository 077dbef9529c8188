package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tmhire/pourplan/core/model"
)

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "pourplan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteScheduleRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	sched := &model.Schedule{
		ID:    "s1",
		State: model.StateCalculating,
		Request: model.PourRequest{
			Quantity:     40,
			PumpingSpeed: 20,
			PumpStart:    time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
		},
		TMCount: 4,
		Loads:   5,
	}
	require.NoError(t, s.Create(ctx, sched))
	require.Equal(t, 1, sched.Version)

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, model.StateCalculating, got.State)
	require.Equal(t, 4, got.TMCount)
	require.True(t, got.Request.PumpStart.Equal(sched.Request.PumpStart))

	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestSQLiteOptimisticUpdate(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	require.NoError(t, s.Create(ctx, &model.Schedule{ID: "s1", State: model.StateCalculating}))

	a, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	b, err := s.Get(ctx, "s1")
	require.NoError(t, err)

	a.State = model.StateGenerated
	require.NoError(t, s.Update(ctx, a))
	require.Equal(t, 2, a.Version)

	b.State = model.StateDeleted
	require.ErrorIs(t, s.Update(ctx, b), ErrVersionConflict)

	require.ErrorIs(t, s.Update(ctx, &model.Schedule{ID: "ghost", Version: 1}), ErrNotFound)
}

func TestSQLiteFleetRegistry(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	require.NoError(t, s.AddTransitMixer(ctx, model.TransitMixer{ID: "tm-1", Identifier: "TM 01", Capacity: 8, PlantID: "p1"}))
	require.NoError(t, s.AddTransitMixer(ctx, model.TransitMixer{ID: "tm-2", Identifier: "TM 02", Capacity: 7, PlantID: "p1"}))
	require.NoError(t, s.AddPump(ctx, model.Pump{ID: "pump-1", Identifier: "BP 01", Type: model.BoomPump}))

	tms, err := s.TransitMixers(ctx)
	require.NoError(t, err)
	require.Len(t, tms, 2)
	require.Equal(t, "TM 01", tms[0].Identifier)

	pumps, err := s.Pumps(ctx)
	require.NoError(t, err)
	require.Len(t, pumps, 1)
	require.Equal(t, model.BoomPump, pumps[0].Type)
}

func TestSQLiteReserveConflict(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.AddTransitMixer(ctx, model.TransitMixer{ID: "tm-1", Identifier: "TM 01"}))
	require.NoError(t, s.Reserve(ctx, "sched-a", []Reservation{
		{VehicleID: "tm-1", Window: model.Window{Start: start, End: start.Add(2 * time.Hour)}},
	}))

	err := s.Reserve(ctx, "sched-b", []Reservation{
		{VehicleID: "tm-1", Window: model.Window{Start: start.Add(time.Hour), End: start.Add(3 * time.Hour)}},
	})
	var conflict *model.VehicleConflictError
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, "tm-1", conflict.VehicleID)
	require.Equal(t, "sched-a", conflict.Window.ScheduleID)

	// Nothing from the failed reservation may have been written.
	tms, err := s.TransitMixers(ctx)
	require.NoError(t, err)
	require.Len(t, tms[0].Unavailable, 1)

	// A disjoint window for the same vehicle is fine.
	require.NoError(t, s.Reserve(ctx, "sched-b", []Reservation{
		{VehicleID: "tm-1", Window: model.Window{Start: start.Add(3 * time.Hour), End: start.Add(4 * time.Hour)}},
	}))
}

func TestSQLiteRelease(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.AddTransitMixer(ctx, model.TransitMixer{ID: "tm-1", Identifier: "TM 01"}))
	require.NoError(t, s.Reserve(ctx, "sched-a", []Reservation{
		{VehicleID: "tm-1", Window: model.Window{Start: start, End: start.Add(2 * time.Hour)}},
		{VehicleID: "tm-1", Window: model.Window{Start: start.Add(3 * time.Hour), End: start.Add(4 * time.Hour)}},
	}))
	require.NoError(t, s.Release(ctx, "sched-a"))

	tms, err := s.TransitMixers(ctx)
	require.NoError(t, err)
	require.Empty(t, tms[0].Unavailable)
}
