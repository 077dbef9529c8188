package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tmhire/pourplan/core/model"
)

var t0 = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func TestMemoryScheduleStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryScheduleStore()

	sched := &model.Schedule{ID: "s1", State: model.StateCalculating}
	if err := s.Create(ctx, sched); err != nil {
		t.Fatalf("create: %v", err)
	}
	if sched.Version != 1 {
		t.Fatalf("create should set version 1, got %d", sched.Version)
	}

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != model.StateCalculating {
		t.Fatalf("state: got %s", got.State)
	}

	if _, err := s.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got.State = model.StateGenerated
	if err := s.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Version != 2 {
		t.Fatalf("update should bump version, got %d", got.Version)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("list: got %d schedules", len(all))
	}
}

func TestMemoryScheduleStoreVersionConflict(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryScheduleStore()
	if err := s.Create(ctx, &model.Schedule{ID: "s1"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	a, _ := s.Get(ctx, "s1")
	b, _ := s.Get(ctx, "s1")
	if err := s.Update(ctx, a); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := s.Update(ctx, b); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestMemoryFleetStoreMergesReservations(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryFleetStore()
	s.AddTransitMixer(model.TransitMixer{ID: "tm-1", Identifier: "TM 01", Capacity: 8})

	err := s.Reserve(ctx, "sched-a", []Reservation{
		{VehicleID: "tm-1", Window: model.Window{Start: t0, End: t0.Add(2 * time.Hour)}},
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	tms, err := s.TransitMixers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tms) != 1 || len(tms[0].Unavailable) != 1 {
		t.Fatalf("expected one merged window, got %+v", tms)
	}
	if tms[0].Unavailable[0].ScheduleID != "sched-a" {
		t.Fatalf("window owner: got %s", tms[0].Unavailable[0].ScheduleID)
	}
}

func TestMemoryFleetStoreReserveConflict(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryFleetStore()
	s.AddTransitMixer(model.TransitMixer{ID: "tm-1"})

	first := []Reservation{{VehicleID: "tm-1", Window: model.Window{Start: t0, End: t0.Add(2 * time.Hour)}}}
	if err := s.Reserve(ctx, "sched-a", first); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	overlap := []Reservation{{VehicleID: "tm-1", Window: model.Window{Start: t0.Add(time.Hour), End: t0.Add(3 * time.Hour)}}}
	err := s.Reserve(ctx, "sched-b", overlap)
	var conflict *model.VehicleConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *model.VehicleConflictError, got %v", err)
	}
	if conflict.VehicleID != "tm-1" {
		t.Fatalf("conflict vehicle: got %s", conflict.VehicleID)
	}

	// The same schedule may restate its own window.
	if err := s.Reserve(ctx, "sched-a", overlap); err != nil {
		t.Fatalf("same-schedule reserve: %v", err)
	}

	// Back-to-back windows do not conflict.
	adjacent := []Reservation{{VehicleID: "tm-1", Window: model.Window{Start: t0.Add(3 * time.Hour), End: t0.Add(4 * time.Hour)}}}
	if err := s.Reserve(ctx, "sched-b", adjacent); err != nil {
		t.Fatalf("adjacent reserve: %v", err)
	}
}

func TestMemoryFleetStoreRelease(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryFleetStore()
	s.AddTransitMixer(model.TransitMixer{ID: "tm-1"})

	w := []Reservation{{VehicleID: "tm-1", Window: model.Window{Start: t0, End: t0.Add(2 * time.Hour)}}}
	if err := s.Reserve(ctx, "sched-a", w); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := s.Release(ctx, "sched-a"); err != nil {
		t.Fatalf("release: %v", err)
	}

	// Released windows free the vehicle for other schedules.
	if err := s.Reserve(ctx, "sched-b", w); err != nil {
		t.Fatalf("reserve after release: %v", err)
	}
	tms, _ := s.TransitMixers(ctx)
	if len(tms[0].Unavailable) != 1 {
		t.Fatalf("expected one window after release+reserve, got %d", len(tms[0].Unavailable))
	}
}
