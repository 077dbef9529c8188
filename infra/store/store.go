package store

import (
	"context"
	"errors"

	"github.com/tmhire/pourplan/core/model"
)

// ErrNotFound is returned when a schedule id is unknown.
var ErrNotFound = errors.New("schedule not found")

// ErrVersionConflict is returned when an optimistic update loses the race
// against a concurrent transition.
var ErrVersionConflict = errors.New("schedule modified concurrently")

// ScheduleStore persists schedule aggregates keyed by id.
type ScheduleStore interface {
	Create(ctx context.Context, s *model.Schedule) error
	Get(ctx context.Context, id string) (*model.Schedule, error)
	// Update persists s if its Version still matches the stored one and
	// increments the version on success.
	Update(ctx context.Context, s *model.Schedule) error
	List(ctx context.Context) ([]*model.Schedule, error)
	Close() error
}

// Reservation is one vehicle's committed window for a schedule.
type Reservation struct {
	VehicleID string
	Window    model.Window
}

// FleetStore exposes the vehicle and pump registry. Reads return each
// member with all committed windows merged in, so availability checks see
// reservations made by other schedules.
type FleetStore interface {
	TransitMixers(ctx context.Context) ([]model.TransitMixer, error)
	Pumps(ctx context.Context) ([]model.Pump, error)

	// Reserve appends the given windows as a single atomic step. When any
	// window overlaps an existing commitment of the same vehicle owned by
	// another schedule, nothing is written and a *model.VehicleConflictError
	// is returned.
	Reserve(ctx context.Context, scheduleID string, reservations []Reservation) error

	// Release removes every window owned by the schedule. No partial
	// release: either all windows go or none.
	Release(ctx context.Context, scheduleID string) error

	Close() error
}
