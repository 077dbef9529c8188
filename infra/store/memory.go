package store

import (
	"context"
	"sync"

	"github.com/tmhire/pourplan/core/model"
)

// MemoryScheduleStore is an in-memory ScheduleStore used in tests and as a
// fallback when no database path is configured.
type MemoryScheduleStore struct {
	mu        sync.Mutex
	schedules map[string]model.Schedule
}

// NewMemoryScheduleStore creates an empty in-memory store.
func NewMemoryScheduleStore() *MemoryScheduleStore {
	return &MemoryScheduleStore{schedules: make(map[string]model.Schedule)}
}

func (s *MemoryScheduleStore) Create(_ context.Context, sched *model.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched.Version = 1
	s.schedules[sched.ID] = *sched
	return nil
}

func (s *MemoryScheduleStore) Get(_ context.Context, id string) (*model.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.schedules[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := sched
	return &out, nil
}

func (s *MemoryScheduleStore) Update(_ context.Context, sched *model.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.schedules[sched.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != sched.Version {
		return ErrVersionConflict
	}
	sched.Version++
	s.schedules[sched.ID] = *sched
	return nil
}

func (s *MemoryScheduleStore) List(_ context.Context) ([]*model.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Schedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		c := sched
		out = append(out, &c)
	}
	return out, nil
}

func (s *MemoryScheduleStore) Close() error { return nil }

// MemoryFleetStore is an in-memory FleetStore. Reservations are tracked
// separately from the registry's base windows and merged on read.
type MemoryFleetStore struct {
	mu           sync.Mutex
	tms          []model.TransitMixer
	pumps        []model.Pump
	reservations map[string][]model.Window // vehicle id -> committed windows
}

// NewMemoryFleetStore creates an empty in-memory fleet registry.
func NewMemoryFleetStore() *MemoryFleetStore {
	return &MemoryFleetStore{reservations: make(map[string][]model.Window)}
}

// AddTransitMixer registers a vehicle.
func (s *MemoryFleetStore) AddTransitMixer(tm model.TransitMixer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tms = append(s.tms, tm)
}

// AddPump registers a pump.
func (s *MemoryFleetStore) AddPump(p model.Pump) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pumps = append(s.pumps, p)
}

func (s *MemoryFleetStore) TransitMixers(_ context.Context) ([]model.TransitMixer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TransitMixer, len(s.tms))
	for i, tm := range s.tms {
		c := tm
		c.Unavailable = append(append([]model.Window(nil), tm.Unavailable...), s.reservations[tm.ID]...)
		out[i] = c
	}
	return out, nil
}

func (s *MemoryFleetStore) Pumps(_ context.Context) ([]model.Pump, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Pump, len(s.pumps))
	copy(out, s.pumps)
	return out, nil
}

func (s *MemoryFleetStore) Reserve(_ context.Context, scheduleID string, reservations []Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range reservations {
		for _, w := range s.reservations[r.VehicleID] {
			if w.ScheduleID != scheduleID && w.Overlaps(r.Window.Start, r.Window.End) {
				return &model.VehicleConflictError{VehicleID: r.VehicleID, Window: w}
			}
		}
	}
	for _, r := range reservations {
		w := r.Window
		w.ScheduleID = scheduleID
		s.reservations[r.VehicleID] = append(s.reservations[r.VehicleID], w)
	}
	return nil
}

func (s *MemoryFleetStore) Release(_ context.Context, scheduleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, windows := range s.reservations {
		kept := windows[:0]
		for _, w := range windows {
			if w.ScheduleID != scheduleID {
				kept = append(kept, w)
			}
		}
		s.reservations[id] = kept
	}
	return nil
}

func (s *MemoryFleetStore) Close() error { return nil }
