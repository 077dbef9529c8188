package model

import "time"

// ScheduleState tracks the lifecycle of a schedule. Generated schedules
// are append-only history: only the terminal transitions remain.
type ScheduleState int

const (
	StateDraft ScheduleState = iota
	StateCalculating
	StateGenerated
	StateCanceled
	StateDeleted
)

// String returns a human-readable representation of the state.
func (s ScheduleState) String() string {
	switch s {
	case StateDraft:
		return "draft"
	case StateCalculating:
		return "calculating"
	case StateGenerated:
		return "generated"
	case StateCanceled:
		return "canceled"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// CanTransition reports whether the state machine permits moving to the
// target state.
func (s ScheduleState) CanTransition(to ScheduleState) bool {
	switch s {
	case StateDraft:
		return to == StateCalculating || to == StateDeleted
	case StateCalculating:
		return to == StateGenerated || to == StateDeleted
	case StateGenerated:
		return to == StateCanceled || to == StateDeleted
	default:
		return false
	}
}

// TMStatus is a display snapshot of one fleet member's availability for
// the pour window, taken at calculation time.
type TMStatus struct {
	ID         string  `json:"id"`
	Identifier string  `json:"identifier"`
	Capacity   float64 `json:"capacity_m3,omitempty"`
	Status     string  `json:"status"` // available, partially_unavailable, unavailable
}

// ScheduleResult is the immutable outcome of trip expansion.
type ScheduleResult struct {
	TMCount      int                `json:"tm_count"`
	TMOverrule   int                `json:"tm_overrule,omitempty"` // 0 when unset
	TotalTrips   int                `json:"total_trips"`
	TripsPerTM   float64            `json:"trips_per_tm"`
	CycleTimeSec float64            `json:"cycle_time_sec"`
	Distribution []TripDistribution `json:"trips_per_tm_distribution"`

	OutputTable []Trip `json:"output_table"`          // zero-wait view
	BurstTable  []Trip `json:"burst_table,omitempty"` // optional second view of the same pour

	AvailableTMs   []TMStatus `json:"available_tms"`
	AvailablePumps []TMStatus `json:"available_pumps"`
}

// Schedule is the persisted aggregate: pour parameters, lifecycle state
// and, once generated, the trip tables.
type Schedule struct {
	ID      string        `json:"id"`
	Request PourRequest   `json:"request"`
	State   ScheduleState `json:"state"`

	TMCount    int     `json:"tm_count"`
	TMOverrule int     `json:"tm_overrule,omitempty"`
	Loads      int     `json:"loads"`
	TripsPerTM float64 `json:"trips_per_tm"`

	Result *ScheduleResult `json:"result,omitempty"`

	CanceledReason string `json:"canceled_reason,omitempty"`
	CanceledBy     string `json:"canceled_by,omitempty"`
	DeleteType     string `json:"delete_type,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Version supports optimistic concurrency on state transitions.
	Version int `json:"version"`
}
