package model

import "time"

// Window is a committed time interval owned by a schedule. A vehicle or
// pump carrying a Window is considered busy between Start and End.
type Window struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	ScheduleID string    `json:"schedule_id"`
}

// Overlaps reports whether the window intersects [start, end).
func (w Window) Overlaps(start, end time.Time) bool {
	return w.Start.Before(end) && start.Before(w.End)
}

// TransitMixer is a concrete delivery vehicle (TM). Unavailable holds the
// vehicle's prior commitments; intervals are assumed non-overlapping, the
// registry enforces that upstream.
type TransitMixer struct {
	ID          string   `json:"id"`
	Identifier  string   `json:"identifier"` // registration plate or fleet code
	Capacity    float64  `json:"capacity_m3"`
	PlantID     string   `json:"plant_id"`
	Unavailable []Window `json:"unavailable_times,omitempty"`
}

// PumpType distinguishes boom pumps from line pumps.
type PumpType string

const (
	BoomPump PumpType = "boom"
	LinePump PumpType = "line"
)

// Pump is a concrete pump stationed at a plant.
type Pump struct {
	ID          string   `json:"id"`
	Identifier  string   `json:"identifier"`
	PlantID     string   `json:"plant_id"`
	Type        PumpType `json:"type"`
	Unavailable []Window `json:"unavailable_times,omitempty"`
}
