package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// PumpingPolicy selects the queueing semantics used during trip expansion.
type PumpingPolicy int

const (
	// PolicyZeroWait keeps the pump busy with no idle gap: vehicles are
	// dispatched so that each one reaches the pump exactly when the
	// previous one finishes unloading.
	PolicyZeroWait PumpingPolicy = iota
	// PolicyBurst dispatches vehicles as soon as they are free and lets
	// them queue at the site, trading on-site waiting for makespan.
	PolicyBurst
)

// String returns a human-readable representation of the policy.
func (p PumpingPolicy) String() string {
	switch p {
	case PolicyZeroWait:
		return "zero-wait"
	case PolicyBurst:
		return "burst"
	default:
		return "unknown"
	}
}

// ParsePolicy converts a policy name into a PumpingPolicy.
func ParsePolicy(s string) (PumpingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zero-wait", "zerowait", "zero_wait":
		return PolicyZeroWait, nil
	case "burst":
		return PolicyBurst, nil
	default:
		return 0, fmt.Errorf("unknown pumping policy %q", s)
	}
}

// PourRequest carries the timing parameters of one concrete pour. It is
// immutable once scheduling starts; all derived timestamps are recomputed
// from these fields so that no drift can occur between views.
type PourRequest struct {
	Quantity     float64 `json:"quantity_m3"`             // total m3 to pour, whole number in [1,9999]
	PumpingSpeed float64 `json:"pumping_speed_m3_per_hr"` // m3/hr, > 0

	ScheduleDate time.Time `json:"schedule_date"`
	PumpStart    time.Time `json:"pump_start"` // moment pumping must begin

	// Leg durations in minutes. All are >= 0.
	BufferMin      float64 `json:"buffer_time"`
	LoadMin        float64 `json:"load_time"`
	OnwardMin      float64 `json:"onward_time"`
	PumpOnwardMin  float64 `json:"pump_onward_time"`
	ReturnMin      float64 `json:"return_time"`
	PumpFixingMin  float64 `json:"pump_fixing_time"`
	PumpRemovalMin float64 `json:"pump_removal_time"`

	Policy PumpingPolicy `json:"policy"`
}

// Validate checks that the request is well formed. It returns a
// *ValidationError naming the first offending field.
func (r PourRequest) Validate() error {
	if r.Quantity < 1 || r.Quantity > 9999 {
		return &ValidationError{Field: "quantity_m3", Reason: "must be in [1, 9999]"}
	}
	if r.Quantity != math.Trunc(r.Quantity) {
		return &ValidationError{Field: "quantity_m3", Reason: "must be a whole number of cubic meters"}
	}
	if r.PumpingSpeed <= 0 {
		return &ValidationError{Field: "pumping_speed_m3_per_hr", Reason: "must be positive"}
	}
	if r.PumpStart.IsZero() {
		return &ValidationError{Field: "pump_start", Reason: "is required"}
	}
	for _, d := range []struct {
		name string
		min  float64
	}{
		{"buffer_time", r.BufferMin},
		{"load_time", r.LoadMin},
		{"onward_time", r.OnwardMin},
		{"pump_onward_time", r.PumpOnwardMin},
		{"return_time", r.ReturnMin},
		{"pump_fixing_time", r.PumpFixingMin},
		{"pump_removal_time", r.PumpRemovalMin},
	} {
		if d.min < 0 || math.IsNaN(d.min) || math.IsInf(d.min, 0) {
			return &ValidationError{Field: d.name, Reason: "must be a finite non-negative number of minutes"}
		}
	}
	return nil
}
