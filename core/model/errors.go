package model

import "fmt"

// ValidationError reports a malformed or missing request field. Nothing is
// retried; the caller must fix the input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientFleetError indicates fewer free resources than the pour
// requires at generation time.
type InsufficientFleetError struct {
	Resource  string // "tm" or "pump"
	Required  int
	Available int
}

func (e *InsufficientFleetError) Error() string {
	return fmt.Sprintf("insufficient %s fleet: need %d, have %d (short by %d)",
		e.Resource, e.Required, e.Available, e.Required-e.Available)
}

// SequenceMismatchError is returned when the dispatcher-supplied vehicle
// sequence does not match the required (or overruled) TM count.
type SequenceMismatchError struct {
	Required int
	Got      int
}

func (e *SequenceMismatchError) Error() string {
	return fmt.Sprintf("vehicle sequence has %d entries, %d required", e.Got, e.Required)
}

// VehicleConflictError is returned when a selected vehicle is unavailable
// for the computed window, including races detected at commit time.
type VehicleConflictError struct {
	VehicleID string
	Window    Window
}

func (e *VehicleConflictError) Error() string {
	return fmt.Sprintf("vehicle %s is already committed between %s and %s",
		e.VehicleID, e.Window.Start.Format("15:04"), e.Window.End.Format("15:04"))
}

// StateTransitionError is returned when an operation is attempted on a
// schedule whose state forbids it.
type StateTransitionError struct {
	ScheduleID string
	From       ScheduleState
	To         ScheduleState
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("schedule %s: cannot transition from %s to %s", e.ScheduleID, e.From, e.To)
}
