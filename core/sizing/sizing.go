package sizing

import (
	"math"

	"github.com/tmhire/pourplan/core/model"
	"github.com/tmhire/pourplan/core/timing"
)

// Result is the fleet sizing outcome for one pour.
type Result struct {
	TMCount      int     `json:"tm_count"`   // minimum fleet for a non-stop pour
	PumpCount    int     `json:"pump_count"` // one pump serves one pour
	Loads        int     `json:"loads"`      // vehicle loads needed to cover the quantity
	TripsPerTM   float64 `json:"trips_per_tm"`
	UnloadingMin float64 `json:"unloading_time_min"`
	CycleMin     float64 `json:"cycle_time_min"`
}

// Compute derives the minimum fleet required to sustain an uninterrupted
// pour. The fleet size equals how many vehicles are in flight during one
// full cycle when arrivals are spaced by the unloading time.
func Compute(req model.PourRequest, avgCapacity float64) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	unloading, err := timing.UnloadingTime(avgCapacity, req.PumpingSpeed)
	if err != nil {
		return Result{}, &model.ValidationError{Field: "unloading_time", Reason: err.Error()}
	}
	loads := int(math.Ceil(req.Quantity / avgCapacity))
	cycle := timing.CycleTime(req, unloading)
	tmCount := int(math.Ceil(cycle / unloading))
	return Result{
		TMCount:      tmCount,
		PumpCount:    1,
		Loads:        loads,
		TripsPerTM:   float64(loads) / float64(tmCount),
		UnloadingMin: unloading,
		CycleMin:     cycle,
	}, nil
}

// WithOverrule recomputes the per-vehicle trip load against a dispatcher
// override. The override must be at least the computed optimum; the caller
// validates that before calling.
func (r Result) WithOverrule(tmOverrule int) Result {
	if tmOverrule <= r.TMCount {
		return r
	}
	out := r
	out.TMCount = tmOverrule
	out.TripsPerTM = float64(r.Loads) / float64(tmOverrule)
	return out
}

// Distribute splits loads across tmCount vehicles so that the row totals
// sum to loads exactly, handing the remainder to the first vehicles in
// sequence. With loads=10 and tmCount=3 the rows are {1 vehicle, 4 trips}
// and {2 vehicles, 3 trips}.
func Distribute(loads, tmCount int) []model.TripDistribution {
	if loads <= 0 || tmCount <= 0 {
		return nil
	}
	floor := loads / tmCount
	ceilVehicles := loads - floor*tmCount
	var rows []model.TripDistribution
	if ceilVehicles > 0 {
		rows = append(rows, model.TripDistribution{TMCount: ceilVehicles, Trips: floor + 1})
	}
	if rest := tmCount - ceilVehicles; rest > 0 && floor > 0 {
		rows = append(rows, model.TripDistribution{TMCount: rest, Trips: floor})
	}
	return rows
}
