package model

import "time"

// Trip is one load-deliver-return cycle performed by one vehicle. The six
// timestamps are monotonically non-decreasing:
// PlantLoad <= PlantBuffer <= PlantStart <= PumpStart <= Unloading <= Return.
type Trip struct {
	TripNo        int    `json:"trip_no"`             // 1-based, monotonic across the schedule
	VehicleID     string `json:"vehicle_id"`
	VehicleTripNo int    `json:"trip_no_for_vehicle"` // 1-based count for this vehicle

	PlantLoad   time.Time `json:"plant_load"`     // loading starts at the plant
	PlantBuffer time.Time `json:"plant_buffer"`   // loading done, buffering starts
	PlantStart  time.Time `json:"plant_start"`    // vehicle departs the plant
	PumpStart   time.Time `json:"pump_start"`     // unloading starts at the pump
	Unloading   time.Time `json:"unloading_time"` // unloading completes
	Return      time.Time `json:"return"`         // vehicle is back at the plant

	CompletedCapacity float64  `json:"completed_capacity_m3"` // cumulative m3 delivered
	CycleTimeSec      float64  `json:"cycle_time_sec"`
	CushionSec        *float64 `json:"cushion_time_sec"` // nil on the vehicle's last trip or when negative

	// Burst-only fields. SiteReach is the zero value under zero-wait.
	SiteReach  time.Time `json:"site_reach"`
	WaitingMin float64   `json:"waiting_time_min,omitempty"`
	QueueDepth float64   `json:"queue_depth,omitempty"`
}

// TripDistribution is one row of the trips-per-TM breakdown: TMCount
// vehicles each performing Trips trips.
type TripDistribution struct {
	TMCount int `json:"tm_count"`
	Trips   int `json:"trips"`
}
