// Package timing holds the pure time arithmetic of the pour cycle. All
// functions are free of side state: calling them twice with the same
// inputs yields identical timestamps.
package timing

import (
	"errors"
	"time"

	"github.com/tmhire/pourplan/core/model"
)

// Minutes converts a fractional minute count into a time.Duration.
func Minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

// UnloadingTime derives the unloading duration in minutes from the average
// vehicle capacity and the pumping speed: (capacity / speed) * 60.
func UnloadingTime(avgCapacity, speed float64) (float64, error) {
	if speed <= 0 {
		return 0, errors.New("pumping speed must be positive")
	}
	if avgCapacity <= 0 {
		return 0, errors.New("average vehicle capacity must be positive")
	}
	return avgCapacity / speed * 60, nil
}

// CycleTime returns the full cycle in minutes: the minimum time before the
// same vehicle can start its next trip.
func CycleTime(req model.PourRequest, unloadingMin float64) float64 {
	return req.BufferMin + req.LoadMin + req.OnwardMin + unloadingMin + req.ReturnMin
}

// PreTripTime returns the plant-side lead in minutes between the start of
// loading and the arrival at the pump.
func PreTripTime(req model.PourRequest) float64 {
	return req.LoadMin + req.BufferMin + req.OnwardMin
}

// PumpStartFromPlant is the moment the pump equipment must leave the plant
// to be fixed and ready at PumpStart.
func PumpStartFromPlant(req model.PourRequest) time.Time {
	return req.PumpStart.Add(-Minutes(req.PumpFixingMin + req.PumpOnwardMin))
}

// PumpSiteReach is the moment the pump equipment must reach the site.
func PumpSiteReach(req model.PourRequest) time.Time {
	return req.PumpStart.Add(-Minutes(req.PumpFixingMin))
}

// Legs carries the absolute timestamps of one trip.
type Legs struct {
	PlantLoad   time.Time
	PlantBuffer time.Time
	PlantStart  time.Time
	PumpStart   time.Time
	Unloading   time.Time
	Return      time.Time
}

// LegsFromPlantLoad expands a trip forward from the moment loading starts.
func LegsFromPlantLoad(plantLoad time.Time, req model.PourRequest, unloadingMin float64) Legs {
	buffer := plantLoad.Add(Minutes(req.LoadMin))
	start := buffer.Add(Minutes(req.BufferMin))
	pump := start.Add(Minutes(req.OnwardMin))
	unloading := pump.Add(Minutes(unloadingMin))
	return Legs{
		PlantLoad:   plantLoad,
		PlantBuffer: buffer,
		PlantStart:  start,
		PumpStart:   pump,
		Unloading:   unloading,
		Return:      unloading.Add(Minutes(req.ReturnMin)),
	}
}

// LegsFromPumpStart back-computes the plant legs from a fixed unloading
// start at the pump.
func LegsFromPumpStart(pumpStart time.Time, req model.PourRequest, unloadingMin float64) Legs {
	return LegsFromPlantLoad(pumpStart.Add(-Minutes(PreTripTime(req))), req, unloadingMin)
}
