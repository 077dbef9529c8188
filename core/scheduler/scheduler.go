package scheduler

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tmhire/pourplan/core/model"
	"github.com/tmhire/pourplan/core/sizing"
	"github.com/tmhire/pourplan/core/timing"
)

// Policy expands a dispatcher-ordered vehicle sequence into a trip table.
// Expansion is a strict sequential fold over trip numbers; implementations
// must be deterministic for a given request and sequence.
type Policy interface {
	Name() string
	Expand(req model.PourRequest, sequence []model.TransitMixer, plan sizing.Result) []model.Trip
}

// ForPolicy returns the strategy implementing the given policy tag.
func ForPolicy(p model.PumpingPolicy) Policy {
	if p == model.PolicyBurst {
		return Burst{}
	}
	return ZeroWait{}
}

// Expand runs the policy against the sequence after basic shape checks.
// Sequence length validation against the required TM count is the caller's
// responsibility; vehicle substitution never happens here. Trips are
// emitted until the cumulative delivered capacity covers the requested
// quantity, so with mixed vehicle capacities the trip count can differ
// from the sizing estimate.
func Expand(req model.PourRequest, sequence []model.TransitMixer, plan sizing.Result, policy model.PumpingPolicy) ([]model.Trip, error) {
	if len(sequence) == 0 {
		return nil, errors.New("vehicle sequence is empty")
	}
	if plan.Loads <= 0 {
		return nil, errors.New("plan has no loads to schedule")
	}
	for _, tm := range sequence {
		if tm.Capacity <= 0 {
			return nil, fmt.Errorf("vehicle %s has no capacity", tm.ID)
		}
	}
	return ForPolicy(policy).Expand(req, sequence, plan), nil
}

// ZeroWait keeps the pump's timeline fixed: trip k unloads at
// pump_start + (k-1) * unloading_time, and the plant legs are back-computed
// from that slot, clamped forward when the assigned vehicle is not yet free.
type ZeroWait struct{}

func (ZeroWait) Name() string { return model.PolicyZeroWait.String() }

func (ZeroWait) Expand(req model.PourRequest, sequence []model.TransitMixer, plan sizing.Result) []model.Trip {
	n := len(sequence)
	pre := timing.Minutes(timing.PreTripTime(req))
	cycleSec := plan.CycleMin * 60

	trips := make([]model.Trip, 0, plan.Loads)
	nextFree := make([]time.Time, n)
	tripCount := make([]int, n)
	pumpFree := req.PumpStart
	completed := 0.0

	for k := 1; completed < req.Quantity; k++ {
		i := (k - 1) % n
		load := pumpFree.Add(-pre)
		if tripCount[i] > 0 && nextFree[i].After(load) {
			load = nextFree[i]
		}
		legs := timing.LegsFromPlantLoad(load, req, plan.UnloadingMin)

		tripCount[i]++
		completed += sequence[i].Capacity
		trips = append(trips, model.Trip{
			TripNo:            k,
			VehicleID:         sequence[i].ID,
			VehicleTripNo:     tripCount[i],
			PlantLoad:         legs.PlantLoad,
			PlantBuffer:       legs.PlantBuffer,
			PlantStart:        legs.PlantStart,
			PumpStart:         legs.PumpStart,
			Unloading:         legs.Unloading,
			Return:            legs.Return,
			CompletedCapacity: completed,
			CycleTimeSec:      cycleSec,
		})
		pumpFree = legs.Unloading
		nextFree[i] = legs.Return
	}
	setCushions(trips)
	return trips
}

// Burst dispatches every vehicle as soon as it is free and lets arrivals
// queue at the site. The pump still serves trips in order, so early
// arrivals accrue waiting time instead of stalling the pour.
type Burst struct{}

func (Burst) Name() string { return model.PolicyBurst.String() }

func (Burst) Expand(req model.PourRequest, sequence []model.TransitMixer, plan sizing.Result) []model.Trip {
	n := len(sequence)
	pre := timing.Minutes(timing.PreTripTime(req))
	cycleSec := plan.CycleMin * 60

	// First departures are aligned so the lead vehicle reaches the pump
	// exactly at the pour start.
	base := req.PumpStart.Add(-pre)

	trips := make([]model.Trip, 0, plan.Loads)
	nextFree := make([]time.Time, n)
	tripCount := make([]int, n)
	pumpFree := req.PumpStart
	completed := 0.0

	for k := 1; completed < req.Quantity; k++ {
		i := (k - 1) % n
		load := base
		if tripCount[i] > 0 {
			load = nextFree[i]
		}
		buffer := load.Add(timing.Minutes(req.LoadMin))
		start := buffer.Add(timing.Minutes(req.BufferMin))
		reach := start.Add(timing.Minutes(req.OnwardMin))

		pumpStart := pumpFree
		if reach.After(pumpStart) {
			pumpStart = reach
		}
		unloading := pumpStart.Add(timing.Minutes(plan.UnloadingMin))
		ret := unloading.Add(timing.Minutes(req.ReturnMin))

		tripCount[i]++
		completed += sequence[i].Capacity
		trips = append(trips, model.Trip{
			TripNo:            k,
			VehicleID:         sequence[i].ID,
			VehicleTripNo:     tripCount[i],
			PlantLoad:         load,
			PlantBuffer:       buffer,
			PlantStart:        start,
			PumpStart:         pumpStart,
			Unloading:         unloading,
			Return:            ret,
			CompletedCapacity: completed,
			CycleTimeSec:      cycleSec,
			SiteReach:         reach,
			WaitingMin:        pumpStart.Sub(reach).Minutes(),
		})
		pumpFree = unloading
		nextFree[i] = ret
	}
	setCushions(trips)
	setQueueDepths(trips)
	return trips
}

// setCushions fills the slack between a vehicle's return and its next
// scheduled departure. The vehicle's last trip, and apparent-negative
// slack, carry no cushion.
func setCushions(trips []model.Trip) {
	lastByVehicle := make(map[string]int)
	for i := range trips {
		if prev, ok := lastByVehicle[trips[i].VehicleID]; ok {
			cushion := trips[i].PlantLoad.Sub(trips[prev].Return).Seconds()
			if cushion >= 0 {
				trips[prev].CushionSec = &cushion
			}
		}
		lastByVehicle[trips[i].VehicleID] = i
	}
}

// setQueueDepths counts, for each trip, the vehicles already waiting at
// site when this trip's vehicle arrives: those with
// site_reach <= this.site_reach < their pump_start.
func setQueueDepths(trips []model.Trip) {
	for i := range trips {
		depth := 0.0
		at := trips[i].SiteReach
		for j := range trips {
			if !trips[j].SiteReach.After(at) && at.Before(trips[j].PumpStart) {
				depth++
			}
		}
		trips[i].QueueDepth = depth
	}
}

// GapMinutes returns the per-trip gap against the previous trip in the
// final sequence, measured between plant buffer timestamps and rounded to
// whole minutes. Apparent-negative deltas are suppressed.
func GapMinutes(trips []model.Trip) []int {
	gaps := make([]int, len(trips))
	for i := 1; i < len(trips); i++ {
		g := int(math.Round(trips[i].PlantBuffer.Sub(trips[i-1].PlantBuffer).Minutes()))
		if g < 0 {
			g = 0
		}
		gaps[i] = g
	}
	return gaps
}
