package availability

import (
	"time"

	"github.com/tmhire/pourplan/core/model"
)

// Status classifies a fleet member against a candidate pour window.
type Status int

const (
	Available Status = iota
	PartiallyUnavailable
	Unavailable
)

// String returns the wire representation used in display snapshots.
func (s Status) String() string {
	switch s {
	case Available:
		return "available"
	case PartiallyUnavailable:
		return "partially_unavailable"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// DefaultPartialOverlapThreshold is the longest trailing overlap that is
// tolerated with a warning instead of disqualifying the vehicle. The exact
// boundary is dispatch policy, not physics, so it stays configurable.
const DefaultPartialOverlapThreshold = time.Hour

// Classify grades a set of committed windows against [windowStart, windowEnd].
// Intervals owned by excludeScheduleID are ignored, which lets a schedule be
// re-edited against its own prior reservation.
//
// A commitment that is still running when this pour would end disqualifies
// the vehicle outright. A commitment that ends inside the window is a hard
// conflict when the residual overlap exceeds the threshold, and a soft
// warning otherwise.
func Classify(windows []model.Window, windowStart, windowEnd time.Time, excludeScheduleID string, threshold time.Duration) Status {
	if threshold <= 0 {
		threshold = DefaultPartialOverlapThreshold
	}
	status := Available
	for _, w := range windows {
		if excludeScheduleID != "" && w.ScheduleID == excludeScheduleID {
			continue
		}
		// s < windowEnd <= e: still busy when this pour needs the vehicle.
		if w.Start.Before(windowEnd) && !windowEnd.After(w.End) {
			return Unavailable
		}
		// windowStart < e <= windowEnd: a commitment ends inside the window.
		if windowStart.Before(w.End) && !w.End.After(windowEnd) {
			if w.End.Sub(windowStart) > threshold {
				return Unavailable
			}
			status = PartiallyUnavailable
		}
	}
	return status
}

// ClassifyTM grades a transit mixer for the window.
func ClassifyTM(tm model.TransitMixer, windowStart, windowEnd time.Time, excludeScheduleID string, threshold time.Duration) Status {
	return Classify(tm.Unavailable, windowStart, windowEnd, excludeScheduleID, threshold)
}

// ClassifyPump grades a pump for the window.
func ClassifyPump(p model.Pump, windowStart, windowEnd time.Time, excludeScheduleID string, threshold time.Duration) Status {
	return Classify(p.Unavailable, windowStart, windowEnd, excludeScheduleID, threshold)
}
