package scheduler

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tmhire/pourplan/core/model"
)

// Summary aggregates display metrics over a generated trip table.
type Summary struct {
	TotalTrips     int     `json:"total_trips"`
	MakespanMin    float64 `json:"makespan_min"`
	MeanWaitingMin float64 `json:"mean_waiting_min"`
	MaxWaitingMin  float64 `json:"max_waiting_min"`
	MeanQueueDepth float64 `json:"mean_queue_depth"`
}

// Summarize computes aggregate statistics for a trip table. Waiting and
// queue figures are zero for zero-wait tables.
func Summarize(trips []model.Trip) Summary {
	if len(trips) == 0 {
		return Summary{}
	}
	waits := make([]float64, len(trips))
	depths := make([]float64, len(trips))
	for i, t := range trips {
		waits[i] = t.WaitingMin
		depths[i] = t.QueueDepth
	}
	return Summary{
		TotalTrips:     len(trips),
		MakespanMin:    trips[len(trips)-1].Unloading.Sub(trips[0].PlantLoad).Minutes(),
		MeanWaitingMin: stat.Mean(waits, nil),
		MaxWaitingMin:  floats.Max(waits),
		MeanQueueDepth: stat.Mean(depths, nil),
	}
}
