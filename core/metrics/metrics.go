package metrics

import "time"

// ScheduleEvent represents one lifecycle transition of a schedule.
type ScheduleEvent struct {
	ScheduleID string
	State      string // generated, canceled, deleted, calculating
	Policy     string
	TMCount    int
	TotalTrips int
	QuantityM3 float64
	Time       time.Time
}

// GenerationLatency measures the wall time of one trip expansion and
// commit, from request receipt to the Generated transition.
type GenerationLatency struct {
	ScheduleID string
	Policy     string
	Latency    time.Duration
}

// FleetSnapshot captures the availability breakdown observed while sizing
// a pour.
type FleetSnapshot struct {
	AvailableTMs   int
	PartialTMs     int
	UnavailableTMs int
	AvailablePumps int
	Time           time.Time
}

// MetricsSink records scheduling events for observability purposes.
type MetricsSink interface {
	RecordScheduleEvent(ev ScheduleEvent) error
	RecordGenerationLatency(lat GenerationLatency) error
	RecordFleetSnapshot(snap FleetSnapshot) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordScheduleEvent(ScheduleEvent) error         { return nil }
func (NopSink) RecordGenerationLatency(GenerationLatency) error { return nil }
func (NopSink) RecordFleetSnapshot(FleetSnapshot) error         { return nil }
