package metrics

import coremetrics "github.com/tmhire/pourplan/core/metrics"

// MultiSink fans scheduling events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordScheduleEvent forwards the event to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordScheduleEvent(ev coremetrics.ScheduleEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordScheduleEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordGenerationLatency forwards latency records.
func (m *MultiSink) RecordGenerationLatency(lat coremetrics.GenerationLatency) error {
	for _, s := range m.Sinks {
		if err := s.RecordGenerationLatency(lat); err != nil {
			return err
		}
	}
	return nil
}

// RecordFleetSnapshot forwards availability snapshots.
func (m *MultiSink) RecordFleetSnapshot(snap coremetrics.FleetSnapshot) error {
	for _, s := range m.Sinks {
		if err := s.RecordFleetSnapshot(snap); err != nil {
			return err
		}
	}
	return nil
}
