package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/tmhire/pourplan/core/metrics"
)

// PromSink records scheduling events in Prometheus metrics.
type PromSink struct {
	events     *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	fleetTMs   *prometheus.GaugeVec
	fleetPumps prometheus.Gauge
	tripsTotal *prometheus.CounterVec
}

// NewPromSink registers scheduling metrics on the default Prometheus
// registerer. The Prometheus server is started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_events_total",
		Help: "Total number of schedule lifecycle transitions",
	}, []string{"state", "policy"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schedule_generation_latency_seconds",
		Help:    "Wall time of trip expansion and commit",
		Buckets: prometheus.DefBuckets,
	}, []string{"policy"})
	fleetTMs := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_transit_mixers",
		Help: "Transit mixers by availability status at sizing time",
	}, []string{"status"})
	fleetPumps := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_available_pumps",
		Help: "Pumps available at sizing time",
	})
	trips := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_trips_total",
		Help: "Trips emitted by generated schedules",
	}, []string{"policy"})

	for _, c := range []prometheus.Collector{events, latency, fleetTMs, fleetPumps, trips} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}

	return &PromSink{events: events, latency: latency, fleetTMs: fleetTMs, fleetPumps: fleetPumps, tripsTotal: trips}, nil
}

// RecordScheduleEvent increments the transition counter.
func (s *PromSink) RecordScheduleEvent(ev coremetrics.ScheduleEvent) error {
	s.events.WithLabelValues(ev.State, ev.Policy).Inc()
	if ev.TotalTrips > 0 {
		s.tripsTotal.WithLabelValues(ev.Policy).Add(float64(ev.TotalTrips))
	}
	return nil
}

// RecordGenerationLatency records the generation latency histogram.
func (s *PromSink) RecordGenerationLatency(lat coremetrics.GenerationLatency) error {
	s.latency.WithLabelValues(lat.Policy).Observe(lat.Latency.Seconds())
	return nil
}

// RecordFleetSnapshot updates the availability gauges.
func (s *PromSink) RecordFleetSnapshot(snap coremetrics.FleetSnapshot) error {
	s.fleetTMs.WithLabelValues("available").Set(float64(snap.AvailableTMs))
	s.fleetTMs.WithLabelValues("partially_unavailable").Set(float64(snap.PartialTMs))
	s.fleetTMs.WithLabelValues("unavailable").Set(float64(snap.UnavailableTMs))
	s.fleetPumps.Set(float64(snap.AvailablePumps))
	return nil
}
