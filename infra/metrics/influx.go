package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/tmhire/pourplan/core/metrics"
	"github.com/tmhire/pourplan/infra/logger"
)

// InfluxSink writes scheduling events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	base := strings.TrimSuffix(cfg.InfluxURL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns
// a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordScheduleEvent writes the transition as a line protocol point.
func (s *InfluxSink) RecordScheduleEvent(ev coremetrics.ScheduleEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("schedule_event").
		AddTag("schedule_id", ev.ScheduleID).
		AddTag("state", ev.State).
		AddTag("policy", ev.Policy).
		AddField("tm_count", ev.TMCount).
		AddField("total_trips", ev.TotalTrips).
		AddField("quantity_m3", ev.QuantityM3).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordGenerationLatency persists the expansion wall time.
func (s *InfluxSink) RecordGenerationLatency(lat coremetrics.GenerationLatency) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("schedule_generation_latency").
		AddTag("schedule_id", lat.ScheduleID).
		AddTag("policy", lat.Policy).
		AddField("latency_ms", float64(lat.Latency.Milliseconds())).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordFleetSnapshot persists the availability breakdown.
func (s *InfluxSink) RecordFleetSnapshot(snap coremetrics.FleetSnapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fleet_snapshot").
		AddField("available_tms", snap.AvailableTMs).
		AddField("partial_tms", snap.PartialTMs).
		AddField("unavailable_tms", snap.UnavailableTMs).
		AddField("available_pumps", snap.AvailablePumps).
		SetTime(snap.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close shuts down the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
