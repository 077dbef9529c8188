package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/tmhire/pourplan/config"
	"github.com/tmhire/pourplan/core/availability"
	coremetrics "github.com/tmhire/pourplan/core/metrics"
	"github.com/tmhire/pourplan/core/model"
	"github.com/tmhire/pourplan/core/scheduler"
	"github.com/tmhire/pourplan/core/sizing"
	"github.com/tmhire/pourplan/core/timing"
	"github.com/tmhire/pourplan/infra/logger"
	"github.com/tmhire/pourplan/infra/metrics"
	"github.com/tmhire/pourplan/infra/notify"
	"github.com/tmhire/pourplan/infra/store"
	"github.com/tmhire/pourplan/internal/eventbus"
)

// Service orchestrates the scheduling engine against the stores and
// side channels. The engine itself stays pure; every side effect lives
// here.
type Service struct {
	schedules store.ScheduleStore
	fleet     store.FleetStore
	sink      coremetrics.MetricsSink
	bus       *eventbus.Bus
	notifier  *notify.FleetNotifier
	audit     *store.AuditLog
	log       logger.Logger
	threshold time.Duration
	now       func() time.Time

	promEnabled bool
	promPort    string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option tweaks an assembled Service.
type Option func(*Service)

// WithClock replaces the wall clock, keeping tests deterministic.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSink replaces the metrics sink.
func WithSink(sink coremetrics.MetricsSink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithNotifier attaches a fleet notifier.
func WithNotifier(n *notify.FleetNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithAudit attaches a transition audit log.
func WithAudit(a *store.AuditLog) Option {
	return func(s *Service) { s.audit = a }
}

// WithLogger replaces the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithPartialOverlapThreshold overrides the availability warning boundary.
func WithPartialOverlapThreshold(d time.Duration) Option {
	return func(s *Service) { s.threshold = d }
}

// NewService assembles a Service around the given stores.
func NewService(schedules store.ScheduleStore, fleet store.FleetStore, opts ...Option) *Service {
	s := &Service{
		schedules: schedules,
		fleet:     fleet,
		sink:      coremetrics.NopSink{},
		bus:       eventbus.New(),
		log:       logger.NopLogger{},
		threshold: availability.DefaultPartialOverlapThreshold,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	logg := logger.New("service")

	var schedules store.ScheduleStore
	var fleet store.FleetStore
	if cfg.Storage.DatabasePath != "" {
		db, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		schedules, fleet = db, db
	} else {
		schedules = store.NewMemoryScheduleStore()
		fleet = store.NewMemoryFleetStore()
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.MetricsSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	opts := []Option{
		WithSink(sink),
		WithLogger(logg),
		WithPartialOverlapThreshold(timing.Minutes(cfg.Scheduler.PartialOverlapThresholdMinutes)),
	}
	if cfg.Storage.AuditLogPath != "" {
		audit, err := store.NewAuditLog(cfg.Storage.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("audit log: %w", err)
		}
		opts = append(opts, WithAudit(audit))
	}
	if cfg.Notifier.Enabled {
		n, err := notify.New(cfg.Notifier)
		if err != nil {
			return nil, fmt.Errorf("fleet notifier: %w", err)
		}
		opts = append(opts, WithNotifier(n))
	}

	svc := NewService(schedules, fleet, opts...)
	svc.promEnabled = cfg.Metrics.PrometheusEnabled
	svc.promPort = cfg.Metrics.PrometheusPort
	return svc, nil
}

// CalcResult is the outcome of fleet sizing plus the availability
// snapshots the dispatcher selects vehicles from.
type CalcResult struct {
	ScheduleID   string                   `json:"schedule_id"`
	TMCount      int                      `json:"tm_count"`
	PumpCount    int                      `json:"pump_count"`
	Loads        int                      `json:"loads"`
	TripsPerTM   float64                  `json:"trips_per_tm"`
	UnloadingMin float64                  `json:"unloading_time_min"`
	CycleMin     float64                  `json:"cycle_time_min"`
	Distribution []model.TripDistribution `json:"trips_per_tm_distribution"`

	AvailableTMs   []model.TMStatus `json:"available_tms"`
	AvailablePumps []model.TMStatus `json:"available_pumps"`
}

// Calculate validates the pour, sizes the fleet and persists a schedule in
// the calculating state, ready for a vehicle sequence.
func (s *Service) Calculate(ctx context.Context, req model.PourRequest) (*CalcResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	tms, err := s.fleet.TransitMixers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fleet: %w", err)
	}
	if len(tms) == 0 {
		return nil, &model.InsufficientFleetError{Resource: "tm", Required: 1, Available: 0}
	}
	pumps, err := s.fleet.Pumps(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pumps: %w", err)
	}

	caps := make([]float64, len(tms))
	for i, tm := range tms {
		caps[i] = tm.Capacity
	}
	plan, err := sizing.Compute(req, stat.Mean(caps, nil))
	if err != nil {
		return nil, err
	}

	windowStart, windowEnd := s.pourWindow(req, plan)
	tmStatuses, snapshot := s.classifyTMs(tms, windowStart, windowEnd, "")
	pumpStatuses, availablePumps := s.classifyPumps(pumps, req, plan, "")
	snapshot.AvailablePumps = availablePumps
	snapshot.Time = s.now()

	sched := &model.Schedule{
		ID:         uuid.NewString(),
		Request:    req,
		State:      model.StateCalculating,
		TMCount:    plan.TMCount,
		Loads:      plan.Loads,
		TripsPerTM: plan.TripsPerTM,
		CreatedAt:  s.now(),
		UpdatedAt:  s.now(),
	}
	if err := s.schedules.Create(ctx, sched); err != nil {
		return nil, fmt.Errorf("persist schedule: %w", err)
	}

	if err := s.sink.RecordFleetSnapshot(snapshot); err != nil {
		s.log.Warnf("record fleet snapshot: %v", err)
	}
	s.publish(sched, "")
	s.appendAudit(store.AuditRecord{
		Timestamp:  s.now(),
		ScheduleID: sched.ID,
		Transition: model.StateCalculating.String(),
		Policy:     req.Policy.String(),
	})

	return &CalcResult{
		ScheduleID:     sched.ID,
		TMCount:        plan.TMCount,
		PumpCount:      plan.PumpCount,
		Loads:          plan.Loads,
		TripsPerTM:     plan.TripsPerTM,
		UnloadingMin:   plan.UnloadingMin,
		CycleMin:       plan.CycleMin,
		Distribution:   sizing.Distribute(plan.Loads, plan.TMCount),
		AvailableTMs:   tmStatuses,
		AvailablePumps: pumpStatuses,
	}, nil
}

// GenerateInput carries the dispatcher's decisions for trip expansion.
type GenerateInput struct {
	Sequence []string            `json:"vehicle_sequence"`
	Policy   model.PumpingPolicy `json:"policy"`
	Overrule int                 `json:"tm_overrule,omitempty"` // 0 = no override
}

// Generate expands the vehicle sequence into the trip tables and commits
// the schedule. On any failure the schedule stays in its prior state and
// no vehicle window is reserved.
func (s *Service) Generate(ctx context.Context, scheduleID string, in GenerateInput) (*model.ScheduleResult, error) {
	lock := s.lockFor(scheduleID)
	lock.Lock()
	defer lock.Unlock()
	started := s.now()

	sched, err := s.schedules.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if !sched.State.CanTransition(model.StateGenerated) {
		return nil, &model.StateTransitionError{ScheduleID: scheduleID, From: sched.State, To: model.StateGenerated}
	}

	required := sched.TMCount
	if in.Overrule > 0 {
		if in.Overrule < sched.TMCount {
			return nil, &model.ValidationError{Field: "tm_overrule", Reason: fmt.Sprintf("must be at least the computed optimum %d", sched.TMCount)}
		}
		required = in.Overrule
	}
	if len(in.Sequence) != required {
		return nil, &model.SequenceMismatchError{Required: required, Got: len(in.Sequence)}
	}

	tms, err := s.fleet.TransitMixers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fleet: %w", err)
	}
	pumps, err := s.fleet.Pumps(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pumps: %w", err)
	}

	byID := make(map[string]model.TransitMixer, len(tms))
	for _, tm := range tms {
		byID[tm.ID] = tm
	}
	sequence := make([]model.TransitMixer, 0, required)
	for _, id := range in.Sequence {
		tm, ok := byID[id]
		if !ok {
			return nil, &model.ValidationError{Field: "vehicle_sequence", Reason: fmt.Sprintf("unknown vehicle %s", id)}
		}
		sequence = append(sequence, tm)
	}

	caps := make([]float64, len(sequence))
	for i, tm := range sequence {
		caps[i] = tm.Capacity
	}
	plan, err := sizing.Compute(sched.Request, stat.Mean(caps, nil))
	if err != nil {
		return nil, err
	}
	plan = plan.WithOverrule(in.Overrule)
	if free := s.countUsable(tms, sched.Request, plan, scheduleID); free < required {
		return nil, &model.InsufficientFleetError{Resource: "tm", Required: required, Available: free}
	}

	// Commit-time re-validation: every selected vehicle must still be
	// clear of foreign commitments for the pour window.
	windowStart, windowEnd := s.pourWindow(sched.Request, plan)
	for _, tm := range sequence {
		if availability.ClassifyTM(tm, windowStart, windowEnd, scheduleID, s.threshold) == availability.Unavailable {
			return nil, s.conflictFor(tm, windowStart, windowEnd, scheduleID)
		}
	}

	output, err := scheduler.Expand(sched.Request, sequence, plan, model.PolicyZeroWait)
	if err != nil {
		return nil, err
	}
	primary := output
	var burst []model.Trip
	if in.Policy == model.PolicyBurst {
		if burst, err = scheduler.Expand(sched.Request, sequence, plan, model.PolicyBurst); err != nil {
			return nil, err
		}
		primary = burst
	}

	reservations := vehicleWindows(primary)
	if err := s.fleet.Reserve(ctx, scheduleID, reservations); err != nil {
		return nil, err
	}

	tmStatuses, _ := s.classifyTMs(tms, windowStart, windowEnd, scheduleID)
	pumpStatuses, _ := s.classifyPumps(pumps, sched.Request, plan, scheduleID)

	// Expansion is quantity-driven, so the emitted trip count is the
	// authoritative one, not the sizing estimate.
	totalTrips := len(primary)
	result := &model.ScheduleResult{
		TMCount:        sched.TMCount,
		TMOverrule:     in.Overrule,
		TotalTrips:     totalTrips,
		TripsPerTM:     float64(totalTrips) / float64(required),
		CycleTimeSec:   plan.CycleMin * 60,
		Distribution:   sizing.Distribute(totalTrips, required),
		OutputTable:    output,
		BurstTable:     burst,
		AvailableTMs:   tmStatuses,
		AvailablePumps: pumpStatuses,
	}

	sched.State = model.StateGenerated
	sched.TMOverrule = in.Overrule
	sched.Result = result
	sched.UpdatedAt = s.now()
	if err := s.schedules.Update(ctx, sched); err != nil {
		if rerr := s.fleet.Release(ctx, scheduleID); rerr != nil {
			s.log.Errorf("release after failed commit: %v", rerr)
		}
		return nil, err
	}

	policy := in.Policy.String()
	summary := scheduler.Summarize(primary)
	s.log.Infof("schedule %s generated: %d trips on %d vehicles (%s), makespan %.0f min",
		scheduleID, totalTrips, required, policy, summary.MakespanMin)
	if err := s.sink.RecordScheduleEvent(coremetrics.ScheduleEvent{
		ScheduleID: scheduleID,
		State:      model.StateGenerated.String(),
		Policy:     policy,
		TMCount:    required,
		TotalTrips: totalTrips,
		QuantityM3: sched.Request.Quantity,
		Time:       s.now(),
	}); err != nil {
		s.log.Warnf("record schedule event: %v", err)
	}
	if err := s.sink.RecordGenerationLatency(coremetrics.GenerationLatency{
		ScheduleID: scheduleID,
		Policy:     policy,
		Latency:    s.now().Sub(started),
	}); err != nil {
		s.log.Warnf("record generation latency: %v", err)
	}
	s.publish(sched, "")
	s.appendAudit(store.AuditRecord{
		Timestamp:  s.now(),
		ScheduleID: scheduleID,
		Transition: model.StateGenerated.String(),
		Policy:     policy,
		TotalTrips: totalTrips,
	})
	if s.notifier != nil {
		if err := s.notifier.NotifySchedule(scheduleID, policy, primary); err != nil {
			s.log.Errorf("notify fleet: %v", err)
		}
	}
	return result, nil
}

// Cancel releases the schedule's reserved windows atomically with the
// transition to canceled.
func (s *Service) Cancel(ctx context.Context, scheduleID, reason, canceledBy string) error {
	lock := s.lockFor(scheduleID)
	lock.Lock()
	defer lock.Unlock()

	sched, err := s.schedules.Get(ctx, scheduleID)
	if err != nil {
		return err
	}
	if !sched.State.CanTransition(model.StateCanceled) {
		return &model.StateTransitionError{ScheduleID: scheduleID, From: sched.State, To: model.StateCanceled}
	}
	if err := s.fleet.Release(ctx, scheduleID); err != nil {
		return fmt.Errorf("release windows: %w", err)
	}
	sched.State = model.StateCanceled
	sched.CanceledReason = reason
	sched.CanceledBy = canceledBy
	sched.UpdatedAt = s.now()
	if err := s.schedules.Update(ctx, sched); err != nil {
		return err
	}

	s.publish(sched, reason)
	s.appendAudit(store.AuditRecord{
		Timestamp:  s.now(),
		ScheduleID: scheduleID,
		Transition: model.StateCanceled.String(),
		Reason:     reason,
		Actor:      canceledBy,
	})
	if err := s.sink.RecordScheduleEvent(coremetrics.ScheduleEvent{
		ScheduleID: scheduleID,
		State:      model.StateCanceled.String(),
		Policy:     sched.Request.Policy.String(),
		Time:       s.now(),
	}); err != nil {
		s.log.Warnf("record schedule event: %v", err)
	}
	if s.notifier != nil && sched.Result != nil {
		ids := vehicleIDs(sched.Result.OutputTable)
		if err := s.notifier.NotifyCancel(scheduleID, reason, ids, s.now()); err != nil {
			s.log.Errorf("notify cancel: %v", err)
		}
	}
	return nil
}

// Delete is the terminal transition; a generated schedule's windows are
// released with it.
func (s *Service) Delete(ctx context.Context, scheduleID, deleteType string) error {
	lock := s.lockFor(scheduleID)
	lock.Lock()
	defer lock.Unlock()

	sched, err := s.schedules.Get(ctx, scheduleID)
	if err != nil {
		return err
	}
	if !sched.State.CanTransition(model.StateDeleted) {
		return &model.StateTransitionError{ScheduleID: scheduleID, From: sched.State, To: model.StateDeleted}
	}
	if sched.State == model.StateGenerated {
		if err := s.fleet.Release(ctx, scheduleID); err != nil {
			return fmt.Errorf("release windows: %w", err)
		}
	}
	sched.State = model.StateDeleted
	sched.DeleteType = deleteType
	sched.UpdatedAt = s.now()
	if err := s.schedules.Update(ctx, sched); err != nil {
		return err
	}
	s.publish(sched, deleteType)
	s.appendAudit(store.AuditRecord{
		Timestamp:  s.now(),
		ScheduleID: scheduleID,
		Transition: model.StateDeleted.String(),
		Reason:     deleteType,
	})
	return nil
}

// Get returns the schedule aggregate.
func (s *Service) Get(ctx context.Context, scheduleID string) (*model.Schedule, error) {
	return s.schedules.Get(ctx, scheduleID)
}

// Fleet returns the registry snapshot for display.
func (s *Service) Fleet(ctx context.Context) ([]model.TransitMixer, []model.Pump, error) {
	tms, err := s.fleet.TransitMixers(ctx)
	if err != nil {
		return nil, nil, err
	}
	pumps, err := s.fleet.Pumps(ctx)
	if err != nil {
		return nil, nil, err
	}
	return tms, pumps, nil
}

// Events exposes the lifecycle bus for observers.
func (s *Service) Events() *eventbus.Bus { return s.bus }

// Run starts the side services and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	events := s.bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.log.Infof("schedule %s -> %s", ev.ScheduleID, ev.State)
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.notifier != nil {
		s.notifier.Close()
	}
	if err := s.schedules.Close(); err != nil {
		return err
	}
	return s.fleet.Close()
}

func (s *Service) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Service) publish(sched *model.Schedule, reason string) {
	s.bus.Publish(eventbus.Event{
		ScheduleID: sched.ID,
		State:      sched.State.String(),
		Policy:     sched.Request.Policy.String(),
		Reason:     reason,
		Time:       s.now(),
	})
}

func (s *Service) appendAudit(rec store.AuditRecord) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(rec); err != nil {
		s.log.Warnf("append audit record: %v", err)
	}
}

// pourWindow is the TM-side window of the pour: from the earliest plant
// load to the last vehicle's return.
func (s *Service) pourWindow(req model.PourRequest, plan sizing.Result) (time.Time, time.Time) {
	start := req.PumpStart.Add(-timing.Minutes(timing.PreTripTime(req)))
	end := req.PumpStart.
		Add(timing.Minutes(float64(plan.Loads) * plan.UnloadingMin)).
		Add(timing.Minutes(req.ReturnMin))
	return start, end
}

func (s *Service) classifyTMs(tms []model.TransitMixer, start, end time.Time, exclude string) ([]model.TMStatus, coremetrics.FleetSnapshot) {
	statuses := make([]model.TMStatus, len(tms))
	var snap coremetrics.FleetSnapshot
	for i, tm := range tms {
		st := availability.ClassifyTM(tm, start, end, exclude, s.threshold)
		statuses[i] = model.TMStatus{ID: tm.ID, Identifier: tm.Identifier, Capacity: tm.Capacity, Status: st.String()}
		switch st {
		case availability.Available:
			snap.AvailableTMs++
		case availability.PartiallyUnavailable:
			snap.PartialTMs++
		default:
			snap.UnavailableTMs++
		}
	}
	return statuses, snap
}

// classifyPumps grades pumps against the pump equipment's own window,
// which starts when the pump must leave the plant and ends after removal.
func (s *Service) classifyPumps(pumps []model.Pump, req model.PourRequest, plan sizing.Result, exclude string) ([]model.TMStatus, int) {
	start := timing.PumpStartFromPlant(req)
	end := req.PumpStart.
		Add(timing.Minutes(float64(plan.Loads) * plan.UnloadingMin)).
		Add(timing.Minutes(req.PumpRemovalMin))
	statuses := make([]model.TMStatus, len(pumps))
	available := 0
	for i, p := range pumps {
		st := availability.ClassifyPump(p, start, end, exclude, s.threshold)
		statuses[i] = model.TMStatus{ID: p.ID, Identifier: p.Identifier, Status: st.String()}
		if st != availability.Unavailable {
			available++
		}
	}
	return statuses, available
}

func (s *Service) countUsable(tms []model.TransitMixer, req model.PourRequest, plan sizing.Result, exclude string) int {
	start, end := s.pourWindow(req, plan)
	usable := 0
	for _, tm := range tms {
		if availability.ClassifyTM(tm, start, end, exclude, s.threshold) != availability.Unavailable {
			usable++
		}
	}
	return usable
}

func (s *Service) conflictFor(tm model.TransitMixer, start, end time.Time, exclude string) error {
	for _, w := range tm.Unavailable {
		if exclude != "" && w.ScheduleID == exclude {
			continue
		}
		if w.Overlaps(start, end) {
			return &model.VehicleConflictError{VehicleID: tm.ID, Window: w}
		}
	}
	return &model.VehicleConflictError{VehicleID: tm.ID, Window: model.Window{Start: start, End: end}}
}

// vehicleWindows derives one reservation per vehicle spanning its first
// plant load to its last return.
func vehicleWindows(trips []model.Trip) []store.Reservation {
	firsts := make(map[string]time.Time)
	lasts := make(map[string]time.Time)
	var order []string
	for _, t := range trips {
		if _, ok := firsts[t.VehicleID]; !ok {
			firsts[t.VehicleID] = t.PlantLoad
			order = append(order, t.VehicleID)
		}
		if t.Return.After(lasts[t.VehicleID]) {
			lasts[t.VehicleID] = t.Return
		}
	}
	out := make([]store.Reservation, 0, len(order))
	for _, vid := range order {
		out = append(out, store.Reservation{
			VehicleID: vid,
			Window:    model.Window{Start: firsts[vid], End: lasts[vid]},
		})
	}
	return out
}

func vehicleIDs(trips []model.Trip) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, t := range trips {
		if !seen[t.VehicleID] {
			seen[t.VehicleID] = true
			ids = append(ids, t.VehicleID)
		}
	}
	return ids
}
