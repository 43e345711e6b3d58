// Package loop runs the control loop: discover services, sample
// metrics, decide scaling, reconcile replica counts, project the
// routing document.
//
// One loop instance runs per process. Ticks are strictly sequential; a
// trigger arriving mid-tick queues (at most one pending) instead of
// interleaving, so topology transitions stay serial. Each tick moves
// through Idle → Sampling → Deciding → Reconciling → Projecting → Idle
// and publishes its lifecycle on the event bus under a per-tick
// correlation id.
package loop

import (
	"context"
	"sync"
	"time"

	"github.com/tsm-sh/tsm/internal/config"
	"github.com/tsm-sh/tsm/internal/discovery"
	"github.com/tsm-sh/tsm/internal/errors"
	"github.com/tsm-sh/tsm/internal/event"
	"github.com/tsm-sh/tsm/internal/logging"
	"github.com/tsm-sh/tsm/internal/metrics"
	"github.com/tsm-sh/tsm/internal/orchestrator"
	"github.com/tsm-sh/tsm/internal/proxy"
	"github.com/tsm-sh/tsm/internal/scaling"
	"github.com/tsm-sh/tsm/internal/topology"
)

// ServiceLister parses the manifest into service descriptors.
type ServiceLister interface {
	ListServices(path string) ([]discovery.Service, error)
}

// MetricCollector samples metrics under a per-tick budget.
type MetricCollector interface {
	Collect(ctx context.Context, probes []metrics.Probe) []metrics.Sample
	Forget(service string)
}

// Applier reconciles a tick's scaling decisions.
type Applier interface {
	Apply(ctx context.Context, decisions []scaling.Decision) []orchestrator.Result
}

// DocumentWriter projects snapshots and writes routing documents.
type DocumentWriter interface {
	Project(snap *topology.Snapshot) *proxy.Document
	Write(doc *proxy.Document) (int, error)
	Path() string
}

// Deps are the collaborators a Loop drives. Scanner, Client,
// Reconciler and Projector are required; Sampler is required unless
// the loop is projection-only; a nil Bus gets a fresh one.
type Deps struct {
	Scanner    ServiceLister
	Sampler    MetricCollector
	Client     orchestrator.Client
	Reconciler Applier
	Projector  DocumentWriter
	Bus        *event.Bus
}

// Loop owns the tick state machine and all shared mutable scaling
// state (cooldown tracker, current topology snapshot). Workers never
// touch that state; they return results the loop applies serially.
type Loop struct {
	cfg        *config.Config
	scanner    ServiceLister
	sampler    MetricCollector
	client     orchestrator.Client
	reconciler Applier
	projector  DocumentWriter
	bus        *event.Bus
	policy     *scaling.Policy
	tracker    *scaling.CooldownTracker
	logger     *logging.Logger

	manifest    string
	interval    time.Duration
	dryRun      bool
	projectOnly bool
	watch       <-chan string

	trigger chan event.Trigger

	mu           sync.RWMutex
	phase        event.Phase
	snapshot     *topology.Snapshot
	tickCount    uint64
	lastTickID   string
	lastTickAt   time.Time
	lastDuration time.Duration
	lastErr      error
}

// Option configures a Loop.
type Option func(*Loop)

// WithInterval overrides the tick interval from config. Zero or
// negative disables the interval timer, leaving only watch and manual
// triggers.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) { l.interval = d }
}

// WithDryRun stops every tick after the decision phase, logging what
// would have been reconciled and projected.
func WithDryRun(enabled bool) Option {
	return func(l *Loop) { l.dryRun = enabled }
}

// WithProjectionOnly skips sampling, deciding and reconciling: ticks
// rebuild the topology from live state and project the document.
func WithProjectionOnly(enabled bool) Option {
	return func(l *Loop) { l.projectOnly = enabled }
}

// WithWatch feeds debounced manifest-change notifications into the
// trigger queue.
func WithWatch(changes <-chan string) Option {
	return func(l *Loop) { l.watch = changes }
}

// WithManifest overrides the manifest path from config.
func WithManifest(path string) Option {
	return func(l *Loop) {
		if path != "" {
			l.manifest = path
		}
	}
}

// New creates a control loop. A nil logger disables logging.
func New(cfg *config.Config, deps Deps, logger *logging.Logger, opts ...Option) (*Loop, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if deps.Bus == nil {
		deps.Bus = event.NewBus()
	}

	tracker := scaling.NewCooldownTracker()
	l := &Loop{
		cfg:        cfg,
		scanner:    deps.Scanner,
		sampler:    deps.Sampler,
		client:     deps.Client,
		reconciler: deps.Reconciler,
		projector:  deps.Projector,
		bus:        deps.Bus,
		policy:     scaling.NewPolicy(tracker),
		tracker:    tracker,
		logger:     logger.WithComponent("loop"),
		manifest:   cfg.Compose.File,
		interval:   cfg.Scaling.CheckInterval(),
		trigger:    make(chan event.Trigger, 1),
		phase:      event.PhaseIdle,
	}
	if !cfg.Scaling.Enabled {
		l.projectOnly = true
	}
	for _, opt := range opts {
		opt(l)
	}

	switch {
	case l.scanner == nil:
		return nil, errors.NewValidationError("loop requires a service scanner")
	case l.client == nil:
		return nil, errors.NewValidationError("loop requires an orchestrator client")
	case l.projector == nil:
		return nil, errors.NewValidationError("loop requires a projector")
	case !l.projectOnly && l.sampler == nil:
		return nil, errors.NewValidationError("loop requires a metric sampler")
	case !l.projectOnly && l.reconciler == nil:
		return nil, errors.NewValidationError("loop requires a reconciler")
	}
	return l, nil
}

// Bus is the event bus tick lifecycles are published on.
func (l *Loop) Bus() *event.Bus {
	return l.bus
}

// Trigger enqueues a tick. Returns false when a tick is already
// pending; the pending tick covers the request.
func (l *Loop) Trigger(trig event.Trigger) bool {
	select {
	case l.trigger <- trig:
		return true
	default:
		return false
	}
}

// Run drives the loop until the context ends. The first tick runs
// immediately; afterwards ticks come from the interval timer, manifest
// changes in watch mode, and manual triggers.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("control loop started",
		"interval", l.interval.String(),
		"dry_run", l.dryRun,
		"projection_only", l.projectOnly,
		"watch", l.watch != nil)

	var tickerC <-chan time.Time
	if l.interval > 0 {
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		tickerC = ticker.C
	}

	l.Trigger(event.TriggerTimer)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("control loop stopped")
			return nil

		case trig := <-l.trigger:
			l.runTick(ctx, trig)

		case <-tickerC:
			l.Trigger(event.TriggerTimer)

		case path, ok := <-l.watch:
			if !ok {
				l.watch = nil
				continue
			}
			l.bus.Publish(event.NewManifestChangedEvent(path))
			l.Trigger(event.TriggerManifest)
		}
	}
}

// RunOnce executes a single tick synchronously. Used by one-shot
// commands and tests; Run and RunOnce must not be used concurrently.
func (l *Loop) RunOnce(ctx context.Context, trig event.Trigger) {
	l.runTick(ctx, trig)
}

// Snapshot is the most recent topology snapshot, nil before the first
// completed tick.
func (l *Loop) Snapshot() *topology.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

// Phase is the loop's current phase.
func (l *Loop) Phase() event.Phase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase
}

// ServiceStatus is one service's view for the operational surface.
type ServiceStatus struct {
	Name              string        `json:"name"`
	Replicas          int           `json:"replicas"`
	Endpoints         []string      `json:"endpoints"`
	Stale             bool          `json:"stale"`
	Scalable          bool          `json:"scalable"`
	Priority          string        `json:"priority,omitempty"`
	CooldownState     string        `json:"cooldown_state,omitempty"`
	CooldownRemaining time.Duration `json:"cooldown_remaining,omitempty"`
}

// Status summarizes the loop for the status API and dashboard.
type Status struct {
	Phase          event.Phase     `json:"phase"`
	DryRun         bool            `json:"dry_run"`
	ProjectionOnly bool            `json:"projection_only"`
	Interval       time.Duration   `json:"interval"`
	TickCount      uint64          `json:"tick_count"`
	LastTickID     string          `json:"last_tick_id,omitempty"`
	LastTickAt     time.Time       `json:"last_tick_at"`
	LastDuration   time.Duration   `json:"last_duration"`
	LastError      string          `json:"last_error,omitempty"`
	Services       []ServiceStatus `json:"services"`
}

// Status reports the loop's current state.
func (l *Loop) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := time.Now()
	status := Status{
		Phase:          l.phase,
		DryRun:         l.dryRun,
		ProjectionOnly: l.projectOnly,
		Interval:       l.interval,
		TickCount:      l.tickCount,
		LastTickID:     l.lastTickID,
		LastTickAt:     l.lastTickAt,
		LastDuration:   l.lastDuration,
	}
	if l.lastErr != nil {
		status.LastError = l.lastErr.Error()
	}

	for _, entry := range l.snapshot.Entries() {
		svc := ServiceStatus{
			Name:      entry.Service.Name,
			Replicas:  entry.Replicas,
			Endpoints: entry.Endpoints,
			Stale:     entry.Stale,
			Scalable:  entry.Service.Scalable(),
			Priority:  entry.Service.Priority,
		}
		if svc.Scalable {
			cooldown := entry.Service.Rule.Cooldown
			svc.CooldownState = l.tracker.State(entry.Service.Name, cooldown, now).String()
			svc.CooldownRemaining = l.tracker.Remaining(entry.Service.Name, cooldown, now)
		}
		status.Services = append(status.Services, svc)
	}
	return status
}
