// Package event defines event types for decoupling components in tsm.
// These events enable communication between the control loop, status API,
// TUI dashboard, and other components without requiring direct dependencies.
package event

import "time"

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "tick.started", "service.scaled")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Tick Lifecycle Events
// -----------------------------------------------------------------------------

// Trigger identifies what caused a tick to run.
type Trigger string

const (
	TriggerTimer    Trigger = "timer"    // Periodic interval elapsed
	TriggerManual   Trigger = "manual"   // Operator-requested (API or signal)
	TriggerManifest Trigger = "manifest" // Compose manifest changed on disk
)

// TickStartedEvent is emitted when a control loop tick begins.
type TickStartedEvent struct {
	baseEvent
	TickID  string  // Correlation ID for the tick
	Trigger Trigger // What caused this tick
	DryRun  bool    // Whether the tick stops after the decision phase
}

// NewTickStartedEvent creates a TickStartedEvent.
func NewTickStartedEvent(tickID string, trigger Trigger, dryRun bool) TickStartedEvent {
	return TickStartedEvent{
		baseEvent: newBaseEvent("tick.started"),
		TickID:    tickID,
		Trigger:   trigger,
		DryRun:    dryRun,
	}
}

// Phase represents the current phase of a control loop tick.
// Mirrors loop.Phase for decoupling.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseSampling    Phase = "sampling"
	PhaseDeciding    Phase = "deciding"
	PhaseReconciling Phase = "reconciling"
	PhaseProjecting  Phase = "projecting"
	PhaseAborted     Phase = "aborted"
)

// PhaseChangedEvent is emitted when the control loop moves to a new phase.
type PhaseChangedEvent struct {
	baseEvent
	TickID        string // Correlation ID for the tick
	PreviousPhase Phase  // Previous phase (empty if first transition)
	CurrentPhase  Phase  // New current phase
}

// NewPhaseChangedEvent creates a PhaseChangedEvent.
func NewPhaseChangedEvent(tickID string, previousPhase, currentPhase Phase) PhaseChangedEvent {
	return PhaseChangedEvent{
		baseEvent:     newBaseEvent("tick.phase_changed"),
		TickID:        tickID,
		PreviousPhase: previousPhase,
		CurrentPhase:  currentPhase,
	}
}

// TickCompletedEvent is emitted when a tick finishes all its phases.
type TickCompletedEvent struct {
	baseEvent
	TickID      string        // Correlation ID for the tick
	Duration    time.Duration // Wall time from start to finish
	ScaledCount int           // Number of services scaled this tick
	ErrorCount  int           // Number of per-service failures this tick
}

// NewTickCompletedEvent creates a TickCompletedEvent.
func NewTickCompletedEvent(tickID string, duration time.Duration, scaledCount, errorCount int) TickCompletedEvent {
	return TickCompletedEvent{
		baseEvent:   newBaseEvent("tick.completed"),
		TickID:      tickID,
		Duration:    duration,
		ScaledCount: scaledCount,
		ErrorCount:  errorCount,
	}
}

// TickAbortedEvent is emitted when a tick terminates without completing
// its remaining phases.
type TickAbortedEvent struct {
	baseEvent
	TickID string // Correlation ID for the tick
	Phase  Phase  // Phase in which the abort occurred
	Reason string // Human-readable abort reason
}

// NewTickAbortedEvent creates a TickAbortedEvent.
func NewTickAbortedEvent(tickID string, phase Phase, reason string) TickAbortedEvent {
	return TickAbortedEvent{
		baseEvent: newBaseEvent("tick.aborted"),
		TickID:    tickID,
		Phase:     phase,
		Reason:    reason,
	}
}

// -----------------------------------------------------------------------------
// Metric Events
// -----------------------------------------------------------------------------

// MetricSampledEvent is emitted for each metric probe that completes,
// whether it yielded a usable value or not.
type MetricSampledEvent struct {
	baseEvent
	TickID  string  // Tick the sample belongs to
	Service string  // Service the metric describes
	Metric  string  // Metric name (e.g., "cpu", "memory")
	Value   float64 // Sampled value (meaningless when Valid is false)
	Valid   bool    // Whether the sample is usable for decisions
	Error   string  // Error message when the probe failed
}

// NewMetricSampledEvent creates a MetricSampledEvent.
func NewMetricSampledEvent(tickID, service, metric string, value float64, valid bool, errMsg string) MetricSampledEvent {
	return MetricSampledEvent{
		baseEvent: newBaseEvent("metric.sampled"),
		TickID:    tickID,
		Service:   service,
		Metric:    metric,
		Value:     value,
		Valid:     valid,
		Error:     errMsg,
	}
}

// -----------------------------------------------------------------------------
// Scaling Events
// -----------------------------------------------------------------------------

// DecisionEvent is emitted for every per-service scaling decision,
// including no-ops.
type DecisionEvent struct {
	baseEvent
	TickID   string // Tick the decision belongs to
	Service  string // Service the decision applies to
	Action   string // "scale_up", "scale_down", or "none"
	Current  int    // Replica count the decision was computed from
	Target   int    // Desired replica count
	Reason   string // Why this decision was made
	Deferred bool   // True when a wanted change was blocked by cooldown
}

// NewDecisionEvent creates a DecisionEvent.
func NewDecisionEvent(tickID, service, action string, current, target int, reason string, deferred bool) DecisionEvent {
	return DecisionEvent{
		baseEvent: newBaseEvent("scaling.decision"),
		TickID:    tickID,
		Service:   service,
		Action:    action,
		Current:   current,
		Target:    target,
		Reason:    reason,
		Deferred:  deferred,
	}
}

// ServiceScaledEvent is emitted when the orchestrator successfully applies
// a replica count change.
type ServiceScaledEvent struct {
	baseEvent
	TickID   string // Tick the change belongs to
	Service  string // Service that was scaled
	From     int    // Replica count before the change
	To       int    // Replica count after the change
	Attempts int    // Number of orchestrator attempts made
}

// NewServiceScaledEvent creates a ServiceScaledEvent.
func NewServiceScaledEvent(tickID, service string, from, to, attempts int) ServiceScaledEvent {
	return ServiceScaledEvent{
		baseEvent: newBaseEvent("service.scaled"),
		TickID:    tickID,
		Service:   service,
		From:      from,
		To:        to,
		Attempts:  attempts,
	}
}

// ScaleFailedEvent is emitted when a scaling change could not be applied
// after all retry attempts.
type ScaleFailedEvent struct {
	baseEvent
	TickID   string // Tick the failure belongs to
	Service  string // Service that failed to scale
	Target   int    // Replica count that was requested
	Attempts int    // Number of orchestrator attempts made
	Error    string // Final error message
}

// NewScaleFailedEvent creates a ScaleFailedEvent.
func NewScaleFailedEvent(tickID, service string, target, attempts int, errMsg string) ScaleFailedEvent {
	return ScaleFailedEvent{
		baseEvent: newBaseEvent("service.scale_failed"),
		TickID:    tickID,
		Service:   service,
		Target:    target,
		Attempts:  attempts,
		Error:     errMsg,
	}
}

// -----------------------------------------------------------------------------
// Topology Events
// -----------------------------------------------------------------------------

// TopologyUpdatedEvent is emitted when a new topology snapshot is published.
type TopologyUpdatedEvent struct {
	baseEvent
	TickID       string // Tick the snapshot belongs to
	ServiceCount int    // Number of services in the snapshot
	StaleCount   int    // Services carried over from the previous snapshot
}

// NewTopologyUpdatedEvent creates a TopologyUpdatedEvent.
func NewTopologyUpdatedEvent(tickID string, serviceCount, staleCount int) TopologyUpdatedEvent {
	return TopologyUpdatedEvent{
		baseEvent:    newBaseEvent("topology.updated"),
		TickID:       tickID,
		ServiceCount: serviceCount,
		StaleCount:   staleCount,
	}
}

// -----------------------------------------------------------------------------
// Projection Events
// -----------------------------------------------------------------------------

// ProjectionWrittenEvent is emitted when a routing document is written to disk.
type ProjectionWrittenEvent struct {
	baseEvent
	TickID      string // Tick the projection belongs to
	Path        string // Destination file path
	RouterCount int    // Number of routers in the document
	Bytes       int    // Size of the rendered document
}

// NewProjectionWrittenEvent creates a ProjectionWrittenEvent.
func NewProjectionWrittenEvent(tickID, path string, routerCount, bytes int) ProjectionWrittenEvent {
	return ProjectionWrittenEvent{
		baseEvent:   newBaseEvent("projection.written"),
		TickID:      tickID,
		Path:        path,
		RouterCount: routerCount,
		Bytes:       bytes,
	}
}

// -----------------------------------------------------------------------------
// Manifest Events
// -----------------------------------------------------------------------------

// ManifestChangedEvent is emitted when the compose manifest changes on disk.
// The control loop responds by requesting a fresh tick.
type ManifestChangedEvent struct {
	baseEvent
	Path string // Path to the manifest that changed
}

// NewManifestChangedEvent creates a ManifestChangedEvent.
func NewManifestChangedEvent(path string) ManifestChangedEvent {
	return ManifestChangedEvent{
		baseEvent: newBaseEvent("manifest.changed"),
		Path:      path,
	}
}
