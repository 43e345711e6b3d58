// Package event provides a pub-sub event bus for decoupled inter-component
// communication in tsm.
//
// This package enables loose coupling between the control loop, status API,
// TUI dashboard, and other components by allowing them to communicate through
// events rather than direct method calls. Components can publish events
// without knowing who will receive them, and subscribe to events without
// knowing who will produce them.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// The package defines several categories of events:
//
// Tick Lifecycle:
//   - [TickStartedEvent]: Emitted when a control loop tick begins
//   - [PhaseChangedEvent]: Emitted when the loop moves to a new phase
//   - [TickCompletedEvent]: Emitted when a tick finishes all its phases
//   - [TickAbortedEvent]: Emitted when a tick terminates early
//
// Metric Events:
//   - [MetricSampledEvent]: Emitted for each completed metric probe
//
// Scaling Events:
//   - [DecisionEvent]: Emitted for every per-service scaling decision
//   - [ServiceScaledEvent]: Emitted when a replica change is applied
//   - [ScaleFailedEvent]: Emitted when a replica change fails after retries
//
// Topology and Projection:
//   - [TopologyUpdatedEvent]: Emitted when a new topology snapshot is published
//   - [ProjectionWrittenEvent]: Emitted when a routing document is written
//
// Manifest Events:
//   - [ManifestChangedEvent]: Emitted when the compose manifest changes on disk
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Multiple goroutines can publish
// and subscribe concurrently. Handlers are called synchronously and protected
// against panics - a panicking handler will not prevent other handlers from
// being called.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	// Subscribe to specific event types
//	bus.Subscribe("service.scaled", func(e event.Event) {
//	    scaled := e.(event.ServiceScaledEvent)
//	    log.Printf("Service %s scaled %d -> %d", scaled.Service, scaled.From, scaled.To)
//	})
//
//	// Subscribe to all events (useful for logging)
//	bus.SubscribeAll(func(e event.Event) {
//	    log.Printf("Event: %s at %v", e.EventType(), e.Timestamp())
//	})
//
//	// Publish events
//	bus.Publish(event.NewServiceScaledEvent("tick-1", "web", 2, 4, 1))
//
//	// Unsubscribe when done
//	id := bus.Subscribe("tick.completed", handler)
//	bus.Unsubscribe(id)
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - tick.started, tick.phase_changed, tick.completed, tick.aborted
//   - metric.sampled
//   - scaling.decision
//   - service.scaled, service.scale_failed
//   - topology.updated
//   - projection.written
//   - manifest.changed
package event
