package event

import (
	"testing"
	"time"
)

func TestEventTypes(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		wantType string
	}{
		{
			name:     "tick started",
			event:    NewTickStartedEvent("tick-1", TriggerTimer, false),
			wantType: "tick.started",
		},
		{
			name:     "phase changed",
			event:    NewPhaseChangedEvent("tick-1", PhaseIdle, PhaseSampling),
			wantType: "tick.phase_changed",
		},
		{
			name:     "tick completed",
			event:    NewTickCompletedEvent("tick-1", 2*time.Second, 1, 0),
			wantType: "tick.completed",
		},
		{
			name:     "tick aborted",
			event:    NewTickAbortedEvent("tick-1", PhaseSampling, "manifest unreadable"),
			wantType: "tick.aborted",
		},
		{
			name:     "metric sampled",
			event:    NewMetricSampledEvent("tick-1", "web", "cpu", 85.5, true, ""),
			wantType: "metric.sampled",
		},
		{
			name:     "decision",
			event:    NewDecisionEvent("tick-1", "web", "scale_up", 2, 4, "cpu 90.0 above high watermark 80.0", false),
			wantType: "scaling.decision",
		},
		{
			name:     "service scaled",
			event:    NewServiceScaledEvent("tick-1", "web", 2, 4, 1),
			wantType: "service.scaled",
		},
		{
			name:     "scale failed",
			event:    NewScaleFailedEvent("tick-1", "web", 4, 3, "compose exited 1"),
			wantType: "service.scale_failed",
		},
		{
			name:     "topology updated",
			event:    NewTopologyUpdatedEvent("tick-1", 3, 1),
			wantType: "topology.updated",
		},
		{
			name:     "projection written",
			event:    NewProjectionWrittenEvent("tick-1", "/tmp/dynamic/tsm.yml", 3, 1024),
			wantType: "projection.written",
		},
		{
			name:     "manifest changed",
			event:    NewManifestChangedEvent("/app/docker-compose.yml"),
			wantType: "manifest.changed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.EventType(); got != tt.wantType {
				t.Errorf("EventType() = %q, want %q", got, tt.wantType)
			}
			if tt.event.Timestamp().IsZero() {
				t.Error("Timestamp() should not be zero")
			}
		})
	}
}

func TestTickStartedEvent_Fields(t *testing.T) {
	e := NewTickStartedEvent("tick-abc", TriggerManifest, true)

	if e.TickID != "tick-abc" {
		t.Errorf("TickID = %q, want %q", e.TickID, "tick-abc")
	}
	if e.Trigger != TriggerManifest {
		t.Errorf("Trigger = %q, want %q", e.Trigger, TriggerManifest)
	}
	if !e.DryRun {
		t.Error("DryRun = false, want true")
	}
}

func TestDecisionEvent_Fields(t *testing.T) {
	e := NewDecisionEvent("tick-1", "api", "none", 1, 1, "cooldown active", true)

	if e.Service != "api" {
		t.Errorf("Service = %q, want %q", e.Service, "api")
	}
	if e.Action != "none" {
		t.Errorf("Action = %q, want %q", e.Action, "none")
	}
	if e.Current != 1 || e.Target != 1 {
		t.Errorf("Current/Target = %d/%d, want 1/1", e.Current, e.Target)
	}
	if e.Reason != "cooldown active" {
		t.Errorf("Reason = %q, want %q", e.Reason, "cooldown active")
	}
	if !e.Deferred {
		t.Error("Deferred = false, want true")
	}
}

func TestServiceScaledEvent_Fields(t *testing.T) {
	e := NewServiceScaledEvent("tick-1", "web", 2, 4, 2)

	if e.From != 2 || e.To != 4 {
		t.Errorf("From/To = %d/%d, want 2/4", e.From, e.To)
	}
	if e.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", e.Attempts)
	}
}
