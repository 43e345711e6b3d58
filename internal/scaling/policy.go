package scaling

import (
	"fmt"
	"time"
)

// Policy evaluates scaling rules against sampled metric values.
//
// Evaluate is read-only: it consults the cooldown tracker but never arms
// it. Arming happens via [CooldownTracker.Accept] once the orchestrator
// confirms a change, so deferred and dry-run decisions leave no trace.
// It is safe for concurrent use.
type Policy struct {
	tracker *CooldownTracker
}

// NewPolicy creates a Policy that consults the given cooldown tracker.
// A nil tracker gets a fresh one, useful when no cooldown sharing with a
// reconcile path is needed.
func NewPolicy(tracker *CooldownTracker) *Policy {
	if tracker == nil {
		tracker = NewCooldownTracker()
	}
	return &Policy{tracker: tracker}
}

// Tracker returns the cooldown tracker the policy consults.
func (p *Policy) Tracker() *CooldownTracker {
	return p.tracker
}

// Evaluate returns the scaling decision for one service.
//
// The checks run in a fixed order: bounds correction, metric validity,
// watermark comparison, replica bound clamping, cooldown. Bounds
// corrections fire regardless of metric validity and cooldown state; the
// cooldown check runs last so a blocked decision still reports which
// direction it wanted.
func (p *Policy) Evaluate(in Input, now time.Time) Decision {
	rule := in.Rule

	// A declared count outside [Min, Max] is corrected on every tick until
	// the orchestrator converges.
	if in.Current < rule.Min {
		return Decision{
			Service:  in.Service,
			Action:   ActionScaleUp,
			Current:  in.Current,
			Target:   rule.Min,
			Reason:   ReasonBoundsCorrection,
			Priority: rule.Priority,
		}
	}
	if in.Current > rule.Max {
		return Decision{
			Service:  in.Service,
			Action:   ActionScaleDown,
			Current:  in.Current,
			Target:   rule.Max,
			Reason:   ReasonBoundsCorrection,
			Priority: rule.Priority,
		}
	}

	if !in.Valid {
		return noop(in, ReasonMetricUnavailable)
	}

	// Watermark comparison is strict: a value sitting exactly on a
	// watermark stays in the dead band.
	switch {
	case in.Value > rule.High:
		target := min(in.Current+rule.Step, rule.Max)
		if target == in.Current {
			return noop(in, fmt.Sprintf("at max replicas (%d)", rule.Max))
		}
		if p.tracker.Blocked(in.Service, ActionScaleUp, rule.Cooldown, now) {
			return noop(in, ReasonCooldownActive)
		}
		return Decision{
			Service:  in.Service,
			Action:   ActionScaleUp,
			Current:  in.Current,
			Target:   target,
			Reason:   fmt.Sprintf("%s %.1f above high watermark %.1f", rule.Metric, in.Value, rule.High),
			Priority: rule.Priority,
		}

	case in.Value < rule.Low:
		target := max(in.Current-rule.Step, rule.Min)
		if target == in.Current {
			return noop(in, fmt.Sprintf("at min replicas (%d)", rule.Min))
		}
		if p.tracker.Blocked(in.Service, ActionScaleDown, rule.Cooldown, now) {
			return noop(in, ReasonCooldownActive)
		}
		return Decision{
			Service:  in.Service,
			Action:   ActionScaleDown,
			Current:  in.Current,
			Target:   target,
			Reason:   fmt.Sprintf("%s %.1f below low watermark %.1f", rule.Metric, in.Value, rule.Low),
			Priority: rule.Priority,
		}
	}

	return noop(in, ReasonNoChange)
}

func noop(in Input, reason string) Decision {
	return Decision{
		Service:  in.Service,
		Action:   ActionNone,
		Current:  in.Current,
		Target:   in.Current,
		Reason:   reason,
		Priority: in.Rule.Priority,
	}
}
