package scaling

import (
	"fmt"
	"time"

	"github.com/tsm-sh/tsm/internal/errors"
)

// Action represents a scaling decision action.
type Action string

const (
	// ActionScaleUp indicates replicas should be added.
	ActionScaleUp Action = "scale_up"

	// ActionScaleDown indicates replicas should be removed.
	ActionScaleDown Action = "scale_down"

	// ActionNone indicates no scaling change is needed.
	ActionNone Action = "none"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// Reasons for decisions that do not originate from a watermark crossing.
// Callers match on these exact strings.
const (
	// ReasonBoundsCorrection marks a decision that moves a declared replica
	// count back inside [Min, Max]. Bounds corrections ignore metric
	// validity and cooldown state.
	ReasonBoundsCorrection = "bounds correction"

	// ReasonMetricUnavailable marks a no-op caused by a missing or invalid
	// metric sample.
	ReasonMetricUnavailable = "metric unavailable"

	// ReasonCooldownActive marks a no-op caused by a same-direction
	// cooldown window.
	ReasonCooldownActive = "cooldown active"

	// ReasonNoChange marks a no-op for a value sitting inside the
	// watermark dead band.
	ReasonNoChange = "no scaling needed"
)

// Rule is the fully-resolved scaling rule for one service: config defaults,
// per-service config overrides, and compose label overrides already merged.
type Rule struct {
	// Metric names the sampled metric this rule watches.
	Metric string

	// High is the upper watermark. Values strictly above it scale up.
	High float64

	// Low is the lower watermark. Values strictly below it scale down.
	Low float64

	// Min and Max bound the replica count.
	Min int
	Max int

	// Step is how many replicas one decision may add or remove.
	Step int

	// Cooldown is the window after an applied change during which
	// same-direction changes are blocked.
	Cooldown time.Duration

	// Priority orders reconciliation within a tick.
	Priority string
}

// Validate reports whether the rule is internally consistent. The same
// invariants are enforced on config-sourced rules at startup; this is the
// runtime check for rules assembled from compose labels.
func (r Rule) Validate() error {
	if r.Metric == "" {
		return errors.NewValidationError("rule metric cannot be empty")
	}
	if r.Low >= r.High {
		return errors.NewValidationError(fmt.Sprintf("low watermark %v must be strictly below high watermark %v", r.Low, r.High))
	}
	if r.Min < 0 {
		return errors.NewValidationError(fmt.Sprintf("min replicas %d must be non-negative", r.Min))
	}
	if r.Max < r.Min {
		return errors.NewValidationError(fmt.Sprintf("max replicas %d must be at least min replicas %d", r.Max, r.Min))
	}
	if r.Step < 1 {
		return errors.NewValidationError(fmt.Sprintf("step %d must be at least 1", r.Step))
	}
	if r.Cooldown < 0 {
		return errors.NewValidationError(fmt.Sprintf("cooldown %v must be non-negative", r.Cooldown))
	}
	return nil
}

// Input is one service's evaluation input for a single tick.
type Input struct {
	// Service is the compose service name.
	Service string

	// Rule is the resolved scaling rule for the service.
	Rule Rule

	// Current is the replica count the decision starts from.
	Current int

	// Value is the sampled metric value. Meaningless when Valid is false.
	Value float64

	// Valid reports whether the sample was obtained this tick.
	Valid bool
}

// Decision is the result of evaluating the scaling policy for one service.
type Decision struct {
	// Service is the compose service name.
	Service string

	// Action is the recommended scaling action.
	Action Action

	// Current is the replica count the decision started from.
	Current int

	// Target is the replica count to reconcile to. Equal to Current when
	// Action is ActionNone.
	Target int

	// Reason is a human-readable explanation of the decision.
	Reason string

	// Priority is the rule's priority class, carried so the reconciler
	// can order work without resolving rules again.
	Priority string
}

// Delta returns the replica change the decision asks for: positive for
// scale up, negative for scale down, zero for none.
func (d Decision) Delta() int {
	return d.Target - d.Current
}
