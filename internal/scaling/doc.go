// Package scaling provides watermark-based scaling decisions for compose
// services.
//
// Each tick the control loop samples one metric per service and asks the
// policy for a decision. The policy is a pure function of its input: it
// never talks to the orchestrator and never mutates cooldown state, so a
// dry-run evaluation is indistinguishable from a live one.
//
// The core types are:
//
//   - [Rule]: Per-service watermarks, replica bounds, step, and cooldown
//   - [Policy]: Evaluates a rule against a sampled metric value
//   - [Decision]: The recommended action with target replica count and reason
//   - [CooldownTracker]: Per-service cooldown windows, armed only after a
//     change has actually been applied
//
// # Usage
//
//	tracker := scaling.NewCooldownTracker()
//	policy := scaling.NewPolicy(tracker)
//
//	d := policy.Evaluate(scaling.Input{
//	    Service: "web",
//	    Rule:    rule,
//	    Current: 2,
//	    Value:   91.4,
//	    Valid:   true,
//	}, time.Now())
//	if d.Action != scaling.ActionNone {
//	    // apply the change, then arm the cooldown:
//	    tracker.Accept("web", d.Action, time.Now())
//	}
//
// # Thread Safety
//
// All types in this package are safe for concurrent use.
package scaling
