package scaling

import (
	"testing"
	"time"
)

func testRule() Rule {
	return Rule{
		Metric:   "cpu",
		High:     80,
		Low:      20,
		Min:      1,
		Max:      6,
		Step:     2,
		Cooldown: time.Minute,
		Priority: "medium",
	}
}

func TestNewPolicy(t *testing.T) {
	t.Run("uses given tracker", func(t *testing.T) {
		tracker := NewCooldownTracker()
		p := NewPolicy(tracker)
		if p.Tracker() != tracker {
			t.Error("Tracker() should return the tracker passed to NewPolicy")
		}
	})

	t.Run("nil tracker gets a fresh one", func(t *testing.T) {
		p := NewPolicy(nil)
		if p.Tracker() == nil {
			t.Error("Tracker() should not be nil")
		}
	})
}

func TestPolicy_Evaluate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		input      Input
		wantAction Action
		wantTarget int
		wantReason string // empty means any non-empty reason
	}{
		{
			name: "scale up above high watermark",
			input: Input{
				Service: "web",
				Rule:    testRule(),
				Current: 2,
				Value:   90,
				Valid:   true,
			},
			wantAction: ActionScaleUp,
			wantTarget: 4,
		},
		{
			name: "scale down below low watermark",
			input: Input{
				Service: "web",
				Rule:    testRule(),
				Current: 4,
				Value:   10,
				Valid:   true,
			},
			wantAction: ActionScaleDown,
			wantTarget: 2,
		},
		{
			name: "no-op inside the dead band",
			input: Input{
				Service: "web",
				Rule:    testRule(),
				Current: 2,
				Value:   50,
				Valid:   true,
			},
			wantAction: ActionNone,
			wantTarget: 2,
			wantReason: ReasonNoChange,
		},
		{
			name: "value exactly on high watermark stays put",
			input: Input{
				Service: "web",
				Rule:    testRule(),
				Current: 2,
				Value:   80,
				Valid:   true,
			},
			wantAction: ActionNone,
			wantTarget: 2,
			wantReason: ReasonNoChange,
		},
		{
			name: "value exactly on low watermark stays put",
			input: Input{
				Service: "web",
				Rule:    testRule(),
				Current: 2,
				Value:   20,
				Valid:   true,
			},
			wantAction: ActionNone,
			wantTarget: 2,
			wantReason: ReasonNoChange,
		},
		{
			name: "invalid metric is a no-op",
			input: Input{
				Service: "web",
				Rule:    testRule(),
				Current: 2,
				Value:   99,
				Valid:   false,
			},
			wantAction: ActionNone,
			wantTarget: 2,
			wantReason: ReasonMetricUnavailable,
		},
		{
			name: "scale up clamped to max",
			input: Input{
				Service: "web",
				Rule:    testRule(),
				Current: 5,
				Value:   90,
				Valid:   true,
			},
			wantAction: ActionScaleUp,
			wantTarget: 6,
		},
		{
			name: "scale down clamped to min",
			input: Input{
				Service: "web",
				Rule:    testRule(),
				Current: 2,
				Value:   10,
				Valid:   true,
			},
			wantAction: ActionScaleDown,
			wantTarget: 1,
		},
		{
			name: "at max degrades to no-op",
			input: Input{
				Service: "web",
				Rule:    testRule(),
				Current: 6,
				Value:   95,
				Valid:   true,
			},
			wantAction: ActionNone,
			wantTarget: 6,
			wantReason: "at max replicas (6)",
		},
		{
			name: "at min degrades to no-op",
			input: Input{
				Service: "api",
				Rule:    testRule(),
				Current: 1,
				Value:   10,
				Valid:   true,
			},
			wantAction: ActionNone,
			wantTarget: 1,
			wantReason: "at min replicas (1)",
		},
		{
			name: "bounds correction below min",
			input: Input{
				Service: "web",
				Rule:    testRule(),
				Current: 0,
				Value:   50,
				Valid:   true,
			},
			wantAction: ActionScaleUp,
			wantTarget: 1,
			wantReason: ReasonBoundsCorrection,
		},
		{
			name: "bounds correction above max",
			input: Input{
				Service: "web",
				Rule:    testRule(),
				Current: 9,
				Value:   50,
				Valid:   true,
			},
			wantAction: ActionScaleDown,
			wantTarget: 6,
			wantReason: ReasonBoundsCorrection,
		},
		{
			name: "bounds correction ignores invalid metric",
			input: Input{
				Service: "web",
				Rule:    testRule(),
				Current: 0,
				Value:   0,
				Valid:   false,
			},
			wantAction: ActionScaleUp,
			wantTarget: 1,
			wantReason: ReasonBoundsCorrection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPolicy(nil)
			d := p.Evaluate(tt.input, now)

			if d.Action != tt.wantAction {
				t.Errorf("Action = %q, want %q", d.Action, tt.wantAction)
			}
			if d.Target != tt.wantTarget {
				t.Errorf("Target = %d, want %d", d.Target, tt.wantTarget)
			}
			if d.Current != tt.input.Current {
				t.Errorf("Current = %d, want %d", d.Current, tt.input.Current)
			}
			if d.Service != tt.input.Service {
				t.Errorf("Service = %q, want %q", d.Service, tt.input.Service)
			}
			if tt.wantReason != "" && d.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", d.Reason, tt.wantReason)
			}
			if d.Reason == "" {
				t.Error("Reason should not be empty")
			}
		})
	}
}

func TestPolicy_Evaluate_CooldownBlocksSameDirection(t *testing.T) {
	now := time.Now()
	tracker := NewCooldownTracker()
	p := NewPolicy(tracker)

	// A scale-up was applied moments ago.
	tracker.Accept("web", ActionScaleUp, now)

	d := p.Evaluate(Input{
		Service: "web",
		Rule:    testRule(),
		Current: 4,
		Value:   95,
		Valid:   true,
	}, now)

	if d.Action != ActionNone {
		t.Errorf("Action = %q, want none", d.Action)
	}
	if d.Reason != ReasonCooldownActive {
		t.Errorf("Reason = %q, want %q", d.Reason, ReasonCooldownActive)
	}
	if d.Target != 4 {
		t.Errorf("Target = %d, want 4 (unchanged)", d.Target)
	}
}

func TestPolicy_Evaluate_CooldownAllowsOppositeDirection(t *testing.T) {
	now := time.Now()
	tracker := NewCooldownTracker()
	p := NewPolicy(tracker)

	tracker.Accept("web", ActionScaleUp, now)

	// Load collapsed; scaling down must not wait for the scale-up window.
	d := p.Evaluate(Input{
		Service: "web",
		Rule:    testRule(),
		Current: 4,
		Value:   5,
		Valid:   true,
	}, now)

	if d.Action != ActionScaleDown {
		t.Errorf("Action = %q, want scale_down", d.Action)
	}
	if d.Target != 2 {
		t.Errorf("Target = %d, want 2", d.Target)
	}
}

func TestPolicy_Evaluate_BoundsCorrectionExemptFromCooldown(t *testing.T) {
	now := time.Now()
	tracker := NewCooldownTracker()
	p := NewPolicy(tracker)

	tracker.Accept("web", ActionScaleUp, now)

	d := p.Evaluate(Input{
		Service: "web",
		Rule:    testRule(),
		Current: 0,
		Value:   50,
		Valid:   true,
	}, now)

	if d.Action != ActionScaleUp {
		t.Errorf("Action = %q, want scale_up", d.Action)
	}
	if d.Reason != ReasonBoundsCorrection {
		t.Errorf("Reason = %q, want %q", d.Reason, ReasonBoundsCorrection)
	}
}

func TestPolicy_Evaluate_DoesNotArmCooldown(t *testing.T) {
	now := time.Now()
	p := NewPolicy(nil)

	in := Input{
		Service: "web",
		Rule:    testRule(),
		Current: 2,
		Value:   90,
		Valid:   true,
	}

	// Without an Accept in between, repeated evaluation keeps recommending
	// the same change.
	d1 := p.Evaluate(in, now)
	d2 := p.Evaluate(in, now.Add(time.Second))

	if d1.Action != ActionScaleUp {
		t.Fatalf("first Action = %q, want scale_up", d1.Action)
	}
	if d2.Action != ActionScaleUp {
		t.Errorf("second Action = %q, want scale_up (Evaluate must not arm cooldown)", d2.Action)
	}
	if p.Tracker().State("web", time.Minute, now) != CooldownIdle {
		t.Errorf("State = %q, want idle", p.Tracker().State("web", time.Minute, now))
	}
}

func TestDecision_Delta(t *testing.T) {
	tests := []struct {
		name     string
		decision Decision
		want     int
	}{
		{"scale up", Decision{Current: 2, Target: 4}, 2},
		{"scale down", Decision{Current: 4, Target: 1}, -3},
		{"no-op", Decision{Current: 3, Target: 3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.decision.Delta(); got != tt.want {
				t.Errorf("Delta() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAction_String(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{ActionScaleUp, "scale_up"},
		{ActionScaleDown, "scale_down"},
		{ActionNone, "none"},
	}
	for _, tt := range tests {
		if got := tt.action.String(); got != tt.want {
			t.Errorf("Action(%q).String() = %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Rule)
		wantErr bool
	}{
		{"valid rule", func(r *Rule) {}, false},
		{"empty metric", func(r *Rule) { r.Metric = "" }, true},
		{"low equals high", func(r *Rule) { r.Low = r.High }, true},
		{"low above high", func(r *Rule) { r.Low = r.High + 1 }, true},
		{"negative min", func(r *Rule) { r.Min = -1 }, true},
		{"zero min", func(r *Rule) { r.Min = 0 }, false},
		{"max below min", func(r *Rule) { r.Min = 4; r.Max = 2 }, true},
		{"zero step", func(r *Rule) { r.Step = 0 }, true},
		{"negative cooldown", func(r *Rule) { r.Cooldown = -time.Second }, true},
		{"zero cooldown", func(r *Rule) { r.Cooldown = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := testRule()
			tt.mutate(&rule)
			err := rule.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
