package scaling

import (
	"sync"
	"time"
)

// CooldownState describes a service's cooldown window.
type CooldownState string

const (
	// CooldownIdle means no cooldown window is active.
	CooldownIdle CooldownState = "idle"

	// CoolingUp means a scale-up was recently applied; further scale-ups
	// are blocked until the window expires.
	CoolingUp CooldownState = "cooling_up"

	// CoolingDown means a scale-down was recently applied; further
	// scale-downs are blocked until the window expires.
	CoolingDown CooldownState = "cooling_down"
)

// String returns the string representation of the state.
func (s CooldownState) String() string {
	return string(s)
}

type cooldownEntry struct {
	direction Action
	changedAt time.Time
}

// CooldownTracker records the last applied scaling change per service.
//
// A change is recorded by Accept after the orchestrator confirms it.
// Whether a window is still open is decided at check time against the
// cooldown duration the caller passes in, so a rule change takes effect
// immediately: shortening the cooldown unblocks services at once and
// lengthening it re-covers recent changes. Same-direction changes inside
// the window are blocked; opposite-direction changes are always allowed
// and re-arm the window for their own direction. Dry-run and deferred
// decisions never reach Accept, so they leave the tracker untouched.
// It is safe for concurrent use.
type CooldownTracker struct {
	mu      sync.Mutex
	entries map[string]cooldownEntry
}

// NewCooldownTracker creates an empty tracker.
func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{
		entries: make(map[string]cooldownEntry),
	}
}

// Blocked reports whether a change in the given direction is blocked for
// the service at the given time. Only same-direction changes inside an
// active window are blocked; a non-positive cooldown never blocks.
func (t *CooldownTracker) Blocked(service string, direction Action, cooldown time.Duration, now time.Time) bool {
	if direction != ActionScaleUp && direction != ActionScaleDown {
		return false
	}
	if cooldown <= 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[service]
	if !ok {
		return false
	}
	if now.Sub(entry.changedAt) >= cooldown {
		return false
	}
	return entry.direction == direction
}

// Accept records an applied scaling change, re-arming the service's
// window for its direction. Call this only after the orchestrator
// confirms the change.
func (t *CooldownTracker) Accept(service string, direction Action, now time.Time) {
	if direction != ActionScaleUp && direction != ActionScaleDown {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[service] = cooldownEntry{
		direction: direction,
		changedAt: now,
	}
}

// State returns the service's cooldown state at the given time under the
// given cooldown duration.
func (t *CooldownTracker) State(service string, cooldown time.Duration, now time.Time) CooldownState {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[service]
	if !ok || cooldown <= 0 || now.Sub(entry.changedAt) >= cooldown {
		return CooldownIdle
	}
	if entry.direction == ActionScaleUp {
		return CoolingUp
	}
	return CoolingDown
}

// Remaining returns how long the service's cooldown window has left at the
// given time under the given cooldown duration, or zero when idle.
func (t *CooldownTracker) Remaining(service string, cooldown time.Duration, now time.Time) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[service]
	if !ok {
		return 0
	}
	left := cooldown - now.Sub(entry.changedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Forget drops the service's recorded change, if any. Used when a service
// disappears from the manifest.
func (t *CooldownTracker) Forget(service string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, service)
}
