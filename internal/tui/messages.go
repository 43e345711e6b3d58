package tui

import (
	"time"

	"github.com/tsm-sh/tsm/internal/event"
)

// statusTickMsg is sent periodically to refresh the dashboard from the
// loop's status.
type statusTickMsg time.Time

// busEventMsg carries one control loop event into the UI.
type busEventMsg struct {
	event event.Event
}
