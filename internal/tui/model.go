// Package tui renders the monitor dashboard: loop phase, per-service
// topology, and a feed of recent scaling activity.
package tui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tsm-sh/tsm/internal/event"
	"github.com/tsm-sh/tsm/internal/loop"
)

// maxFeedLines bounds the activity feed.
const maxFeedLines = 8

// statusRefreshInterval paces dashboard refreshes between bus events.
const statusRefreshInterval = time.Second

// StatusProvider is the slice of the control loop the dashboard needs.
type StatusProvider interface {
	Status() loop.Status
	Trigger(trig event.Trigger) bool
}

// Model holds the dashboard state.
type Model struct {
	ctrl    StatusProvider
	status  loop.Status
	table   table.Model
	spinner spinner.Model
	feed    []string

	width    int
	height   int
	ready    bool
	quitting bool
}

// NewModel creates the dashboard model.
func NewModel(ctrl StatusProvider) Model {
	columns := []table.Column{
		{Title: "Service", Width: 16},
		{Title: "Replicas", Width: 8},
		{Title: "Endpoints", Width: 9},
		{Title: "Scalable", Width: 8},
		{Title: "Cooldown", Width: 20},
		{Title: "State", Width: 7},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(8),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		Bold(true).
		Foreground(mutedColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		BorderBottom(true)
	ts.Selected = lipgloss.NewStyle().Foreground(textColor)
	t.SetStyles(ts)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	m := Model{
		ctrl:    ctrl,
		table:   t,
		spinner: sp,
	}
	m.refresh()
	return m
}

// Init starts the refresh and spinner tickers.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, statusTickCmd())
}

func statusTickCmd() tea.Cmd {
	return tea.Tick(statusRefreshInterval, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

// Update handles UI messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "t":
			m.ctrl.Trigger(event.TriggerManual)
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case statusTickMsg:
		m.refresh()
		return m, statusTickCmd()

	case busEventMsg:
		m.refresh()
		if line := formatEvent(msg.event); line != "" {
			m.pushFeed(line)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// refresh pulls the loop's current status into the table.
func (m *Model) refresh() {
	m.status = m.ctrl.Status()

	rows := make([]table.Row, 0, len(m.status.Services))
	for _, svc := range m.status.Services {
		scalable := "-"
		if svc.Scalable {
			scalable = "yes"
		}
		state := "live"
		if svc.Stale {
			state = "stale"
		}
		rows = append(rows, table.Row{
			svc.Name,
			strconv.Itoa(svc.Replicas),
			strconv.Itoa(len(svc.Endpoints)),
			scalable,
			formatCooldown(svc),
			state,
		})
	}
	m.table.SetRows(rows)
}

func (m *Model) pushFeed(line string) {
	m.feed = append(m.feed, line)
	if len(m.feed) > maxFeedLines {
		m.feed = m.feed[len(m.feed)-maxFeedLines:]
	}
}

func formatCooldown(svc loop.ServiceStatus) string {
	if !svc.Scalable || svc.CooldownState == "" || svc.CooldownState == "idle" {
		return "-"
	}
	return fmt.Sprintf("%s %s", svc.CooldownState, svc.CooldownRemaining.Round(time.Second))
}

// formatEvent renders a bus event as one feed line. Returns "" for
// events the feed does not show.
func formatEvent(e event.Event) string {
	switch ev := e.(type) {
	case event.TickStartedEvent:
		if ev.DryRun {
			return fmt.Sprintf("tick started (%s, dry run)", ev.Trigger)
		}
		return fmt.Sprintf("tick started (%s)", ev.Trigger)
	case event.TickCompletedEvent:
		return fmt.Sprintf("tick completed: %d scaled, %d errors in %s",
			ev.ScaledCount, ev.ErrorCount, ev.Duration.Round(time.Millisecond))
	case event.TickAbortedEvent:
		return fmt.Sprintf("tick aborted during %s: %s", ev.Phase, ev.Reason)
	case event.MetricSampledEvent:
		if !ev.Valid {
			return fmt.Sprintf("%s %s unavailable: %s", ev.Service, ev.Metric, ev.Error)
		}
		return ""
	case event.DecisionEvent:
		if ev.Deferred {
			return fmt.Sprintf("%s deferred: %s", ev.Service, ev.Reason)
		}
		if ev.Action == "none" {
			return ""
		}
		return fmt.Sprintf("%s %s %d -> %d (%s)", ev.Service, ev.Action, ev.Current, ev.Target, ev.Reason)
	case event.ServiceScaledEvent:
		return fmt.Sprintf("%s scaled %d -> %d", ev.Service, ev.From, ev.To)
	case event.ScaleFailedEvent:
		return fmt.Sprintf("%s scale to %d failed after %d attempts: %s",
			ev.Service, ev.Target, ev.Attempts, ev.Error)
	case event.ProjectionWrittenEvent:
		return fmt.Sprintf("routing document written (%d routers, %d bytes)", ev.RouterCount, ev.Bytes)
	case event.ManifestChangedEvent:
		return fmt.Sprintf("manifest changed: %s", ev.Path)
	default:
		return ""
	}
}
