package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tsm-sh/tsm/internal/event"
	"github.com/tsm-sh/tsm/internal/util"
)

// View renders the dashboard.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.quitting {
		return "Goodbye!\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(panelStyle.Render(m.table.View()))
	b.WriteString("\n\n")
	b.WriteString(m.renderFeed())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q quit · t trigger tick"))
	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("tsm")

	badge := lipgloss.NewStyle().
		Foreground(phaseColor(m.status.Phase)).
		Render("● " + string(m.status.Phase))
	if m.status.Phase != event.PhaseIdle && m.status.Phase != event.PhaseAborted {
		badge = m.spinner.View() + badge
	}

	info := fmt.Sprintf("ticks %d", m.status.TickCount)
	if m.status.LastDuration > 0 {
		info += fmt.Sprintf(" · last %s", m.status.LastDuration.Round(time.Millisecond))
	}
	if m.status.DryRun {
		info += " · dry run"
	}
	if m.status.ProjectionOnly {
		info += " · projection only"
	}

	header := title + "  " + badge + "  " + headerInfoStyle.Render(info)
	if m.status.LastError != "" {
		line := errorStyle.Render("last error: " + m.status.LastError)
		if m.width > 0 {
			line = util.TruncateANSI(line, m.width)
		}
		header += "\n" + line
	}
	return header
}

func (m Model) renderFeed() string {
	if len(m.feed) == 0 {
		return feedTitleStyle.Render("Activity") + "\n" + headerInfoStyle.Render("  waiting for first tick")
	}
	var b strings.Builder
	b.WriteString(feedTitleStyle.Render("Activity"))
	for _, line := range m.feed {
		if m.width > 4 {
			line = util.TruncateString(line, m.width-4)
		}
		b.WriteString("\n  ")
		b.WriteString(feedStyle.Render(line))
	}
	return b.String()
}
