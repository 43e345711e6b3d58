package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tsm-sh/tsm/internal/errors"
	"github.com/tsm-sh/tsm/internal/event"
)

// App wraps the Bubbletea program around the dashboard model.
type App struct {
	model   Model
	bus     *event.Bus
	program *tea.Program
}

// New creates the dashboard application. Events published on the bus
// are forwarded into the UI.
func New(ctrl StatusProvider, bus *event.Bus) *App {
	return &App{
		model: NewModel(ctrl),
		bus:   bus,
	}
}

// Run displays the dashboard until the user quits or the context ends.
func (a *App) Run(ctx context.Context) error {
	a.program = tea.NewProgram(a.model, tea.WithAltScreen())

	subID := a.bus.SubscribeAll(func(e event.Event) {
		a.program.Send(busEventMsg{event: e})
	})
	defer a.bus.Unsubscribe(subID)

	go func() {
		<-ctx.Done()
		a.program.Quit()
	}()

	if _, err := a.program.Run(); err != nil {
		return errors.Wrap(err, "dashboard")
	}
	return nil
}
