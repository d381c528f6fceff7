// Package panel is the terminal checklist surface: one row per device with
// its enabled checkbox, the current device marked, and keys to toggle rows,
// advance the rotation and refresh the device list.
package panel

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/easyaudioflip/audioflip/internal/client"
	"github.com/easyaudioflip/audioflip/internal/models"
)

// API is the subset of the daemon client the panel drives.
type API interface {
	Snapshot(ctx context.Context) (models.Snapshot, error)
	Toggle(ctx context.Context, id string) (client.ToggleResult, error)
	Next(ctx context.Context) (*models.Device, error)
	Refresh(ctx context.Context) (client.RefreshResult, error)
}

type snapshotMsg models.Snapshot

type devicesMsg struct {
	devices []models.PanelDevice
	status  string
}

type advancedMsg struct{ dev *models.Device }

type eventMsg models.Event

type streamClosedMsg struct{}

type errMsg struct{ err error }

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	currentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

// Model is the bubbletea model for the checklist panel.
type Model struct {
	ctx    context.Context
	api    API
	events <-chan models.Event

	devices []models.PanelDevice
	tooltip string
	cursor  int
	status  string
	err     error
	loaded  bool
}

// New creates a panel. events may be nil, in which case the panel only
// refetches on its own actions and on r.
func New(ctx context.Context, api API, events <-chan models.Event) Model {
	return Model{ctx: ctx, api: api, events: events, tooltip: "AudioFlip"}
}

// Devices returns the rows currently displayed.
func (m Model) Devices() []models.PanelDevice { return m.devices }

// Cursor returns the selected row index.
func (m Model) Cursor() int { return m.cursor }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchSnapshot(), m.waitForEvent())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		m.loaded = true
		m.err = nil
		m.tooltip = msg.Tooltip
		m.setDevices(msg.Devices)

	case devicesMsg:
		m.err = nil
		m.status = msg.status
		m.setDevices(msg.devices)
		// Rows changed; the tooltip may have too.
		return m, m.fetchSnapshot()

	case advancedMsg:
		m.err = nil
		if msg.dev == nil {
			m.status = "Nothing to rotate: enable at least two devices"
			return m, nil
		}
		m.status = "Switched to " + msg.dev.Name
		return m, m.fetchSnapshot()

	case eventMsg:
		// The daemon changed state, possibly from another surface.
		return m, tea.Batch(m.fetchSnapshot(), m.waitForEvent())

	case streamClosedMsg:
		m.events = nil

	case errMsg:
		m.err = msg.err
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.devices)-1 {
			m.cursor++
		}
	case " ", "enter", "x":
		if len(m.devices) == 0 {
			return m, nil
		}
		return m, m.toggle(m.devices[m.cursor].ID)
	case "n", "tab":
		return m, m.advance()
	case "r":
		return m, m.refresh()
	}
	return m, nil
}

func (m *Model) setDevices(devices []models.PanelDevice) {
	m.devices = devices
	if m.cursor >= len(devices) {
		m.cursor = max(len(devices)-1, 0)
	}
}

func (m Model) fetchSnapshot() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.api.Snapshot(m.ctx)
		if err != nil {
			return errMsg{err}
		}
		return snapshotMsg(snap)
	}
}

func (m Model) toggle(id string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.api.Toggle(m.ctx, id)
		if err != nil {
			return errMsg{err}
		}
		status := ""
		if !res.Persisted {
			status = "Change applied but not saved to disk"
		}
		return devicesMsg{devices: res.Devices, status: status}
	}
}

func (m Model) advance() tea.Cmd {
	return func() tea.Msg {
		dev, err := m.api.Next(m.ctx)
		if err != nil {
			return errMsg{err}
		}
		return advancedMsg{dev}
	}
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		res, err := m.api.Refresh(m.ctx)
		if err != nil {
			return errMsg{err}
		}
		status := fmt.Sprintf("Found %d devices", len(res.Devices))
		if !res.PlatformAvailable {
			status = "Audio system unavailable"
		}
		return devicesMsg{devices: res.Devices, status: status}
	}
}

func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	ch := m.events
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.tooltip))
	b.WriteString("\n\n")

	switch {
	case !m.loaded && m.err == nil:
		b.WriteString(mutedStyle.Render("  Loading..."))
		b.WriteString("\n")
	case len(m.devices) == 0:
		b.WriteString(mutedStyle.Render("  No output devices found"))
		b.WriteString("\n")
	}

	for i, d := range m.devices {
		pointer := "  "
		if i == m.cursor {
			pointer = cursorStyle.Render("> ")
		}
		box := "[ ]"
		if d.Enabled {
			box = "[x]"
		}
		name := d.Name
		if !d.Enabled {
			name = mutedStyle.Render(name)
		}
		b.WriteString(pointer + box + " " + name)
		if d.IsCurrent {
			b.WriteString(currentStyle.Render("  (current)"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(mutedStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓:Select  space:Toggle  n:Next  r:Refresh  q:Quit"))
	b.WriteString("\n")
	return b.String()
}

// Run shows the panel until the user quits.
func Run(ctx context.Context, api API, events <-chan models.Event) error {
	_, err := tea.NewProgram(New(ctx, api, events)).Run()
	return err
}
