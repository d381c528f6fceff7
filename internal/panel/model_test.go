package panel_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/easyaudioflip/audioflip/internal/client"
	"github.com/easyaudioflip/audioflip/internal/models"
	"github.com/easyaudioflip/audioflip/internal/panel"
)

// fakeAPI keeps a tiny rotation of its own so the panel sees real transitions.
type fakeAPI struct {
	devices   []models.PanelDevice
	toggled   []string
	nexts     int
	failNext  bool
	persisted bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		persisted: true,
		devices: []models.PanelDevice{
			{ID: "spk", Name: "Speakers", Enabled: true, IsCurrent: true},
			{ID: "hp", Name: "Headphones", Enabled: true},
		},
	}
}

func (f *fakeAPI) copyDevices() []models.PanelDevice {
	return append([]models.PanelDevice(nil), f.devices...)
}

func (f *fakeAPI) Snapshot(ctx context.Context) (models.Snapshot, error) {
	snap := models.Snapshot{Devices: f.copyDevices(), Tooltip: "AudioFlip"}
	for _, d := range f.devices {
		if d.IsCurrent {
			snap.Current = &models.Device{ID: d.ID, Name: d.Name}
			snap.Tooltip = "AudioFlip - " + d.Name
		}
	}
	return snap, nil
}

func (f *fakeAPI) Toggle(ctx context.Context, id string) (client.ToggleResult, error) {
	f.toggled = append(f.toggled, id)
	for i := range f.devices {
		if f.devices[i].ID == id {
			f.devices[i].Enabled = !f.devices[i].Enabled
		}
	}
	return client.ToggleResult{Devices: f.copyDevices(), Persisted: f.persisted}, nil
}

func (f *fakeAPI) Next(ctx context.Context) (*models.Device, error) {
	f.nexts++
	if f.failNext {
		return nil, &models.AppError{Code: models.CodeDefaultSetFailed, Message: "set failed"}
	}
	return &models.Device{ID: "hp", Name: "Headphones"}, nil
}

func (f *fakeAPI) Refresh(ctx context.Context) (client.RefreshResult, error) {
	return client.RefreshResult{Devices: f.copyDevices(), PlatformAvailable: true}, nil
}

// step feeds msg to m and runs the resulting command chain until it settles.
// Batched commands (which include blocking event waits) are not followed.
func step(t *testing.T, m tea.Model, msg tea.Msg) tea.Model {
	t.Helper()
	for i := 0; i < 10 && msg != nil; i++ {
		var cmd tea.Cmd
		m, cmd = m.Update(msg)
		if cmd == nil {
			return m
		}
		msg = cmd()
		if _, batch := msg.(tea.BatchMsg); batch {
			return m
		}
		if _, quit := msg.(tea.QuitMsg); quit {
			return m
		}
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// runInit delivers everything Init asks for. Only usable when the panel has
// no event stream, since waiting on one would block.
func runInit(t *testing.T, m panel.Model) tea.Model {
	t.Helper()
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init returned nil")
	}
	var next tea.Model = m
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				next = step(t, next, c())
			}
		}
		return next
	}
	return step(t, next, msg)
}

func loaded(t *testing.T, api panel.API) tea.Model {
	t.Helper()
	return runInit(t, panel.New(context.Background(), api, nil))
}

func TestPanel_LoadsDevices(t *testing.T) {
	m := loaded(t, newFakeAPI()).(panel.Model)

	if len(m.Devices()) != 2 {
		t.Fatalf("Devices = %+v", m.Devices())
	}
	view := m.View()
	for _, want := range []string{"AudioFlip - Speakers", "[x] Speakers", "(current)", "Headphones"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestPanel_ToggleSelectedRow(t *testing.T) {
	api := newFakeAPI()
	m := loaded(t, api)

	m = step(t, m, key("down"))
	if got := m.(panel.Model).Cursor(); got != 1 {
		t.Fatalf("Cursor = %d, want 1", got)
	}
	m = step(t, m, key(" "))

	if len(api.toggled) != 1 || api.toggled[0] != "hp" {
		t.Fatalf("toggled = %v, want [hp]", api.toggled)
	}
	rows := m.(panel.Model).Devices()
	if rows[1].Enabled {
		t.Error("hp row still enabled")
	}
	if !strings.Contains(m.View(), "[ ] ") {
		t.Errorf("view has no unchecked row:\n%s", m.View())
	}
}

func TestPanel_CursorBounds(t *testing.T) {
	m := loaded(t, newFakeAPI())
	m = step(t, m, key("up"))
	if got := m.(panel.Model).Cursor(); got != 0 {
		t.Errorf("Cursor = %d after up at top", got)
	}
	m = step(t, m, key("down"))
	m = step(t, m, key("down"))
	if got := m.(panel.Model).Cursor(); got != 1 {
		t.Errorf("Cursor = %d after moving past bottom", got)
	}
}

func TestPanel_NotSavedStatus(t *testing.T) {
	api := newFakeAPI()
	api.persisted = false
	m := loaded(t, api)

	m = step(t, m, key(" "))
	if !strings.Contains(m.View(), "not saved") {
		t.Errorf("view does not report failed save:\n%s", m.View())
	}
}

func TestPanel_Next(t *testing.T) {
	api := newFakeAPI()
	m := loaded(t, api)

	m = step(t, m, key("n"))
	if api.nexts != 1 {
		t.Fatalf("Next called %d times", api.nexts)
	}
	if !strings.Contains(m.View(), "Switched to Headphones") {
		t.Errorf("view:\n%s", m.View())
	}
}

func TestPanel_NextError(t *testing.T) {
	api := newFakeAPI()
	api.failNext = true
	m := loaded(t, api)

	m = step(t, m, key("n"))
	if !strings.Contains(m.View(), "Error: set failed") {
		t.Errorf("view does not show error:\n%s", m.View())
	}
}

func TestPanel_Quit(t *testing.T) {
	m := loaded(t, newFakeAPI())
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestPanel_EventTriggersRefetch(t *testing.T) {
	api := newFakeAPI()
	events := make(chan models.Event, 1)
	m := panel.New(context.Background(), api, events)

	batch, ok := m.Init()().(tea.BatchMsg)
	if !ok || len(batch) != 2 {
		t.Fatalf("Init did not batch fetch and event wait")
	}
	next, _ := m.Update(batch[0]())
	if !strings.Contains(next.View(), "AudioFlip - Speakers") {
		t.Fatalf("initial view:\n%s", next.View())
	}

	// A change made from another surface.
	api.devices[0].IsCurrent = false
	api.devices[1].IsCurrent = true
	events <- models.Event{Kind: models.EventAdvance}

	next, cmd := next.Update(batch[1]())
	if cmd == nil {
		t.Fatal("event produced no command")
	}
	inner, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatal("event did not refetch and keep listening")
	}
	next, _ = next.Update(inner[0]())
	if !strings.Contains(next.View(), "AudioFlip - Headphones") {
		t.Errorf("view not refreshed:\n%s", next.View())
	}
}

func TestPanel_StreamClosed(t *testing.T) {
	events := make(chan models.Event)
	close(events)
	m := panel.New(context.Background(), newFakeAPI(), events)

	batch := m.Init()().(tea.BatchMsg)
	next, cmd := m.Update(batch[1]())
	if cmd != nil {
		t.Error("closed stream should not be waited on again")
	}
	if next == nil {
		t.Fatal("Update returned nil model")
	}
}

func TestPanel_ErrorsShown(t *testing.T) {
	next := loaded(t, errAPI{})
	if !strings.Contains(next.View(), "daemon not running") {
		t.Errorf("view:\n%s", next.View())
	}
}

type errAPI struct{}

func (errAPI) Snapshot(context.Context) (models.Snapshot, error) {
	return models.Snapshot{}, errors.New("daemon not running")
}
func (errAPI) Toggle(context.Context, string) (client.ToggleResult, error) {
	return client.ToggleResult{}, errors.New("daemon not running")
}
func (errAPI) Next(context.Context) (*models.Device, error) {
	return nil, errors.New("daemon not running")
}
func (errAPI) Refresh(context.Context) (client.RefreshResult, error) {
	return client.RefreshResult{}, errors.New("daemon not running")
}
