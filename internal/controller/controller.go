// Package controller implements the AudioFlip rotation state machine: the
// single source of truth for the device list, the enabled set and the
// current default device.
package controller

import (
	"context"
	"log/slog"
	"sync"

	"github.com/easyaudioflip/audioflip/internal/audio"
	"github.com/easyaudioflip/audioflip/internal/config"
	"github.com/easyaudioflip/audioflip/internal/events"
	"github.com/easyaudioflip/audioflip/internal/models"
)

// Controller owns the RotationState. Every operation, including reads,
// runs under one mutex; contention only comes from human-triggered events.
type Controller struct {
	mu      sync.Mutex
	state   models.RotationState
	backend audio.Backend
	store   config.Store
	bus     *events.Bus
}

// New loads the persisted enabled set, enumerates devices and reads the
// current default. Platform and persistence failures degrade to an empty
// device list, an unknown current device, or an empty config; New never fails.
//
// An empty persisted set enables every enumerated device. An explicitly saved
// empty set is indistinguishable from a fresh install.
func New(ctx context.Context, backend audio.Backend, store config.Store, bus *events.Bus) *Controller {
	c := &Controller{
		backend: backend,
		store:   store,
		bus:     bus,
	}

	cfg, err := store.Load()
	if err != nil {
		slog.Warn("controller: cannot load config, starting with empty set", "path", store.Path(), "err", err)
		cfg = &models.Config{}
	}

	devices, err := backend.Enumerate(ctx)
	if err != nil {
		slog.Warn("controller: device enumeration failed, starting with no devices", "backend", backend.Name(), "err", err)
		devices = nil
	}

	current, err := backend.DefaultDevice(ctx)
	if err != nil {
		slog.Warn("controller: cannot read default device", "backend", backend.Name(), "err", err)
		current = ""
	}

	enabled := cfg.EnabledDeviceIDs
	if len(enabled) == 0 {
		enabled = make([]string, 0, len(devices))
		for _, d := range devices {
			enabled = append(enabled, d.ID)
		}
	}

	c.mu.Lock()
	c.state = models.NewRotationState(devices, enabled, current)
	c.mu.Unlock()

	slog.Info("controller: initialized",
		"devices", len(devices),
		"enabled", len(enabled),
		"current", current,
	)
	return c
}

// State returns a deep copy of the current rotation state.
func (c *Controller) State() models.RotationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.DeepCopy()
}

// View returns the checklist projection of the current state.
func (c *Controller) View() []models.PanelDevice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Project()
}

// publish must be called with c.mu held.
func (c *Controller) publish(kind string) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(models.Event{
		Kind:    kind,
		Devices: c.state.Project(),
		Current: c.state.FindDevice(c.state.CurrentDeviceID),
		Tooltip: tooltip(c.state),
	})
}
