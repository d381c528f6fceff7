package controller

import (
	"context"
	"log/slog"
	"strings"

	"github.com/easyaudioflip/audioflip/internal/models"
)

// ToggleResult is the outcome of an enabled-set mutation.
//
// Devices is always the post-mutation view. PersistErr is non-nil when the
// config write failed; the mutation stays in effect regardless, so callers
// may log it but must not treat it as a failure of the toggle.
type ToggleResult struct {
	Devices    []models.PanelDevice
	PersistErr *models.AppError
}

// RefreshResult is the outcome of a re-enumeration. PlatformErr is non-nil
// when enumeration failed and the device list degraded to empty.
type RefreshResult struct {
	Devices     []models.PanelDevice
	PlatformErr *models.AppError
}

// SetEnabled adds or removes id from the enabled set and persists the whole
// set. Repeating the same call is a no-op on the set but still rewrites the config.
func (c *Controller) SetEnabled(id string, enabled bool) (ToggleResult, *models.AppError) {
	if strings.TrimSpace(id) == "" {
		return ToggleResult{}, models.ErrBadRequest("device id is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setEnabledLocked(id, enabled), nil
}

// ToggleEnabled flips the membership of id in the enabled set.
func (c *Controller) ToggleEnabled(id string) (ToggleResult, *models.AppError) {
	if strings.TrimSpace(id) == "" {
		return ToggleResult{}, models.ErrBadRequest("device id is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setEnabledLocked(id, !c.state.IsEnabled(id)), nil
}

func (c *Controller) setEnabledLocked(id string, enabled bool) ToggleResult {
	if enabled {
		c.state.EnabledDeviceIDs[id] = struct{}{}
	} else {
		delete(c.state.EnabledDeviceIDs, id)
	}

	var res ToggleResult
	if err := c.store.Save(&models.Config{EnabledDeviceIDs: c.state.EnabledIDs()}); err != nil {
		slog.Warn("controller: config write failed, keeping in-memory change", "path", c.store.Path(), "err", err)
		res.PersistErr = models.ErrPersistenceFailed(err)
	}

	slog.Debug("controller: device enablement changed", "id", id, "enabled", enabled)
	res.Devices = c.state.Project()
	c.publish(models.EventToggle)
	return res
}

// Refresh re-enumerates devices and replaces the device list wholesale.
// A failed enumeration degrades to an empty device list.
func (c *Controller) Refresh(ctx context.Context) RefreshResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res RefreshResult
	devices, err := c.backend.Enumerate(ctx)
	if err != nil {
		slog.Warn("controller: device enumeration failed", "backend", c.backend.Name(), "err", err)
		res.PlatformErr = models.ErrPlatformUnavailable(err)
		devices = nil
	}
	c.replaceDevicesLocked(devices)
	res.Devices = c.state.Project()
	return res
}

// ReplaceDevices installs a new enumeration. The enabled set and the current
// id are kept; entries that no longer match a device become inert.
func (c *Controller) ReplaceDevices(devices []models.Device) []models.PanelDevice {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceDevicesLocked(devices)
	return c.state.Project()
}

func (c *Controller) replaceDevicesLocked(devices []models.Device) {
	all := make([]models.Device, len(devices))
	copy(all, devices)
	c.state.AllDevices = all
	slog.Debug("controller: device list replaced", "devices", len(all))
	c.publish(models.EventRefresh)
}
