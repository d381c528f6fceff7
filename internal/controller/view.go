package controller

import (
	"github.com/easyaudioflip/audioflip/internal/models"
)

const (
	appName = "AudioFlip"

	panelRowHeight   = 32
	panelChromeExtra = 96
	panelMinHeight   = 120
)

// CurrentDevice returns the current device if it is enumerated, or nil.
func (c *Controller) CurrentDevice() *models.Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.FindDevice(c.state.CurrentDeviceID)
}

// Snapshot returns everything a presentation surface needs in one read.
func (c *Controller) Snapshot() models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.Snapshot{
		Devices:     c.state.Project(),
		Current:     c.state.FindDevice(c.state.CurrentDeviceID),
		Tooltip:     tooltip(c.state),
		PanelHeight: PanelHeight(len(c.state.AllDevices)),
	}
}

// PanelHeight is the checklist panel height in logical pixels for n rows.
func PanelHeight(n int) int {
	return max(n*panelRowHeight+panelChromeExtra, panelMinHeight)
}

func tooltip(s models.RotationState) string {
	if s.CurrentDeviceID == "" {
		return appName
	}
	if d := s.FindDevice(s.CurrentDeviceID); d != nil {
		return appName + " - " + d.Name
	}
	return appName + " - Unknown"
}
