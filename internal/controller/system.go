package controller

import (
	"github.com/easyaudioflip/audioflip/internal/identity"
	"github.com/easyaudioflip/audioflip/internal/models"
)

// GetInfo returns daemon information.
func (c *Controller) GetInfo() models.Info {
	info := models.Info{
		Version:    identity.GetVersion(),
		Hostname:   identity.GetHostname(),
		Backend:    c.backend.Name(),
		RealAudio:  c.backend.IsReal(),
		ConfigPath: c.store.Path(),
	}
	if c.bus != nil {
		info.Subscribers = c.bus.SubscriberCount()
	}
	return info
}
