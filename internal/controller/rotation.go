package controller

import (
	"context"
	"log/slog"

	"github.com/easyaudioflip/audioflip/internal/models"
)

// Advance switches the OS default to the next device in the rotation.
//
// It returns (nil, nil) when fewer than two devices are eligible. The
// set-default call runs under the state lock and current_device_id is only
// updated after it succeeds; on failure the state is left untouched and
// ErrDefaultSetFailed is returned.
//
// The current id is never re-read from the OS first, so an external change
// of the default is not noticed until the cycle passes it again.
func (c *Controller) Advance(ctx context.Context) (*models.Device, *models.AppError) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, ok := nextInRotation(c.state)
	if !ok {
		slog.Debug("controller: rotation has fewer than two devices, nothing to do")
		return nil, nil
	}

	if err := c.backend.SetDefault(ctx, next.ID); err != nil {
		slog.Warn("controller: set default failed", "id", next.ID, "err", err)
		return nil, models.ErrDefaultSetFailed(next.ID, err)
	}

	c.state.CurrentDeviceID = next.ID
	slog.Info("controller: default device changed", "id", next.ID, "name", next.Name)
	c.publish(models.EventAdvance)
	return &next, nil
}

// nextInRotation picks the device after the current one, wrapping around.
// An unknown or stale current id starts the cycle at the first slot.
func nextInRotation(s models.RotationState) (models.Device, bool) {
	rot := s.Rotation()
	if len(rot) < 2 {
		return models.Device{}, false
	}

	idx := -1
	for i, d := range rot {
		if d.ID == s.CurrentDeviceID {
			idx = i
			break
		}
	}
	return rot[(idx+1)%len(rot)], true
}
