// Package api implements the AudioFlip HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/easyaudioflip/audioflip/internal/controller"
	"github.com/easyaudioflip/audioflip/internal/models"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctrl   Controller
	events EventBus
	quit   func()
}

// Controller is the interface the handlers use to drive the rotation.
type Controller interface {
	View() []models.PanelDevice
	Snapshot() models.Snapshot
	CurrentDevice() *models.Device
	SetEnabled(id string, enabled bool) (controller.ToggleResult, *models.AppError)
	ToggleEnabled(id string) (controller.ToggleResult, *models.AppError)
	Advance(ctx context.Context) (*models.Device, *models.AppError)
	Refresh(ctx context.Context) controller.RefreshResult
	GetInfo() models.Info
}

// EventBus is the interface for subscribing to state change events.
type EventBus interface {
	Subscribe(id string) <-chan models.Event
	Unsubscribe(id string)
}

// DeviceList is the body of every endpoint that returns the checklist.
type DeviceList struct {
	Devices []models.PanelDevice `json:"devices"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an AppError as a JSON response.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if appErr, ok := err.(*models.AppError); ok {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.ErrInternal(err.Error()))
}

// deviceID reads the {id} path parameter. chi matches on RawPath when the
// request has one (e.g. an escaped "/"), leaving the param encoded; otherwise
// the param is already decoded and must be taken as is.
func deviceID(r *http.Request) (string, *models.AppError) {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath != "" {
		var err error
		if id, err = url.PathUnescape(id); err != nil {
			return "", models.ErrBadRequest("invalid device id: " + err.Error())
		}
	}
	if strings.TrimSpace(id) == "" {
		return "", models.ErrBadRequest("device id is required")
	}
	return id, nil
}
