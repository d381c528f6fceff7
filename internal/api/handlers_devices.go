package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/easyaudioflip/audioflip/internal/controller"
	"github.com/easyaudioflip/audioflip/internal/models"
)

const (
	headerConfigPersisted   = "X-Config-Persisted"
	headerPlatformAvailable = "X-Platform-Available"
)

func (h *Handlers) getDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, DeviceList{Devices: h.ctrl.View()})
}

func (h *Handlers) toggleDevice(w http.ResponseWriter, r *http.Request) {
	id, appErr := deviceID(r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	res, appErr := h.ctrl.ToggleEnabled(id)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeToggleResult(w, res)
}

func (h *Handlers) setDevice(w http.ResponseWriter, r *http.Request) {
	id, appErr := deviceID(r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	var upd models.EnabledUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, models.ErrBadRequest("invalid JSON: "+err.Error()))
		return
	}
	if upd.Enabled == nil {
		writeError(w, models.ErrBadRequest("enabled is required"))
		return
	}
	res, appErr := h.ctrl.SetEnabled(id, *upd.Enabled)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeToggleResult(w, res)
}

// writeToggleResult answers 200 even when the config write failed: the
// in-memory change already took effect. The header tells clients whether it
// will survive a restart.
func writeToggleResult(w http.ResponseWriter, res controller.ToggleResult) {
	w.Header().Set(headerConfigPersisted, strconv.FormatBool(res.PersistErr == nil))
	writeJSON(w, http.StatusOK, DeviceList{Devices: res.Devices})
}

func (h *Handlers) advance(w http.ResponseWriter, r *http.Request) {
	dev, appErr := h.ctrl.Advance(r.Context())
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	if dev == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (h *Handlers) refresh(w http.ResponseWriter, r *http.Request) {
	res := h.ctrl.Refresh(r.Context())
	w.Header().Set(headerPlatformAvailable, strconv.FormatBool(res.PlatformErr == nil))
	writeJSON(w, http.StatusOK, DeviceList{Devices: res.Devices})
}
