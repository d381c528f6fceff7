package api

import (
	"log/slog"
	"net/http"

	"github.com/easyaudioflip/audioflip/internal/icon"
	"github.com/easyaudioflip/audioflip/internal/models"
)

func (h *Handlers) getSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

func (h *Handlers) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.GetInfo())
}

// getIcon renders the status icon for the current device.
func (h *Handlers) getIcon(w http.ResponseWriter, r *http.Request) {
	data, err := icon.PNG(h.ctrl.CurrentDevice())
	if err != nil {
		writeError(w, models.ErrInternal("render icon: "+err.Error()))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// quitDaemon acknowledges the request before triggering shutdown, so the
// client gets its response before the listener closes.
func (h *Handlers) quitDaemon(w http.ResponseWriter, r *http.Request) {
	if h.quit == nil {
		writeError(w, models.ErrNotFound("quit is not available"))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "shutting down"})
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	slog.Info("api: quit requested", "remote", r.RemoteAddr)
	go h.quit()
}
