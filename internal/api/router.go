package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/easyaudioflip/audioflip/internal/auth"
)

// NewRouter creates and returns the main HTTP router. quit is called once a
// POST /api/quit has been acknowledged; it may be nil.
func NewRouter(ctrl Controller, authSvc *auth.Service, bus EventBus, quit func()) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{ctrl: ctrl, events: bus, quit: quit}

	r.Group(func(r chi.Router) {
		r.Use(authSvc.Middleware)

		r.Get("/api", h.getSnapshot)
		r.Get("/api/", h.getSnapshot)

		// Devices
		r.Get("/api/devices", h.getDevices)
		r.Patch("/api/devices/{id}", h.setDevice)
		r.Post("/api/devices/{id}/toggle", h.toggleDevice)

		// Rotation
		r.Post("/api/next", h.advance)
		r.Post("/api/refresh", h.refresh)

		// System
		r.Get("/api/info", h.getInfo)
		r.Get("/api/icon.png", h.getIcon)
		r.Post("/api/quit", h.quitDaemon)

		// SSE
		r.Get("/api/subscribe", h.sseEvents)
	})

	return r
}

// corsMiddleware adds permissive CORS headers for local clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+auth.HeaderAPIKey)
		w.Header().Set("Access-Control-Expose-Headers", headerConfigPersisted+", "+headerPlatformAvailable)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
