// Package models defines the data structures shared by the AudioFlip daemon,
// its HTTP surface, and its clients.
package models

import "sort"

// Device is an audio output device as reported by the platform enumerator.
// ID is opaque and stable; Name is a display label only.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PanelDevice is one row of the checklist rendered by a presentation surface.
type PanelDevice struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Enabled   bool   `json:"enabled"`
	IsCurrent bool   `json:"is_current"`
}

// RotationState is the single shared mutable record behind the rotation.
//
// AllDevices is the last enumeration in enumeration order, which is also the
// rotation order. EnabledDeviceIDs may hold ids absent from AllDevices; those
// are inert until the device reappears. CurrentDeviceID is empty when unknown
// and may name a device that is no longer enumerated.
type RotationState struct {
	AllDevices       []Device            `json:"all_devices"`
	EnabledDeviceIDs map[string]struct{} `json:"-"`
	CurrentDeviceID  string              `json:"current_device_id,omitempty"`
}

// NewRotationState builds a state from an enumeration, an enabled id list and
// the current default id.
func NewRotationState(devices []Device, enabled []string, current string) RotationState {
	s := RotationState{
		AllDevices:       make([]Device, len(devices)),
		EnabledDeviceIDs: make(map[string]struct{}, len(enabled)),
		CurrentDeviceID:  current,
	}
	copy(s.AllDevices, devices)
	for _, id := range enabled {
		s.EnabledDeviceIDs[id] = struct{}{}
	}
	return s
}

// IsEnabled reports whether id is in the enabled set.
func (s RotationState) IsEnabled(id string) bool {
	_, ok := s.EnabledDeviceIDs[id]
	return ok
}

// EnabledIDs returns the enabled set as a sorted slice.
func (s RotationState) EnabledIDs() []string {
	ids := make([]string, 0, len(s.EnabledDeviceIDs))
	for id := range s.EnabledDeviceIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Rotation returns the devices that are both enumerated and enabled, in
// enumeration order.
func (s RotationState) Rotation() []Device {
	rot := make([]Device, 0, len(s.AllDevices))
	for _, d := range s.AllDevices {
		if s.IsEnabled(d.ID) {
			rot = append(rot, d)
		}
	}
	return rot
}

// FindDevice returns the enumerated device with the given id, or nil.
func (s RotationState) FindDevice(id string) *Device {
	for i := range s.AllDevices {
		if s.AllDevices[i].ID == id {
			d := s.AllDevices[i]
			return &d
		}
	}
	return nil
}

// Project derives the checklist view. It never mutates s and always follows
// AllDevices order.
func (s RotationState) Project() []PanelDevice {
	view := make([]PanelDevice, len(s.AllDevices))
	for i, d := range s.AllDevices {
		view[i] = PanelDevice{
			ID:        d.ID,
			Name:      d.Name,
			Enabled:   s.IsEnabled(d.ID),
			IsCurrent: s.CurrentDeviceID != "" && s.CurrentDeviceID == d.ID,
		}
	}
	return view
}

// DeepCopy returns a copy that shares no memory with s.
func (s RotationState) DeepCopy() RotationState {
	next := RotationState{
		AllDevices:       make([]Device, len(s.AllDevices)),
		EnabledDeviceIDs: make(map[string]struct{}, len(s.EnabledDeviceIDs)),
		CurrentDeviceID:  s.CurrentDeviceID,
	}
	copy(next.AllDevices, s.AllDevices)
	for id := range s.EnabledDeviceIDs {
		next.EnabledDeviceIDs[id] = struct{}{}
	}
	return next
}

// Config is the persisted configuration: the enabled device ids only.
type Config struct {
	EnabledDeviceIDs []string `json:"enabled_device_ids"`
}

// DeepCopy returns a copy of c.
func (c Config) DeepCopy() Config {
	ids := make([]string, len(c.EnabledDeviceIDs))
	copy(ids, c.EnabledDeviceIDs)
	return Config{EnabledDeviceIDs: ids}
}

// Event kinds published on the event bus.
const (
	EventAdvance = "advance"
	EventToggle  = "toggle"
	EventRefresh = "refresh"

	// EventSnapshot is sent once to a new subscriber before any change.
	EventSnapshot = "snapshot"
)

// Event is a state change notification delivered to subscribers.
type Event struct {
	Kind    string        `json:"kind"`
	Devices []PanelDevice `json:"devices"`
	Current *Device       `json:"current,omitempty"`
	Tooltip string        `json:"tooltip"`
}

// Snapshot is the full view returned by GET /api.
type Snapshot struct {
	Devices     []PanelDevice `json:"devices"`
	Current     *Device       `json:"current,omitempty"`
	Tooltip     string        `json:"tooltip"`
	PanelHeight int           `json:"panel_height"`
}

// Info is the daemon information response.
type Info struct {
	Version    string `json:"version"`
	Hostname   string `json:"hostname"`
	Backend    string `json:"backend"`
	RealAudio  bool   `json:"real_audio"`
	ConfigPath string `json:"config_path"`

	// Subscribers counts open event streams, including the notifier.
	Subscribers int `json:"subscribers"`
}
